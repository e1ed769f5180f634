package migrate

import (
	"strconv"
	"strings"
)

// CompareVersions compares two dot-separated numeric versions left to right.
// Missing components are treated as zero. Returns -1, 0, or 1.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := component(as, i), component(bs, i)
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// IsVersionNewer reports whether a is strictly newer than b.
func IsVersionNewer(a, b string) bool {
	return CompareVersions(a, b) > 0
}

func component(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
	if err != nil {
		return 0
	}
	return v
}
