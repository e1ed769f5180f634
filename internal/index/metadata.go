package index

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/starford/ansuz/internal/models"
)

// EncodeMetadataValue serializes a metadata value deterministically:
// arrays to canonical JSON, booleans and numbers to their textual form,
// everything else to a string.
func EncodeMetadataValue(v any) (string, models.ValueKind, error) {
	switch val := v.(type) {
	case bool:
		return strconv.FormatBool(val), models.ValueBoolean, nil
	case int:
		return strconv.Itoa(val), models.ValueNumber, nil
	case int64:
		return strconv.FormatInt(val, 10), models.ValueNumber, nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), models.ValueNumber, nil
	case time.Time:
		return val.UTC().Format(time.RFC3339), models.ValueDate, nil
	case []any:
		encoded, err := json.Marshal(val)
		if err != nil {
			return "", "", fmt.Errorf("index: encode array value: %w", err)
		}
		return string(encoded), models.ValueArray, nil
	case string:
		return val, models.ValueString, nil
	default:
		return fmt.Sprint(val), models.ValueString, nil
	}
}

// DecodeMetadataValue round-trips a serialized value back to its Go form.
func DecodeMetadataValue(value string, kind models.ValueKind) (any, error) {
	switch kind {
	case models.ValueBoolean:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("index: decode boolean %q: %w", value, err)
		}
		return b, nil
	case models.ValueNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("index: decode number %q: %w", value, err)
		}
		return n, nil
	case models.ValueDate:
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, fmt.Errorf("index: decode date %q: %w", value, err)
		}
		return t, nil
	case models.ValueArray:
		var arr []any
		if err := json.Unmarshal([]byte(value), &arr); err != nil {
			return nil, fmt.Errorf("index: decode array %q: %w", value, err)
		}
		return arr, nil
	default:
		return value, nil
	}
}

// MetadataFromMap converts an open key/value map (e.g. parsed frontmatter)
// into metadata entries, in sorted key order for determinism.
func MetadataFromMap(noteID string, m map[string]any) ([]models.MetadataEntry, error) {
	if len(m) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.MetadataEntry, 0, len(m))
	for _, k := range keys {
		value, kind, err := EncodeMetadataValue(m[k])
		if err != nil {
			return nil, err
		}
		out = append(out, models.MetadataEntry{NoteID: noteID, Key: k, Value: value, Kind: kind})
	}
	return out, nil
}

// MetadataFor returns the metadata bag for a note in key order.
func (db *DB) MetadataFor(noteID string) ([]models.MetadataEntry, error) {
	rows, err := db.conn.Query(`
		SELECT note_id, key, value, value_type FROM note_metadata
		WHERE note_id = ? ORDER BY key
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("index: metadata for: %w", err)
	}
	defer rows.Close()

	var out []models.MetadataEntry
	for rows.Next() {
		var m models.MetadataEntry
		var kind string
		if err := rows.Scan(&m.NoteID, &m.Key, &m.Value, &kind); err != nil {
			return nil, err
		}
		m.Kind = models.ValueKind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}
