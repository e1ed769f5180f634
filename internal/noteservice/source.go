package noteservice

import (
	"fmt"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// VaultSource adapts a storage.Provider into the (id, content) note source
// consumed by migrations and batch link extraction.
type VaultSource struct {
	store storage.Provider
}

// NewVaultSource creates a VaultSource over the given vault.
func NewVaultSource(store storage.Provider) *VaultSource {
	return &VaultSource{store: store}
}

// AllNotes reads every note in the vault.
func (v *VaultSource) AllNotes() ([]models.SourceNote, error) {
	infos, err := v.store.List("")
	if err != nil {
		return nil, fmt.Errorf("noteservice: list vault: %w", err)
	}
	out := make([]models.SourceNote, 0, len(infos))
	for _, info := range infos {
		data, err := v.store.Read(info.Path)
		if err != nil {
			return nil, fmt.Errorf("noteservice: read %s: %w", info.Path, err)
		}
		out = append(out, models.SourceNoteFromPath(info.Path, data))
	}
	return out, nil
}
