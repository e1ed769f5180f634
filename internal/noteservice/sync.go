package noteservice

import (
	"log/slog"

	"github.com/starford/ansuz/internal/models"
)

// Sync walks the vault and brings the index and link graph up to date:
//   - new/changed files are parsed, indexed, and their links re-derived
//   - files removed from disk are deleted from the index
func (s *Service) Sync() error {
	infos, err := s.store.List("")
	if err != nil {
		return err
	}

	hashes, err := s.db.AllContentHashes()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		src := models.SourceNoteFromPath(info.Path, nil)
		disk[src.ID] = struct{}{}

		if hashes[src.ID] == info.Fingerprint {
			continue
		}

		data, err := s.store.Read(info.Path)
		if err != nil {
			s.logger.Warn("sync: read failed", slog.String("path", info.Path), slog.String("error", err.Error()))
			continue
		}
		src.Content = data
		if err := s.IndexNote(src); err != nil {
			s.logger.Warn("sync: index failed", slog.String("id", src.ID), slog.String("error", err.Error()))
		} else {
			s.logger.Debug("sync: indexed", slog.String("id", src.ID))
		}
	}

	// Remove stale entries.
	for id := range hashes {
		if _, ok := disk[id]; !ok {
			if err := s.db.DeleteNote(id); err != nil {
				s.logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				s.logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}
