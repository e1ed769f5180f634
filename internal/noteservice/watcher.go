package noteservice

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/models"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, noteID string)

// Watch starts an fsnotify watcher on the vault root and processes file
// change events until ctx is cancelled. Every index mutation also refreshes
// the changed note's link graph. cb (if non-nil) runs after each mutation.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that removes stale
// index entries whose files no longer exist on disk.
func (s *Service) Watch(ctx context.Context, vaultRoot string, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	s.logger.Info("watcher: started", slog.String("root", vaultRoot))

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			s.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			s.reconcileAfterRename(cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						s.logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					s.indexNewDir(vaultRoot, absPath, cb)
					continue
				}
			}

			if !strings.HasSuffix(absPath, ".md") {
				continue
			}

			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			noteID := models.SourceNoteFromPath(rel, nil).ID

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := s.store.Read(rel)
				if readErr != nil {
					s.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := s.IndexNote(models.SourceNoteFromPath(rel, data)); idxErr != nil {
					s.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				s.logger.Debug("watcher: indexed", slog.String("id", noteID), slog.String("op", kind))
				if cb != nil {
					cb(kind, noteID)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := s.db.DeleteNote(noteID); delErr != nil {
					s.logger.Warn("watcher: delete failed", slog.String("id", noteID), slog.String("error", delErr.Error()))
					continue
				}
				s.logger.Debug("watcher: deleted", slog.String("id", noteID))
				if cb != nil {
					cb("deleted", noteID)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only; the new path
				// arrives as a separate Create event. Delete the old entry
				// now and schedule reconciliation for stragglers.
				if delErr := s.db.DeleteNote(noteID); delErr != nil {
					s.logger.Warn("watcher: rename delete failed", slog.String("id", noteID), slog.String("error", delErr.Error()))
				} else {
					if cb != nil {
						cb("deleted", noteID)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcileAfterRename removes index entries without a file on disk and
// indexes on-disk files whose content hash drifted.
func (s *Service) reconcileAfterRename(cb EventCallback) {
	hashes, err := s.db.AllContentHashes()
	if err != nil {
		s.logger.Warn("reconcile: content hashes failed", slog.String("error", err.Error()))
		return
	}

	infos, err := s.store.List("")
	if err != nil {
		s.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	type diskEntry struct {
		path        string
		fingerprint string
	}
	disk := make(map[string]diskEntry, len(infos))
	for _, info := range infos {
		id := models.SourceNoteFromPath(info.Path, nil).ID
		disk[id] = diskEntry{path: info.Path, fingerprint: info.Fingerprint}
	}

	for id := range hashes {
		if _, ok := disk[id]; !ok {
			if delErr := s.db.DeleteNote(id); delErr == nil {
				s.logger.Debug("reconcile: removed stale", slog.String("id", id))
				if cb != nil {
					cb("deleted", id)
				}
			}
		}
	}

	for id, entry := range disk {
		if hashes[id] == entry.fingerprint {
			continue
		}
		data, readErr := s.store.Read(entry.path)
		if readErr != nil {
			continue
		}
		if idxErr := s.IndexNote(models.SourceNoteFromPath(entry.path, data)); idxErr == nil {
			s.logger.Debug("reconcile: indexed", slog.String("id", id))
			if cb != nil {
				cb("created", id)
			}
		}
	}
}

// indexNewDir indexes any .md files found in a newly created directory.
func (s *Service) indexNewDir(vaultRoot, dirPath string, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(vaultRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		data, readErr := s.store.Read(rel)
		if readErr != nil {
			return nil
		}
		src := models.SourceNoteFromPath(rel, data)
		if idxErr := s.IndexNote(src); idxErr == nil {
			s.logger.Debug("watcher: indexed from new dir", slog.String("id", src.ID))
			if cb != nil {
				cb("created", src.ID)
			}
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
