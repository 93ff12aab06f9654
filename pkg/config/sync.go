package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vintner/vintner/pkg/telemetry"
	"github.com/vintner/vintner/pkg/werrors"
)

// EnsureCacheInitialized mirrors the read-only descriptor tree into the
// user cache. Sync runs when the cache is absent or the source tree has
// newer modifications; the cache is never deleted, only files within
// category subdirectories are overwritten.
func (c *Config) EnsureCacheInitialized(log *telemetry.Logger) error {
	source := c.sourceVerbsDir()
	if source == "" {
		log.Debug("no source descriptor tree found, skipping sync")
		return nil
	}

	cached := c.CachedVerbsDir()
	if dirExists(cached) {
		srcMtime, err := newestMtime(source)
		if err != nil {
			return err
		}
		cacheMtime, err := newestMtime(cached)
		if err != nil {
			return err
		}
		if !srcMtime.After(cacheMtime) {
			log.Debug("descriptor cache is up to date")
			return nil
		}
	}

	return c.SyncVerbs(log)
}

// SyncVerbs copies every *.json descriptor from the source tree into the
// cache, preserving the <category>/<verb>.json layout.
func (c *Config) SyncVerbs(log *telemetry.Logger) error {
	source := c.sourceVerbsDir()
	if source == "" {
		return werrors.Config("no source descriptor tree found")
	}
	cached := c.CachedVerbsDir()

	var copied int
	err := filepath.WalkDir(source, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(cached, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := copyFile(path, dest); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return werrors.IO(err)
	}

	log.WithField("count", copied).Info("descriptor cache synced")
	return nil
}

// WatchVerbs mirrors the source tree once and re-syncs when descriptor
// files change, debounced. Blocks until ctx is cancelled.
func (c *Config) WatchVerbs(ctx context.Context, log *telemetry.Logger) error {
	source := c.sourceVerbsDir()
	if source == "" {
		return werrors.Config("no source descriptor tree found")
	}

	if err := c.SyncVerbs(log); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return werrors.IO(err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(source, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return werrors.IO(err)
	}

	log.WithField("source", source).Info("watching descriptor tree")

	var resyncTimer *time.Timer
	const resyncDelay = 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			if resyncTimer != nil {
				resyncTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			log.WithField("file", event.Name).Debug("descriptor changed")

			if resyncTimer != nil {
				resyncTimer.Stop()
			}
			resyncTimer = time.AfterFunc(resyncDelay, func() {
				if err := c.SyncVerbs(log); err != nil {
					log.WithError(err).Error("descriptor resync failed")
				}
			})

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(werr).Error("watcher error")
		}
	}
}

func newestMtime(root string) (time.Time, error) {
	var newest time.Time
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return time.Time{}, werrors.IO(err)
	}
	return newest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
