package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Source holds the encoded audio buffer the pump streams from. The buffer
// is replaced wholesale on reload; readers get a stable reference and never
// observe a partial write.
type Source struct {
	path string

	mu   sync.RWMutex
	data []byte
}

// NewSource loads the file at path. Files that are not already MP3 are
// transcoded through ffmpeg at load time (the relay itself never encodes).
func NewSource(path string) (*Source, error) {
	s := &Source{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Bytes returns the current encoded buffer. Callers must treat it as
// read-only; a concurrent reload swaps the slice, it never mutates it.
func (s *Source) Bytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Reload re-reads (and if needed re-encodes) the backing file.
func (s *Source) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read audio source: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(s.path), ".mp3") {
		raw, err = TranscodeMP3(context.Background(), s.path)
		if err != nil {
			return fmt.Errorf("transcode audio source: %w", err)
		}
	}
	s.mu.Lock()
	s.data = raw
	s.mu.Unlock()
	log.Info().Str("module", "audio.source").Str("path", s.path).Int("bytes", len(raw)).Msg("audio source loaded")
	return nil
}

// Watch reloads the source whenever the backing file changes on disk.
// Blocks until ctx is done; run it on its own goroutine.
func (s *Source) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("audio watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file by rename, which
	// would silently detach a watch on the file itself.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("audio watcher add: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != s.path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Reload(); err != nil {
				log.Error().Err(err).Str("module", "audio.source").Msg("reload after change failed, keeping previous buffer")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Str("module", "audio.source").Msg("watcher error")
		}
	}
}
