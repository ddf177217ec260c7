package lexicon

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ufdr-assistant/go/orchestrator/internal/metrics"
)

// Store holds the active lexicon. Queries take a Snapshot once and use it
// for their whole lifetime, so a reload never changes a query in flight.
type Store struct {
	current atomic.Pointer[Lexicon]
	path    string
	logger  *zap.Logger
}

// NewStore loads path (or the defaults when path is empty)
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{path: path, logger: logger}
	lex := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		lex = loaded
	}
	s.current.Store(lex)
	return s, nil
}

// NewStaticStore wraps a fixed lexicon
func NewStaticStore(lex *Lexicon) *Store {
	s := &Store{logger: zap.NewNop()}
	s.current.Store(lex)
	return s
}

// Snapshot returns the lexicon to use for one query
func (s *Store) Snapshot() *Lexicon {
	return s.current.Load()
}

// Reload re-reads the file; on error the previous lexicon stays active
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	lex, err := Load(s.path)
	if err != nil {
		metrics.LexiconReloads.WithLabelValues("error").Inc()
		return err
	}
	s.current.Store(lex)
	metrics.LexiconReloads.WithLabelValues("ok").Inc()
	s.logger.Info("Lexicon reloaded",
		zap.String("path", s.path),
		zap.Int("suspicious_terms", len(lex.SuspiciousTerms)),
	)
	return nil
}

// Watch reloads the lexicon whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file by
// rename are picked up too.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch lexicon directory: %w", err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.Warn("Lexicon reload failed, keeping previous tables",
						zap.String("path", s.path), zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("Lexicon watcher error", zap.Error(err))
			}
		}
	}()

	s.logger.Info("Watching lexicon file", zap.String("path", s.path))
	return nil
}
