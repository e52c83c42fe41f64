package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/spec-kit/support-relay/internal/domain"
)

type faqFile struct {
	Entries []domain.FAQEntry `yaml:"entries"`
}

// FAQStore serves localized FAQ entries from YAML files named
// faq_<lang>.yaml inside a directory. The files are re-read when they change
// on disk, so edits land without a restart.
type FAQStore struct {
	dir    string
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[domain.Language][]domain.FAQEntry
}

// NewFAQStore loads every FAQ file in dir. A missing directory is an error;
// a single malformed file only disables that language.
func NewFAQStore(dir string, logger *zap.Logger) (*FAQStore, error) {
	store := &FAQStore{
		dir:     dir,
		logger:  logger,
		entries: make(map[domain.Language][]domain.FAQEntry),
	}
	if err := store.reload(); err != nil {
		return nil, err
	}
	return store, nil
}

// Entries returns the FAQ list for the language, falling back to Russian.
func (s *FAQStore) Entries(lang domain.Language) []domain.FAQEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.entries[lang]
	if !ok || len(entries) == 0 {
		entries = s.entries[domain.LanguageRU]
	}
	out := make([]domain.FAQEntry, len(entries))
	copy(out, entries)
	return out
}

// Watch re-reads the directory whenever a FAQ file is written, until the
// context is cancelled.
func (s *FAQStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if !strings.HasSuffix(event.Name, ".yaml") {
					continue
				}
				if err := s.reload(); err != nil {
					s.logger.Warn("faq reload failed", zap.Error(err))
					continue
				}
				s.logger.Info("faq reloaded", zap.String("file", filepath.Base(event.Name)))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("faq watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func (s *FAQStore) reload() error {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read faq dir %s: %w", s.dir, err)
	}

	loaded := make(map[domain.Language][]domain.FAQEntry)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		name := file.Name()
		if !strings.HasPrefix(name, "faq_") || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		lang := domain.Language(strings.TrimSuffix(strings.TrimPrefix(name, "faq_"), ".yaml"))

		raw, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("faq file unreadable", zap.String("file", name), zap.Error(err))
			continue
		}
		var parsed faqFile
		if err := yaml.Unmarshal(raw, &parsed); err != nil {
			s.logger.Warn("faq file malformed", zap.String("file", name), zap.Error(err))
			continue
		}
		loaded[lang] = parsed.Entries
	}

	if len(loaded[domain.LanguageRU]) == 0 {
		return fmt.Errorf("faq dir %s has no usable faq_ru.yaml", s.dir)
	}

	s.mu.Lock()
	s.entries = loaded
	s.mu.Unlock()
	return nil
}
