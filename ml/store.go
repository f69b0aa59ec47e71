package ml

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDebounce coalesces the burst of events an editor or copy produces.
const reloadDebounce = 200 * time.Millisecond

// LoadedModel is an immutable snapshot of a classifier and its encoder.
type LoadedModel struct {
	Classifier Classifier
	Encoder    *Encoder
	Generation uint64
	Source     string
	LoadedAt   time.Time
}

// Store holds the active model. Readers take a snapshot with Current; a reload
// swaps the whole snapshot, so an in-flight prediction keeps using the model
// it started with.
type Store struct {
	modelType string
	path      string
	logger    *zap.Logger

	current    atomic.Pointer[LoadedModel]
	generation atomic.Uint64

	hookMu   sync.RWMutex
	onReload func(err error)
}

func NewStore(modelType, path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{modelType: modelType, path: path, logger: logger}
}

// OnReload registers a callback invoked after every watch-triggered reload
// attempt with its error, nil on success.
func (s *Store) OnReload(fn func(err error)) {
	s.hookMu.Lock()
	s.onReload = fn
	s.hookMu.Unlock()
}

// Load reads the model file, makes it the active model and returns the
// installed snapshot.
func (s *Store) Load() (*LoadedModel, error) {
	model, err := LoadModel(s.modelType, s.path)
	if err != nil {
		return nil, err
	}
	loaded, err := s.Set(model, s.path)
	if err != nil {
		return nil, err
	}
	info := model.Info()
	s.logger.Info("model loaded",
		zap.String("path", s.path),
		zap.String("type", info.Type),
		zap.String("version", info.Version),
		zap.Int("features", len(info.FeatureNames)),
		zap.Uint64("generation", loaded.Generation),
	)
	return loaded, nil
}

// Set installs an already decoded classifier.
func (s *Store) Set(model Classifier, source string) (*LoadedModel, error) {
	encoder, err := NewEncoder(model.Info().FeatureNames)
	if err != nil {
		return nil, err
	}
	loaded := &LoadedModel{
		Classifier: model,
		Encoder:    encoder,
		Generation: s.generation.Add(1),
		Source:     source,
		LoadedAt:   time.Now(),
	}
	s.current.Store(loaded)
	return loaded, nil
}

func (s *Store) Current() (*LoadedModel, error) {
	loaded := s.current.Load()
	if loaded == nil {
		return nil, ErrModelNotLoaded
	}
	return loaded, nil
}

// Watch reloads the model whenever its file is written or replaced, until ctx
// is done. A failed reload keeps the previous model.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// watch the directory: atomic replaces drop a watch on the file itself
	target := filepath.Clean(s.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	s.logger.Info("watching model file", zap.String("path", target))

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(reloadDebounce, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(reloadDebounce)
			}
		case <-reload:
			_, err := s.Load()
			if err != nil {
				s.logger.Error("model reload failed, keeping previous model", zap.String("path", target), zap.Error(err))
			}
			s.hookMu.RLock()
			hook := s.onReload
			s.hookMu.RUnlock()
			if hook != nil {
				hook(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("model watcher error", zap.Error(err))
		}
	}
}
