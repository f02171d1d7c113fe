package kvstore

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

const snapshotFile = "kv-store.gob"

// Otter keeps entries in an otter cache and snapshots them to disk.
// With an empty directory it is memory-only.
type Otter struct {
	cache      *otter.Cache[string, string]
	logger     *slog.Logger
	saveCancel context.CancelFunc
	dir        string
	saveWg     sync.WaitGroup
	mu         sync.Mutex
}

var _ Store = (*Otter)(nil)

// NewOtter creates a disk-backed store in dir, loading any previous snapshot.
func NewOtter(ctx context.Context, dir string, logger *slog.Logger) (*Otter, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s := newOtter(dir, logger)

	if err := s.loadFromDisk(); err != nil {
		logger.Warn("failed to load store snapshot", "error", err)
	}
	logger.Info("store initialized", "dir", dir, "entries_loaded", s.cache.EstimatedSize())

	s.startPeriodicSave(ctx)

	return s, nil
}

// NewMemory creates a store that never touches the disk.
func NewMemory(logger *slog.Logger) *Otter {
	return newOtter("", logger)
}

func newOtter(dir string, logger *slog.Logger) *Otter {
	// No MaximumSize: entries leave only through the cache layer's expiry.
	cache := otter.Must(&otter.Options[string, string]{
		InitialCapacity: 1024,
	})
	return &Otter{
		cache:  cache,
		dir:    dir,
		logger: logger,
	}
}

// Get implements Store.
func (s *Otter) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	value, found := s.cache.GetIfPresent(key)
	return value, found, nil
}

// Set implements Store.
func (s *Otter) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Set(key, value)
	return nil
}

// Delete implements Store.
func (s *Otter) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Invalidate(key)
	return nil
}

func (s *Otter) loadFromDisk() error {
	path := filepath.Join(s.dir, snapshotFile)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no existing store snapshot found", "path", path)
			return nil
		}
		return fmt.Errorf("opening store snapshot: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			s.logger.Debug("failed to close store snapshot", "error", closeErr)
		}
	}()

	var entries map[string]string
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("decoding store snapshot: %w", err)
	}

	for key, value := range entries {
		s.cache.Set(key, value)
	}

	s.logger.Debug("loaded store snapshot", "path", path, "entries", len(entries))
	return nil
}

func (s *Otter) saveToDisk() error {
	if s.dir == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, snapshotFile)
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer func() {
		if removeErr := os.Remove(tempPath); removeErr != nil && !os.IsNotExist(removeErr) {
			s.logger.Debug("failed to remove temp snapshot", "error", removeErr)
		}
	}()

	entries := make(map[string]string)
	for key, value := range s.cache.All() {
		entries[key] = value
	}

	if err := gob.NewEncoder(file).Encode(entries); err != nil {
		_ = file.Close() //nolint:errcheck // already failing
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close() //nolint:errcheck // already failing
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	s.logger.Debug("store saved to disk", "entries", len(entries), "path", path)
	return nil
}

func (s *Otter) startPeriodicSave(ctx context.Context) {
	saveCtx, cancel := context.WithCancel(ctx)
	s.saveCancel = cancel

	s.saveWg.Add(1)
	go func() {
		defer s.saveWg.Done()

		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-saveCtx.Done():
				return
			case <-ticker.C:
				if err := s.saveToDisk(); err != nil {
					s.logger.Error("periodic store save failed", "error", err)
				}
			}
		}
	}()
}

// Close stops the periodic snapshot and writes a final one.
func (s *Otter) Close() error {
	if s.saveCancel != nil {
		s.saveCancel()
	}
	s.saveWg.Wait()

	if err := s.saveToDisk(); err != nil {
		s.logger.Error("final store save failed", "error", err)
		return err
	}
	return nil
}

// Len reports the approximate number of stored keys.
func (s *Otter) Len() int {
	return s.cache.EstimatedSize()
}
