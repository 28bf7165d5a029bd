package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"apostado/internal/config"

	"github.com/rs/zerolog"
)

// Store is a JSON file-per-table key-value store. Every table is one flat
// document read and written whole; an absent or malformed file reads as the
// zero value. Concurrent read-modify-write cycles on the same table are
// serialized by a per-table mutex.
type Store struct {
	dir    string
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(cfg *config.Config, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error().Err(err).Str("dir", cfg.DataDir).Msg("failed to create data directory")
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logger.Info().Str("dir", cfg.DataDir).Msg("store opened")

	return &Store{
		dir:    cfg.DataDir,
		logger: logger.With().Str("component", "store").Logger(),
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// NewAt opens a store rooted at an explicit directory. Used by tests.
func NewAt(dir string, logger zerolog.Logger) (*Store, error) {
	return New(&config.Config{DataDir: dir}, logger)
}

func (s *Store) lock(table string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[table]
	if !ok {
		l = &sync.Mutex{}
		s.locks[table] = l
	}
	return l
}

func (s *Store) path(table string) string {
	return filepath.Join(s.dir, table+".json")
}

// Load reads a whole table into v. A missing file leaves v untouched; a
// malformed file is logged and also treated as empty.
func (s *Store) Load(table string, v any) error {
	l := s.lock(table)
	l.Lock()
	defer l.Unlock()
	return s.loadLocked(table, v)
}

func (s *Store) loadLocked(table string, v any) error {
	data, err := os.ReadFile(s.path(table))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		s.logger.Error().Err(err).Str("table", table).Msg("failed to read table")
		return fmt.Errorf("failed to read table %s: %w", table, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn().Err(err).Str("table", table).Msg("malformed table, treating as empty")
		return nil
	}
	return nil
}

// Save replaces a whole table with v via a temp file and rename.
func (s *Store) Save(table string, v any) error {
	l := s.lock(table)
	l.Lock()
	defer l.Unlock()
	return s.saveLocked(table, v)
}

func (s *Store) saveLocked(table string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal table %s: %w", table, err)
	}

	tmp := s.path(table) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Error().Err(err).Str("table", table).Msg("failed to write table")
		return fmt.Errorf("failed to write table %s: %w", table, err)
	}
	if err := os.Rename(tmp, s.path(table)); err != nil {
		s.logger.Error().Err(err).Str("table", table).Msg("failed to replace table")
		return fmt.Errorf("failed to replace table %s: %w", table, err)
	}
	return nil
}

// Update runs a full read-modify-write cycle as one critical section:
// v is loaded, fn mutates it, and the result is written back. v must be a
// pointer to a zero value.
func (s *Store) Update(table string, v any, fn func() error) error {
	l := s.lock(table)
	l.Lock()
	defer l.Unlock()

	if err := s.loadLocked(table, v); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return s.saveLocked(table, v)
}
