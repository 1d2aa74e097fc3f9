// Package engineconfig implements the core's configuration surface: a
// single validated record shared under a mutex, persisted to a stable
// path in a fixed key=value line format (spec.md §4.8).
package engineconfig

import (
	"fmt"
	"sync"

	"github.com/blockvault/blockvault/pkg/block"
)

// minCompressFloor is the lower bound enforced on MinCompressSize
// (spec.md §4.8).
const minCompressFloor = 512

// Retention holds the version-chain retention knobs. These are not
// part of the persisted key=value file (spec.md §6 lists only the
// five dedup/compression keys); they are set at runtime through the
// same setter surface and held in memory only.
type Retention struct {
	MaxVersions int
	ExpireDays  int
	SizeLimit   uint64
}

// Config is the core's single configuration record, matching the
// persisted fields of spec.md §4.8/§6 exactly, plus in-memory-only
// retention knobs.
type Config struct {
	EnableDedup       bool
	EnableCompression bool
	Algo              block.Algo
	Level             int
	MinCompressSize   int
	Retention         Retention
}

// Default returns the core's out-of-the-box configuration.
func Default() Config {
	return Config{
		EnableDedup:       true,
		EnableCompression: true,
		Algo:              block.AlgoZstd,
		Level:             3,
		MinCompressSize:   minCompressFloor,
		Retention: Retention{
			MaxVersions: 16,
			ExpireDays:  30,
			SizeLimit:   1 << 30,
		},
	}
}

// Validate normalizes and checks a candidate configuration in place,
// matching the teacher's validate-then-persist pattern. Invalid
// algo/compression combinations resolve by forcing compression off
// rather than rejecting the update (spec.md §4.8).
func (c *Config) Validate() error {
	if c.Level < 1 || c.Level > 9 {
		return fmt.Errorf("engineconfig: level %d out of range [1,9]", c.Level)
	}
	if c.MinCompressSize < minCompressFloor {
		c.MinCompressSize = minCompressFloor
	}
	if c.Algo == block.AlgoNone {
		c.EnableCompression = false
	}
	if c.Retention.MaxVersions < 1 {
		return fmt.Errorf("engineconfig: max_versions must be >= 1")
	}
	if c.Retention.ExpireDays < 0 {
		return fmt.Errorf("engineconfig: expire_days must be >= 0")
	}
	return nil
}

// Store guards a Config behind a mutex, matching the teacher's shared
// config record pattern. All reads/writes go through Get/Update so
// callers never observe a partially-applied update.
type Store struct {
	mu   sync.Mutex
	cur  Config
	path string
}

// NewStore creates a Store at path, seeded with the default config.
// Callers should call Load to reload a persisted file at startup.
func NewStore(path string) *Store {
	return &Store{cur: Default(), path: path}
}

// Get returns a copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Update validates next, applies it atomically, and persists it to
// disk. On validation failure the store is left unchanged.
func (s *Store) Update(next Config) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = next
	path := s.path
	s.mu.Unlock()
	if path == "" {
		return nil
	}
	return Persist(path, next)
}

// Path returns the store's persistence path.
func (s *Store) Path() string {
	return s.path
}
