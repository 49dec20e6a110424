package memtable

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Backend names the InMemoryStore implementation used for each table
type Backend string

const (
	// BackendHashMap stores each table in a Go map. Enumeration order is random
	BackendHashMap Backend = "hashmap"
	// BackendSkipList stores each table in a skip list. Enumeration is in key order
	BackendSkipList Backend = "skiplist"
)

const defaultShards = 32

// Config configures a MemTable
type Config struct {
	// Shards is the number of independently locked buckets the table namespace is
	// split into. 1 gives a single lock over all table lookups
	Shards int
	// Backend selects the per-table data structure
	Backend Backend
	// StrictNames rejects empty table names and keys with an InvalidArgument error
	StrictNames bool
	// Seed feeds skip list level generation
	Seed int64
	// Logger receives table lifecycle events. Defaults to the logrus standard logger
	Logger *log.Entry
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Shards:  defaultShards,
		Backend: BackendHashMap,
		Seed:    time.Now().UnixNano(),
	}
}

// Validate checks that the config describes a usable MemTable
func (c Config) Validate() error {
	if c.Shards <= 0 {
		return fmt.Errorf("shard count must be positive, got %d", c.Shards)
	}

	switch c.Backend {
	case BackendHashMap, BackendSkipList:
	default:
		return fmt.Errorf("unknown backend %q. expected %q or %q", c.Backend, BackendHashMap, BackendSkipList)
	}

	return nil
}

// ParseBackend converts a backend name (e.g. from a command line flag) to a Backend
func ParseBackend(name string) (Backend, error) {
	b := Backend(name)
	if err := (Config{Shards: 1, Backend: b}).Validate(); err != nil {
		return "", err
	}
	return b, nil
}
