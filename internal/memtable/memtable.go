package memtable

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/nbroyles/nbkv/internal/memtable/hashmap"
	"github.com/nbroyles/nbkv/internal/memtable/interfaces"
	"github.com/nbroyles/nbkv/internal/memtable/skiplist"
	"github.com/nbroyles/nbkv/internal/storage"
	log "github.com/sirupsen/logrus"
)

// MemTable is a process memory Storage made of independent named tables.
//
// Table names are spread over a fixed set of shards by hash. A shard's lock only
// guards the name -> table map and is held briefly to resolve or create a table.
// Each table then has its own lock guarding its InMemoryStore, so operations on
// different tables never contend and readers of one table share its lock.
type MemTable struct {
	shards  []*shard
	backend Backend
	strict  bool
	seed    int64
	created atomic.Int64
	logger  *log.Entry
}

type shard struct {
	lock   sync.RWMutex
	tables map[string]*table
}

type table struct {
	lock     sync.RWMutex
	memStore interfaces.InMemoryStore
}

var _ storage.Storage = &MemTable{}

// New creates a MemTable with the default config
func New() *MemTable {
	m, err := NewWithConfig(DefaultConfig())
	if err != nil {
		log.Panicf("default memtable config is invalid: %v", err)
	}
	return m
}

// NewWithConfig creates a MemTable, failing if cfg is invalid
func NewWithConfig(cfg Config) (*MemTable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	shards := make([]*shard, cfg.Shards)
	for i := range shards {
		shards[i] = &shard{tables: make(map[string]*table)}
	}

	return &MemTable{
		shards:  shards,
		backend: cfg.Backend,
		strict:  cfg.StrictNames,
		seed:    cfg.Seed,
		logger:  logger,
	}, nil
}

// Get returns the value stored under key in table
func (m *MemTable) Get(tableName, key string) (storage.Value, bool, error) {
	if err := m.validate("get", tableName, key); err != nil {
		return storage.Value{}, false, err
	}

	t := m.lookup(tableName)
	if t == nil {
		return storage.Value{}, false, nil
	}

	t.lock.RLock()
	defer t.lock.RUnlock()

	found, val := t.memStore.Get(key)
	if !found {
		return storage.Value{}, false, nil
	}
	return val.Clone(), true, nil
}

// Set stores value under key, creating the table on first use. The replaced value,
// if any, is captured in the same critical section as the write
func (m *MemTable) Set(tableName, key string, value storage.Value) (storage.Value, bool, error) {
	if err := m.validate("set", tableName, key); err != nil {
		return storage.Value{}, false, err
	}

	t := m.lookupOrCreate(tableName)

	t.lock.Lock()
	defer t.lock.Unlock()

	found, prev := t.memStore.Put(key, value.Clone())
	return prev, found, nil
}

// Contains reports whether key exists in table
func (m *MemTable) Contains(tableName, key string) (bool, error) {
	if err := m.validate("contains", tableName, key); err != nil {
		return false, err
	}

	t := m.lookup(tableName)
	if t == nil {
		return false, nil
	}

	t.lock.RLock()
	defer t.lock.RUnlock()

	found, _ := t.memStore.Get(key)
	return found, nil
}

// Del removes key from table and returns the value it held
func (m *MemTable) Del(tableName, key string) (storage.Value, bool, error) {
	if err := m.validate("del", tableName, key); err != nil {
		return storage.Value{}, false, err
	}

	t := m.lookup(tableName)
	if t == nil {
		return storage.Value{}, false, nil
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	found, prev := t.memStore.Delete(key)
	return prev, found, nil
}

// GetAll returns a copy of every pair in table
func (m *MemTable) GetAll(tableName string) ([]storage.Kvpair, error) {
	if err := m.validate("get_all", tableName, ""); err != nil {
		return nil, err
	}

	return m.snapshot(tableName), nil
}

// GetIter returns an iterator over a copy of table taken now. The iterator holds no
// locks, so it never blocks writers and never sees their changes
func (m *MemTable) GetIter(tableName string) (storage.Iterator, error) {
	if err := m.validate("get_iter", tableName, ""); err != nil {
		return nil, err
	}

	return storage.NewSliceIterator(m.snapshot(tableName)), nil
}

// Update atomically replaces the value under key with fn's result. fn receives the
// current value (found is false if there is none) and runs while the table is
// exclusively locked, so concurrent read-modify-write cycles on the same key never
// lose updates. fn must not call back into the MemTable
func (m *MemTable) Update(tableName, key string, fn func(cur storage.Value, found bool) storage.Value) (storage.Value, error) {
	if err := m.validate("update", tableName, key); err != nil {
		return storage.Value{}, err
	}

	t := m.lookupOrCreate(tableName)

	t.lock.Lock()
	defer t.lock.Unlock()

	found, cur := t.memStore.Get(key)
	next := fn(cur.Clone(), found).Clone()
	t.memStore.Put(key, next)

	return next.Clone(), nil
}

// Tables returns the names of all tables created so far, sorted
func (m *MemTable) Tables() []string {
	var names []string
	for _, s := range m.shards {
		s.lock.RLock()
		for name := range s.tables {
			names = append(names, name)
		}
		s.lock.RUnlock()
	}

	sort.Strings(names)
	return names
}

// Len returns the number of keys in table. A missing table has none
func (m *MemTable) Len(tableName string) int {
	t := m.lookup(tableName)
	if t == nil {
		return 0
	}

	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.memStore.Len()
}

// Size returns the approximate number of bytes held across all tables
func (m *MemTable) Size() uint64 {
	var total uint64
	for _, s := range m.shards {
		s.lock.RLock()
		for _, t := range s.tables {
			t.lock.RLock()
			total += uint64(t.memStore.Size())
			t.lock.RUnlock()
		}
		s.lock.RUnlock()
	}
	return total
}

func (m *MemTable) snapshot(tableName string) []storage.Kvpair {
	t := m.lookup(tableName)
	if t == nil {
		return []storage.Kvpair{}
	}

	t.lock.RLock()
	defer t.lock.RUnlock()

	pairs := make([]storage.Kvpair, 0, t.memStore.Len())
	for iter := t.memStore.InternalIterator(); iter.HasNext(); {
		pairs = append(pairs, iter.Next())
	}
	return pairs
}

func (m *MemTable) shardFor(tableName string) *shard {
	if len(m.shards) == 1 {
		return m.shards[0]
	}
	return m.shards[xxhash.Sum64String(tableName)%uint64(len(m.shards))]
}

func (m *MemTable) lookup(tableName string) *table {
	s := m.shardFor(tableName)

	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.tables[tableName]
}

func (m *MemTable) lookupOrCreate(tableName string) *table {
	if t := m.lookup(tableName); t != nil {
		return t
	}

	s := m.shardFor(tableName)

	s.lock.Lock()
	defer s.lock.Unlock()

	// Another writer may have created the table between the two locks
	if t, ok := s.tables[tableName]; ok {
		return t
	}

	t := &table{memStore: m.newStore()}
	s.tables[tableName] = t

	m.logger.WithField("table", tableName).Debug("created table")

	return t
}

func (m *MemTable) newStore() interfaces.InMemoryStore {
	switch m.backend {
	case BackendSkipList:
		return skiplist.New(m.seed + m.created.Add(1))
	default:
		m.created.Add(1)
		return hashmap.New()
	}
}

func (m *MemTable) validate(op string, tableName string, key string) error {
	if !m.strict {
		return nil
	}

	if tableName == "" {
		return storage.NewError(storage.InvalidArgument, op, tableName, key, errors.New("table name is empty"))
	}

	if key == "" && op != "get_all" && op != "get_iter" {
		return storage.NewError(storage.InvalidArgument, op, tableName, key, errors.New("key is empty"))
	}

	return nil
}
