package test

import (
	"sort"
	"testing"

	"github.com/nbroyles/nbkv/internal/storage"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// AssertPairs checks that actual holds exactly the entries, in any order
func AssertPairs(t *testing.T, entries map[string]storage.Value, actual []storage.Kvpair) {
	t.Helper()

	expected := make([]storage.Kvpair, 0, len(entries))
	for key, val := range entries {
		expected = append(expected, storage.NewKvpair(key, val))
	}
	storage.SortKvpairs(expected)

	sorted := make([]storage.Kvpair, len(actual))
	copy(sorted, actual)
	storage.SortKvpairs(sorted)

	if assert.Len(t, sorted, len(expected)) {
		for i := range expected {
			assert.True(t, expected[i].Equal(sorted[i]), "expected %s=%s, got %s=%s",
				expected[i].Key, expected[i].Value, sorted[i].Key, sorted[i].Value)
		}
	}
}

// Strings builds a string valued entry map from alternating keys and values
func Strings(kv ...string) map[string]storage.Value {
	if len(kv)%2 != 0 {
		log.Panic("Strings requires an even number of arguments")
	}

	entries := make(map[string]storage.Value, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		entries[kv[i]] = storage.StringValue(kv[i+1])
	}
	return entries
}

// StaticIterator walks a fixed set of entries in key order
type StaticIterator struct {
	entries map[string]storage.Value
	keys    []string
	pointer int
}

// NewStaticIterator returns an iterator over entries sorted by key
func NewStaticIterator(entries map[string]storage.Value) storage.Iterator {
	var keys []string
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return &StaticIterator{entries: entries, keys: keys, pointer: 0}
}

func (s *StaticIterator) HasNext() bool {
	return s.pointer < len(s.keys)
}

func (s *StaticIterator) Next() storage.Kvpair {
	if !s.HasNext() {
		log.Panic("iterator has no next element")
	}

	key := s.keys[s.pointer]
	s.pointer += 1

	return storage.NewKvpair(key, s.entries[key])
}

var _ storage.Iterator = &StaticIterator{}
