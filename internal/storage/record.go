package storage

import "sort"

// Kvpair is an immutable key/value pair produced by enumerating a table
type Kvpair struct {
	Key   string
	Value Value
}

func NewKvpair(key string, value Value) Kvpair {
	return Kvpair{Key: key, Value: value.Clone()}
}

// Less orders pairs by key, then by value
func (p Kvpair) Less(o Kvpair) bool {
	if p.Key != o.Key {
		return p.Key < o.Key
	}
	return p.Value.Compare(o.Value) < 0
}

// Equal reports whether both key and value match
func (p Kvpair) Equal(o Kvpair) bool {
	return p.Key == o.Key && p.Value.Equal(o.Value)
}

// SortKvpairs sorts pairs in place. Enumeration order is unspecified, so callers that
// compare results should sort first.
func SortKvpairs(pairs []Kvpair) {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Less(pairs[j]) })
}
