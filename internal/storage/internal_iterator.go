package storage

import log "github.com/sirupsen/logrus"

// Iterator walks a finite sequence of pairs. Iterators returned by Storage.GetIter
// are snapshots: they never observe mutations made after they were created.
type Iterator interface {
	// Returns true if there's another pair available in the iterator
	HasNext() bool

	// Returns the next pair in the iterator. Panics if HasNext is false
	Next() Kvpair
}

// SliceIterator iterates over an owned buffer of pairs
type SliceIterator struct {
	pairs   []Kvpair
	pointer int
}

// NewSliceIterator takes ownership of pairs. Callers must not modify the slice afterwards.
func NewSliceIterator(pairs []Kvpair) *SliceIterator {
	return &SliceIterator{pairs: pairs}
}

func (s *SliceIterator) HasNext() bool {
	return s.pointer < len(s.pairs)
}

func (s *SliceIterator) Next() Kvpair {
	if !s.HasNext() {
		log.Panic("iterator has no next element")
	}

	pair := s.pairs[s.pointer]
	s.pointer++

	return NewKvpair(pair.Key, pair.Value)
}

// Collect drains the iterator into a slice
func Collect(iter Iterator) []Kvpair {
	pairs := []Kvpair{}
	for iter.HasNext() {
		pairs = append(pairs, iter.Next())
	}
	return pairs
}

var _ Iterator = &SliceIterator{}
