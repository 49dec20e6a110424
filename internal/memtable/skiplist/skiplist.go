package skiplist

import (
	"math/rand"

	"github.com/nbroyles/nbkv/internal/memtable/interfaces"
	"github.com/nbroyles/nbkv/internal/storage"
	log "github.com/sirupsen/logrus"
)

const maxLevels = 32

// Node represents a node in the SkipList structure
type Node struct {
	next  []*Node
	key   string
	value storage.Value
}

// SkipList is an implementation of a data structure that provides
// O(log n) insertion and removal without complicated self-balancing logic
// required of similar tree-like structures (e.g. red/black, AVL trees)
// See the following for more details:
//   - https://en.wikipedia.org/wiki/Skip_list
//   - https://igoro.com/archive/skip-lists-are-fascinating/
//
// Keys are kept in ascending order, so iteration is ordered. SkipList does no
// locking of its own
type SkipList struct {
	head   *Node
	levels int
	length int
	size   uint32
	rand   *rand.Rand
}

var _ interfaces.InMemoryStore = &SkipList{}

func New(seed int64) *SkipList {
	return &SkipList{
		head:   &Node{next: make([]*Node, maxLevels)},
		levels: 1,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// Get returns a boolean indicating whether the specified key
// was found in the list. If true, the value is returned as well
func (s *SkipList) Get(key string) (bool, storage.Value) {
	if node := s.find(key); node != nil {
		return true, node.value
	}

	return false, storage.Value{}
}

func (s *SkipList) find(key string) *Node {
	c := s.head
	for i := s.levels - 1; i >= 0; i-- {
		for c.next[i] != nil && c.next[i].key < key {
			c = c.next[i]
		}
		if c.next[i] != nil && c.next[i].key == key {
			return c.next[i]
		}
	}

	return nil
}

// Put inserts or updates the value if the key already exists
func (s *SkipList) Put(key string, value storage.Value) (bool, storage.Value) {
	if node := s.find(key); node != nil {
		prev := node.value
		s.size = s.size - uint32(prev.Size()) + uint32(value.Size())
		node.value = value
		return true, prev
	}

	s.insert(key, value)
	return false, storage.Value{}
}

// Delete unlinks the specified key from every level it appears on. Returns
// true and the removed value if key was present
func (s *SkipList) Delete(key string) (bool, storage.Value) {
	var removed *Node

	c := s.head
	for i := s.levels - 1; i >= 0; i-- {
		for c.next[i] != nil && c.next[i].key < key {
			c = c.next[i]
		}
		if c.next[i] != nil && c.next[i].key == key {
			removed = c.next[i]
			c.next[i] = removed.next[i]
		}
	}

	if removed == nil {
		return false, storage.Value{}
	}

	for s.levels > 1 && s.head.next[s.levels-1] == nil {
		s.levels--
	}
	s.length--
	s.size -= uint32(len(key) + removed.value.Size())

	return true, removed.value
}

func (s *SkipList) insert(key string, value storage.Value) {
	levels := s.generateLevels()

	if levels > s.levels {
		s.levels = levels
	}

	newNode := &Node{next: make([]*Node, levels), key: key, value: value}

	c := s.head
	for i := s.levels - 1; i >= 0; i-- {
		// Stop moving rightward at this level once next key is greater
		// than or equal to the key we plan to insert
		for c.next[i] != nil && c.next[i].key < key {
			c = c.next[i]
		}
		if c.next[i] != nil && c.next[i].key == key {
			log.Panicf("attempting to insert key %q that already exists. "+
				"this should not happen!", key)
		}
		if levels > i {
			newNode.next[i] = c.next[i]
			c.next[i] = newNode
		}
	}

	s.length++
	s.size += uint32(len(key) + value.Size())
}

// InternalIterator returns an iterator over the list in key order
func (s *SkipList) InternalIterator() storage.Iterator {
	return NewIterator(s)
}

func (s *SkipList) Len() int {
	return s.length
}

func (s *SkipList) Size() uint32 {
	return s.size
}

// Level generation shamelessly stolen from
// https://igoro.com/archive/skip-lists-are-fascinating/
func (s *SkipList) generateLevels() int {
	levels := 0
	for num := s.rand.Int31(); num&1 == 1 && levels < maxLevels; num >>= 1 {
		levels += 1
	}

	if levels == 0 {
		levels = 1
	}

	return levels
}
