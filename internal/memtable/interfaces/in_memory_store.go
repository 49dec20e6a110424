package interfaces

import "github.com/nbroyles/nbkv/internal/storage"

// InMemoryStore is to be implemented by any data structure that's to be used as the
// key/value mapping of a single MemTable table. Implementations are not threadsafe;
// the owning table serializes access to them
type InMemoryStore interface {
	// Get returns a boolean indicating whether the specified key
	// was found in the store. If true, the value is returned as well
	Get(key string) (bool, storage.Value)

	// Put inserts or updates the value if the key already exists. If the key
	// existed, true is returned along with the value it replaced
	Put(key string, value storage.Value) (bool, storage.Value)

	// Delete removes the specified key from the store. Returns true and the
	// removed value if key was present
	Delete(key string) (bool, storage.Value)

	// InternalIterator returns an iterator that can be used to iterate over each element
	// in the store. Only valid until the store is next mutated
	InternalIterator() storage.Iterator

	// Len returns the number of keys held
	Len() int

	// Size returns the approximate size of the underlying structure
	Size() uint32
}
