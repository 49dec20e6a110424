package hashmap

import (
	"github.com/nbroyles/nbkv/internal/memtable/interfaces"
	"github.com/nbroyles/nbkv/internal/storage"
)

// HashMap is an unordered InMemoryStore backed by a Go map
type HashMap struct {
	data map[string]storage.Value
	size uint32
}

var _ interfaces.InMemoryStore = &HashMap{}

func New() *HashMap {
	return &HashMap{data: make(map[string]storage.Value)}
}

func (h *HashMap) Get(key string) (bool, storage.Value) {
	val, ok := h.data[key]
	return ok, val
}

func (h *HashMap) Put(key string, value storage.Value) (bool, storage.Value) {
	prev, ok := h.data[key]
	if ok {
		h.size -= uint32(prev.Size())
	} else {
		h.size += uint32(len(key))
	}

	h.data[key] = value
	h.size += uint32(value.Size())

	return ok, prev
}

func (h *HashMap) Delete(key string) (bool, storage.Value) {
	prev, ok := h.data[key]
	if !ok {
		return false, storage.Value{}
	}

	delete(h.data, key)
	h.size -= uint32(len(key) + prev.Size())

	return true, prev
}

// InternalIterator walks the map in Go's randomized map order
func (h *HashMap) InternalIterator() storage.Iterator {
	pairs := make([]storage.Kvpair, 0, len(h.data))
	for key, val := range h.data {
		pairs = append(pairs, storage.Kvpair{Key: key, Value: val})
	}

	return storage.NewSliceIterator(pairs)
}

func (h *HashMap) Len() int {
	return len(h.data)
}

func (h *HashMap) Size() uint32 {
	return h.size
}
