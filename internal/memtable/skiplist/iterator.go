package skiplist

import (
	"github.com/nbroyles/nbkv/internal/storage"
	log "github.com/sirupsen/logrus"
)

type Iterator struct {
	list    *SkipList
	pointer *Node
}

func NewIterator(list *SkipList) storage.Iterator {
	return &Iterator{list: list, pointer: list.head}
}

func (i *Iterator) HasNext() bool {
	return i.pointer.next[0] != nil
}

func (i *Iterator) Next() storage.Kvpair {
	if !i.HasNext() {
		log.Panic("iterator has no next element")
	}

	node := i.pointer.next[0]
	i.pointer = node

	return storage.NewKvpair(node.key, node.value)
}

var _ storage.Iterator = &Iterator{}
