package metrics

import (
	"time"

	"github.com/nbroyles/nbkv/internal/storage"
)

// Instrumented is a Storage that records Prometheus metrics for every call it
// forwards to the wrapped Storage. Results and errors pass through unchanged
type Instrumented struct {
	next    storage.Storage
	metrics *Metrics
}

var _ storage.Storage = &Instrumented{}

func Instrument(next storage.Storage, metrics *Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: metrics}
}

// Unwrap returns the wrapped Storage
func (i *Instrumented) Unwrap() storage.Storage {
	return i.next
}

func (i *Instrumented) Get(table, key string) (storage.Value, bool, error) {
	start := time.Now()
	val, found, err := i.next.Get(table, key)
	i.metrics.RecordStorageMetrics("get", result(found), time.Since(start), err)
	return val, found, err
}

func (i *Instrumented) Set(table, key string, value storage.Value) (storage.Value, bool, error) {
	start := time.Now()
	prev, found, err := i.next.Set(table, key, value)
	i.metrics.RecordStorageMetrics("set", result(found), time.Since(start), err)
	return prev, found, err
}

func (i *Instrumented) Contains(table, key string) (bool, error) {
	start := time.Now()
	found, err := i.next.Contains(table, key)
	i.metrics.RecordStorageMetrics("contains", result(found), time.Since(start), err)
	return found, err
}

func (i *Instrumented) Del(table, key string) (storage.Value, bool, error) {
	start := time.Now()
	prev, found, err := i.next.Del(table, key)
	i.metrics.RecordStorageMetrics("del", result(found), time.Since(start), err)
	return prev, found, err
}

func (i *Instrumented) GetAll(table string) ([]storage.Kvpair, error) {
	start := time.Now()
	pairs, err := i.next.GetAll(table)
	i.metrics.RecordStorageMetrics("get_all", ResultOK, time.Since(start), err)
	if err == nil {
		i.metrics.RecordEnumeration("get_all", len(pairs))
	}
	return pairs, err
}

func (i *Instrumented) GetIter(table string) (storage.Iterator, error) {
	start := time.Now()
	iter, err := i.next.GetIter(table)
	i.metrics.RecordStorageMetrics("get_iter", ResultOK, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &countingIterator{Iterator: iter, done: func(n int) { i.metrics.RecordEnumeration("get_iter", n) }}, nil
}

// countingIterator reports how many pairs were consumed once the iterator is drained
type countingIterator struct {
	storage.Iterator
	count int
	done  func(int)
}

func (c *countingIterator) Next() storage.Kvpair {
	pair := c.Iterator.Next()
	c.count++
	if !c.Iterator.HasNext() {
		c.done(c.count)
	}
	return pair
}
