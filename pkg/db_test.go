package pkg

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/nbroyles/nbkv/internal/memtable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	db, err := New()
	require.NoError(t, err)

	other, err := New()
	require.NoError(t, err)

	assert.NotEqual(t, db.ID(), other.ID())

	_, _, err = db.Set("t", "k", StringValue("v"))
	require.NoError(t, err)

	// instances don't share state
	found, err := other.Contains("t", "k")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(WithShards(-1))
	assert.EqualError(t, err, "could not create memtable: shard count must be positive, got -1")
}

func TestDB_Scenario(t *testing.T) {
	for _, backend := range []memtable.Backend{memtable.BackendHashMap, memtable.BackendSkipList} {
		t.Run(string(backend), func(t *testing.T) {
			db, err := New(WithBackend(backend), WithSeed(1))
			require.NoError(t, err)

			_, found, err := db.Set("t1", "hello", StringValue("world"))
			assert.NoError(t, err)
			assert.False(t, found)

			prev, found, err := db.Set("t1", "hello", StringValue("world1"))
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, StringValue("world"), prev)

			val, found, err := db.Get("t1", "hello")
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, StringValue("world1"), val)

			_, found, err = db.Get("t1", "missing")
			assert.NoError(t, err)
			assert.False(t, found)

			_, found, err = db.Get("t2", "hello1")
			assert.NoError(t, err)
			assert.False(t, found)

			ok, err := db.Contains("t1", "hello")
			assert.NoError(t, err)
			assert.True(t, ok)

			prev, found, err = db.Del("t1", "hello")
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, StringValue("world1"), prev)

			_, found, err = db.Del("t1", "hello")
			assert.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestDB_GetAllAndIter(t *testing.T) {
	db, err := New()
	require.NoError(t, err)

	_, _, err = db.Set("t2", "k1", StringValue("v1"))
	require.NoError(t, err)
	_, _, err = db.Set("t2", "k2", StringValue("v2"))
	require.NoError(t, err)

	expected := []Kvpair{
		NewKvpair("k1", StringValue("v1")),
		NewKvpair("k2", StringValue("v2")),
	}

	all, err := db.GetAll("t2")
	require.NoError(t, err)
	SortKvpairs(all)
	assert.Equal(t, expected, all)

	iter, err := db.GetIter("t2")
	require.NoError(t, err)
	var fromIter []Kvpair
	for iter.HasNext() {
		fromIter = append(fromIter, iter.Next())
	}
	SortKvpairs(fromIter)
	assert.Equal(t, expected, fromIter)

	assert.Equal(t, []string{"t2"}, db.Tables())
	assert.Equal(t, 2, db.Len("t2"))
	assert.Equal(t, uint64(8), db.Size())
}

func TestDB_ConcurrentCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	db, err := New(WithRegisterer(reg))
	require.NoError(t, err)

	const workers = 10
	const perWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := db.Update("T", "ctr", func(cur Value, found bool) Value {
					n, _ := cur.Int()
					return IntValue(n + 1)
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	val, found, err := db.Get("T", "ctr")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, IntValue(workers*perWorker), val)

	expected := fmt.Sprintf(`
# HELP nbkv_storage_operations_total Total number of storage operations by result
# TYPE nbkv_storage_operations_total counter
nbkv_storage_operations_total{operation="get",result="hit",store="%[1]s"} 1
nbkv_storage_operations_total{operation="update",result="ok",store="%[1]s"} %[2]d
`, db.ID(), workers*perWorker)
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "nbkv_storage_operations_total"))
}

func TestDB_StrictNames(t *testing.T) {
	db, err := New(WithStrictNames())
	require.NoError(t, err)

	_, _, err = db.Set("", "k", IntValue(1))
	assert.True(t, IsInvalidArgument(err))
	assert.False(t, IsBackendFault(err))
}

func TestDB_Logging(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	db, err := New(WithLogger(logger))
	require.NoError(t, err)

	_, _, err = db.Set("t1", "k", IntValue(1))
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "opened database", entries[0].Message)
	assert.Equal(t, "created table", entries[1].Message)
	for _, entry := range entries {
		assert.Equal(t, db.ID().String(), entry.Data["store"])
	}
}
