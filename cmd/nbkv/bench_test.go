package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nbroyles/nbkv/internal/dump"
	"github.com/nbroyles/nbkv/internal/memtable"
	"github.com/nbroyles/nbkv/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBench(t *testing.T) {
	for _, backend := range []string{"hashmap", "skiplist"} {
		t.Run(backend, func(t *testing.T) {
			res, db, err := runBench(benchConfig{
				workers: 4,
				ops:     300,
				tables:  3,
				keys:    50,
				shards:  8,
				backend: backend,
				seed:    42,
			})
			require.NoError(t, err)

			assert.Equal(t, int64(1200), res.ops)
			assert.Equal(t, int64(1200), res.updates)
			assert.Equal(t, int64(1200), res.counter)
			assert.Contains(t, db.Tables(), counterTable)

			out := bytes.Buffer{}
			require.NoError(t, report(&out, res))
			assert.Contains(t, out.String(), "counter:    1200 (no lost updates)")
			assert.Contains(t, out.String(), "update")
		})
	}
}

func TestRunBench_InvalidConfig(t *testing.T) {
	_, _, err := runBench(benchConfig{workers: 0, ops: 1, tables: 1, keys: 1, shards: 1, backend: "hashmap"})
	assert.Error(t, err)

	_, _, err = runBench(benchConfig{workers: 1, ops: 1, tables: 1, keys: 1, shards: 1, backend: "btree"})
	assert.Error(t, err)
}

func TestDumpTable(t *testing.T) {
	_, db, err := runBench(benchConfig{
		workers: 2, ops: 200, tables: 1, keys: 20, shards: 1, backend: "hashmap", seed: 7,
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "table0.dump")
	require.NoError(t, dumpTable(db, "table0", path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	restored := memtable.New()
	loaded, err := dump.NewLoader(restored, "table0", file).Load()
	require.NoError(t, err)
	assert.Equal(t, db.Len("table0"), loaded)

	expected, err := db.GetAll("table0")
	require.NoError(t, err)
	actual, err := restored.GetAll("table0")
	require.NoError(t, err)
	assert.ElementsMatch(t, expected, actual)
}

func TestDumpTable_CreateFailure(t *testing.T) {
	db, err := pkg.New()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "missing", "table0.dump")
	assert.Error(t, dumpTable(db, "table0", path))
}

func TestWriteDump_CloseFailure(t *testing.T) {
	db, err := pkg.New()
	require.NoError(t, err)
	_, _, err = db.Set("t", "k", pkg.StringValue("v"))
	require.NoError(t, err)

	out := &closeFailingBuffer{}
	written, err := writeDump(db, "t", out)

	assert.ErrorContains(t, err, "flush failed")
	assert.Equal(t, 0, written)
	assert.True(t, out.closed)
	assert.NotZero(t, out.Len())
}

type closeFailingBuffer struct {
	bytes.Buffer
	closed bool
}

func (c *closeFailingBuffer) Close() error {
	c.closed = true
	return errors.New("flush failed")
}
