package dump

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nbroyles/nbkv/internal/memtable"
	"github.com/nbroyles/nbkv/internal/storage"
	"github.com/nbroyles/nbkv/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_RoundTrip(t *testing.T) {
	src := memtable.New()
	entries := map[string]storage.Value{
		"int":    storage.IntValue(7),
		"float":  storage.FloatValue(2.5),
		"string": storage.StringValue("world"),
		"bool":   storage.BoolValue(true),
		"binary": storage.BinaryValue([]byte{1, 2, 3}),
	}
	for key, val := range entries {
		_, _, err := src.Set("t1", key, val)
		require.NoError(t, err)
	}

	buf := bytes.Buffer{}
	written, err := NewWriter(src, "t1", &buf).WriteTable()
	require.NoError(t, err)
	assert.Equal(t, len(entries), written)

	dst := memtable.New()
	loaded, err := NewLoader(dst, "copy", &buf).Load()
	require.NoError(t, err)
	assert.Equal(t, len(entries), loaded)

	pairs, err := dst.GetAll("copy")
	require.NoError(t, err)
	test.AssertPairs(t, entries, pairs)
}

func TestWriter_MissingTable(t *testing.T) {
	buf := bytes.Buffer{}
	written, err := NewWriter(memtable.New(), "nope", &buf).WriteTable()

	assert.NoError(t, err)
	assert.Equal(t, 0, written)
	assert.Equal(t, 0, buf.Len())
}

func TestWriter_WriteFailure(t *testing.T) {
	src := memtable.New()
	_, _, err := src.Set("t", "k", storage.StringValue("v"))
	require.NoError(t, err)

	_, err = NewWriter(src, "t", failingWriter{}).WriteTable()
	assert.True(t, storage.IsBackendFault(err))
}

func TestLoader_Corrupt(t *testing.T) {
	src := memtable.New()
	_, _, err := src.Set("t", "k1", storage.StringValue("v1"))
	require.NoError(t, err)
	_, _, err = src.Set("t", "k2", storage.StringValue("v2"))
	require.NoError(t, err)

	buf := bytes.Buffer{}
	_, err = NewWriter(src, "t", &buf).WriteTable()
	require.NoError(t, err)

	data := buf.Bytes()
	data[len(data)-1] ^= 0xff

	dst := memtable.New()
	loaded, err := NewLoader(dst, "t", bytes.NewReader(data)).Load()
	assert.True(t, storage.IsBackendFault(err))
	assert.Equal(t, 1, loaded)
	assert.Equal(t, 1, dst.Len("t"))
}

func TestLoader_OrderedStream(t *testing.T) {
	entries := test.Strings("c", "3", "a", "1", "b", "2")

	codec := storage.Codec{}
	buf := bytes.Buffer{}
	for iter := test.NewStaticIterator(entries); iter.HasNext(); {
		record, err := codec.Encode(iter.Next())
		require.NoError(t, err)
		buf.Write(record)
	}

	cfg := memtable.DefaultConfig()
	cfg.Backend = memtable.BackendSkipList
	dst, err := memtable.NewWithConfig(cfg)
	require.NoError(t, err)

	loaded, err := NewLoader(dst, "t", &buf).Load()
	require.NoError(t, err)
	assert.Equal(t, 3, loaded)

	pairs, err := dst.GetAll("t")
	require.NoError(t, err)
	test.AssertPairs(t, entries, pairs)

	var keys []string
	for _, pair := range pairs {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}
