// Package dump streams a table out of a Storage as a sequence of codec records and
// loads such a stream back into a Storage. It only uses the public Storage surface,
// so it works against any backend.
package dump

import (
	"errors"
	"fmt"
	"io"

	"github.com/nbroyles/nbkv/internal/storage"
)

// Writer takes a snapshot iterator of a table and writes each pair as a record
type Writer struct {
	store  storage.Storage
	table  string
	codec  *storage.Codec
	writer io.Writer
}

func NewWriter(store storage.Storage, table string, writer io.Writer) *Writer {
	return &Writer{store: store, table: table, codec: &storage.Codec{}, writer: writer}
}

// WriteTable writes every pair in the table and returns how many were written.
// A missing table writes nothing
func (w *Writer) WriteTable() (int, error) {
	iter, err := w.store.GetIter(w.table)
	if err != nil {
		return 0, fmt.Errorf("failed to open iterator over table %s: %w", w.table, err)
	}

	written := 0
	for ; iter.HasNext(); written++ {
		pair := iter.Next()

		bytes, err := w.codec.Encode(pair)
		if err != nil {
			return written, fmt.Errorf("could not encode pair %q: %w", pair.Key, err)
		}

		if err = write(w.writer, bytes); err != nil {
			return written, storage.NewError(storage.BackendFault, "dump", w.table, pair.Key, err)
		}
	}

	return written, nil
}

// Loader reads records and sets each pair into a table
type Loader struct {
	store  storage.Storage
	table  string
	codec  *storage.Codec
	reader io.Reader
}

func NewLoader(store storage.Storage, table string, reader io.Reader) *Loader {
	return &Loader{store: store, table: table, codec: &storage.Codec{}, reader: reader}
}

// Load reads records until the reader is exhausted and returns how many pairs were
// set. Pairs set before a failure stay set
func (l *Loader) Load() (int, error) {
	loaded := 0
	for {
		pair, err := l.codec.DecodeFromReader(l.reader)
		if errors.Is(err, io.EOF) {
			return loaded, nil
		} else if err != nil {
			return loaded, fmt.Errorf("failed reading record %d for table %s: %w", loaded, l.table, err)
		}

		if _, _, err = l.store.Set(l.table, pair.Key, pair.Value); err != nil {
			return loaded, fmt.Errorf("failed loading key %q: %w", pair.Key, err)
		}
		loaded++
	}
}

func write(writer io.Writer, bytes []byte) error {
	if n, err := writer.Write(bytes); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	} else if n != len(bytes) {
		return fmt.Errorf("failed to write entirety of record. bytes written=%d, expected=%d", n, len(bytes))
	}
	return nil
}
