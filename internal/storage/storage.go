package storage

// Storage is the contract every backend (in memory, disk backed, remote) satisfies.
// Data lives in named tables of unique string keys. A table that doesn't exist behaves
// exactly like an empty one; only Set creates tables.
//
// Absence is reported through the boolean result, never as an error. Errors are
// reserved for backend failures and are always *Error values.
type Storage interface {
	// Get returns the value stored under key. found is false if the table or key
	// does not exist
	Get(table, key string) (value Value, found bool, err error)

	// Set inserts or overwrites the value under key, creating the table if needed.
	// The previously stored value is returned if there was one
	Set(table, key string, value Value) (prev Value, found bool, err error)

	// Contains reports whether the table exists and holds key
	Contains(table, key string) (bool, error)

	// Del removes key from the table, returning the value it held. An emptied table
	// is not removed
	Del(table, key string) (prev Value, found bool, err error)

	// GetAll returns a snapshot of every pair in the table in no particular order.
	// A missing table yields an empty slice
	GetAll(table string) ([]Kvpair, error)

	// GetIter returns a fresh iterator over a snapshot of the table taken at call time
	GetIter(table string) (Iterator, error)
}
