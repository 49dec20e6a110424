package pkg

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nbroyles/nbkv/internal/memtable"
	"github.com/nbroyles/nbkv/internal/metrics"
	"github.com/nbroyles/nbkv/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

type (
	Value    = storage.Value
	Kvpair   = storage.Kvpair
	Iterator = storage.Iterator
	Storage  = storage.Storage
	Error    = storage.Error
)

var (
	IntValue    = storage.IntValue
	FloatValue  = storage.FloatValue
	StringValue = storage.StringValue
	BoolValue   = storage.BoolValue
	BinaryValue = storage.BinaryValue
	ValueOf     = storage.ValueOf
	NewKvpair   = storage.NewKvpair
	SortKvpairs = storage.SortKvpairs

	IsBackendFault    = storage.IsBackendFault
	IsInvalidArgument = storage.IsInvalidArgument
)

// DB is an in-memory, multi-table key/value store. Each DB is independent; create as
// many as needed. All methods are safe for concurrent use
type DB struct {
	id      uuid.UUID
	mem     *memtable.MemTable
	store   storage.Storage
	metrics *metrics.Metrics
	logger  *log.Entry
}

type options struct {
	config     memtable.Config
	logger     *log.Logger
	registerer prometheus.Registerer
}

// Option configures a DB
type Option func(*options)

// WithShards sets how many independently locked buckets table names are spread over
func WithShards(shards int) Option {
	return func(o *options) { o.config.Shards = shards }
}

// WithBackend selects the per-table data structure
func WithBackend(backend memtable.Backend) Option {
	return func(o *options) { o.config.Backend = backend }
}

// WithStrictNames makes empty table names and keys fail with InvalidArgument
func WithStrictNames() Option {
	return func(o *options) { o.config.StrictNames = true }
}

// WithSeed fixes the seed used by skip list tables
func WithSeed(seed int64) Option {
	return func(o *options) { o.config.Seed = seed }
}

// WithLogger sends DB logs to logger instead of the logrus standard logger
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegisterer records operation metrics and registers them with reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// New creates a new, empty database
func New(opts ...Option) (*DB, error) {
	o := options{config: memtable.DefaultConfig(), logger: log.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.New()
	logger := o.logger.WithField("store", id.String())
	o.config.Logger = logger

	mem, err := memtable.NewWithConfig(o.config)
	if err != nil {
		return nil, fmt.Errorf("could not create memtable: %w", err)
	}

	db := &DB{id: id, mem: mem, store: mem, logger: logger}

	if o.registerer != nil {
		db.metrics = metrics.NewMetrics(o.registerer, prometheus.Labels{"store": id.String()})
		db.store = metrics.Instrument(mem, db.metrics)
	}

	logger.WithFields(log.Fields{
		"shards":  o.config.Shards,
		"backend": o.config.Backend,
		"metrics": db.metrics != nil,
	}).Debug("opened database")

	return db, nil
}

// ID uniquely identifies this DB in logs and metrics
func (d *DB) ID() uuid.UUID {
	return d.id
}

// Storage exposes the DB through the Storage interface, e.g. for dumping tables
func (d *DB) Storage() storage.Storage {
	return d.store
}

// Get returns the value associated with the key. found is false if the table or key
// does not exist
func (d *DB) Get(table, key string) (Value, bool, error) {
	return d.store.Get(table, key)
}

// Set inserts or updates the value, returning the one it replaced
func (d *DB) Set(table, key string, value Value) (Value, bool, error) {
	return d.store.Set(table, key, value)
}

// Contains reports whether the key exists in the table
func (d *DB) Contains(table, key string) (bool, error) {
	return d.store.Contains(table, key)
}

// Del removes the key from the table, returning the value it held
func (d *DB) Del(table, key string) (Value, bool, error) {
	return d.store.Del(table, key)
}

// GetAll returns a snapshot of the table in no particular order
func (d *DB) GetAll(table string) ([]Kvpair, error) {
	return d.store.GetAll(table)
}

// GetIter returns an iterator over a snapshot of the table
func (d *DB) GetIter(table string) (Iterator, error) {
	return d.store.GetIter(table)
}

// Update atomically applies fn to the current value of key and stores the result.
// See memtable.MemTable.Update
func (d *DB) Update(table, key string, fn func(cur Value, found bool) Value) (Value, error) {
	start := time.Now()
	val, err := d.mem.Update(table, key, fn)
	if d.metrics != nil {
		d.metrics.RecordStorageMetrics("update", metrics.ResultOK, time.Since(start), err)
	}
	return val, err
}

// Tables lists the tables created so far
func (d *DB) Tables() []string {
	return d.mem.Tables()
}

// Len returns the number of keys in the table
func (d *DB) Len(table string) int {
	return d.mem.Len(table)
}

// Size returns the approximate number of bytes stored
func (d *DB) Size() uint64 {
	return d.mem.Size()
}
