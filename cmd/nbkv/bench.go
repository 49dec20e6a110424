package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nbroyles/nbkv/internal/dump"
	"github.com/nbroyles/nbkv/internal/memtable"
	"github.com/nbroyles/nbkv/pkg"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	counterTable = "bench"
	counterKey   = "ctr"
)

type benchConfig struct {
	workers   int
	ops       int
	tables    int
	keys      int
	shards    int
	backend   string
	seed      int64
	dumpTable string
	dumpFile  string
}

type benchResult struct {
	ops      int64
	updates  int64
	counter  int64
	elapsed  time.Duration
	registry *prometheus.Registry
}

func newBenchCmd() *cobra.Command {
	cfg := benchConfig{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive the store with a concurrent random workload",
		Long: `bench starts a number of workers that issue random set/get/contains/del and
enumeration calls across several tables, while every worker also increments a
shared counter. The counter is checked at the end to confirm no update was lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, db, err := runBench(cfg)
			if err != nil {
				return err
			}

			if err := report(cmd.OutOrStdout(), res); err != nil {
				return err
			}

			if cfg.dumpFile != "" {
				return dumpTable(db, cfg.dumpTable, cfg.dumpFile)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&cfg.workers, "workers", "w", 8, "Number of concurrent workers")
	flags.IntVarP(&cfg.ops, "ops", "n", 10000, "Operations per worker")
	flags.IntVar(&cfg.tables, "tables", 4, "Number of tables to spread keys over")
	flags.IntVar(&cfg.keys, "keys", 1000, "Number of distinct keys per table")
	flags.IntVar(&cfg.shards, "shards", 32, "Number of table name shards")
	flags.StringVar(&cfg.backend, "backend", "hashmap", "Per-table data structure (hashmap, skiplist)")
	flags.Int64Var(&cfg.seed, "seed", time.Now().UnixNano(), "Workload random seed")
	flags.StringVar(&cfg.dumpTable, "dump-table", "table0", "Table to dump after the run")
	flags.StringVar(&cfg.dumpFile, "dump-file", "", "Write the dumped table to this file")

	return cmd
}

func parseBackend(name string) (memtable.Backend, error) {
	b, err := memtable.ParseBackend(name)
	if err != nil {
		return "", fmt.Errorf("invalid --backend: %w", err)
	}
	return b, nil
}

func runBench(cfg benchConfig) (*benchResult, *pkg.DB, error) {
	if cfg.workers <= 0 || cfg.ops <= 0 || cfg.tables <= 0 || cfg.keys <= 0 {
		return nil, nil, fmt.Errorf("workers, ops, tables and keys must all be positive")
	}

	backend, err := parseBackend(cfg.backend)
	if err != nil {
		return nil, nil, err
	}

	registry := prometheus.NewRegistry()
	db, err := pkg.New(
		pkg.WithShards(cfg.shards),
		pkg.WithBackend(backend),
		pkg.WithSeed(cfg.seed),
		pkg.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"store":   db.ID(),
		"workers": cfg.workers,
		"ops":     cfg.ops,
		"backend": backend,
	}).Info("starting benchmark")

	var (
		wg      sync.WaitGroup
		ops     atomic.Int64
		updates atomic.Int64
		errs    = make(chan error, cfg.workers)
	)

	start := time.Now()
	for w := 0; w < cfg.workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			if err := worker(db, cfg, rand.New(rand.NewSource(cfg.seed+int64(w))), &ops, &updates); err != nil {
				errs <- fmt.Errorf("worker %d: %w", w, err)
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)
	close(errs)

	if err := <-errs; err != nil {
		return nil, nil, err
	}

	val, _, err := db.Get(counterTable, counterKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed reading counter: %w", err)
	}
	counter, _ := val.Int()

	if counter != updates.Load() {
		return nil, nil, fmt.Errorf("lost updates: counter=%d, expected=%d", counter, updates.Load())
	}

	log.WithField("elapsed", elapsed).Info("benchmark finished")

	return &benchResult{
		ops:      ops.Load(),
		updates:  updates.Load(),
		counter:  counter,
		elapsed:  elapsed,
		registry: registry,
	}, db, nil
}

func worker(db *pkg.DB, cfg benchConfig, rnd *rand.Rand, ops *atomic.Int64, updates *atomic.Int64) error {
	for i := 0; i < cfg.ops; i++ {
		table := fmt.Sprintf("table%d", rnd.Intn(cfg.tables))
		key := fmt.Sprintf("key%d", rnd.Intn(cfg.keys))

		var err error
		switch op := rnd.Intn(100); {
		case op < 40:
			_, _, err = db.Get(table, key)
		case op < 70:
			_, _, err = db.Set(table, key, pkg.IntValue(rnd.Int63()))
		case op < 80:
			_, err = db.Contains(table, key)
		case op < 90:
			_, _, err = db.Del(table, key)
		case op < 95:
			_, err = db.GetAll(table)
		default:
			var iter pkg.Iterator
			if iter, err = db.GetIter(table); err == nil {
				for iter.HasNext() {
					iter.Next()
				}
			}
		}
		if err != nil {
			return err
		}
		ops.Add(1)

		if _, err := db.Update(counterTable, counterKey, increment); err != nil {
			return err
		}
		updates.Add(1)
	}

	return nil
}

func increment(cur pkg.Value, found bool) pkg.Value {
	n, _ := cur.Int()
	return pkg.IntValue(n + 1)
}

func report(out io.Writer, res *benchResult) error {
	total := res.ops + res.updates
	fmt.Fprintf(out, "operations: %d (+%d counter updates) in %s\n", res.ops, res.updates, res.elapsed)
	fmt.Fprintf(out, "throughput: %.0f ops/s\n", float64(total)/res.elapsed.Seconds())
	fmt.Fprintf(out, "counter:    %d (no lost updates)\n", res.counter)

	families, err := res.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed gathering metrics: %w", err)
	}

	var lines []string
	for _, f := range families {
		if f.GetName() != "nbkv_storage_operations_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			var op, result string
			for _, l := range m.GetLabel() {
				switch l.GetName() {
				case "operation":
					op = l.GetValue()
				case "result":
					result = l.GetValue()
				}
			}
			lines = append(lines, fmt.Sprintf("  %-10s %-6s %d", op, result, int64(m.GetCounter().GetValue())))
		}
	}
	sort.Strings(lines)

	fmt.Fprintln(out, "by operation:")
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}

	return nil
}

func dumpTable(db *pkg.DB, table string, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create dump file %s: %w", path, err)
	}

	written, err := writeDump(db, table, file)
	if err != nil {
		return fmt.Errorf("failed dumping table %s to %s: %w", table, path, err)
	}

	log.WithFields(log.Fields{"table": table, "pairs": written, "file": path}).Info("dumped table")
	return nil
}

// writeDump writes table to w and closes it. w is always closed, and a failed
// close fails the dump
func writeDump(db *pkg.DB, table string, w io.WriteCloser) (int, error) {
	written, err := dump.NewWriter(db.Storage(), table, w).WriteTable()
	if err != nil {
		w.Close()
		return 0, err
	}

	if syncer, ok := w.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			log.Warnf("failed syncing dump file to disk: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("could not close dump output: %w", err)
	}

	return written, nil
}
