package main

import (
	"fmt"
	"io"

	"github.com/nbroyles/nbkv/pkg"
	"github.com/spf13/cobra"
)

func newScenarioCmd() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Run the reference get/set/contains/del scenario and print every result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := parseBackend(backend)
			if err != nil {
				return err
			}

			db, err := pkg.New(pkg.WithBackend(b))
			if err != nil {
				return err
			}

			return runScenario(cmd.OutOrStdout(), db)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "hashmap", "Per-table data structure (hashmap, skiplist)")

	return cmd
}

func runScenario(out io.Writer, db *pkg.DB) error {
	steps := []struct {
		desc string
		run  func() (pkg.Value, bool, error)
	}{
		{`set("t1", "hello", "world")`, func() (pkg.Value, bool, error) {
			return db.Set("t1", "hello", pkg.StringValue("world"))
		}},
		{`set("t1", "hello", "world1")`, func() (pkg.Value, bool, error) {
			return db.Set("t1", "hello", pkg.StringValue("world1"))
		}},
		{`get("t1", "hello")`, func() (pkg.Value, bool, error) { return db.Get("t1", "hello") }},
		{`get("t1", "missing")`, func() (pkg.Value, bool, error) { return db.Get("t1", "missing") }},
		{`get("t2", "hello1")`, func() (pkg.Value, bool, error) { return db.Get("t2", "hello1") }},
		{`contains("t1", "hello")`, func() (pkg.Value, bool, error) {
			ok, err := db.Contains("t1", "hello")
			return pkg.BoolValue(ok), true, err
		}},
		{`del("t1", "hello")`, func() (pkg.Value, bool, error) { return db.Del("t1", "hello") }},
		{`del("t1", "hello")`, func() (pkg.Value, bool, error) { return db.Del("t1", "hello") }},
	}

	for _, step := range steps {
		val, found, err := step.run()
		if err != nil {
			return fmt.Errorf("%s failed: %w", step.desc, err)
		}

		result := "nothing"
		if found {
			result = val.String()
		}
		fmt.Fprintf(out, "%-28s -> %s\n", step.desc, result)
	}

	return nil
}
