package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/contrib-search/internal/config"
	"github.com/sells-group/contrib-search/internal/store"
)

// sourceAll selects every configured source.
const sourceAll = "all"

// sourceNames resolves --source to one or more source names.
func sourceNames(cmd *cobra.Command) ([]string, error) {
	name, _ := cmd.Flags().GetString("source")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == sourceAll {
		return config.SourceNames, nil
	}
	if _, err := cfg.Source(name); err != nil {
		return nil, err
	}
	return []string{name}, nil
}

// singleSource resolves --source for commands that read one database.
func singleSource(cmd *cobra.Command) (string, error) {
	names, err := sourceNames(cmd)
	if err != nil {
		return "", err
	}
	if len(names) != 1 {
		return "", eris.Errorf("%s: --source must name a single source", cmd.Name())
	}
	return names[0], nil
}

// openStore validates and opens the database for a source.
func openStore(ctx context.Context, name string) (store.Store, config.SourceConfig, error) {
	src, err := cfg.Source(name)
	if err != nil {
		return nil, src, err
	}
	if err := cfg.Validate("search", name); err != nil {
		return nil, src, err
	}
	st, err := store.Open(ctx, src.Driver, src.DatabaseURL, &store.PoolConfig{MaxConns: src.MaxConns})
	if err != nil {
		return nil, src, eris.Wrapf(err, "open %s store", name)
	}
	return st, src, nil
}
