package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/contrib-search/internal/refresh"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild derived tables that are due",
	Long: `Rebuild the percentile snapshot and the recipient lookup table.

By default, runs every job whose schedule says it is due (percentiles weekly,
recipients daily). Use --jobs to restrict to specific jobs and --force to
ignore the schedule. With --source all, sources refresh concurrently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		names, err := sourceNames(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate("refresh", names...); err != nil {
			return err
		}
		opts := parseRefreshOpts(cmd)

		summaries, err := refreshSources(ctx, names, opts)
		formatRefreshSummaries(os.Stdout, summaries)
		if err != nil {
			return err
		}
		for _, s := range summaries {
			if s != nil && s.Failed > 0 {
				return eris.Errorf("refresh: %s had %d failed job(s)", s.Source, s.Failed)
			}
		}
		return nil
	},
}

func init() {
	refreshCmd.Flags().String("jobs", "", "comma-separated job names (e.g., percentiles,recipients)")
	refreshCmd.Flags().Bool("force", false, "ignore job schedules")
	rootCmd.AddCommand(refreshCmd)
}

// parseRefreshOpts extracts refresh.RunOpts from the cobra command flags.
func parseRefreshOpts(cmd *cobra.Command) refresh.RunOpts {
	jobsStr, _ := cmd.Flags().GetString("jobs")
	force, _ := cmd.Flags().GetBool("force")

	opts := refresh.RunOpts{Force: force}
	if jobsStr != "" {
		for _, j := range strings.Split(jobsStr, ",") {
			if j = strings.TrimSpace(j); j != "" {
				opts.Jobs = append(opts.Jobs, j)
			}
		}
	}
	return opts
}

// refreshSources runs the refresh engine for each source concurrently. A
// source that fails does not cancel the others; the first error is returned
// once all have finished.
func refreshSources(ctx context.Context, names []string, opts refresh.RunOpts) ([]*refresh.Summary, error) {
	summaries := make([]*refresh.Summary, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			s, err := refreshSource(ctx, name, opts)
			summaries[i] = s
			return err
		})
	}
	return summaries, g.Wait()
}

func refreshSource(ctx context.Context, name string, opts refresh.RunOpts) (*refresh.Summary, error) {
	log := zap.L().With(zap.String("command", "refresh"), zap.String("source", name))

	st, src, err := openStore(ctx, name)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	// Ensure migrations are current.
	if err := st.Migrate(ctx); err != nil {
		return nil, eris.Wrapf(err, "refresh %s: migrate", name)
	}

	reg := refresh.NewRegistry(refresh.Options{
		Buckets:    cfg.Percentile.Buckets,
		Conduits:   src.Conduits(),
		RecentDays: cfg.Recipients.RecentDays,
	})

	log.Info("starting refresh", zap.Strings("jobs", opts.Jobs), zap.Bool("force", opts.Force))
	summary, err := refresh.NewEngine(name, st, reg).Run(ctx, opts)
	if err != nil {
		return summary, eris.Wrapf(err, "refresh %s", name)
	}
	return summary, nil
}

// formatRefreshSummaries writes one row per source.
func formatRefreshSummaries(w io.Writer, summaries []*refresh.Summary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"SOURCE", "RAN", "SKIPPED", "FAILED", "ERRORS"})
	for _, s := range summaries {
		if s == nil {
			continue
		}
		t.AppendRow(table.Row{s.Source, s.Ran, s.Skipped, s.Failed, truncate(strings.Join(s.Errors, "; "), 80)})
	}
	t.Render()
	_, _ = fmt.Fprintln(w)
}
