package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contrib-search/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show refresh history and the current percentile build",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		names, err := sourceNames(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		for _, name := range names {
			st, _, err := openStore(ctx, name)
			if err != nil {
				return err
			}
			if err := st.Migrate(ctx); err != nil {
				_ = st.Close()
				return err
			}

			build, err := st.LatestBuild(ctx)
			if err != nil {
				_ = st.Close()
				return eris.Wrapf(err, "status %s", name)
			}
			runs, err := st.ListJobs(ctx, limit)
			_ = st.Close()
			if err != nil {
				return eris.Wrapf(err, "status %s", name)
			}

			fmt.Printf("== %s ==\n", name)
			formatBuild(os.Stdout, build)
			if len(runs) == 0 {
				zap.L().Info("no refresh runs found, run 'refresh' to build the derived tables", zap.String("source", name))
				continue
			}
			formatJobRuns(os.Stdout, runs)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Int("limit", 20, "number of refresh runs to show")
	rootCmd.AddCommand(statusCmd)
}

// formatBuild describes the percentile snapshot currently being served.
func formatBuild(w io.Writer, b *model.PercentileBuild) {
	if b == nil {
		_, _ = fmt.Fprintln(w, "Percentiles: not built")
		return
	}
	scope := "all years"
	if b.Range != nil {
		scope = "years " + b.Range.String()
	}
	_, _ = fmt.Fprintf(w, "Percentiles: build %s at %s (%s), %d years, %s donors ranked, %s rows scanned, %s skipped, %s ineligible\n",
		b.BuildID,
		b.BuiltAt.Format("2006-01-02 15:04"),
		scope,
		b.Years,
		number(b.DonorsRanked),
		number(b.RowsScanned),
		number(b.RowsSkipped),
		number(b.RowsIneligible),
	)
}

// formatJobRuns writes a tabular representation of refresh runs to w.
func formatJobRuns(w io.Writer, runs []model.JobRun) {
	t := newTable(w)
	t.AppendHeader(table.Row{"JOB", "STATUS", "STARTED", "DURATION", "ROWS", "ERROR"})
	for _, r := range runs {
		dur := "-"
		if r.CompletedAt != nil {
			dur = r.Duration().Round(time.Second).String()
		}
		t.AppendRow(table.Row{
			r.Job,
			string(r.Status),
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
			number(r.Rows),
			truncate(r.Error, 60),
		})
	}
	t.Render()
}
