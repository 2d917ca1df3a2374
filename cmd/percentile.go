package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/contrib-search/internal/donor"
	"github.com/sells-group/contrib-search/internal/model"
	"github.com/sells-group/contrib-search/internal/percentile"
)

var percentileCmd = &cobra.Command{
	Use:   "percentile",
	Short: "Build and query donor percentile tables",
}

// -- percentile build --

var percentileBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild donor totals and percentile thresholds",
	Long: `Aggregates contributions per donor identity (first name, last name, 5-digit zip)
and year, then computes the percentile thresholds. Use --from and --to to
rebuild only a span of years; other years keep their current rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		name, err := singleSource(cmd)
		if err != nil {
			return err
		}
		years, err := parseYearRange(cmd)
		if err != nil {
			return err
		}

		st, _, err := openStore(ctx, name)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		report, err := percentile.NewBuilder(st, cfg.Percentile.Buckets).Build(ctx, years)
		if err != nil {
			return eris.Wrap(err, "percentile build")
		}
		formatBuildReport(os.Stdout, report)
		return nil
	},
}

// -- percentile lookup --

var percentileLookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Show a donor's giving percentile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		name, err := singleSource(cmd)
		if err != nil {
			return err
		}
		first, _ := cmd.Flags().GetString("first")
		last, _ := cmd.Flags().GetString("last")
		zip, _ := cmd.Flags().GetString("zip")
		year, _ := cmd.Flags().GetInt("year")

		id, ok := donor.NewIdentity(first, last, zip)
		if !ok {
			return eris.New("percentile lookup: --first, --last and a 5 or 9 digit --zip are required")
		}

		st, _, err := openStore(ctx, name)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		lk := percentile.NewLookup(st)
		var results []percentile.Result
		if year > 0 {
			res, err := lk.Lookup(ctx, id, year)
			if err != nil {
				return eris.Wrap(err, "percentile lookup")
			}
			results = []percentile.Result{*res}
		} else {
			results, err = lk.LookupAll(ctx, id)
			if err != nil {
				return eris.Wrap(err, "percentile lookup")
			}
		}

		fmt.Printf("%s, %s\n", fullName(id.FirstName, id.LastName), id.Zip5)
		if len(results) == 0 {
			fmt.Println("No contributions on record for this donor.")
			return nil
		}
		formatPercentiles(os.Stdout, results)
		return nil
	},
}

func init() {
	percentileBuildCmd.Flags().Int("from", 0, "first year to rebuild (requires --to)")
	percentileBuildCmd.Flags().Int("to", 0, "last year to rebuild (requires --from)")
	percentileLookupCmd.Flags().String("first", "", "donor first name")
	percentileLookupCmd.Flags().String("last", "", "donor last name")
	percentileLookupCmd.Flags().String("zip", "", "donor zip code")
	percentileLookupCmd.Flags().Int("year", 0, "year to rank (default: every year with contributions)")

	percentileCmd.AddCommand(percentileBuildCmd)
	percentileCmd.AddCommand(percentileLookupCmd)
	rootCmd.AddCommand(percentileCmd)
}

// parseYearRange reads --from/--to. Neither set means every year.
func parseYearRange(cmd *cobra.Command) (*model.YearRange, error) {
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	switch {
	case from == 0 && to == 0:
		return nil, nil
	case from == 0 || to == 0:
		return nil, eris.New("percentile build: --from and --to must be set together")
	case from > to:
		return nil, eris.Errorf("percentile build: --from %d is after --to %d", from, to)
	}
	return &model.YearRange{From: from, To: to}, nil
}

func formatBuildReport(w io.Writer, r *percentile.Report) {
	t := newTable(w)
	t.AppendHeader(table.Row{"BUILD", "RANGE", "YEARS", "DONORS", "SCANNED", "SKIPPED", "INELIGIBLE", "DURATION"})
	t.AppendRow(table.Row{
		r.BuildID,
		r.Range,
		r.YearsProcessed,
		number(r.DonorsRanked),
		number(r.RowsScanned),
		number(r.ErrorsSkipped),
		number(r.Ineligible),
		r.Duration.Round(time.Millisecond).String(),
	})
	t.Render()
}

// percentileLabel renders the bucket a result fell into.
func percentileLabel(r percentile.Result) string {
	switch r.Status {
	case percentile.StatusUnavailable:
		return "not ranked"
	case percentile.StatusNoData:
		return "no contributions"
	}
	if r.BelowLowest {
		return "below " + ordinal(lowestBucket())
	}
	return fmt.Sprintf("%s (top %d%%)", ordinal(r.Percentile), r.TopPercent())
}

func lowestBucket() int {
	if cfg != nil && len(cfg.Percentile.Buckets) > 0 {
		return cfg.Percentile.Buckets[0]
	}
	return model.DefaultBuckets[0]
}

func formatPercentiles(w io.Writer, results []percentile.Result) {
	t := newTable(w)
	t.AppendHeader(table.Row{"YEAR", "PERCENTILE", "RANK", "TOTAL", "CONTRIBUTIONS", "DONORS"})
	for _, r := range results {
		rank := "-"
		if r.Status == percentile.StatusAvailable && r.Rank > 0 {
			rank = number(r.Rank)
		}
		donors := "-"
		if r.TotalDonors > 0 {
			donors = number(r.TotalDonors)
		}
		t.AppendRow(table.Row{
			r.Year,
			percentileLabel(r),
			rank,
			money(r.TotalAmount),
			number(r.ContributionCount),
			donors,
		})
	}
	t.Render()
}
