package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/contrib-search/internal/percentile"
	"github.com/sells-group/contrib-search/internal/search"
)

var contributorCmd = &cobra.Command{
	Use:   "contributor",
	Short: "Show a contributor's giving history and percentiles",
	Long: `Show every contribution matching a donor's first and last name (optionally
narrowed by city, state, zip and year), the total given, and the donor's
giving percentile for each year when a 5 or 9 digit zip is supplied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		name, err := singleSource(cmd)
		if err != nil {
			return err
		}
		f := filtersFromFlags(cmd)
		page, _ := cmd.Flags().GetInt("page")

		st, src, err := openStore(ctx, name)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := search.NewProfiler(st, percentile.NewLookup(st), src.Conduits(), cfg.Search.ProfilePageSize)
		prof, err := p.Profile(ctx, f, page)
		if err != nil {
			return err
		}
		formatProfile(os.Stdout, prof)
		return nil
	},
}

func init() {
	addFilterFlags(contributorCmd)
	contributorCmd.Flags().Int("page", 1, "contribution page")
	rootCmd.AddCommand(contributorCmd)
}

func formatProfile(w io.Writer, p *search.Profile) {
	_, _ = fmt.Fprintf(w, "%s: %s contributions totaling %s\n",
		fullName(p.Filters.FirstName, p.Filters.LastName),
		number(p.TotalResults),
		money(p.TotalAmount),
	)
	if len(p.Percentiles) > 0 {
		formatPercentiles(w, p.Percentiles)
	}
	if len(p.Contributions) == 0 {
		return
	}
	formatContributions(w, p.Contributions)
	pageFooter(w, p.Page, p.TotalPages, p.TotalResults)
}
