package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sells-group/contrib-search/internal/model"
	"github.com/sells-group/contrib-search/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search contributions by donor",
	Long: `Search contributions by donor name with optional city, state, zip and year.

When nothing matches, the zip code filter is dropped, then the city filter,
and the first relaxation that matches is returned. State and year are never
dropped. Contributions to passthrough platforms (ActBlue, WinRed, ...) are
always excluded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		name, err := singleSource(cmd)
		if err != nil {
			return err
		}
		f := filtersFromFlags(cmd)
		by, _ := cmd.Flags().GetString("sort")
		order, _ := cmd.Flags().GetString("order")
		page, _ := cmd.Flags().GetInt("page")

		sort, err := search.ParseSort(by, order)
		if err != nil {
			return err
		}

		st, src, err := openStore(ctx, name)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := search.NewResolver(st, src.Conduits(), cfg.Search.PageSize).Search(ctx, f, sort, page)
		if err != nil {
			return err
		}
		formatSearchPage(os.Stdout, res)
		return nil
	},
}

func init() {
	addFilterFlags(searchCmd)
	searchCmd.Flags().String("sort", "date", "sort by: date, amount")
	searchCmd.Flags().String("order", "desc", "sort order: asc, desc")
	searchCmd.Flags().Int("page", 1, "result page")
	rootCmd.AddCommand(searchCmd)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("first", "", "donor first name")
	cmd.Flags().String("last", "", "donor last name")
	cmd.Flags().String("city", "", "donor city")
	cmd.Flags().String("state", "", "two-letter state code")
	cmd.Flags().String("zip", "", "zip code or prefix")
	cmd.Flags().String("year", "", "four-digit contribution year")
}

func filtersFromFlags(cmd *cobra.Command) search.Filters {
	var f search.Filters
	f.FirstName, _ = cmd.Flags().GetString("first")
	f.LastName, _ = cmd.Flags().GetString("last")
	f.City, _ = cmd.Flags().GetString("city")
	f.State, _ = cmd.Flags().GetString("state")
	f.ZipCode, _ = cmd.Flags().GetString("zip")
	f.Year, _ = cmd.Flags().GetString("year")
	return f
}

// formatSearchPage writes the cascade outcome and one page of rows to w.
func formatSearchPage(w io.Writer, p *search.Page) {
	if p.Message != "" {
		_, _ = fmt.Fprintln(w, p.Message)
	}
	if len(p.Rows) == 0 {
		return
	}
	formatContributions(w, p.Rows)
	pageFooter(w, p.Page, p.TotalPages, p.TotalResults)
}

func formatContributions(w io.Writer, rows []model.Contribution) {
	t := newTable(w)
	t.AppendHeader(table.Row{"DATE", "CONTRIBUTOR", "CITY", "STATE", "ZIP", "RECIPIENT", "TYPE", "AMOUNT"})
	for _, c := range rows {
		t.AppendRow(table.Row{
			c.Date,
			fullName(c.FirstName, c.LastName),
			c.City,
			c.State,
			c.ZipCode,
			truncate(c.RecipientName, 40),
			model.CommitteeTypeLabel(c.RecipientType),
			money(c.Amount),
		})
	}
	t.Render()
}
