package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sells-group/contrib-search/internal/model"
	"github.com/sells-group/contrib-search/internal/recipient"
)

var recipientCmd = &cobra.Command{
	Use:   "recipient",
	Short: "Search committees and list their contributors",
}

// -- recipient search --

var recipientSearchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "Fuzzy search committees by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		name, err := singleSource(cmd)
		if err != nil {
			return err
		}
		sortStr, _ := cmd.Flags().GetString("sort")
		page, _ := cmd.Flags().GetInt("page")
		sortBy, err := recipient.ParseSort(sortStr)
		if err != nil {
			return err
		}

		st, src, err := openStore(ctx, name)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		s := recipient.NewSearcher(st, recipient.SearchConfig{
			MinScore:      cfg.Recipients.MinScore,
			MaxCandidates: cfg.Recipients.MaxCandidates,
			PageSize:      cfg.Search.PageSize,
			Exclude:       src.Conduits(),
		})
		res, err := s.Search(ctx, strings.Join(args, " "), sortBy, page)
		if err != nil {
			return err
		}
		formatRecipientResults(os.Stdout, res)
		return nil
	},
}

// -- recipient show --

var recipientShowCmd = &cobra.Command{
	Use:   "show <committee-id>",
	Short: "List a committee's contributors, largest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		name, err := singleSource(cmd)
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")

		st, src, err := openStore(ctx, name)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		view, err := recipient.NewViewer(st, src.Conduits(), cfg.Search.PageSize).Contributors(ctx, args[0], page)
		if errors.Is(err, recipient.ErrConduit) {
			fmt.Printf("%s is a passthrough platform; its contributions are credited to the committees it forwards to.\n", view.DisplayName)
			return nil
		}
		if err != nil {
			return err
		}
		formatRecipientView(os.Stdout, view)
		return nil
	},
}

func init() {
	recipientSearchCmd.Flags().String("sort", string(recipient.SortRelevance), "sort by: relevance, recent_activity, total_activity, alphabetical")
	recipientSearchCmd.Flags().Int("page", 1, "result page")
	recipientShowCmd.Flags().Int("page", 1, "contributor page")

	recipientCmd.AddCommand(recipientSearchCmd)
	recipientCmd.AddCommand(recipientShowCmd)
	rootCmd.AddCommand(recipientCmd)
}

func formatRecipientResults(w io.Writer, r *recipient.Results) {
	if len(r.Matches) == 0 {
		_, _ = fmt.Fprintf(w, "No committees found matching %q.\n", r.Query)
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"COMMITTEE", "NAME", "TYPE", "TOTAL", "RECENT", "CONTRIBUTORS", "LAST", "SCORE"})
	for _, m := range r.Matches {
		t.AppendRow(table.Row{
			m.RecipientID,
			truncate(m.DisplayName, 45),
			model.CommitteeTypeLabel(m.CommitteeType),
			money(m.TotalAmount),
			money(m.RecentAmount),
			number(m.ContributorCount),
			m.LastContributionDate,
			fmt.Sprintf("%.2f", m.Score),
		})
	}
	t.Render()
	pageFooter(w, r.Page, r.TotalPages, r.TotalResults)
}

func formatRecipientView(w io.Writer, v *recipient.View) {
	_, _ = fmt.Fprintf(w, "%s (%s, %s)\n", v.DisplayName, v.CommitteeID, model.CommitteeTypeLabel(v.CommitteeType))
	if len(v.Contributors) == 0 {
		_, _ = fmt.Fprintln(w, "No contributions on record.")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"CONTRIBUTOR", "CONTRIBUTIONS", "TOTAL"})
	for _, c := range v.Contributors {
		t.AppendRow(table.Row{fullName(c.FirstName, c.LastName), number(c.Count), money(c.Total)})
	}
	t.Render()
	pageFooter(w, v.Page, v.TotalPages, v.TotalResults)
}
