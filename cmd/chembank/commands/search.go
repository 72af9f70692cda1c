package commands

import (
	"context"
	"fmt"
	"math"

	"github.com/chembank/chembank/internal/config"
	"github.com/chembank/chembank/pkg/catalogue"
	"github.com/spf13/cobra"
)

var (
	searchPageSize  uint32
	searchPage      uint32
	searchMinCharge int8
	searchMaxCharge int8
	searchAfter     uint32
)

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "List structures matching a keyword and charge range, one page at a time",
	Long: `Lists structures whose formula, SMILES or name contains the keyword and whose
charge lies in [--min-charge, --max-charge], in ascending id order.
Pages are selected with --page, or continued from a previous page with --after.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Uint32Var(&searchPageSize, "page-size", 20, "Structures per page")
	searchCmd.Flags().Uint32Var(&searchPage, "page", 0, "Zero-based page number")
	searchCmd.Flags().Int8Var(&searchMinCharge, "min-charge", math.MinInt8, "Minimum charge")
	searchCmd.Flags().Int8Var(&searchMaxCharge, "max-charge", math.MaxInt8, "Maximum charge")
	searchCmd.Flags().Uint32Var(&searchAfter, "after", 0, "Continue after this structure id (overrides --page)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	q := catalogue.SearchQuery{
		PageSize:   searchPageSize,
		PageNumber: searchPage,
		MinCharge:  searchMinCharge,
		MaxCharge:  searchMaxCharge,
	}
	if len(args) == 1 {
		q.Keyword = &args[0]
	}

	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		var res *catalogue.SearchResult
		var err error
		if cmd.Flags().Changed("after") {
			res, err = c.SearchAfter(ctx, searchAfter, q)
		} else {
			res, err = c.Search(ctx, q)
		}
		if err != nil {
			return err
		}

		if len(res.Items) == 0 {
			fmt.Printf("No structures found (%d matches)\n", res.Total)
			return nil
		}

		fmt.Printf("%-8s %-30s %-20s %-7s %s\n", "ID", "NAME", "FORMULA", "CHARGE", "SMILES")
		fmt.Println(separator(100))
		for _, s := range res.Items {
			fmt.Printf("%-8d %-30s %-20s %-7d %s\n",
				s.ID, truncate(orDash(s.Name), 30), truncate(s.Formula, 20), s.Charge, orDash(s.Smiles))
		}
		fmt.Printf("\n%d of %d matches", len(res.Items), res.Total)
		if res.NextCursor != nil {
			fmt.Printf(", next page: --after %d", *res.NextCursor)
		}
		fmt.Println()
		return nil
	})
}
