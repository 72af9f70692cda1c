package commands

import (
	"context"
	"fmt"

	"github.com/chembank/chembank/internal/config"
	"github.com/chembank/chembank/pkg/catalogue"
	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of structures",
	Args:  cobra.NoArgs,
	RunE:  runCount,
}

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the store file and recreate an empty store",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm deleting every record")
}

func runCount(cmd *cobra.Command, args []string) error {
	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		n, err := c.CountStructures(ctx)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	})
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		return fmt.Errorf("reset deletes every record; pass --yes to confirm")
	}
	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		if err := c.Reset(ctx); err != nil {
			return err
		}
		fmt.Printf("Store %s reset\n", c.Path())
		return nil
	})
}
