package commands

import (
	"context"
	"fmt"

	"github.com/chembank/chembank/internal/config"
	"github.com/chembank/chembank/pkg/catalogue"
	"github.com/chembank/chembank/pkg/db"
	"github.com/spf13/cobra"
)

var componentCount uint32

var componentCmd = &cobra.Command{
	Use:   "component",
	Short: "Manage composition edges between structures",
}

var componentSetCmd = &cobra.Command{
	Use:   "set <structure-id> <component-id>",
	Short: "Set how many units of a component a structure is built from",
	Args:  cobra.ExactArgs(2),
	RunE:  runComponentSet,
}

var componentDeleteCmd = &cobra.Command{
	Use:   "delete <structure-id> <component-id>",
	Short: "Delete a composition edge",
	Args:  cobra.ExactArgs(2),
	RunE:  runComponentDelete,
}

func init() {
	rootCmd.AddCommand(componentCmd)
	componentCmd.AddCommand(componentSetCmd, componentDeleteCmd)
	componentSetCmd.Flags().Uint32Var(&componentCount, "count", db.DefaultComponentCount, "Number of component units")
}

func parseEdge(args []string) (uint32, uint32, error) {
	structureID, err := parseID(args[0])
	if err != nil {
		return 0, 0, err
	}
	componentID, err := parseID(args[1])
	if err != nil {
		return 0, 0, err
	}
	return structureID, componentID, nil
}

func runComponentSet(cmd *cobra.Command, args []string) error {
	structureID, componentID, err := parseEdge(args)
	if err != nil {
		return err
	}
	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		if err := c.SetComponent(ctx, structureID, componentID, componentCount); err != nil {
			return err
		}
		fmt.Printf("Structure %d contains %d x %d\n", structureID, componentCount, componentID)
		return nil
	})
}

func runComponentDelete(cmd *cobra.Command, args []string) error {
	structureID, componentID, err := parseEdge(args)
	if err != nil {
		return err
	}
	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		if err := c.DeleteComponent(ctx, structureID, componentID); err != nil {
			return err
		}
		fmt.Printf("Edge %d -> %d deleted\n", structureID, componentID)
		return nil
	})
}
