package commands

import (
	"context"
	"fmt"

	"github.com/chembank/chembank/internal/config"
	"github.com/chembank/chembank/pkg/catalogue"
	"github.com/chembank/chembank/pkg/db"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	structureName    string
	structureFormula string
	structureSmiles  string
	structureCharge  int8
)

var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Create, update, remove and show structures",
}

var structureCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a structure and print its id",
	Args:  cobra.NoArgs,
	RunE:  runStructureCreate,
}

var structureUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace every field of a structure",
	Args:  cobra.ExactArgs(1),
	RunE:  runStructureUpdate,
}

var structureRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a structure with its edges, property and image",
	Args:  cobra.ExactArgs(1),
	RunE:  runStructureRemove,
}

var structureShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a structure with its property, image and edges",
	Args:  cobra.ExactArgs(1),
	RunE:  runStructureShow,
}

func init() {
	rootCmd.AddCommand(structureCmd)
	structureCmd.AddCommand(structureCreateCmd, structureUpdateCmd, structureRemoveCmd, structureShowCmd)

	for _, c := range []*cobra.Command{structureCreateCmd, structureUpdateCmd} {
		c.Flags().StringVar(&structureName, "name", "", "Unique name (empty for none)")
		c.Flags().StringVar(&structureFormula, "formula", "", "Molecular formula")
		c.Flags().StringVar(&structureSmiles, "smiles", "", "Unique SMILES (empty for none)")
		c.Flags().Int8Var(&structureCharge, "charge", 0, "Net charge")
		c.MarkFlagRequired("formula")
	}
}

func structureInput() catalogue.StructureInput {
	return catalogue.StructureInput{
		Name:    optional(structureName),
		Formula: structureFormula,
		Smiles:  optional(structureSmiles),
		Charge:  structureCharge,
	}
}

func runStructureCreate(cmd *cobra.Command, args []string) error {
	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		id, err := c.CreateStructure(ctx, structureInput())
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	})
}

func runStructureUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		if err := c.UpdateStructure(ctx, id, structureInput()); err != nil {
			return err
		}
		fmt.Printf("Structure %d updated\n", id)
		return nil
	})
}

func runStructureRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		if err := c.RemoveStructure(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Structure %d removed\n", id)
		return nil
	})
}

func runStructureShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		d, err := c.GetDetail(ctx, id)
		if err != nil {
			return err
		}

		s := d.Structure
		fmt.Printf("ID:       %d\n", s.ID)
		fmt.Printf("Name:     %s\n", orDash(s.Name))
		fmt.Printf("Formula:  %s\n", s.Formula)
		fmt.Printf("SMILES:   %s\n", orDash(s.Smiles))
		fmt.Printf("Charge:   %d\n", s.Charge)

		if d.Image != nil {
			fmt.Printf("Image:    %s (%s)\n", d.Image.Filename, humanize.Bytes(uint64(len(d.Image.Image))))
		} else {
			fmt.Println("Image:    -")
		}
		if d.Property != nil {
			fmt.Println()
			printProperty(d.Property)
		}

		printEdges("Components", d.Components)
		printEdges("Used by", d.UsedBy)
		return nil
	})
}

func printEdges(title string, edges []db.Edge) {
	fmt.Printf("\n%s:\n", title)
	if len(edges) == 0 {
		fmt.Println("  none")
		return
	}
	fmt.Printf("  %-10s %-10s %-6s %-30s %s\n", "STRUCTURE", "COMPONENT", "COUNT", "NAME", "FORMULA")
	fmt.Println("  " + separator(76))
	for _, e := range edges {
		name, formula := "(missing)", "-"
		if e.Structure != nil {
			name, formula = orDash(e.Structure.Name), e.Structure.Formula
		}
		fmt.Printf("  %-10d %-10d %-6d %-30s %s\n",
			e.Component.StructureID, e.Component.ComponentID, e.Component.Count, truncate(name, 30), formula)
	}
}
