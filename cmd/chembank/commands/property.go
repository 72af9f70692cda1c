package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/chembank/chembank/internal/config"
	"github.com/chembank/chembank/pkg/catalogue"
	"github.com/chembank/chembank/pkg/db"
	"github.com/spf13/cobra"
)

var (
	propertyReferences string
	propertyRemarks    string
)

var propertyCmd = &cobra.Command{
	Use:   "property",
	Short: "Set and show the measured properties of a structure",
}

var propertySetCmd = &cobra.Command{
	Use:   "set <structure-id>",
	Short: "Replace the property record of a structure; omitted fields become empty",
	Args:  cobra.ExactArgs(1),
	RunE:  runPropertySet,
}

var propertyShowCmd = &cobra.Command{
	Use:   "show <structure-id>",
	Short: "Show the property record of a structure",
	Args:  cobra.ExactArgs(1),
	RunE:  runPropertyShow,
}

// numericFlags maps the numeric property columns, in declaration order, to flag names.
var numericFlags = func() []string {
	cols := db.PropertyColumns[1 : len(db.PropertyColumns)-2]
	flags := make([]string, len(cols))
	for i, col := range cols {
		flags[i] = strings.ReplaceAll(col, "_", "-")
	}
	return flags
}()

func init() {
	rootCmd.AddCommand(propertyCmd)
	propertyCmd.AddCommand(propertySetCmd, propertyShowCmd)

	for _, name := range numericFlags {
		propertySetCmd.Flags().Float64(name, 0, strings.ReplaceAll(name, "-", " "))
	}
	propertySetCmd.Flags().StringVar(&propertyReferences, "references", "", "Literature references")
	propertySetCmd.Flags().StringVar(&propertyRemarks, "remarks", "", "Free-text remarks")
}

func runPropertySet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	p := db.Property{
		StructureID: id,
		References:  optional(propertyReferences),
		Remarks:     optional(propertyRemarks),
	}
	for i, field := range p.Numbers() {
		name := numericFlags[i]
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetFloat64(name)
		if err != nil {
			return err
		}
		*field = &v
	}

	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		if err := c.SetProperty(ctx, p); err != nil {
			return err
		}
		fmt.Printf("Property of structure %d set\n", id)
		return nil
	})
}

func runPropertyShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		p, err := c.GetProperty(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			fmt.Printf("Structure %d has no property record\n", id)
			return nil
		}
		printProperty(p)
		return nil
	})
}

func printProperty(p *db.Property) {
	for i, field := range p.Numbers() {
		fmt.Printf("%-22s %s\n", numericFlags[i]+":", formatFloat(*field))
	}
	fmt.Printf("%-22s %s\n", "references:", orDash(p.References))
	fmt.Printf("%-22s %s\n", "remarks:", orDash(p.Remarks))
}
