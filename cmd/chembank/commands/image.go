package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chembank/chembank/internal/config"
	"github.com/chembank/chembank/pkg/catalogue"
	"github.com/chembank/chembank/pkg/db"
	"github.com/chembank/chembank/pkg/errors"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

var (
	imageFilename string
	imageOut      string
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Attach and retrieve structure images",
}

var imageSetCmd = &cobra.Command{
	Use:   "set <structure-id> <file>",
	Short: "Attach an image file to a structure, replacing any previous one",
	Args:  cobra.ExactArgs(2),
	RunE:  runImageSet,
}

var imageShowCmd = &cobra.Command{
	Use:   "show <structure-id>",
	Short: "Show the image of a structure, optionally writing it to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImageShow,
}

func init() {
	rootCmd.AddCommand(imageCmd)
	imageCmd.AddCommand(imageSetCmd, imageShowCmd)
	imageSetCmd.Flags().StringVar(&imageFilename, "filename", "", "Stored filename (defaults to the file's base name)")
	imageShowCmd.Flags().StringVar(&imageOut, "out", "", "Write the image bytes to this path")
}

func runImageSet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return errors.Wrap(err, "failed to read image file")
	}
	name := imageFilename
	if name == "" {
		name = filepath.Base(args[1])
	}

	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		if err := c.SetImage(ctx, db.Image{StructureID: id, Filename: name, Image: data}); err != nil {
			return err
		}
		fmt.Printf("Image %s (%s) attached to structure %d\n", name, humanize.Bytes(uint64(len(data))), id)
		return nil
	})
}

func runImageShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withCatalogue(func(ctx context.Context, cfg *config.Config, c *catalogue.Catalogue) error {
		img, err := c.GetImage(ctx, id)
		if err != nil {
			return err
		}
		if img == nil {
			fmt.Printf("Structure %d has no image\n", id)
			return nil
		}

		fmt.Printf("Filename:     %s\n", img.Filename)
		fmt.Printf("Size:         %s\n", humanize.Bytes(uint64(len(img.Image))))
		fmt.Printf("Content type: %s\n", mimetype.Detect(img.Image).String())

		if imageOut != "" {
			if err := os.WriteFile(imageOut, img.Image, 0644); err != nil {
				return errors.Wrap(err, "failed to write image")
			}
			fmt.Printf("Written to:   %s\n", imageOut)
		}
		return nil
	})
}
