// Package transfer moves the whole catalogue between the store and a directory
// of delimited tables plus an image tree:
//
//	structures.csv
//	properties.csv
//	components.csv
//	images/<structure_id>/<filename>
//
// It talks to storage through db.Queries so field values round-trip verbatim.
package transfer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chembank/chembank/pkg/db"
	"github.com/chembank/chembank/pkg/errors"
	"github.com/chembank/chembank/pkg/security"
	"github.com/dustin/go-humanize"
)

// Layout of an export directory.
const (
	StructuresFile = "structures.csv"
	PropertiesFile = "properties.csv"
	ComponentsFile = "components.csv"
	ImagesDir      = "images"
)

// DefaultImageBatchSize is how many image rows are held in memory at once.
const DefaultImageBatchSize = 10

// Options tunes a transfer.
type Options struct {
	ImageBatchSize int
	Validator      *security.Validator
}

func (o Options) withDefaults() Options {
	if o.ImageBatchSize <= 0 {
		o.ImageBatchSize = DefaultImageBatchSize
	}
	if o.Validator == nil {
		o.Validator = security.NewValidator(0)
	}
	return o
}

// Stats counts what a transfer moved.
type Stats struct {
	Structures int
	Properties int
	Components int
	Images     int
	ImageBytes int64
}

// Export writes every structure, property, component and image read through q
// into dir. dir is created if needed. A failure stops the export and leaves
// whatever was already written in place.
func Export(ctx context.Context, q *db.Queries, dir string, opts Options) (*Stats, error) {
	opts = opts.withDefaults()
	slog.Info("export_start", "dir", dir, "image_batch_size", opts.ImageBatchSize)

	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("export_dir_creation_failed", "dir", dir, "error", err)
		return nil, errors.New(errors.ErrMalformedInput, "folder", "export", err)
	}

	stats := &Stats{}
	var err error
	if stats.Structures, err = exportStructures(ctx, q, dir); err != nil {
		return stats, err
	}
	if stats.Properties, err = exportProperties(ctx, q, dir); err != nil {
		return stats, err
	}
	if stats.Components, err = exportComponents(ctx, q, dir); err != nil {
		return stats, err
	}
	if err := exportImages(ctx, q, dir, opts, stats); err != nil {
		return stats, err
	}

	slog.Info("export_complete",
		"dir", dir,
		"structures", stats.Structures,
		"properties", stats.Properties,
		"components", stats.Components,
		"images", stats.Images,
		"image_bytes", humanize.Bytes(uint64(stats.ImageBytes)),
	)
	return stats, nil
}

func exportStructures(ctx context.Context, q *db.Queries, dir string) (int, error) {
	t, err := createTable(dir, StructuresFile, db.StructureColumns)
	if err != nil {
		return 0, err
	}
	err = q.EachStructure(ctx, func(s db.Structure) error {
		return t.Write([]string{
			formatUint(s.ID),
			formatOptString(s.Name),
			s.Formula,
			formatOptString(s.Smiles),
			strconv.Itoa(int(s.Charge)),
		})
	})
	return closeTable(t, err)
}

func exportProperties(ctx context.Context, q *db.Queries, dir string) (int, error) {
	t, err := createTable(dir, PropertiesFile, db.PropertyColumns)
	if err != nil {
		return 0, err
	}
	err = q.EachProperty(ctx, func(p db.Property) error {
		rec := []string{formatUint(p.StructureID)}
		for _, f := range p.Numbers() {
			rec = append(rec, formatOptFloat(*f))
		}
		rec = append(rec, formatOptString(p.References), formatOptString(p.Remarks))
		return t.Write(rec)
	})
	return closeTable(t, err)
}

func exportComponents(ctx context.Context, q *db.Queries, dir string) (int, error) {
	t, err := createTable(dir, ComponentsFile, db.ComponentColumns)
	if err != nil {
		return 0, err
	}
	err = q.EachComponent(ctx, func(c db.Component) error {
		return t.Write([]string{
			formatUint(c.StructureID),
			formatUint(c.ComponentID),
			formatUint(c.Count),
		})
	})
	return closeTable(t, err)
}

func closeTable(t *tableWriter, err error) (int, error) {
	cerr := t.Close()
	if err != nil {
		slog.Error("export_table_failed", "table", t.name, "error", err)
		return t.rows, err
	}
	if cerr != nil {
		slog.Error("export_table_close_failed", "table", t.name, "error", cerr)
		return t.rows, cerr
	}
	slog.Info("export_table_written", "table", t.name, "rows", t.rows)
	return t.rows, nil
}

// exportImages streams image rows in batches ordered by structure_id.
// Any previous images/ tree is replaced so every folder holds exactly one file.
func exportImages(ctx context.Context, q *db.Queries, dir string, opts Options, stats *Stats) error {
	root := filepath.Join(dir, ImagesDir)
	if err := os.RemoveAll(root); err != nil {
		slog.Error("export_images_cleanup_failed", "path", root, "error", err)
		return errors.New(errors.ErrStorageFailure, "image", "export", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return errors.New(errors.ErrStorageFailure, "image", "export", err)
	}

	after := int64(-1)
	for {
		if err := ctx.Err(); err != nil {
			return errors.New(errors.ErrStorageFailure, "image", "export", err)
		}
		batch, err := q.ImagesAfter(ctx, after, opts.ImageBatchSize)
		if err != nil {
			return err
		}
		for _, img := range batch {
			if err := writeImage(root, img, opts.Validator); err != nil {
				return err
			}
			stats.Images++
			stats.ImageBytes += int64(len(img.Image))
			after = int64(img.StructureID)
		}
		slog.Info("export_image_batch_written", "count", len(batch), "last_structure_id", after)
		if len(batch) < opts.ImageBatchSize {
			return nil
		}
	}
}

func writeImage(root string, img db.Image, v *security.Validator) error {
	if err := v.ValidateFileName(img.Filename); err != nil {
		return err
	}
	folder := filepath.Join(root, formatUint(img.StructureID))
	if err := os.MkdirAll(folder, 0755); err != nil {
		slog.Error("export_image_dir_failed", "path", folder, "error", err)
		return errors.New(errors.ErrStorageFailure, "image", "export", err)
	}
	path := filepath.Join(folder, img.Filename)
	if err := os.WriteFile(path, img.Image, 0644); err != nil {
		slog.Error("export_image_write_failed", "path", path, "error", err)
		return errors.New(errors.ErrStorageFailure, "image", "export", err)
	}
	return nil
}
