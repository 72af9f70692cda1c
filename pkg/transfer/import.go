package transfer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/chembank/chembank/pkg/db"
	"github.com/chembank/chembank/pkg/errors"
	"github.com/dustin/go-humanize"
)

// Import reads a directory written by Export and inserts every row through q.
// Rows are inserted as-is, so an id already present in the store fails with
// ConstraintViolation. Callers run Import inside a transaction to get
// all-or-nothing behaviour.
func Import(ctx context.Context, q *db.Queries, dir string, opts Options) (*Stats, error) {
	opts = opts.withDefaults()
	slog.Info("import_start", "dir", dir)

	info, err := os.Stat(dir)
	if err != nil {
		slog.Error("import_dir_invalid", "dir", dir, "error", err)
		return nil, errors.New(errors.ErrMalformedInput, "folder", "import", err)
	}
	if !info.IsDir() {
		slog.Error("import_dir_invalid", "dir", dir, "error", "not a directory")
		return nil, errors.Newf(errors.ErrMalformedInput, "folder", "import", "%s is not a directory", dir)
	}

	stats := &Stats{}
	if stats.Structures, err = importStructures(ctx, q, dir); err != nil {
		return stats, err
	}
	if stats.Properties, err = importProperties(ctx, q, dir); err != nil {
		return stats, err
	}
	if stats.Components, err = importComponents(ctx, q, dir); err != nil {
		return stats, err
	}
	if err := importImages(ctx, q, dir, opts, stats); err != nil {
		return stats, err
	}

	slog.Info("import_complete",
		"dir", dir,
		"structures", stats.Structures,
		"properties", stats.Properties,
		"components", stats.Components,
		"images", stats.Images,
		"image_bytes", humanize.Bytes(uint64(stats.ImageBytes)),
	)
	return stats, nil
}

// eachRecord opens a table and calls fn for every record after the header.
func eachRecord(ctx context.Context, dir, name string, header []string, fn func(rec []string, p *fieldParser) error) (int, error) {
	t, err := openTable(dir, name, header)
	if err != nil {
		slog.Error("import_table_open_failed", "table", name, "error", err)
		return 0, err
	}
	defer t.Close()

	rows := 0
	for {
		if err := ctx.Err(); err != nil {
			return rows, errors.New(errors.ErrStorageFailure, name, "import", err)
		}
		rec, err := t.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Error("import_table_read_failed", "table", name, "error", err)
			return rows, err
		}
		p := &fieldParser{table: name, line: t.line(), header: header}
		if err := fn(rec, p); err != nil {
			slog.Error("import_row_failed", "table", name, "line", p.line, "error", err)
			return rows, err
		}
		rows++
	}
	slog.Info("import_table_read", "table", name, "rows", rows)
	return rows, nil
}

func importStructures(ctx context.Context, q *db.Queries, dir string) (int, error) {
	return eachRecord(ctx, dir, StructuresFile, db.StructureColumns, func(rec []string, p *fieldParser) error {
		s := db.Structure{
			ID:      p.uintField(rec, 0),
			Name:    p.stringField(rec, 1),
			Formula: rec[2],
			Smiles:  p.stringField(rec, 3),
			Charge:  p.int8Field(rec, 4),
		}
		if p.err != nil {
			return p.err
		}
		return q.InsertStructure(ctx, s)
	})
}

func importProperties(ctx context.Context, q *db.Queries, dir string) (int, error) {
	return eachRecord(ctx, dir, PropertiesFile, db.PropertyColumns, func(rec []string, p *fieldParser) error {
		prop := db.Property{StructureID: p.uintField(rec, 0)}
		col := 1
		for _, f := range prop.Numbers() {
			*f = p.floatField(rec, col)
			col++
		}
		prop.References = p.stringField(rec, col)
		prop.Remarks = p.stringField(rec, col+1)
		if p.err != nil {
			return p.err
		}
		return q.InsertProperty(ctx, prop)
	})
}

func importComponents(ctx context.Context, q *db.Queries, dir string) (int, error) {
	return eachRecord(ctx, dir, ComponentsFile, db.ComponentColumns, func(rec []string, p *fieldParser) error {
		c := db.Component{
			StructureID: p.uintField(rec, 0),
			ComponentID: p.uintField(rec, 1),
			Count:       p.uintField(rec, 2),
		}
		if p.err != nil {
			return p.err
		}
		return q.InsertComponent(ctx, c)
	})
}

type imageFolder struct {
	id   uint32
	name string
}

// importImages loads images/<structure_id>/<filename>. A missing images/
// directory means the export had no images.
func importImages(ctx context.Context, q *db.Queries, dir string, opts Options, stats *Stats) error {
	root := filepath.Join(dir, ImagesDir)
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		slog.Info("import_images_absent", "path", root)
		return nil
	}
	if err != nil {
		return errors.New(errors.ErrStorageFailure, "image", "import", err)
	}

	folders := make([]imageFolder, 0, len(entries))
	for _, e := range entries {
		id, err := opts.Validator.ParseImageFolder(e.Name())
		if err != nil {
			slog.Error("import_image_folder_invalid", "folder", e.Name(), "error", err)
			return err
		}
		if !e.IsDir() {
			return errors.Newf(errors.ErrInvalidImageFolder, "image", "import", "%s is not a directory", e.Name())
		}
		folders = append(folders, imageFolder{id: id, name: e.Name()})
	}
	slices.SortFunc(folders, func(a, b imageFolder) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})

	for _, f := range folders {
		if err := ctx.Err(); err != nil {
			return errors.New(errors.ErrStorageFailure, "image", "import", err)
		}
		img, err := readImageFolder(filepath.Join(root, f.name), f.id, opts)
		if err != nil {
			return err
		}
		if err := q.InsertImage(ctx, img); err != nil {
			return err
		}
		stats.Images++
		stats.ImageBytes += int64(len(img.Image))
	}
	slog.Info("import_images_loaded", "count", stats.Images)
	return nil
}

// readImageFolder reads the single regular file of an image folder.
func readImageFolder(folder string, id uint32, opts Options) (db.Image, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return db.Image{}, errors.New(errors.ErrStorageFailure, "image", "import", err)
	}

	var files []os.DirEntry
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e)
		}
	}
	switch {
	case len(files) == 0:
		slog.Error("import_image_folder_empty", "folder", folder)
		return db.Image{}, errors.Newf(errors.ErrEmptyImageFolder, "image", "import", "folder %d holds no file", id)
	case len(files) > 1:
		slog.Error("import_image_folder_ambiguous", "folder", folder, "files", len(files))
		return db.Image{}, errors.Newf(errors.ErrInvalidImageFolder, "image", "import",
			"folder %d holds %d files, want 1", id, len(files))
	}

	name := files[0].Name()
	if err := opts.Validator.ValidateFileName(name); err != nil {
		return db.Image{}, err
	}
	info, err := files[0].Info()
	if err != nil {
		return db.Image{}, errors.New(errors.ErrStorageFailure, "image", "import", err)
	}
	if err := opts.Validator.ValidateImageSize(info.Size()); err != nil {
		return db.Image{}, err
	}
	data, err := os.ReadFile(filepath.Join(folder, name))
	if err != nil {
		return db.Image{}, errors.New(errors.ErrStorageFailure, "image", "import", err)
	}
	return db.Image{StructureID: id, Filename: name, Image: data}, nil
}
