package transfer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chembank/chembank/pkg/db"
	"github.com/chembank/chembank/pkg/errors"
	"github.com/chembank/chembank/pkg/security"
)

func newTestRepository(t *testing.T) *db.Repository {
	t.Helper()
	repo, err := db.NewRepository(filepath.Join(t.TempDir(), "chembank.db"))
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

// seed fills the store with three structures, a dangling edge and two images.
func seed(t *testing.T, q *db.Queries) {
	t.Helper()
	ctx := context.Background()

	structures := []db.Structure{
		{ID: 1, Name: strPtr("TNT"), Formula: "C7H5N3O6", Smiles: strPtr("Cc1c(cc(cc1[N+](=O)[O-])[N+](=O)[O-])[N+](=O)[O-]")},
		{ID: 2, Name: strPtr("ammonium, \"salt\"\r\nhydrate"), Formula: "NH4+", Smiles: strPtr(" "), Charge: 1},
		{ID: 5, Formula: "NO3-", Charge: -1},
	}
	for _, s := range structures {
		if err := q.InsertStructure(ctx, s); err != nil {
			t.Fatalf("failed to insert structure: %v", err)
		}
	}

	props := []db.Property{
		{StructureID: 1, Density: floatPtr(1.654), DetVelocity: floatPtr(6900), Remarks: strPtr("line one\nline two\r\nline three\r")},
		{StructureID: 2, FormationEnthalpy: floatPtr(-0.1), References: strPtr("Handbook, p. 12"), Remarks: strPtr("  ")},
	}
	for _, p := range props {
		if err := q.InsertProperty(ctx, p); err != nil {
			t.Fatalf("failed to insert property: %v", err)
		}
	}

	edges := []db.Component{
		{StructureID: 5, ComponentID: 2, Count: 1},
		{StructureID: 5, ComponentID: 42, Count: 3},
	}
	for _, c := range edges {
		if err := q.InsertComponent(ctx, c); err != nil {
			t.Fatalf("failed to insert component: %v", err)
		}
	}

	images := []db.Image{
		{StructureID: 1, Filename: "tnt.png", Image: []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}},
		{StructureID: 5, Filename: "nitrate.svg", Image: []byte("<svg/>")},
	}
	for _, img := range images {
		if err := q.InsertImage(ctx, img); err != nil {
			t.Fatalf("failed to insert image: %v", err)
		}
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestRepository(t)
	seed(t, src.Queries())

	dir := filepath.Join(t.TempDir(), "export")
	stats, err := Export(ctx, src.Queries(), dir, Options{ImageBatchSize: 1})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if stats.Structures != 3 || stats.Properties != 2 || stats.Components != 2 || stats.Images != 2 {
		t.Errorf("unexpected export stats: %+v", stats)
	}

	dst := newTestRepository(t)
	var imported *Stats
	err = dst.WithTx(ctx, func(q *db.Queries) error {
		var err error
		imported, err = Import(ctx, q, dir, Options{})
		return err
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if *imported != *stats {
		t.Errorf("import stats %+v differ from export stats %+v", imported, stats)
	}

	q := dst.Queries()
	s, err := q.GetStructure(ctx, 2)
	if err != nil || s == nil {
		t.Fatalf("structure 2 missing after import: %v", err)
	}
	if *s.Name != "ammonium, \"salt\"\r\nhydrate" || s.Charge != 1 || s.Smiles == nil || *s.Smiles != " " {
		t.Errorf("structure 2 did not round-trip: %+v", s)
	}

	p, _ := q.GetProperty(ctx, 1)
	if p == nil || *p.Density != 1.654 || *p.DetVelocity != 6900 || *p.Remarks != "line one\nline two\r\nline three\r" || p.DissTemp != nil {
		t.Errorf("property 1 did not round-trip: %+v", p)
	}
	p, _ = q.GetProperty(ctx, 2)
	if p == nil || *p.References != "Handbook, p. 12" || p.Remarks == nil || *p.Remarks != "  " {
		t.Errorf("property 2 did not round-trip: %+v", p)
	}
	if s, _ := q.GetStructure(ctx, 5); s == nil || s.Name != nil {
		t.Errorf("null name of structure 5 did not round-trip: %+v", s)
	}

	edges, _ := q.ComponentsOf(ctx, 5)
	if len(edges) != 2 || edges[1].Component.ComponentID != 42 || edges[1].Component.Count != 3 {
		t.Errorf("components did not round-trip: %+v", edges)
	}

	img, _ := q.GetImage(ctx, 1)
	if img == nil || img.Filename != "tnt.png" || !bytes.Equal(img.Image, []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}) {
		t.Errorf("image 1 did not round-trip: %+v", img)
	}
}

func TestExport_WritesByteOrderMark(t *testing.T) {
	repo := newTestRepository(t)
	dir := t.TempDir()

	if _, err := Export(context.Background(), repo.Queries(), dir, Options{}); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	for _, name := range []string{StructuresFile, PropertiesFile, ComponentsFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("failed to read %s: %v", name, err)
		}
		if !bytes.HasPrefix(data, []byte{0xef, 0xbb, 0xbf}) {
			t.Errorf("%s does not start with a byte-order mark", name)
		}
	}

	if entries, err := os.ReadDir(filepath.Join(dir, ImagesDir)); err != nil || len(entries) != 0 {
		t.Errorf("expected an empty images directory, got %v, %v", entries, err)
	}
}

func TestExport_ReplacesStaleImages(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	seed(t, repo.Queries())
	dir := t.TempDir()

	stale := filepath.Join(dir, ImagesDir, "1", "old.png")
	os.MkdirAll(filepath.Dir(stale), 0755)
	os.WriteFile(stale, []byte("old"), 0644)

	if _, err := Export(ctx, repo.Queries(), dir, Options{}); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale image should be removed, stat returned %v", err)
	}
}

// writeTables writes BOM-less tables with the given bodies.
func writeTables(t *testing.T, dir, structures, properties, components string) {
	t.Helper()
	files := map[string]string{
		StructuresFile: strings.Join(db.StructureColumns, ",") + "\n" + structures,
		PropertiesFile: strings.Join(db.PropertyColumns, ",") + "\n" + properties,
		ComponentsFile: strings.Join(db.ComponentColumns, ",") + "\n" + components,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func importInto(t *testing.T, repo *db.Repository, dir string, opts Options) error {
	t.Helper()
	ctx := context.Background()
	return repo.WithTx(ctx, func(q *db.Queries) error {
		_, err := Import(ctx, q, dir, opts)
		return err
	})
}

func TestImport_AcceptsMissingByteOrderMarkAndImages(t *testing.T) {
	repo := newTestRepository(t)
	dir := t.TempDir()
	writeTables(t, dir, "7,water,H2O,O,0\n", "", "")

	if err := importInto(t, repo, dir, Options{}); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	n, _ := repo.Queries().CountStructures(context.Background())
	if n != 1 {
		t.Errorf("expected 1 structure, got %d", n)
	}
}

func TestImport_Failures(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, dir string)
		opts    Options
		want    error
	}{
		{
			name: "missing table",
			prepare: func(t *testing.T, dir string) {
				writeTables(t, dir, "", "", "")
				os.Remove(filepath.Join(dir, PropertiesFile))
			},
			want: errors.ErrMalformedInput,
		},
		{
			name: "bad header",
			prepare: func(t *testing.T, dir string) {
				writeTables(t, dir, "", "", "")
				os.WriteFile(filepath.Join(dir, StructuresFile), []byte("id,title,formula,smiles,charge\n"), 0644)
			},
			want: errors.ErrMalformedInput,
		},
		{
			name: "unparseable charge",
			prepare: func(t *testing.T, dir string) {
				writeTables(t, dir, "1,a,A,,300\n", "", "")
			},
			want: errors.ErrMalformedInput,
		},
		{
			name: "unterminated quote",
			prepare: func(t *testing.T, dir string) {
				writeTables(t, dir, "1,\"open,A,,0\n", "", "")
			},
			want: errors.ErrMalformedInput,
		},
		{
			name: "wrong field count",
			prepare: func(t *testing.T, dir string) {
				writeTables(t, dir, "", "", "1,2\n")
			},
			want: errors.ErrMalformedInput,
		},
		{
			name: "duplicate id",
			prepare: func(t *testing.T, dir string) {
				writeTables(t, dir, "1,a,A,,0\n1,b,B,,0\n", "", "")
			},
			want: errors.ErrConstraintViolation,
		},
		{
			name: "non-numeric image folder",
			prepare: func(t *testing.T, dir string) {
				writeTables(t, dir, "1,a,A,,0\n", "", "")
				os.MkdirAll(filepath.Join(dir, ImagesDir, "tnt"), 0755)
			},
			want: errors.ErrInvalidImageFolder,
		},
		{
			name: "empty image folder",
			prepare: func(t *testing.T, dir string) {
				writeTables(t, dir, "1,a,A,,0\n", "", "")
				os.MkdirAll(filepath.Join(dir, ImagesDir, "1"), 0755)
			},
			want: errors.ErrEmptyImageFolder,
		},
		{
			name: "image folder with two files",
			prepare: func(t *testing.T, dir string) {
				writeTables(t, dir, "1,a,A,,0\n", "", "")
				folder := filepath.Join(dir, ImagesDir, "1")
				os.MkdirAll(folder, 0755)
				os.WriteFile(filepath.Join(folder, "a.png"), []byte("a"), 0644)
				os.WriteFile(filepath.Join(folder, "b.png"), []byte("b"), 0644)
			},
			want: errors.ErrInvalidImageFolder,
		},
		{
			name: "oversized image",
			prepare: func(t *testing.T, dir string) {
				writeTables(t, dir, "1,a,A,,0\n", "", "")
				folder := filepath.Join(dir, ImagesDir, "1")
				os.MkdirAll(folder, 0755)
				os.WriteFile(filepath.Join(folder, "a.png"), make([]byte, 64), 0644)
			},
			opts: Options{Validator: security.NewValidator(16)},
			want: errors.ErrMalformedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepository(t)
			dir := t.TempDir()
			tt.prepare(t, dir)

			err := importInto(t, repo, dir, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			n, _ := repo.Queries().CountStructures(context.Background())
			if n != 0 {
				t.Errorf("failed import left %d structures behind", n)
			}
		})
	}
}

func TestImport_TwiceViolatesConstraints(t *testing.T) {
	ctx := context.Background()
	src := newTestRepository(t)
	seed(t, src.Queries())
	dir := t.TempDir()
	if _, err := Export(ctx, src.Queries(), dir, Options{}); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	dst := newTestRepository(t)
	if err := importInto(t, dst, dir, Options{}); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	if err := importInto(t, dst, dir, Options{}); !errors.Is(err, errors.ErrConstraintViolation) {
		t.Errorf("expected constraint violation on second import, got %v", err)
	}
}
