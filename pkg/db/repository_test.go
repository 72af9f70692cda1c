package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chembank/chembank/pkg/errors"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "data", "chembank.db"))
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestRepository_CreateAndGetStructure(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	q := repo.Queries()

	id, err := q.CreateStructure(ctx, Structure{Name: strPtr("TNT"), Formula: "C7H5N3O6", Smiles: strPtr("Cc1c(cc(cc1[N+](=O)[O-])[N+](=O)[O-])[N+](=O)[O-]"), Charge: 0})
	if err != nil {
		t.Fatalf("failed to create structure: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero id")
	}

	got, err := q.GetStructure(ctx, id)
	if err != nil {
		t.Fatalf("failed to get structure: %v", err)
	}
	if got == nil || *got.Name != "TNT" || got.Formula != "C7H5N3O6" || got.Charge != 0 {
		t.Errorf("retrieved structure mismatch: %+v", got)
	}

	missing, err := q.GetStructure(ctx, id+100)
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for missing structure, got (%+v, %v)", missing, err)
	}
}

func TestRepository_UniqueConstraints(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	q := repo.Queries()

	if _, err := q.CreateStructure(ctx, Structure{Name: strPtr("RDX"), Formula: "C3H6N6O6", Smiles: strPtr("C1N(CN(CN1[N+](=O)[O-])[N+](=O)[O-])[N+](=O)[O-]")}); err != nil {
		t.Fatalf("failed to create structure: %v", err)
	}

	tests := []struct {
		name string
		s    Structure
	}{
		{"duplicate name", Structure{Name: strPtr("RDX"), Formula: "X"}},
		{"duplicate smiles", Structure{Formula: "X", Smiles: strPtr("C1N(CN(CN1[N+](=O)[O-])[N+](=O)[O-])[N+](=O)[O-]")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := q.CreateStructure(ctx, tt.s)
			if !errors.Is(err, errors.ErrConstraintViolation) {
				t.Errorf("expected constraint violation, got %v", err)
			}
		})
	}

	// NULL names and blank names never collide.
	for i := 0; i < 2; i++ {
		if _, err := q.CreateStructure(ctx, Structure{Name: strPtr(""), Formula: "H2O"}); err != nil {
			t.Fatalf("blank name should be stored as NULL: %v", err)
		}
	}
}

func TestRepository_UpdateStructureNotFound(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.Queries().UpdateStructure(context.Background(), Structure{ID: 42, Formula: "X"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRepository_ComponentEdges(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	q := repo.Queries()

	a, _ := q.CreateStructure(ctx, Structure{Name: strPtr("salt"), Formula: "NaCl"})
	b, _ := q.CreateStructure(ctx, Structure{Name: strPtr("sodium"), Formula: "Na", Charge: 1})

	if err := q.UpsertComponent(ctx, Component{StructureID: a, ComponentID: b, Count: 1}); err != nil {
		t.Fatalf("failed to set component: %v", err)
	}
	if err := q.UpsertComponent(ctx, Component{StructureID: a, ComponentID: b, Count: 3}); err != nil {
		t.Fatalf("failed to update component: %v", err)
	}
	// Edge to a structure that does not exist.
	if err := q.UpsertComponent(ctx, Component{StructureID: a, ComponentID: 999, Count: 2}); err != nil {
		t.Fatalf("failed to set dangling component: %v", err)
	}

	edges, err := q.ComponentsOf(ctx, a)
	if err != nil {
		t.Fatalf("failed to list components: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	if edges[0].Component.Count != 3 || edges[0].Structure == nil || edges[0].Structure.ID != b {
		t.Errorf("unexpected first edge: %+v", edges[0])
	}
	if edges[1].Structure != nil {
		t.Errorf("dangling edge should pair with nil, got %+v", edges[1].Structure)
	}

	n, err := q.CountReferencing(ctx, b)
	if err != nil || n != 1 {
		t.Errorf("CountReferencing = (%d, %v), want 1", n, err)
	}

	usedBy, err := q.UsedBy(ctx, b)
	if err != nil || len(usedBy) != 1 || usedBy[0].Structure.ID != a {
		t.Errorf("unexpected used-by list: %+v, %v", usedBy, err)
	}

	if err := q.DeleteComponent(ctx, a, b); err != nil {
		t.Fatalf("failed to delete component: %v", err)
	}
	if err := q.DeleteComponent(ctx, a, b); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestRepository_PropertyFullOverwrite(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	q := repo.Queries()

	first := Property{StructureID: 7, Density: floatPtr(1.23), Remarks: strPtr("dry")}
	if err := q.UpsertProperty(ctx, first); err != nil {
		t.Fatalf("failed to set property: %v", err)
	}
	got, err := q.GetProperty(ctx, 7)
	if err != nil || got == nil {
		t.Fatalf("failed to get property: %v", err)
	}
	if *got.Density != 1.23 || *got.Remarks != "dry" || got.DetVelocity != nil {
		t.Errorf("unexpected property: %+v", got)
	}

	second := Property{StructureID: 7, DetVelocity: floatPtr(8750)}
	if err := q.UpsertProperty(ctx, second); err != nil {
		t.Fatalf("failed to replace property: %v", err)
	}
	got, _ = q.GetProperty(ctx, 7)
	if got.Density != nil || got.Remarks != nil || *got.DetVelocity != 8750 {
		t.Errorf("property was not fully replaced: %+v", got)
	}

	if err := q.InsertProperty(ctx, second); !errors.Is(err, errors.ErrConstraintViolation) {
		t.Errorf("plain insert over an existing row should violate the key, got %v", err)
	}
}

func TestRepository_ImagesAfterBatches(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	q := repo.Queries()

	for _, id := range []uint32{5, 1, 3} {
		if err := q.UpsertImage(ctx, Image{StructureID: id, Filename: "mol.png", Image: []byte{0x89, byte(id)}}); err != nil {
			t.Fatalf("failed to set image: %v", err)
		}
	}

	batch, err := q.ImagesAfter(ctx, -1, 2)
	if err != nil {
		t.Fatalf("failed to read batch: %v", err)
	}
	if len(batch) != 2 || batch[0].StructureID != 1 || batch[1].StructureID != 3 {
		t.Fatalf("unexpected first batch: %+v", batch)
	}
	batch, _ = q.ImagesAfter(ctx, int64(batch[1].StructureID), 2)
	if len(batch) != 1 || batch[0].StructureID != 5 {
		t.Fatalf("unexpected second batch: %+v", batch)
	}
}

func TestRepository_WithTxRollsBack(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.WithTx(ctx, func(q *Queries) error {
		if _, err := q.CreateStructure(ctx, Structure{Name: strPtr("A"), Formula: "A"}); err != nil {
			return err
		}
		_, err := q.CreateStructure(ctx, Structure{Name: strPtr("A"), Formula: "A"})
		return err
	})
	if !errors.Is(err, errors.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", err)
	}

	n, err := repo.Queries().CountStructures(ctx)
	if err != nil || n != 0 {
		t.Errorf("expected rollback to leave 0 structures, got (%d, %v)", n, err)
	}
}

func TestSearchFilter_EscapesWildcards(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	q := repo.Queries()

	q.CreateStructure(ctx, Structure{Name: strPtr("100%"), Formula: "A"})
	q.CreateStructure(ctx, Structure{Name: strPtr("1000"), Formula: "B"})

	n, err := q.CountMatching(ctx, SearchFilter{Keyword: "0%", MinCharge: -128, MaxCharge: 127})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected literal %% match only, got %d", n)
	}
}
