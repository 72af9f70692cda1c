package catalogue

import (
	"context"
	"log/slog"
	"time"

	"github.com/chembank/chembank/pkg/db"
	"github.com/chembank/chembank/pkg/errors"
)

// StructureInput carries the caller-supplied fields of a structure.
// Empty Name or Smiles are stored as absent.
type StructureInput struct {
	Name    *string
	Formula string
	Smiles  *string
	Charge  int8
}

func (in StructureInput) structure(id uint32) db.Structure {
	return db.Structure{
		ID:      id,
		Name:    db.NullIfBlank(in.Name),
		Formula: in.Formula,
		Smiles:  db.NullIfBlank(in.Smiles),
		Charge:  in.Charge,
	}
}

// Detail is everything known about one structure.
type Detail struct {
	Structure db.Structure
	Property  *db.Property
	Image     *db.Image
	// Components lists the outgoing edges ordered by component id.
	Components []db.Edge
	// UsedBy lists the structures that have this one as a component.
	UsedBy []db.Edge
}

// CreateStructure inserts a structure and returns its assigned id.
func (c *Catalogue) CreateStructure(ctx context.Context, in StructureInput) (id uint32, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("create_structure", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return 0, err
	}
	return repo.Queries().CreateStructure(ctx, in.structure(0))
}

// UpdateStructure replaces every field of structure id.
func (c *Catalogue) UpdateStructure(ctx context.Context, id uint32, in StructureInput) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("update_structure", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return err
	}
	return repo.Queries().UpdateStructure(ctx, in.structure(id))
}

// RemoveStructure deletes structure id with its outgoing edges, property and
// image. It fails with ReferencedByOther while another edge uses id as a component.
func (c *Catalogue) RemoveStructure(ctx context.Context, id uint32) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("remove_structure", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return err
	}
	return repo.WithTx(ctx, func(q *db.Queries) error {
		s, err := q.GetStructure(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return errors.Newf(errors.ErrNotFound, "structure", "remove", "structure %d", id)
		}

		refs, err := q.CountReferencing(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			slog.Warn("catalogue_remove_blocked", "structure_id", id, "referencing_edges", refs)
			return errors.Newf(errors.ErrReferencedByOther, "structure", "remove",
				"structure %d is a component of %d other structure(s)", id, refs)
		}

		edges, err := q.DeleteComponentsOf(ctx, id)
		if err != nil {
			return err
		}
		if err := q.DeleteProperty(ctx, id); err != nil {
			return err
		}
		if err := q.DeleteImage(ctx, id); err != nil {
			return err
		}
		if _, err := q.DeleteStructure(ctx, id); err != nil {
			return err
		}
		slog.Info("catalogue_structure_removed", "structure_id", id, "edges_removed", edges)
		return nil
	})
}

// CountStructures returns the number of structures in the store.
func (c *Catalogue) CountStructures(ctx context.Context) (n uint32, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("count_structures", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return 0, err
	}
	return repo.Queries().CountStructures(ctx)
}

// GetDetail returns structure id with its attributes and edges in both directions.
func (c *Catalogue) GetDetail(ctx context.Context, id uint32) (detail *Detail, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("get_detail", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return nil, err
	}
	err = repo.WithTx(ctx, func(q *db.Queries) error {
		s, err := q.GetStructure(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return errors.Newf(errors.ErrNotFound, "structure", "get detail", "structure %d", id)
		}
		d := &Detail{Structure: *s}
		if d.Property, err = q.GetProperty(ctx, id); err != nil {
			return err
		}
		if d.Image, err = q.GetImage(ctx, id); err != nil {
			return err
		}
		if d.Components, err = q.ComponentsOf(ctx, id); err != nil {
			return err
		}
		if d.UsedBy, err = q.UsedBy(ctx, id); err != nil {
			return err
		}
		detail = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}
