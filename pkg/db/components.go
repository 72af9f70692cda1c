package db

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/chembank/chembank/pkg/errors"
)

// UpsertComponent sets the multiplicity of an edge, creating it when absent.
func (q *Queries) UpsertComponent(ctx context.Context, c Component) error {
	slog.Info("database_upsert_component",
		"structure_id", c.StructureID, "component_id", c.ComponentID, "count", c.Count)

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO components (structure_id, component_id, count)
		VALUES (?, ?, ?)
		ON CONFLICT(structure_id, component_id) DO UPDATE SET count = excluded.count
	`, c.StructureID, c.ComponentID, c.Count)
	return classify(err, "component", "set")
}

// InsertComponent inserts an edge and fails if it already exists. Used by bulk import.
func (q *Queries) InsertComponent(ctx context.Context, c Component) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO components (structure_id, component_id, count) VALUES (?, ?, ?)`,
		c.StructureID, c.ComponentID, c.Count)
	return classify(err, "component", "insert")
}

// DeleteComponent removes one edge. It fails with NotFound when the edge does not exist.
func (q *Queries) DeleteComponent(ctx context.Context, structureID, componentID uint32) error {
	result, err := q.db.ExecContext(ctx,
		`DELETE FROM components WHERE structure_id = ? AND component_id = ?`,
		structureID, componentID)
	if err != nil {
		return classify(err, "component", "delete")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.New(errors.ErrStorageFailure, "component", "delete", err)
	}
	if rows == 0 {
		return errors.Newf(errors.ErrNotFound, "component", "delete",
			"structure_id=%d component_id=%d", structureID, componentID)
	}
	return nil
}

// DeleteComponentsOf removes every edge whose composite is structureID.
func (q *Queries) DeleteComponentsOf(ctx context.Context, structureID uint32) (int64, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM components WHERE structure_id = ?`, structureID)
	if err != nil {
		return 0, classify(err, "component", "delete")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.New(errors.ErrStorageFailure, "component", "delete", err)
	}
	return rows, nil
}

// CountReferencing returns how many edges use componentID as a component.
func (q *Queries) CountReferencing(ctx context.Context, componentID uint32) (uint32, error) {
	var n uint32
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM components WHERE component_id = ?`, componentID).Scan(&n)
	if err != nil {
		return 0, classify(err, "component", "count")
	}
	return n, nil
}

// ComponentsOf returns the outgoing edges of structureID, each paired with
// its component structure when that structure exists.
func (q *Queries) ComponentsOf(ctx context.Context, structureID uint32) ([]Edge, error) {
	return q.edges(ctx, `
		SELECT c.structure_id, c.component_id, c.count,
		       s.id, s.name, s.formula, s.smiles, s.charge
		FROM components c
		LEFT JOIN structures s ON s.id = c.component_id
		WHERE c.structure_id = ?
		ORDER BY c.component_id
	`, structureID)
}

// UsedBy returns the incoming edges of componentID, each paired with the
// composite structure when it exists.
func (q *Queries) UsedBy(ctx context.Context, componentID uint32) ([]Edge, error) {
	return q.edges(ctx, `
		SELECT c.structure_id, c.component_id, c.count,
		       s.id, s.name, s.formula, s.smiles, s.charge
		FROM components c
		LEFT JOIN structures s ON s.id = c.structure_id
		WHERE c.component_id = ?
		ORDER BY c.structure_id
	`, componentID)
}

func (q *Queries) edges(ctx context.Context, query string, id uint32) ([]Edge, error) {
	rows, err := q.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, classify(err, "component", "list")
	}
	defer rows.Close()

	edges := []Edge{}
	for rows.Next() {
		var e Edge
		var sid sql.NullInt64
		var name, formula, smiles sql.NullString
		var charge sql.NullInt64
		err := rows.Scan(&e.Component.StructureID, &e.Component.ComponentID, &e.Component.Count,
			&sid, &name, &formula, &smiles, &charge)
		if err != nil {
			return nil, classify(err, "component", "scan")
		}
		if sid.Valid {
			e.Structure = &Structure{
				ID:      uint32(sid.Int64),
				Name:    nullString(name),
				Formula: formula.String,
				Smiles:  nullString(smiles),
				Charge:  int8(charge.Int64),
			}
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "component", "list")
	}
	return edges, nil
}

// EachComponent calls fn for every edge ordered by (structure_id, component_id).
func (q *Queries) EachComponent(ctx context.Context, fn func(Component) error) error {
	rows, err := q.db.QueryContext(ctx,
		`SELECT structure_id, component_id, count FROM components ORDER BY structure_id, component_id`)
	if err != nil {
		return classify(err, "component", "list")
	}
	defer rows.Close()

	for rows.Next() {
		var c Component
		if err := rows.Scan(&c.StructureID, &c.ComponentID, &c.Count); err != nil {
			return classify(err, "component", "scan")
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return classify(rows.Err(), "component", "list")
}
