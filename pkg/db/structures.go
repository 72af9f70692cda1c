package db

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/chembank/chembank/pkg/errors"
)

const structureSelect = `SELECT id, name, formula, smiles, charge FROM structures`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStructure(row rowScanner) (Structure, error) {
	var s Structure
	var name, smiles sql.NullString
	if err := row.Scan(&s.ID, &name, &s.Formula, &smiles, &s.Charge); err != nil {
		return Structure{}, err
	}
	s.Name = nullString(name)
	s.Smiles = nullString(smiles)
	return s, nil
}

// CreateStructure inserts a structure and returns the id assigned by the store.
func (q *Queries) CreateStructure(ctx context.Context, s Structure) (uint32, error) {
	slog.Info("database_create_structure", "formula", s.Formula, "charge", s.Charge)

	result, err := q.db.ExecContext(ctx,
		`INSERT INTO structures (name, formula, smiles, charge) VALUES (?, ?, ?, ?)`,
		NullIfBlank(s.Name), s.Formula, NullIfBlank(s.Smiles), s.Charge)
	if err != nil {
		return 0, classify(err, "structure", "create")
	}

	id, err := result.LastInsertId()
	if err != nil {
		slog.Error("database_last_insert_id_failed", "error", err)
		return 0, errors.New(errors.ErrStorageFailure, "structure", "create", err)
	}

	slog.Info("database_structure_created", "structure_id", id)
	return uint32(id), nil
}

// InsertStructure inserts a structure keeping its id. Used by bulk import.
func (q *Queries) InsertStructure(ctx context.Context, s Structure) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO structures (id, name, formula, smiles, charge) VALUES (?, ?, ?, ?, ?)`,
		s.ID, NullIfBlank(s.Name), s.Formula, NullIfBlank(s.Smiles), s.Charge)
	return classify(err, "structure", "insert")
}

// UpdateStructure replaces every field of an existing structure.
func (q *Queries) UpdateStructure(ctx context.Context, s Structure) error {
	slog.Info("database_update_structure", "structure_id", s.ID)

	result, err := q.db.ExecContext(ctx,
		`UPDATE structures SET name = ?, formula = ?, smiles = ?, charge = ? WHERE id = ?`,
		NullIfBlank(s.Name), s.Formula, NullIfBlank(s.Smiles), s.Charge, s.ID)
	if err != nil {
		return classify(err, "structure", "update")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.New(errors.ErrStorageFailure, "structure", "update", err)
	}
	if rows == 0 {
		slog.Info("database_structure_not_found_for_update", "structure_id", s.ID)
		return errors.Newf(errors.ErrNotFound, "structure", "update", "id=%d", s.ID)
	}

	slog.Info("database_structure_updated", "structure_id", s.ID)
	return nil
}

// DeleteStructure deletes one structure row and reports whether it existed.
func (q *Queries) DeleteStructure(ctx context.Context, id uint32) (bool, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM structures WHERE id = ?`, id)
	if err != nil {
		return false, classify(err, "structure", "delete")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.New(errors.ErrStorageFailure, "structure", "delete", err)
	}
	return rows > 0, nil
}

// GetStructure returns the structure with the given id, or nil when absent.
func (q *Queries) GetStructure(ctx context.Context, id uint32) (*Structure, error) {
	s, err := scanStructure(q.db.QueryRowContext(ctx, structureSelect+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "structure", "get")
	}
	return &s, nil
}

// CountStructures returns the number of structures.
func (q *Queries) CountStructures(ctx context.Context) (uint32, error) {
	var n uint32
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM structures`).Scan(&n); err != nil {
		return 0, classify(err, "structure", "count")
	}
	return n, nil
}

// EachStructure calls fn for every structure in ascending id order.
func (q *Queries) EachStructure(ctx context.Context, fn func(Structure) error) error {
	rows, err := q.db.QueryContext(ctx, structureSelect+` ORDER BY id`)
	if err != nil {
		return classify(err, "structure", "list")
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanStructure(rows)
		if err != nil {
			return classify(err, "structure", "scan")
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return classify(rows.Err(), "structure", "list")
}
