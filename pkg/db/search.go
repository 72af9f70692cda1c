package db

import (
	"context"
	"strings"
)

// SearchFilter selects structures by keyword and charge range.
// An empty Keyword matches every structure.
type SearchFilter struct {
	Keyword   string
	MinCharge int8
	MaxCharge int8
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (f SearchFilter) where() (string, []any) {
	clause := `charge >= ? AND charge <= ?`
	args := []any{f.MinCharge, f.MaxCharge}
	if f.Keyword != "" {
		pattern := "%" + likeEscaper.Replace(f.Keyword) + "%"
		clause = `(formula LIKE ? ESCAPE '\' OR smiles LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\') AND ` + clause
		args = append([]any{pattern, pattern, pattern}, args...)
	}
	return clause, args
}

// CountMatching returns how many structures match f.
func (q *Queries) CountMatching(ctx context.Context, f SearchFilter) (uint32, error) {
	where, args := f.where()
	var n uint32
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM structures WHERE `+where, args...).Scan(&n); err != nil {
		return 0, classify(err, "structure", "search")
	}
	return n, nil
}

// IDAt returns the id at zero-based position pos of the matches of f in id order.
// ok is false when fewer than pos+1 structures match.
func (q *Queries) IDAt(ctx context.Context, f SearchFilter, pos uint64) (id uint32, ok bool, err error) {
	where, args := f.where()
	rows, err := q.db.QueryContext(ctx,
		`SELECT id FROM structures WHERE `+where+` ORDER BY id LIMIT 1 OFFSET ?`,
		append(args, pos)...)
	if err != nil {
		return 0, false, classify(err, "structure", "search")
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, false, classify(err, "structure", "search")
		}
		ok = true
	}
	return id, ok, classify(rows.Err(), "structure", "search")
}

// StructuresAfter returns up to limit matches of f with id greater than after,
// in ascending id order. Pass a negative after to start from the beginning.
func (q *Queries) StructuresAfter(ctx context.Context, f SearchFilter, after int64, limit uint32) ([]Structure, error) {
	where, args := f.where()
	rows, err := q.db.QueryContext(ctx,
		structureSelect+` WHERE id > ? AND `+where+` ORDER BY id LIMIT ?`,
		append(append([]any{after}, args...), limit)...)
	if err != nil {
		return nil, classify(err, "structure", "search")
	}
	defer rows.Close()

	items := []Structure{}
	for rows.Next() {
		s, err := scanStructure(rows)
		if err != nil {
			return nil, classify(err, "structure", "search")
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "structure", "search")
	}
	return items, nil
}
