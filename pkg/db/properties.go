package db

import (
	"context"
	"database/sql"
	"log/slog"
)

const propertySelect = `
	SELECT structure_id, decomp_temp, density, diss_temp, formation_enthalpy,
	       impact_sensitive, friction_sensitivity, det_velocity, det_pressure,
	       n_content, o_content, no_content, "references", remarks
	FROM property`

const propertyInsert = `
	INSERT INTO property (structure_id, decomp_temp, density, diss_temp, formation_enthalpy,
	       impact_sensitive, friction_sensitivity, det_velocity, det_pressure,
	       n_content, o_content, no_content, "references", remarks)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func propertyArgs(p Property) []any {
	return []any{
		p.StructureID,
		p.DecompTemp, p.Density, p.DissTemp, p.FormationEnthalpy,
		p.ImpactSensitive, p.FrictionSensitivity, p.DetVelocity, p.DetPressure,
		p.NContent, p.OContent, p.NOContent,
		NullIfBlank(p.References), NullIfBlank(p.Remarks),
	}
}

func scanProperty(row rowScanner) (Property, error) {
	var p Property
	nums := make([]sql.NullFloat64, 11)
	var refs, remarks sql.NullString

	dest := []any{&p.StructureID}
	for i := range nums {
		dest = append(dest, &nums[i])
	}
	dest = append(dest, &refs, &remarks)

	if err := row.Scan(dest...); err != nil {
		return Property{}, err
	}
	for i, field := range p.Numbers() {
		*field = nullFloat(nums[i])
	}
	p.References = nullString(refs)
	p.Remarks = nullString(remarks)
	return p, nil
}

// UpsertProperty stores p as the complete property record of its structure.
// Fields left nil overwrite previous values with NULL.
func (q *Queries) UpsertProperty(ctx context.Context, p Property) error {
	slog.Info("database_upsert_property", "structure_id", p.StructureID)

	_, err := q.db.ExecContext(ctx, propertyInsert+`
		ON CONFLICT(structure_id) DO UPDATE SET
			decomp_temp = excluded.decomp_temp,
			density = excluded.density,
			diss_temp = excluded.diss_temp,
			formation_enthalpy = excluded.formation_enthalpy,
			impact_sensitive = excluded.impact_sensitive,
			friction_sensitivity = excluded.friction_sensitivity,
			det_velocity = excluded.det_velocity,
			det_pressure = excluded.det_pressure,
			n_content = excluded.n_content,
			o_content = excluded.o_content,
			no_content = excluded.no_content,
			"references" = excluded."references",
			remarks = excluded.remarks
	`, propertyArgs(p)...)
	return classify(err, "property", "set")
}

// InsertProperty inserts a property record and fails if one exists. Used by bulk import.
func (q *Queries) InsertProperty(ctx context.Context, p Property) error {
	_, err := q.db.ExecContext(ctx, propertyInsert, propertyArgs(p)...)
	return classify(err, "property", "insert")
}

// GetProperty returns the property record of a structure, or nil when absent.
func (q *Queries) GetProperty(ctx context.Context, structureID uint32) (*Property, error) {
	p, err := scanProperty(q.db.QueryRowContext(ctx, propertySelect+` WHERE structure_id = ?`, structureID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "property", "get")
	}
	return &p, nil
}

// DeleteProperty removes the property record of a structure if present.
func (q *Queries) DeleteProperty(ctx context.Context, structureID uint32) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM property WHERE structure_id = ?`, structureID)
	return classify(err, "property", "delete")
}

// EachProperty calls fn for every property record in ascending structure_id order.
func (q *Queries) EachProperty(ctx context.Context, fn func(Property) error) error {
	rows, err := q.db.QueryContext(ctx, propertySelect+` ORDER BY structure_id`)
	if err != nil {
		return classify(err, "property", "list")
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return classify(err, "property", "scan")
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return classify(rows.Err(), "property", "list")
}
