package db

import (
	"context"
	"database/sql"
	"log/slog"
)

// UpsertImage stores img as the image of its structure, replacing any previous one.
func (q *Queries) UpsertImage(ctx context.Context, img Image) error {
	slog.Info("database_upsert_image",
		"structure_id", img.StructureID, "filename", img.Filename, "size", len(img.Image))

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO images (structure_id, filename, image) VALUES (?, ?, ?)
		ON CONFLICT(structure_id) DO UPDATE SET
			filename = excluded.filename,
			image = excluded.image
	`, img.StructureID, img.Filename, imageBytes(img.Image))
	return classify(err, "image", "set")
}

// InsertImage inserts an image and fails if the structure already has one. Used by bulk import.
func (q *Queries) InsertImage(ctx context.Context, img Image) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO images (structure_id, filename, image) VALUES (?, ?, ?)`,
		img.StructureID, img.Filename, imageBytes(img.Image))
	return classify(err, "image", "insert")
}

// GetImage returns the image of a structure, or nil when absent.
func (q *Queries) GetImage(ctx context.Context, structureID uint32) (*Image, error) {
	var img Image
	err := q.db.QueryRowContext(ctx,
		`SELECT structure_id, filename, image FROM images WHERE structure_id = ?`, structureID).
		Scan(&img.StructureID, &img.Filename, &img.Image)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "image", "get")
	}
	return &img, nil
}

// DeleteImage removes the image of a structure if present.
func (q *Queries) DeleteImage(ctx context.Context, structureID uint32) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM images WHERE structure_id = ?`, structureID)
	return classify(err, "image", "delete")
}

// ImagesAfter returns up to limit images with structure_id greater than after,
// ordered by structure_id. Pass a negative after to start from the beginning.
func (q *Queries) ImagesAfter(ctx context.Context, after int64, limit int) ([]Image, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT structure_id, filename, image FROM images
		WHERE structure_id > ?
		ORDER BY structure_id
		LIMIT ?
	`, after, limit)
	if err != nil {
		return nil, classify(err, "image", "list")
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.StructureID, &img.Filename, &img.Image); err != nil {
			return nil, classify(err, "image", "scan")
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "image", "list")
	}
	return images, nil
}

// imageBytes keeps an empty payload distinct from NULL.
func imageBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
