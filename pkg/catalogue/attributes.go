package catalogue

import (
	"context"
	"time"

	"github.com/chembank/chembank/pkg/db"
	"github.com/chembank/chembank/pkg/errors"
)

// SetProperty stores p as the property of p.StructureID. Every field is
// replaced: fields left nil become absent.
func (c *Catalogue) SetProperty(ctx context.Context, p db.Property) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("set_property", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return err
	}
	return repo.Queries().UpsertProperty(ctx, p)
}

// GetProperty returns the property of structureID, or nil when it has none.
func (c *Catalogue) GetProperty(ctx context.Context, structureID uint32) (p *db.Property, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("get_property", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return nil, err
	}
	return repo.Queries().GetProperty(ctx, structureID)
}

// SetImage stores img as the image of img.StructureID, replacing any previous
// one. The filename must be usable as a single path element.
func (c *Catalogue) SetImage(ctx context.Context, img db.Image) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("set_image", time.Now(), &err)

	if err := c.validate.Struct(img); err != nil {
		return errors.New(errors.ErrMalformedInput, "image", "set", err)
	}
	if err := c.guard.ValidateFileName(img.Filename); err != nil {
		return err
	}
	if err := c.guard.ValidateImageSize(int64(len(img.Image))); err != nil {
		return err
	}

	repo, err := c.repository()
	if err != nil {
		return err
	}
	return repo.Queries().UpsertImage(ctx, img)
}

// GetImage returns the image of structureID, or nil when it has none.
func (c *Catalogue) GetImage(ctx context.Context, structureID uint32) (img *db.Image, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("get_image", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return nil, err
	}
	return repo.Queries().GetImage(ctx, structureID)
}
