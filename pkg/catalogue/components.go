package catalogue

import (
	"context"
	"time"

	"github.com/chembank/chembank/pkg/db"
)

// SetComponent records that structureID is built from count units of
// componentID, replacing any previous count. Neither id is checked for
// existence and cycles are not detected.
func (c *Catalogue) SetComponent(ctx context.Context, structureID, componentID, count uint32) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("set_component", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return err
	}
	return repo.Queries().UpsertComponent(ctx, db.Component{
		StructureID: structureID,
		ComponentID: componentID,
		Count:       count,
	})
}

// DeleteComponent removes one edge, failing with NotFound when it is absent.
func (c *Catalogue) DeleteComponent(ctx context.Context, structureID, componentID uint32) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("delete_component", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return err
	}
	return repo.Queries().DeleteComponent(ctx, structureID, componentID)
}

// CountReferencing returns how many edges use componentID as a component.
func (c *Catalogue) CountReferencing(ctx context.Context, componentID uint32) (n uint32, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("count_referencing", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return 0, err
	}
	return repo.Queries().CountReferencing(ctx, componentID)
}

// Components returns the outgoing edges of structureID.
func (c *Catalogue) Components(ctx context.Context, structureID uint32) (edges []db.Edge, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.metrics.observe("components", time.Now(), &err)

	repo, err := c.repository()
	if err != nil {
		return nil, err
	}
	return repo.Queries().ComponentsOf(ctx, structureID)
}
