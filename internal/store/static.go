package store

import (
	"context"
	"sort"

	"gymsched/internal/domain"
)

// StaticCatalog serves a fixed resource and absence-reason set from memory.
// Used by file-backed deployments and tests; database-backed deployments use
// the postgres catalog instead.
type StaticCatalog struct {
	resources map[string]domain.Resource
	reasons   map[string]domain.AbsenceReason
}

func NewStaticCatalog(resources []domain.Resource, reasons []domain.AbsenceReason) *StaticCatalog {
	c := &StaticCatalog{
		resources: make(map[string]domain.Resource, len(resources)),
		reasons:   make(map[string]domain.AbsenceReason, len(reasons)),
	}
	for _, r := range resources {
		c.resources[r.ID] = r
	}
	for _, ar := range reasons {
		c.reasons[ar.ID] = ar
	}
	return c
}

func (c *StaticCatalog) ListResources(ctx context.Context, locationID string) ([]domain.Resource, error) {
	out := make([]domain.Resource, 0, len(c.resources))
	for _, r := range c.resources {
		if locationID != "" && r.LocationID != locationID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *StaticCatalog) GetResource(ctx context.Context, id string) (domain.Resource, error) {
	r, ok := c.resources[id]
	if !ok {
		return domain.Resource{}, ErrNotFound
	}
	return r, nil
}

func (c *StaticCatalog) ListAbsenceReasons(ctx context.Context) ([]domain.AbsenceReason, error) {
	out := make([]domain.AbsenceReason, 0, len(c.reasons))
	for _, ar := range c.reasons {
		out = append(out, ar)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *StaticCatalog) GetAbsenceReason(ctx context.Context, id string) (domain.AbsenceReason, error) {
	ar, ok := c.reasons[id]
	if !ok {
		return domain.AbsenceReason{}, ErrNotFound
	}
	return ar, nil
}
