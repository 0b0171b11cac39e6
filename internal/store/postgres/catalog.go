package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"gymsched/internal/domain"
	"gymsched/internal/store"
)

// Catalog reads the resource and absence-reason reference tables. Both are
// owned by the surrounding dashboard; this engine only queries them.
type Catalog struct {
	db *bun.DB
}

func NewCatalog(db *bun.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) ListResources(ctx context.Context, locationID string) ([]domain.Resource, error) {
	var rows []domain.Resource
	q := c.db.NewSelect().Model(&rows).OrderExpr("id ASC")
	if locationID != "" {
		q = q.Where("location_id = ?", locationID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Catalog) GetResource(ctx context.Context, id string) (domain.Resource, error) {
	var r domain.Resource
	err := c.db.NewSelect().Model(&r).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Resource{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Resource{}, err
	}
	return r, nil
}

func (c *Catalog) ListAbsenceReasons(ctx context.Context) ([]domain.AbsenceReason, error) {
	var rows []domain.AbsenceReason
	if err := c.db.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Catalog) GetAbsenceReason(ctx context.Context, id string) (domain.AbsenceReason, error) {
	var ar domain.AbsenceReason
	err := c.db.NewSelect().Model(&ar).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AbsenceReason{}, store.ErrNotFound
	}
	if err != nil {
		return domain.AbsenceReason{}, err
	}
	return ar, nil
}
