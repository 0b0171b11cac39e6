package postgres

import (
	"context"

	"github.com/uptrace/bun"

	"gymsched/internal/domain"
)

// SnapshotStore persists the booking collection as a whole: every save
// replaces the bookings table inside one transaction, matching the
// whole-collection overwrite contract rather than an incremental log.
type SnapshotStore struct {
	db *bun.DB
}

func NewSnapshotStore(db *bun.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) LoadSnapshot(ctx context.Context) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := s.db.NewSelect().
		Model(&rows).
		OrderExpr("start_time ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, bookings []domain.Booking) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*domain.Booking)(nil)).
			Where("TRUE").
			Exec(ctx); err != nil {
			return err
		}
		if len(bookings) == 0 {
			return nil
		}
		rows := make([]domain.Booking, len(bookings))
		copy(rows, bookings)
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
}
