// Package memory holds the canonical booking collection. Mutations run
// inside a per-resource critical section so the overlap check and the commit
// are one atomic step, and every multi-occurrence mutation is all-or-nothing.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gymsched/internal/domain"
	"gymsched/internal/store"
)

const defaultLockTimeout = 2 * time.Second

type Options struct {
	LockTimeout time.Duration
	Snapshotter store.Snapshotter
	Audit       store.AuditSink
	Logger      *slog.Logger
	Now         func() time.Time
}

type Store struct {
	lockTimeout time.Duration
	snap        store.Snapshotter
	audit       store.AuditSink
	log         *slog.Logger
	now         func() time.Time
	locks       *lockTable

	// snapMu orders snapshot writes so a slower save cannot clobber a newer one.
	snapMu sync.Mutex

	mu         sync.RWMutex
	bookings   map[uuid.UUID]domain.Booking
	byResource map[string]map[uuid.UUID]struct{}
}

func New(opts Options) *Store {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		lockTimeout: opts.LockTimeout,
		snap:        opts.Snapshotter,
		audit:       opts.Audit,
		log:         opts.Logger.With(slog.String("component", "store.memory")),
		now:         opts.Now,
		locks:       newLockTable(),
		bookings:    make(map[uuid.UUID]domain.Booking),
		byResource:  make(map[string]map[uuid.UUID]struct{}),
	}
}

// Load replaces the collection with the persisted snapshot. Called once at
// startup, before the store serves traffic.
func (s *Store) Load(ctx context.Context) error {
	if s.snap == nil {
		return nil
	}
	bookings, err := s.snap.LoadSnapshot(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = make(map[uuid.UUID]domain.Booking, len(bookings))
	s.byResource = make(map[string]map[uuid.UUID]struct{})
	for _, b := range bookings {
		b.StartTime = b.StartTime.UTC()
		b.EndTime = b.EndTime.UTC()
		s.bookings[b.ID] = b
		s.indexAddLocked(b)
	}
	s.log.Info("snapshot loaded", slog.Int("bookings", len(bookings)))
	return nil
}

func (s *Store) Create(ctx context.Context, actorID string, b domain.Booking, rule *domain.RecurrenceRule) ([]domain.Booking, error) {
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	if !b.EndTime.After(b.StartTime) {
		return nil, store.ErrInvalidInterval
	}

	release, err := s.locks.acquire(ctx, []string{b.ResourceID}, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now().UTC()
	var pending []domain.Booking

	if rule != nil {
		occs, err := domain.ExpandRule(b.StartTime, b.EndTime, *rule)
		if err != nil {
			return nil, err
		}
		seriesID, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		for i, occ := range occs {
			nb := b
			nb.ID, err = uuid.NewV7()
			if err != nil {
				return nil, err
			}
			nb.SeriesID = seriesID
			nb.StartTime = occ.StartTime
			nb.EndTime = occ.EndTime
			nb.Status = domain.StatusScheduled
			nb.AbsenceReasonID = ""
			nb.Rule = nil
			if i == 0 {
				r := *rule
				nb.Rule = &r
			}
			nb.CreatedAt = now
			nb.UpdatedAt = now
			pending = append(pending, nb)
		}
	} else {
		nb := b
		if nb.ID == uuid.Nil {
			nb.ID, err = uuid.NewV7()
			if err != nil {
				return nil, err
			}
		}
		nb.SeriesID = uuid.Nil
		nb.Status = domain.StatusScheduled
		nb.AbsenceReasonID = ""
		nb.Rule = nil
		nb.CreatedAt = now
		nb.UpdatedAt = now
		pending = append(pending, nb)
	}

	if err := pairwiseConflicts(pending); err != nil {
		return nil, err
	}

	s.mu.RLock()
	conflicts := s.scanConflictsLocked(pending, nil)
	s.mu.RUnlock()
	if len(conflicts) > 0 {
		return nil, &store.ConflictError{ConflictingIDs: conflicts}
	}

	s.mu.Lock()
	for _, nb := range pending {
		s.bookings[nb.ID] = nb
		s.indexAddLocked(nb)
	}
	s.mu.Unlock()

	s.emit(ctx, actorID, "booking.created", pending, func(b domain.Booking) string {
		return fmt.Sprintf("booked %s on %s from %s to %s", b.Title, b.ResourceID,
			b.StartTime.Format(time.RFC3339), b.EndTime.Format(time.RFC3339))
	})

	if err := s.saveSnapshot(ctx); err != nil {
		return pending, err
	}
	return pending, nil
}

func (s *Store) Update(ctx context.Context, actorID string, id uuid.UUID, scope domain.Scope, change store.BookingChange) ([]domain.Booking, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("invalid scope %q", scope)
	}

	s.mu.RLock()
	anchor, ok := s.bookings[id]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}

	resources := []string{anchor.ResourceID}
	if change.ResourceID != nil {
		resources = append(resources, *change.ResourceID)
	}
	release, err := s.locks.acquire(ctx, resources, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.RLock()
	anchor, ok = s.bookings[id]
	if !ok {
		s.mu.RUnlock()
		return nil, store.ErrNotFound
	}
	if anchor.ResourceID != resources[0] {
		// The booking moved resource between the peek and the lock; the held
		// locks no longer cover it. Callers retry.
		s.mu.RUnlock()
		return nil, store.ErrBusy
	}
	// A partial-scope resource move would split the series across resources,
	// and later scope fan-outs would reach bookings outside the held locks.
	if change.ResourceID != nil && *change.ResourceID != anchor.ResourceID &&
		anchor.Recurring() && scope != domain.ScopeAll {
		s.mu.RUnlock()
		return nil, store.ErrSeriesResourceChange
	}
	targets := s.targetsLocked(anchor, scope)
	s.mu.RUnlock()

	var startDelta, endDelta time.Duration
	if change.StartTime != nil {
		startDelta = change.StartTime.UTC().Sub(anchor.StartTime)
	}
	if change.EndTime != nil {
		endDelta = change.EndTime.UTC().Sub(anchor.EndTime)
	}

	now := s.now().UTC()
	updated := make([]domain.Booking, len(targets))
	for i, t := range targets {
		nt := t
		if change.Title != nil {
			nt.Title = *change.Title
		}
		if change.MemberID != nil {
			nt.MemberID = *change.MemberID
		}
		if change.ResourceID != nil {
			nt.ResourceID = *change.ResourceID
		}
		nt.StartTime = t.StartTime.Add(startDelta)
		nt.EndTime = t.EndTime.Add(endDelta)
		if !nt.EndTime.After(nt.StartTime) {
			return nil, store.ErrInvalidInterval
		}
		nt.UpdatedAt = now
		updated[i] = nt
	}

	if err := pairwiseConflicts(updated); err != nil {
		return nil, err
	}

	exclude := make(map[uuid.UUID]struct{}, len(targets))
	for _, t := range targets {
		exclude[t.ID] = struct{}{}
	}
	s.mu.RLock()
	conflicts := s.scanConflictsLocked(updated, exclude)
	s.mu.RUnlock()
	if len(conflicts) > 0 {
		return nil, &store.ConflictError{ConflictingIDs: conflicts}
	}

	s.mu.Lock()
	for i, t := range targets {
		s.indexRemoveLocked(t)
		s.bookings[updated[i].ID] = updated[i]
		s.indexAddLocked(updated[i])
	}
	s.mu.Unlock()

	s.emit(ctx, actorID, "booking.updated", updated, func(b domain.Booking) string {
		return fmt.Sprintf("moved %s on %s to %s-%s", b.Title, b.ResourceID,
			b.StartTime.Format(time.RFC3339), b.EndTime.Format(time.RFC3339))
	})

	if err := s.saveSnapshot(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, actorID string, id uuid.UUID, scope domain.Scope) error {
	if !scope.Valid() {
		return fmt.Errorf("invalid scope %q", scope)
	}

	s.mu.RLock()
	anchor, ok := s.bookings[id]
	s.mu.RUnlock()
	if !ok {
		return store.ErrNotFound
	}

	release, err := s.locks.acquire(ctx, []string{anchor.ResourceID}, s.lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	anchor, ok = s.bookings[id]
	if !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	targets := s.targetsLocked(anchor, scope)
	for _, t := range targets {
		s.indexRemoveLocked(t)
		delete(s.bookings, t.ID)
	}
	s.mu.Unlock()

	s.emit(ctx, actorID, "booking.deleted", targets, func(b domain.Booking) string {
		return fmt.Sprintf("removed %s on %s at %s", b.Title, b.ResourceID,
			b.StartTime.Format(time.RFC3339))
	})

	return s.saveSnapshot(ctx)
}

func (s *Store) SetStatus(ctx context.Context, actorID string, id uuid.UUID, status domain.BookingStatus, reasonID string) (domain.Booking, error) {
	s.mu.RLock()
	b, ok := s.bookings[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Booking{}, store.ErrNotFound
	}

	lockedResource := b.ResourceID
	release, err := s.locks.acquire(ctx, []string{lockedResource}, s.lockTimeout)
	if err != nil {
		return domain.Booking{}, err
	}
	defer release()

	s.mu.RLock()
	b, ok = s.bookings[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Booking{}, store.ErrNotFound
	}
	if b.ResourceID != lockedResource {
		// The booking moved resource between the peek and the lock; the held
		// lock no longer covers it. Callers retry.
		return domain.Booking{}, store.ErrBusy
	}

	// Replaying the current status is idempotent rather than an invalid
	// transition: nothing changes, nothing is emitted.
	if b.Status == status && (status != domain.StatusNoShow || b.AbsenceReasonID == reasonID) {
		return b, nil
	}

	now := s.now().UTC()
	if err := domain.CheckTransition(b.Status, status, b.StartTime, now); err != nil {
		return domain.Booking{}, err
	}
	if status == domain.StatusNoShow && reasonID == "" {
		return domain.Booking{}, store.ErrAbsenceReasonRequired
	}

	nb := b
	nb.Status = status
	nb.UpdatedAt = now
	switch status {
	case domain.StatusNoShow:
		nb.AbsenceReasonID = reasonID
	case domain.StatusScheduled:
		nb.AbsenceReasonID = ""
	}

	// Reactivating a cancelled booking puts its interval back into play.
	if b.Status == domain.StatusCancelled && status == domain.StatusScheduled {
		exclude := map[uuid.UUID]struct{}{b.ID: {}}
		s.mu.RLock()
		conflicts := s.scanConflictsLocked([]domain.Booking{nb}, exclude)
		s.mu.RUnlock()
		if len(conflicts) > 0 {
			return domain.Booking{}, &store.ConflictError{ConflictingIDs: conflicts}
		}
	}

	s.mu.Lock()
	s.bookings[nb.ID] = nb
	s.mu.Unlock()

	s.emit(ctx, actorID, "booking.status_changed", []domain.Booking{nb}, func(bk domain.Booking) string {
		return fmt.Sprintf("status %s -> %s for %s", b.Status, status, bk.Title)
	})

	if err := s.saveSnapshot(ctx); err != nil {
		return nb, err
	}
	return nb, nil
}

// Get returns the bookings on a resource whose intervals intersect
// [from, to), ordered by start time. Reads run concurrently and never observe
// a partially applied multi-occurrence mutation.
func (s *Store) Get(ctx context.Context, resourceID string, from, to time.Time) ([]domain.Booking, error) {
	from = from.UTC()
	to = to.UTC()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Booking, 0, 8)
	for id := range s.byResource[resourceID] {
		b := s.bookings[id]
		if b.StartTime.Before(to) && b.EndTime.After(from) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// List returns every booking, ordered by start time then id. Used for
// snapshot writes.
func (s *Store) List() []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked()
}

func (s *Store) listLocked() []domain.Booking {
	out := make([]domain.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// targetsLocked resolves a scope to the concrete occurrences a mutation
// touches. Non-recurring bookings collapse every scope to the booking itself.
func (s *Store) targetsLocked(anchor domain.Booking, scope domain.Scope) []domain.Booking {
	if !anchor.Recurring() || scope == domain.ScopeOne {
		return []domain.Booking{anchor}
	}

	out := make([]domain.Booking, 0, 8)
	for _, b := range s.bookings {
		if b.SeriesID != anchor.SeriesID {
			continue
		}
		if scope == domain.ScopeFuture && b.StartTime.Before(anchor.StartTime) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// scanConflictsLocked checks every candidate against the active bookings on
// its resource, skipping the exclusion set. Caller holds mu.
func (s *Store) scanConflictsLocked(candidates []domain.Booking, exclude map[uuid.UUID]struct{}) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, c := range candidates {
		if !c.Active() {
			continue
		}
		for id := range s.byResource[c.ResourceID] {
			if _, ok := exclude[id]; ok {
				continue
			}
			b := s.bookings[id]
			if !b.Active() {
				continue
			}
			if domain.Overlaps(c.StartTime, c.EndTime, b.StartTime, b.EndTime) {
				if _, ok := seen[id]; !ok {
					seen[id] = struct{}{}
					out = append(out, id)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// pairwiseConflicts rejects a proposed set whose own members overlap, e.g. a
// series whose occurrences collide with each other.
func pairwiseConflicts(set []domain.Booking) error {
	byStart := make([]domain.Booking, len(set))
	copy(byStart, set)
	sort.Slice(byStart, func(i, j int) bool { return byStart[i].StartTime.Before(byStart[j].StartTime) })
	for i := 1; i < len(byStart); i++ {
		prev, cur := byStart[i-1], byStart[i]
		if prev.ResourceID == cur.ResourceID && prev.Active() && cur.Active() &&
			prev.EndTime.After(cur.StartTime) {
			return &store.ConflictError{ConflictingIDs: []uuid.UUID{prev.ID, cur.ID}}
		}
	}
	return nil
}

func (s *Store) indexAddLocked(b domain.Booking) {
	idx, ok := s.byResource[b.ResourceID]
	if !ok {
		idx = make(map[uuid.UUID]struct{})
		s.byResource[b.ResourceID] = idx
	}
	idx[b.ID] = struct{}{}
}

func (s *Store) indexRemoveLocked(b domain.Booking) {
	if idx, ok := s.byResource[b.ResourceID]; ok {
		delete(idx, b.ID)
		if len(idx) == 0 {
			delete(s.byResource, b.ResourceID)
		}
	}
}

func (s *Store) emit(ctx context.Context, actorID, action string, bookings []domain.Booking, summary func(domain.Booking) string) {
	if s.audit == nil {
		return
	}
	ts := s.now().UTC()
	for _, b := range bookings {
		s.audit.Record(ctx, store.AuditEvent{
			ActorID:    actorID,
			Action:     action,
			EntityType: "booking",
			EntityID:   b.ID,
			Summary:    summary(b),
			Timestamp:  ts,
		})
	}
}

func (s *Store) saveSnapshot(ctx context.Context) error {
	if s.snap == nil {
		return nil
	}

	s.snapMu.Lock()
	defer s.snapMu.Unlock()

	if err := s.snap.SaveSnapshot(ctx, s.List()); err != nil {
		s.log.Error("snapshot save failed", slog.Any("err", err))
		return &store.SnapshotError{Err: err}
	}
	return nil
}
