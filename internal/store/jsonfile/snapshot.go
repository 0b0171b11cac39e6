// Package jsonfile persists snapshots as a JSON array on disk, for
// deployments that run without a database.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gymsched/internal/domain"
	"gymsched/internal/store"
)

type SnapshotStore struct {
	path string
}

func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// LoadSnapshot reads the booking array. A missing file is an empty store, not
// an error.
func (s *SnapshotStore) LoadSnapshot(ctx context.Context) ([]domain.Booking, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var bookings []domain.Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	return bookings, nil
}

// SaveSnapshot overwrites the whole collection atomically: write to a temp
// file in the same directory, then rename over the target.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, bookings []domain.Booking) error {
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	data, err := json.MarshalIndent(bookings, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

type catalogFile struct {
	Resources      []domain.Resource      `json:"resources"`
	AbsenceReasons []domain.AbsenceReason `json:"absence_reasons"`
}

// LoadCatalog reads a static resource/absence-reason catalog from a JSON
// file, for file-backed deployments where no catalog database exists.
func LoadCatalog(path string) (*store.StaticCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cf catalogFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return store.NewStaticCatalog(cf.Resources, cf.AbsenceReasons), nil
}
