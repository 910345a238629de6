package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/tenax/internal/interfaces"
	"github.com/ternarybob/tenax/internal/models"
)

// SnapshotStorage implements the SnapshotStorage interface for Badger
type SnapshotStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

// SaveSnapshot upserts by (entity, period) key, so re-aggregating the same
// filing overwrites in place.
func (s *SnapshotStorage) SaveSnapshot(ctx context.Context, snapshot *models.PeriodSnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = models.SnapshotID(snapshot.CIK, snapshot.PeriodEnd)
	}
	if err := s.db.Store().Upsert(snapshot.ID, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStorage) GetSnapshot(ctx context.Context, cik string, periodEnd time.Time) (*models.PeriodSnapshot, error) {
	var snapshot models.PeriodSnapshot
	if err := s.db.Store().Get(models.SnapshotID(cik, periodEnd), &snapshot); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *SnapshotStorage) ListSnapshots(ctx context.Context, cik string) ([]*models.PeriodSnapshot, error) {
	var snapshots []models.PeriodSnapshot
	if err := s.db.Store().Find(&snapshots, badgerhold.Where("CIK").Eq(cik)); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	result := make([]*models.PeriodSnapshot, len(snapshots))
	for i := range snapshots {
		result[i] = &snapshots[i]
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PeriodEnd.Before(result[j].PeriodEnd)
	})
	return result, nil
}
