package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/tenax/internal/models"
)

// ErrNoBaseline is returned by incremental summary appends when the entity
// has no persisted rows to append after. Append has nothing to diff against;
// the caller must rebuild instead.
var ErrNoBaseline = errors.New("no persisted baseline to append after")

// ErrEntityNotFound is returned when a registry lookup misses.
var ErrEntityNotFound = errors.New("entity not found")

// ErrSnapshotNotFound is returned when a snapshot lookup misses.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// RegistryStorage persists the master registry of tracked entities.
type RegistryStorage interface {
	SaveEntity(ctx context.Context, entity *models.TrackedEntity) error
	GetEntity(ctx context.Context, cik string) (*models.TrackedEntity, error)
	ListEntities(ctx context.Context) ([]*models.TrackedEntity, error)
	// UpdateLastFilingDate records the most recent filing date seen for the
	// entity, written back after each successful collection cycle.
	UpdateLastFilingDate(ctx context.Context, cik string, date time.Time) error
}

// SnapshotStorage persists period snapshots, one per (entity, period).
// Saving an existing (entity, period) pair overwrites in place, which makes
// re-aggregation of the same filing idempotent.
type SnapshotStorage interface {
	SaveSnapshot(ctx context.Context, snapshot *models.PeriodSnapshot) error
	GetSnapshot(ctx context.Context, cik string, periodEnd time.Time) (*models.PeriodSnapshot, error)
	ListSnapshots(ctx context.Context, cik string) ([]*models.PeriodSnapshot, error)
}

// SummaryStorage persists the four per-entity summary tables (shares,
// values, share deltas, value deltas) indexed by period end date. Both
// update modes must write the four tables as one atomic unit: a failure
// mid-update leaves prior state fully intact.
type SummaryStorage interface {
	// Replace overwrites the entity's entire persisted summary with rows.
	Replace(ctx context.Context, cik string, rows []*models.SummaryRow) error
	// AppendPeriod appends exactly one new period row to each of the four
	// tables. Returns ErrNoBaseline when the entity has no persisted rows.
	AppendPeriod(ctx context.Context, cik string, rows []*models.SummaryRow) error
	// LatestPeriod returns the most recent persisted period end for the
	// entity, or ErrNoBaseline when nothing is persisted.
	LatestPeriod(ctx context.Context, cik string) (time.Time, error)
	// GetRow fetches one table row for the entity at a period.
	GetRow(ctx context.Context, cik string, table models.SummaryTable, periodEnd time.Time) (*models.SummaryRow, error)
	// ListRows returns all rows of one table for the entity, ordered by
	// period end ascending.
	ListRows(ctx context.Context, cik string, table models.SummaryTable) ([]*models.SummaryRow, error)
}
