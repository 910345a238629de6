package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/tenax/internal/interfaces"
	"github.com/ternarybob/tenax/internal/models"
)

// SummaryStorage implements the SummaryStorage interface for Badger. Every
// write path runs inside a single badger transaction so the four summary
// tables always move together: a failure mid-update leaves the prior state
// fully intact.
type SummaryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSummaryStorage creates a new SummaryStorage instance
func NewSummaryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SummaryStorage {
	return &SummaryStorage{
		db:     db,
		logger: logger,
	}
}

// Replace overwrites the entity's entire persisted summary with rows in one
// transaction.
func (s *SummaryStorage) Replace(ctx context.Context, cik string, rows []*models.SummaryRow) error {
	store := s.db.Store()
	err := store.Badger().Update(func(tx *badgerdb.Txn) error {
		if err := store.TxDeleteMatching(tx, &models.SummaryRow{}, badgerhold.Where("CIK").Eq(cik)); err != nil {
			return err
		}
		for _, row := range rows {
			if err := store.TxUpsert(tx, row.ID, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace summary for %s: %w", cik, err)
	}
	return nil
}

// AppendPeriod writes one new period row per table in one transaction. The
// baseline check happens inside the same transaction so append can never race
// a concurrent replace into writing against an empty summary.
func (s *SummaryStorage) AppendPeriod(ctx context.Context, cik string, rows []*models.SummaryRow) error {
	store := s.db.Store()
	err := store.Badger().Update(func(tx *badgerdb.Txn) error {
		var existing []models.SummaryRow
		if err := store.TxFind(tx, &existing, badgerhold.Where("CIK").Eq(cik).Limit(1)); err != nil {
			return err
		}
		if len(existing) == 0 {
			return interfaces.ErrNoBaseline
		}
		for _, row := range rows {
			if err := store.TxUpsert(tx, row.ID, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err == interfaces.ErrNoBaseline {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to append summary period for %s: %w", cik, err)
	}
	return nil
}

func (s *SummaryStorage) LatestPeriod(ctx context.Context, cik string) (time.Time, error) {
	var rows []models.SummaryRow
	if err := s.db.Store().Find(&rows, badgerhold.Where("CIK").Eq(cik)); err != nil {
		return time.Time{}, fmt.Errorf("failed to find summary rows for %s: %w", cik, err)
	}
	if len(rows) == 0 {
		return time.Time{}, interfaces.ErrNoBaseline
	}

	var latest time.Time
	for _, row := range rows {
		if row.PeriodEnd.After(latest) {
			latest = row.PeriodEnd
		}
	}
	return latest, nil
}

func (s *SummaryStorage) GetRow(ctx context.Context, cik string, table models.SummaryTable, periodEnd time.Time) (*models.SummaryRow, error) {
	var row models.SummaryRow
	if err := s.db.Store().Get(models.SummaryRowID(cik, table, periodEnd), &row); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get summary row: %w", err)
	}
	return &row, nil
}

func (s *SummaryStorage) ListRows(ctx context.Context, cik string, table models.SummaryTable) ([]*models.SummaryRow, error) {
	var rows []models.SummaryRow
	if err := s.db.Store().Find(&rows, badgerhold.Where("CIK").Eq(cik).And("Table").Eq(table)); err != nil {
		return nil, fmt.Errorf("failed to list summary rows: %w", err)
	}

	result := make([]*models.SummaryRow, len(rows))
	for i := range rows {
		result[i] = &rows[i]
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PeriodEnd.Before(result[j].PeriodEnd)
	})
	return result, nil
}
