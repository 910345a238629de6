package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/tenax/internal/interfaces"
	"github.com/ternarybob/tenax/internal/models"
)

// RegistryStorage implements the RegistryStorage interface for Badger
type RegistryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRegistryStorage creates a new RegistryStorage instance
func NewRegistryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RegistryStorage {
	return &RegistryStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RegistryStorage) SaveEntity(ctx context.Context, entity *models.TrackedEntity) error {
	if err := entity.Validate(); err != nil {
		return err
	}
	entity.UpdatedAt = time.Now()
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = entity.UpdatedAt
	}
	if err := s.db.Store().Upsert(entity.CIK, entity); err != nil {
		return fmt.Errorf("failed to save entity: %w", err)
	}
	return nil
}

func (s *RegistryStorage) GetEntity(ctx context.Context, cik string) (*models.TrackedEntity, error) {
	var entity models.TrackedEntity
	if err := s.db.Store().Get(cik, &entity); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return &entity, nil
}

func (s *RegistryStorage) ListEntities(ctx context.Context) ([]*models.TrackedEntity, error) {
	var entities []models.TrackedEntity
	if err := s.db.Store().Find(&entities, badgerhold.Where("CIK").Ne("").SortBy("CIK")); err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}

	result := make([]*models.TrackedEntity, len(entities))
	for i := range entities {
		result[i] = &entities[i]
	}
	return result, nil
}

func (s *RegistryStorage) UpdateLastFilingDate(ctx context.Context, cik string, date time.Time) error {
	entity, err := s.GetEntity(ctx, cik)
	if err != nil {
		return err
	}
	entity.LastFilingDate = date
	entity.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(entity.CIK, entity); err != nil {
		return fmt.Errorf("failed to update last filing date: %w", err)
	}
	return nil
}
