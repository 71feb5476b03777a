package repositories

import (
	"context"

	"github.com/mroshb/astro_bot/internal/models"
	"github.com/mroshb/astro_bot/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListAll returns every catalog row ordered by id.
func (r *CatalogRepository) ListAll(ctx context.Context) ([]models.CatalogRecord, error) {
	var records []models.CatalogRecord
	result := r.db.WithContext(ctx).Order("id ASC").Find(&records)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list catalog entries")
	}

	return records, nil
}

// Upsert inserts entry or overwrites the row with the same name.
func (r *CatalogRepository) Upsert(ctx context.Context, entry models.CatalogEntry) error {
	record, err := models.NewCatalogRecord(entry)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "failed to encode catalog entry")
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"aliases", "images", "division", "is_new", "hint", "wikipedia", "updated_at"}),
	}).Create(record)

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to upsert catalog entry")
	}

	return nil
}

// Count returns the number of catalog rows.
func (r *CatalogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CatalogRecord{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count catalog entries")
	}
	return count, nil
}
