package audit

import (
	"context"

	"condo-app/models"
	"condo-app/types"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormSink stores entries in the unit_histories table.
type GormSink struct {
	DB *gorm.DB
}

func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{DB: db}
}

func (s *GormSink) Append(ctx context.Context, entry Entry) error {
	history := models.UnitHistory{
		CondominiumID: entry.CondominiumID,
		UnitID:        entry.UnitID,
		UnitCode:      entry.UnitCode,
		Action:        string(entry.Action),
		Before:        entry.Before,
		After:         entry.After,
		CreatedAt:     entry.Timestamp,
		CreatedBy:     entry.Actor,
	}

	if err := s.DB.WithContext(ctx).Create(&history).Error; err != nil {
		return errors.Wrap(err, "insert unit history")
	}
	return nil
}

// List returns the newest entries of a condominium first.
func (s *GormSink) List(ctx context.Context, condominiumID types.SnowflakeID, limit int) ([]models.UnitHistory, error) {
	var histories []models.UnitHistory
	query := s.DB.WithContext(ctx).
		Where("condominium_id = ?", condominiumID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&histories).Error; err != nil {
		return nil, errors.Wrap(err, "list unit history")
	}
	return histories, nil
}
