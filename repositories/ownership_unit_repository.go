package repositories

import (
	"context"
	"errors"

	"condo-app/database"
	"condo-app/models"
	"condo-app/types"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrUnitNotFound         = errors.New("ownership unit not found")
	ErrProcedureUnavailable = errors.New("clear procedure not available for this database")
)

type OwnershipUnitRepository struct {
	DB *gorm.DB
}

func NewOwnershipUnitRepository(DB *gorm.DB) *OwnershipUnitRepository {
	return &OwnershipUnitRepository{DB: DB}
}

func (r *OwnershipUnitRepository) List(ctx context.Context, condominiumID types.SnowflakeID) ([]models.OwnershipUnit, error) {
	var units []models.OwnershipUnit
	if err := r.DB.WithContext(ctx).
		Where("condominium_id = ?", condominiumID).
		Order("unit_code ASC").
		Find(&units).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list units")
	}
	return units, nil
}

func (r *OwnershipUnitRepository) FindByID(ctx context.Context, condominiumID, id types.SnowflakeID) (*models.OwnershipUnit, error) {
	var unit models.OwnershipUnit
	err := r.DB.WithContext(ctx).
		Where("condominium_id = ? AND id = ?", condominiumID, id).
		First(&unit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnitNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "find unit %s", id)
	}
	return &unit, nil
}

// FindByUnitCode returns nil, nil when the condominium has no such unit.
func (r *OwnershipUnitRepository) FindByUnitCode(ctx context.Context, condominiumID types.SnowflakeID, unitCode string) (*models.OwnershipUnit, error) {
	var unit models.OwnershipUnit
	err := r.DB.WithContext(ctx).
		Where("condominium_id = ? AND unit_code = ?", condominiumID, unitCode).
		First(&unit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "find unit %s", unitCode)
	}
	return &unit, nil
}

func (r *OwnershipUnitRepository) Insert(ctx context.Context, unit *models.OwnershipUnit) error {
	if err := r.DB.WithContext(ctx).Create(unit).Error; err != nil {
		return pkgerrors.Wrapf(err, "insert unit %s", unit.UnitCode)
	}
	return nil
}

// Update overwrites every column of an existing unit, zero values included.
func (r *OwnershipUnitRepository) Update(ctx context.Context, unit *models.OwnershipUnit) error {
	res := r.DB.WithContext(ctx).
		Model(unit).
		Select("*").
		Omit("id", "condominium_id", "created_at", "created_by").
		Updates(unit)
	if res.Error != nil {
		return pkgerrors.Wrapf(res.Error, "update unit %s", unit.UnitCode)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// MySQL reports matched rows that did not change as unaffected.
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.OwnershipUnit{}).Where("id = ?", unit.ID).Count(&count).Error; err != nil {
		return pkgerrors.Wrapf(err, "update unit %s", unit.UnitCode)
	}
	if count == 0 {
		return ErrUnitNotFound
	}
	return nil
}

// Delete removes one unit and the rows that depend on it.
func (r *OwnershipUnitRepository) Delete(ctx context.Context, unit *models.OwnershipUnit) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("unit_id = ?", unit.ID).Delete(&models.RegistryFile{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", unit.ID).Delete(&models.OwnershipUnit{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUnitNotFound
		}
		return nil
	})
	if errors.Is(err, ErrUnitNotFound) {
		return err
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "delete unit %s", unit.UnitCode)
	}
	return nil
}

// ClearAll runs the server-side clear procedure.
func (r *OwnershipUnitRepository) ClearAll(ctx context.Context, condominiumID types.SnowflakeID) (int64, error) {
	deleted, ok, err := database.CallClearProcedure(r.DB.WithContext(ctx), int64(condominiumID))
	if !ok {
		return 0, ErrProcedureUnavailable
	}
	return deleted, err
}

func (r *OwnershipUnitRepository) UnitIDs(ctx context.Context, condominiumID types.SnowflakeID) ([]types.SnowflakeID, error) {
	var ids []types.SnowflakeID
	if err := r.DB.WithContext(ctx).
		Model(&models.OwnershipUnit{}).
		Where("condominium_id = ?", condominiumID).
		Pluck("id", &ids).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list unit ids")
	}
	return ids, nil
}

func (r *OwnershipUnitRepository) DeleteHistory(ctx context.Context, unitIDs []types.SnowflakeID) (int64, error) {
	if len(unitIDs) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).Where("unit_id IN ?", unitIDs).Delete(&models.UnitHistory{})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(res.Error, "delete unit history")
	}
	return res.RowsAffected, nil
}

func (r *OwnershipUnitRepository) DeleteRegistryFiles(ctx context.Context, unitIDs []types.SnowflakeID) (int64, error) {
	if len(unitIDs) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).Where("unit_id IN ?", unitIDs).Delete(&models.RegistryFile{})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(res.Error, "delete registry files")
	}
	return res.RowsAffected, nil
}

func (r *OwnershipUnitRepository) DeleteUnits(ctx context.Context, condominiumID types.SnowflakeID) (int64, error) {
	res := r.DB.WithContext(ctx).Where("condominium_id = ?", condominiumID).Delete(&models.OwnershipUnit{})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(res.Error, "delete units")
	}
	return res.RowsAffected, nil
}

func (r *OwnershipUnitRepository) RemainingUnitCodes(ctx context.Context, condominiumID types.SnowflakeID) ([]string, error) {
	var codes []string
	if err := r.DB.WithContext(ctx).
		Model(&models.OwnershipUnit{}).
		Where("condominium_id = ?", condominiumID).
		Order("unit_code ASC").
		Pluck("unit_code", &codes).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list remaining units")
	}
	return codes, nil
}
