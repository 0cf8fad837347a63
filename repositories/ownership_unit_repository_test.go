package repositories

import (
	"context"
	"strings"
	"testing"

	"condo-app/migration"
	"condo-app/models"
	"condo-app/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRepo(t *testing.T) *OwnershipUnitRepository {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.Migrate(db))
	return NewOwnershipUnitRepository(db)
}

func TestInsertAndFind(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	condo := types.SnowflakeID(10)

	unit := models.OwnershipUnit{
		CondominiumID:  condo,
		UnitCode:       "101",
		HolderName:     "Juan",
		OwnershipShare: decimal.NewNullDecimal(decimal.RequireFromString("0.015")),
		UsageTypes:     []models.UsageType{models.UsageApartment},
		RegistryRoles:  []models.RegistryRole{{Page: "1", Number: "2", Year: "2020", AppliesTo: []models.UsageType{models.UsageApartment}}},
		Contact:        &models.Contact{Email: "juan@example.com"},
	}
	require.NoError(t, repo.Insert(ctx, &unit))
	assert.NotZero(t, unit.ID)

	found, err := repo.FindByUnitCode(ctx, condo, "101")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, unit.ID, found.ID)
	assert.True(t, decimal.RequireFromString("0.015").Equal(found.OwnershipShare.Decimal))
	assert.Equal(t, unit.RegistryRoles, found.RegistryRoles)
	assert.Equal(t, "juan@example.com", found.Contact.Email)

	missing, err := repo.FindByUnitCode(ctx, condo, "999")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.FindByID(ctx, types.SnowflakeID(11), unit.ID)
	assert.ErrorIs(t, err, ErrUnitNotFound)
}

func TestInsertDuplicateCode(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &models.OwnershipUnit{CondominiumID: 1, UnitCode: "A", HolderName: "x"}))
	require.NoError(t, repo.Insert(ctx, &models.OwnershipUnit{CondominiumID: 2, UnitCode: "A", HolderName: "x"}))

	err := repo.Insert(ctx, &models.OwnershipUnit{CondominiumID: 1, UnitCode: "A", HolderName: "y"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert unit A")
}

func TestUpdateOverwritesZeroValues(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	unit := models.OwnershipUnit{CondominiumID: 1, UnitCode: "A", HolderName: "x", Notes: "old", CreatedBy: 3}
	require.NoError(t, repo.Insert(ctx, &unit))

	changed := models.OwnershipUnit{ID: unit.ID, CondominiumID: 1, UnitCode: "A", HolderName: "y", UpdatedBy: 4}
	require.NoError(t, repo.Update(ctx, &changed))

	got, err := repo.FindByID(ctx, 1, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, "y", got.HolderName)
	assert.Equal(t, "", got.Notes)
	assert.Equal(t, 3, got.CreatedBy)
	assert.Equal(t, 4, got.UpdatedBy)

	ghost := models.OwnershipUnit{ID: 424242, CondominiumID: 1, UnitCode: "Z", HolderName: "z"}
	assert.ErrorIs(t, repo.Update(ctx, &ghost), ErrUnitNotFound)
}

func TestUpdateUnchangedRowIsNotMissing(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	unit := models.OwnershipUnit{CondominiumID: 1, UnitCode: "A", HolderName: "x"}
	require.NoError(t, repo.Insert(ctx, &unit))

	// Report zero affected rows the way MySQL does for an update that
	// changes nothing.
	require.NoError(t, repo.DB.Callback().Update().After("gorm:update").
		Register("test:unchanged_rows", func(tx *gorm.DB) { tx.RowsAffected = 0 }))

	same := models.OwnershipUnit{ID: unit.ID, CondominiumID: 1, UnitCode: "A", HolderName: "x"}
	assert.NoError(t, repo.Update(ctx, &same))
	assert.NoError(t, repo.Update(ctx, &same))

	ghost := models.OwnershipUnit{ID: 424242, CondominiumID: 1, UnitCode: "Z", HolderName: "z"}
	assert.ErrorIs(t, repo.Update(ctx, &ghost), ErrUnitNotFound)
}

func TestDeleteRemovesRegistryFiles(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	unit := models.OwnershipUnit{CondominiumID: 1, UnitCode: "A", HolderName: "x"}
	require.NoError(t, repo.Insert(ctx, &unit))
	require.NoError(t, repo.DB.Create(&models.RegistryFile{UnitID: unit.ID, Kind: models.RegistryFileValidity}).Error)

	require.NoError(t, repo.Delete(ctx, &unit))

	var files int64
	require.NoError(t, repo.DB.Model(&models.RegistryFile{}).Count(&files).Error)
	assert.Zero(t, files)
	assert.ErrorIs(t, repo.Delete(ctx, &unit), ErrUnitNotFound)
}

func TestBulkHelpers(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for _, code := range []string{"B", "A", "C"} {
		require.NoError(t, repo.Insert(ctx, &models.OwnershipUnit{CondominiumID: 1, UnitCode: code, HolderName: "x"}))
	}
	require.NoError(t, repo.Insert(ctx, &models.OwnershipUnit{CondominiumID: 2, UnitCode: "A", HolderName: "x"}))

	_, err := repo.ClearAll(ctx, 1)
	assert.ErrorIs(t, err, ErrProcedureUnavailable)

	ids, err := repo.UnitIDs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	for _, id := range ids {
		require.NoError(t, repo.DB.Create(&models.UnitHistory{CondominiumID: 1, UnitID: id, Action: "create"}).Error)
	}
	n, err := repo.DeleteHistory(ctx, ids)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = repo.DeleteHistory(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	codes, err := repo.RemainingUnitCodes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, codes)

	n, err = repo.DeleteUnits(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	codes, err = repo.RemainingUnitCodes(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, codes)

	others, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}
