package unitreset

import (
	"context"
	"fmt"

	"condo-app/types"

	"github.com/sirupsen/logrus"
)

// Store is the persistence both strategies work against.
type Store interface {
	ClearAll(ctx context.Context, condominiumID types.SnowflakeID) (int64, error)
	UnitIDs(ctx context.Context, condominiumID types.SnowflakeID) ([]types.SnowflakeID, error)
	DeleteHistory(ctx context.Context, unitIDs []types.SnowflakeID) (int64, error)
	DeleteRegistryFiles(ctx context.Context, unitIDs []types.SnowflakeID) (int64, error)
	DeleteUnits(ctx context.Context, condominiumID types.SnowflakeID) (int64, error)
	RemainingUnitCodes(ctx context.Context, condominiumID types.SnowflakeID) ([]string, error)
}

// ProcedureStrategy calls the atomic server-side clear routine.
type ProcedureStrategy struct {
	store Store
}

func NewProcedureStrategy(store Store) *ProcedureStrategy {
	return &ProcedureStrategy{store: store}
}

func (s *ProcedureStrategy) Name() string { return "procedure" }

func (s *ProcedureStrategy) Clear(ctx context.Context, condominiumID types.SnowflakeID) (Result, error) {
	deleted, err := s.store.ClearAll(ctx, condominiumID)
	if err != nil {
		return Result{}, err
	}
	return Result{Success: true, DeletedCount: deleted}, nil
}

// ManualStrategy deletes dependents, then units, then reads the units back.
// Failures on dependents are only logged; units still present at the end
// are reported one error each.
type ManualStrategy struct {
	store Store
	log   *logrus.Entry
}

func NewManualStrategy(store Store, log *logrus.Entry) *ManualStrategy {
	return &ManualStrategy{store: store, log: log.WithField("strategy", "manual")}
}

func (s *ManualStrategy) Name() string { return "manual" }

func (s *ManualStrategy) Clear(ctx context.Context, condominiumID types.SnowflakeID) (Result, error) {
	log := s.log.WithField("condominium_id", condominiumID)
	result := Result{Errors: []string{}}

	ids, err := s.store.UnitIDs(ctx, condominiumID)
	if err != nil {
		log.WithError(err).Warn("could not list units, skipping dependent rows")
	}
	if len(ids) > 0 {
		if n, err := s.store.DeleteHistory(ctx, ids); err != nil {
			log.WithError(err).Warn("deleting unit history failed")
		} else {
			log.WithField("rows", n).Debug("unit history deleted")
		}
		if n, err := s.store.DeleteRegistryFiles(ctx, ids); err != nil {
			log.WithError(err).Warn("deleting registry files failed")
		} else {
			log.WithField("rows", n).Debug("registry files deleted")
		}
	}

	deleted, err := s.store.DeleteUnits(ctx, condominiumID)
	if err != nil {
		log.WithError(err).Warn("deleting units failed")
		result.Errors = append(result.Errors, err.Error())
	}
	result.DeletedCount = deleted

	remaining, err := s.store.RemainingUnitCodes(ctx, condominiumID)
	if err != nil {
		return result, fmt.Errorf("verify units were deleted: %w", err)
	}
	for _, code := range remaining {
		result.Errors = append(result.Errors, fmt.Sprintf("unit %s could not be deleted", code))
	}

	result.ErrorCount = len(remaining)
	result.Success = len(remaining) == 0 && len(result.Errors) == 0
	return result, nil
}
