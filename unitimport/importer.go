package unitimport

import (
	"context"
	"fmt"

	"condo-app/audit"
	"condo-app/models"
	"condo-app/types"

	"github.com/sirupsen/logrus"
)

type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeRejected       Outcome = "rejected"
	OutcomePartialFailure Outcome = "partial_failure"
)

// Result is what an import reports back. Errors holds every failing row for
// a rejected batch, or the single row that stopped a partial failure.
type Result struct {
	Success  bool        `json:"success"`
	Outcome  Outcome     `json:"outcome"`
	Total    int         `json:"total"`
	Imported int         `json:"imported"`
	Created  int         `json:"created"`
	Updated  int         `json:"updated"`
	Errors   []RowResult `json:"errors"`
	Message  string      `json:"message"`
}

// Store is the persistence the importer needs. FindByUnitCode returns nil
// without error when the unit does not exist.
type Store interface {
	FindByUnitCode(ctx context.Context, condominiumID types.SnowflakeID, unitCode string) (*models.OwnershipUnit, error)
	Insert(ctx context.Context, unit *models.OwnershipUnit) error
	Update(ctx context.Context, unit *models.OwnershipUnit) error
}

// Importer validates a whole sheet before touching the store, then upserts
// rows one by one by unit code and stops at the first store error. Rows
// already saved stay saved.
type Importer struct {
	store     Store
	recorder  audit.Recorder
	validator *Validator
	log       *logrus.Entry
}

func NewImporter(store Store, recorder audit.Recorder, log *logrus.Entry) *Importer {
	return &Importer{
		store:     store,
		recorder:  recorder,
		validator: NewValidator(),
		log:       log.WithField("component", "unit_import"),
	}
}

// Import parses raw sheet rows and runs ImportRows.
func (im *Importer) Import(ctx context.Context, condominiumID types.SnowflakeID, actor int, raw []RawRow) Result {
	return im.ImportRows(ctx, condominiumID, actor, ParseRows(raw))
}

func (im *Importer) ImportRows(ctx context.Context, condominiumID types.SnowflakeID, actor int, rows []Row) Result {
	log := im.log.WithField("condominium_id", condominiumID)
	result := Result{Total: len(rows), Errors: []RowResult{}}

	reports, failed := im.validator.ValidateAll(rows)
	if failed {
		for _, r := range reports {
			if !r.Valid() {
				result.Errors = append(result.Errors, r)
			}
		}
		result.Outcome = OutcomeRejected
		result.Message = fmt.Sprintf("Import rejected: %d of %d rows have errors, nothing was saved", len(result.Errors), result.Total)
		log.WithField("invalid_rows", len(result.Errors)).Info("unit import rejected")
		return result
	}

	result.Outcome = OutcomeSuccess
	for _, row := range rows {
		unit := row.Unit(condominiumID)
		created, err := im.commit(ctx, &unit, actor)
		if err != nil {
			result.Outcome = OutcomePartialFailure
			result.Errors = append(result.Errors, RowResult{
				Row:      row.Number(),
				UnitCode: row.UnitCode,
				Messages: []string{err.Error()},
			})
			result.Message = fmt.Sprintf(
				"Import stopped at row %d: %d of %d rows imported; rows saved before row %d remain stored",
				row.Number(), result.Imported, result.Total, row.Number())
			log.WithError(err).WithField("row", row.Number()).Warn("unit import stopped")
			break
		}
		result.Imported++
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	if result.Outcome == OutcomeSuccess {
		result.Success = true
		result.Message = fmt.Sprintf("Import completed: %d rows imported (%d created, %d updated)",
			result.Imported, result.Created, result.Updated)
		log.WithField("imported", result.Imported).Info("unit import completed")
	}

	im.recorder.Record(ctx, audit.Entry{
		CondominiumID: condominiumID,
		Action:        audit.ActionImport,
		Actor:         actor,
		After: audit.Snapshot(map[string]any{
			"outcome":  result.Outcome,
			"total":    result.Total,
			"imported": result.Imported,
			"created":  result.Created,
			"updated":  result.Updated,
			"errors":   result.Errors,
		}),
	})

	return result
}

// commit upserts one unit by (condominium, unit code).
func (im *Importer) commit(ctx context.Context, unit *models.OwnershipUnit, actor int) (bool, error) {
	existing, err := im.store.FindByUnitCode(ctx, unit.CondominiumID, unit.UnitCode)
	if err != nil {
		return false, err
	}

	unit.UpdatedBy = actor
	if existing == nil {
		unit.CreatedBy = actor
		return true, im.store.Insert(ctx, unit)
	}

	unit.ID = existing.ID
	unit.CreatedAt = existing.CreatedAt
	unit.CreatedBy = existing.CreatedBy
	return false, im.store.Update(ctx, unit)
}
