package unitimport

import (
	"context"
	"fmt"

	"condo-app/audit"
	"condo-app/types"
)

// LegacyImport is the older insert-only import: each row is validated (with
// the co-holder sum check) and inserted on its own, and failures are
// collected while the remaining rows keep going. Existing unit codes are
// reported as errors instead of updated.
//
// Deprecated: use Importer.Import, which validates the whole batch first and
// upserts by unit code.
func LegacyImport(ctx context.Context, store Store, recorder audit.Recorder, condominiumID types.SnowflakeID, actor int, raw []RawRow) Result {
	v := NewValidator()
	v.CheckCoHolderSum = true

	rows := ParseRows(raw)
	result := Result{Total: len(rows), Errors: []RowResult{}}

	for _, row := range rows {
		report := v.Validate(row)
		if !report.Valid() {
			result.Errors = append(result.Errors, report)
			continue
		}

		existing, err := store.FindByUnitCode(ctx, condominiumID, row.UnitCode)
		if err == nil && existing != nil {
			err = fmt.Errorf("unit %s already exists", row.UnitCode)
		}
		if err == nil {
			unit := row.Unit(condominiumID)
			unit.CreatedBy = actor
			unit.UpdatedBy = actor
			err = store.Insert(ctx, &unit)
		}
		if err != nil {
			report.Messages = append(report.Messages, err.Error())
			result.Errors = append(result.Errors, report)
			continue
		}
		result.Imported++
		result.Created++
	}

	result.Success = len(result.Errors) == 0
	if result.Success {
		result.Outcome = OutcomeSuccess
	} else {
		result.Outcome = OutcomePartialFailure
	}
	result.Message = fmt.Sprintf("Upload completed: %d imported, %d errors", result.Imported, len(result.Errors))

	recorder.Record(ctx, audit.Entry{
		CondominiumID: condominiumID,
		Action:        audit.ActionImport,
		Actor:         actor,
		After: audit.Snapshot(map[string]any{
			"legacy":   true,
			"total":    result.Total,
			"imported": result.Imported,
			"errors":   result.Errors,
		}),
	})
	return result
}
