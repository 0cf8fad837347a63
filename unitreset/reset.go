package unitreset

import (
	"context"
	"fmt"
	"strings"

	"condo-app/audit"
	"condo-app/types"

	"github.com/sirupsen/logrus"
)

// Result is the summary reported to the caller of Reset. ErrorCount counts
// units still present after the clear; Errors also carries store failures,
// so it can be longer than ErrorCount.
type Result struct {
	Success      bool     `json:"success"`
	DeletedCount int64    `json:"deletedCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors"`
	Message      string   `json:"message"`
	UsedFallback bool     `json:"usedFallback"`
}

// Strategy removes every unit of a condominium along with its history and
// registry-file rows.
type Strategy interface {
	Name() string
	Clear(ctx context.Context, condominiumID types.SnowflakeID) (Result, error)
}

// Operator tries the primary strategy and, only if it fails, the fallback.
type Operator struct {
	primary  Strategy
	fallback Strategy
	recorder audit.Recorder
	log      *logrus.Entry
}

func NewOperator(primary, fallback Strategy, recorder audit.Recorder, log *logrus.Entry) *Operator {
	return &Operator{
		primary:  primary,
		fallback: fallback,
		recorder: recorder,
		log:      log.WithField("component", "unit_reset"),
	}
}

// NewStoreOperator wires the procedure strategy with the manual fallback
// over the same store.
func NewStoreOperator(store Store, recorder audit.Recorder, log *logrus.Entry) *Operator {
	return NewOperator(NewProcedureStrategy(store), NewManualStrategy(store, log), recorder, log)
}

// Reset is destructive and not transactional across the fallback's steps.
func (o *Operator) Reset(ctx context.Context, condominiumID types.SnowflakeID, actor int) Result {
	log := o.log.WithField("condominium_id", condominiumID)

	result, err := o.primary.Clear(ctx, condominiumID)
	if err != nil {
		log.WithError(err).
			WithField("strategy", o.primary.Name()).
			Warn("primary clear failed, using fallback")

		result, err = o.fallback.Clear(ctx, condominiumID)
		result.UsedFallback = true
		if err != nil {
			result.Success = false
			result.Errors = append(result.Errors, err.Error())
		}
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}
	result.Message = message(result)

	log.WithFields(logrus.Fields{
		"deleted":       result.DeletedCount,
		"not_deleted":   result.ErrorCount,
		"used_fallback": result.UsedFallback,
	}).Info("units cleared")

	o.recorder.Record(ctx, audit.Entry{
		CondominiumID: condominiumID,
		Action:        audit.ActionClearAll,
		Actor:         actor,
		After: audit.Snapshot(map[string]any{
			"deleted":       result.DeletedCount,
			"errors":        result.Errors,
			"used_fallback": result.UsedFallback,
		}),
	})
	return result
}

func message(r Result) string {
	if r.Success {
		return fmt.Sprintf("Deleted %d units", r.DeletedCount)
	}
	if r.ErrorCount > 0 {
		return fmt.Sprintf("Deleted %d units, %d could not be deleted", r.DeletedCount, r.ErrorCount)
	}
	return fmt.Sprintf("Deleted %d units, clear did not finish: %s", r.DeletedCount, strings.Join(r.Errors, "; "))
}
