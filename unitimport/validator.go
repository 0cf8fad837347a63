package unitimport

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator"
)

// NoCodePlaceholder stands in for a missing unit code in row reports.
const NoCodePlaceholder = "(no code)"

// coHolderTolerance is how far the co-holder percentages may drift from 100.
const coHolderTolerance = 0.01

// RowResult is the validation report of one row. An empty Messages slice
// means the row is valid.
type RowResult struct {
	Row      int      `json:"row"`
	UnitCode string   `json:"unit_code"`
	Messages []string `json:"messages"`
}

func (r RowResult) Valid() bool { return len(r.Messages) == 0 }

type Validator struct {
	// CheckCoHolderSum enables the co-holder percentage check of the legacy
	// import path.
	CheckCoHolderSum bool

	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate runs every check and collects all failures; it never stops at the
// first one.
func (v *Validator) Validate(row Row) RowResult {
	result := RowResult{Row: row.Number(), UnitCode: row.UnitCode, Messages: []string{}}
	if result.UnitCode == "" {
		result.UnitCode = NoCodePlaceholder
	}
	add := func(format string, args ...any) {
		result.Messages = append(result.Messages, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(row.UnitCode) == "" {
		add("unit_code is required")
	}

	if strings.TrimSpace(row.HolderName) == "" {
		add("holder_name is required")
	}

	if len(row.UsageTypes) == 0 {
		add("usage_types is required (Apartment, Storage, ParkingSpot)")
	} else {
		var unknown []string
		for _, token := range row.UsageTypes {
			if _, ok := ResolveUsageType(token); !ok {
				unknown = append(unknown, token)
			}
		}
		if len(unknown) > 0 {
			add("usage_types has invalid values: %s", strings.Join(unknown, ", "))
		}
	}

	if row.Share.Err != nil {
		add("%s", row.Share.Err.Error())
	}

	if row.HolderKind != "" {
		if _, ok := ResolveHolderKind(row.HolderKind); !ok {
			add("holder_kind %q must be NaturalPerson or LegalEntity", row.HolderKind)
		}
	}

	if row.Contact.Present() {
		if !row.Contact.Valid {
			add("contact is not valid JSON: %s", row.Contact.Raw)
		} else if email := row.Contact.Value.Email; email != "" {
			if err := v.validate.Var(email, "email"); err != nil {
				add("contact email %q is not a valid address", email)
			}
		}
	}

	if row.CoHolders.Present() {
		if !row.CoHolders.Valid {
			add("co_holders is not valid JSON: %s", row.CoHolders.Raw)
		} else if v.CheckCoHolderSum && len(row.CoHolders.Value) > 0 {
			var sum float64
			for _, h := range row.CoHolders.Value {
				sum += h.Percentage
			}
			if math.Abs(sum-100) > coHolderTolerance {
				add("co_holders percentages must add up to 100 (got %s)", formatPercent(sum))
			}
		}
	}

	return result
}

// ValidateAll validates every row and reports whether any failed.
func (v *Validator) ValidateAll(rows []Row) ([]RowResult, bool) {
	results := make([]RowResult, 0, len(rows))
	failed := false
	for _, row := range rows {
		res := v.Validate(row)
		if !res.Valid() {
			failed = true
		}
		results = append(results, res)
	}
	return results, failed
}

func formatPercent(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", f), "0"), ".")
}
