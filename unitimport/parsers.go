package unitimport

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"condo-app/models"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

const (
	// MaxShareDigits is the significant-digit budget of a stored share.
	MaxShareDigits = 10
	// MaxShareScale matches the decimal(13,12) column.
	MaxShareScale = 12
)

var (
	ErrShareNotNumeric = errors.New("ownership share is not a number")
	ErrShareOutOfRange = errors.New("ownership share must be greater than 0 and at most 100")
	ErrShareTooPrecise = errors.New("ownership share has too many digits")
)

var (
	shareOne     = decimal.NewFromInt(1)
	shareHundred = decimal.NewFromInt(100)
)

// CellString turns a spreadsheet cell into trimmed text. Numbers never come
// back in exponent form.
func CellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// Share is the outcome of parsing an ownership share cell. Value holds the
// fraction of the whole building when Err is nil.
type Share struct {
	Raw   string
	Value decimal.Decimal
	Err   error
}

func (s Share) Present() bool { return s.Raw != "" }

func (s Share) Valid() bool { return s.Present() && s.Err == nil }

// ParseOwnershipShare accepts comma or dot decimals. Values above 1 are read
// as whole percent (1,5 -> 0.015); values up to 1 are taken as fractions
// already, so "1" means the whole building rather than 1%.
func ParseOwnershipShare(raw string) Share {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Share{}
	}
	share := Share{Raw: raw}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		if r == ',' {
			return '.'
		}
		return r
	}, raw)

	// Exponent notation is refused before decimal parsing: comparing or
	// printing a value like 1e-8000000 costs time proportional to the exponent.
	if strings.ContainsAny(cleaned, "eE") {
		share.Err = fmt.Errorf("%w: %q", ErrShareNotNumeric, raw)
		return share
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		share.Err = fmt.Errorf("%w: %q", ErrShareNotNumeric, raw)
		return share
	}
	if value.Sign() <= 0 || value.GreaterThan(shareHundred) {
		share.Err = fmt.Errorf("%w: %q", ErrShareOutOfRange, raw)
		return share
	}
	if value.GreaterThan(shareOne) {
		value = value.Shift(-2)
	}

	digits, scale := shareDigits(value)
	if digits > MaxShareDigits || scale > MaxShareScale {
		share.Err = fmt.Errorf("%w (max %d significant digits): %q", ErrShareTooPrecise, MaxShareDigits, raw)
		return share
	}
	share.Value = value
	return share
}

// shareDigits reports significant digits and decimal places of d, ignoring
// trailing zeros.
func shareDigits(d decimal.Decimal) (digits, scale int) {
	coef := new(big.Int).Abs(d.Coefficient())
	exp := int(d.Exponent())
	if coef.Sign() == 0 {
		return 0, 0
	}

	ten := big.NewInt(10)
	rem := new(big.Int)
	for {
		q, r := new(big.Int).QuoRem(coef, ten, rem)
		if r.Sign() != 0 {
			break
		}
		coef = q
		exp++
	}

	digits = len(coef.String())
	if exp < 0 {
		scale = -exp
	}
	return digits, scale
}

// ParseUsageTypes splits a ";" separated list, dropping blanks. An empty
// result is flagged by the validator, never defaulted.
func ParseUsageTypes(raw string) []string {
	var out []string
	for _, token := range strings.Split(raw, ";") {
		if token = strings.TrimSpace(token); token != "" {
			out = append(out, token)
		}
	}
	return out
}

var usageTypeAliases = map[string]models.UsageType{
	"apartment":       models.UsageApartment,
	"departamento":    models.UsageApartment,
	"depto":           models.UsageApartment,
	"dpto":            models.UsageApartment,
	"vivienda":        models.UsageApartment,
	"storage":         models.UsageStorage,
	"bodega":          models.UsageStorage,
	"parkingspot":     models.UsageParkingSpot,
	"parking_spot":    models.UsageParkingSpot,
	"parking":         models.UsageParkingSpot,
	"estacionamiento": models.UsageParkingSpot,
}

// ResolveUsageType maps Spanish or English spellings onto the enum.
func ResolveUsageType(token string) (models.UsageType, bool) {
	u, ok := usageTypeAliases[fold(token)]
	return u, ok
}

var holderKindAliases = map[string]models.HolderKind{
	"naturalperson":    models.HolderNaturalPerson,
	"natural_person":   models.HolderNaturalPerson,
	"personanatural":   models.HolderNaturalPerson,
	"persona_natural":  models.HolderNaturalPerson,
	"natural":          models.HolderNaturalPerson,
	"legalentity":      models.HolderLegalEntity,
	"legal_entity":     models.HolderLegalEntity,
	"personajuridica":  models.HolderLegalEntity,
	"persona_juridica": models.HolderLegalEntity,
	"juridica":         models.HolderLegalEntity,
	"empresa":          models.HolderLegalEntity,
}

func ResolveHolderKind(raw string) (models.HolderKind, bool) {
	k, ok := holderKindAliases[fold(raw)]
	return k, ok
}

// ParseRegistryRoles reads "fojas:numero:año:uso1,uso2" entries separated by
// "|". An entry without any colon uses commas for every field. Entries with
// fewer than four fields are dropped.
func ParseRegistryRoles(raw string) []models.RegistryRole {
	var roles []models.RegistryRole
	for _, entry := range strings.Split(raw, "|") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		var parts []string
		if strings.Contains(entry, ":") {
			parts = strings.SplitN(entry, ":", 4)
		} else {
			parts = strings.Split(entry, ",")
			if len(parts) > 4 {
				parts = append(parts[:3], strings.Join(parts[3:], ","))
			}
		}
		if len(parts) < 4 {
			continue
		}

		role := models.RegistryRole{
			Page:   strings.TrimSpace(parts[0]),
			Number: strings.TrimSpace(parts[1]),
			Year:   strings.TrimSpace(parts[2]),
		}
		for _, token := range strings.Split(parts[3], ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			usage, ok := ResolveUsageType(token)
			if !ok {
				usage = models.UsageType(token)
			}
			if !slices.Contains(role.AppliesTo, usage) {
				role.AppliesTo = append(role.AppliesTo, usage)
			}
		}
		roles = append(roles, role)
	}
	return roles
}

// JSONField keeps the operator's original text next to the decoded value so
// a malformed cell can be reported verbatim.
type JSONField[T any] struct {
	Raw   string
	Value T
	Valid bool
}

func (f JSONField[T]) Present() bool { return f.Raw != "" }

type coHolderCell struct {
	Nombre     string      `json:"nombre"`
	Name       string      `json:"name"`
	Porcentaje json.Number `json:"porcentaje"`
	Percentage json.Number `json:"percentage"`
}

// ParseCoHolders decodes co_titulares: [{"nombre": "...", "porcentaje": 50}].
func ParseCoHolders(raw string) JSONField[[]models.CoHolder] {
	field := JSONField[[]models.CoHolder]{Raw: strings.TrimSpace(raw)}
	if field.Raw == "" {
		return field
	}

	var cells []coHolderCell
	if err := json.Unmarshal([]byte(field.Raw), &cells); err != nil {
		return field
	}

	holders := make([]models.CoHolder, 0, len(cells))
	for _, c := range cells {
		name := c.Nombre
		if name == "" {
			name = c.Name
		}
		pct := c.Porcentaje
		if pct == "" {
			pct = c.Percentage
		}
		var value float64
		if pct != "" {
			f, err := pct.Float64()
			if err != nil {
				return field
			}
			value = f
		}
		holders = append(holders, models.CoHolder{Name: strings.TrimSpace(name), Percentage: value})
	}

	field.Value = holders
	field.Valid = true
	return field
}

type contactCell struct {
	Email    string `json:"email"`
	Telefono any    `json:"telefono"`
	Phone    any    `json:"phone"`
}

// ParseContact decodes contacto: {"email": "...", "telefono": "..."}.
func ParseContact(raw string) JSONField[models.Contact] {
	field := JSONField[models.Contact]{Raw: strings.TrimSpace(raw)}
	if field.Raw == "" {
		return field
	}

	var cell contactCell
	if err := json.Unmarshal([]byte(field.Raw), &cell); err != nil {
		return field
	}

	phone := CellString(cell.Telefono)
	if phone == "" {
		phone = CellString(cell.Phone)
	}
	field.Value = models.Contact{Email: strings.TrimSpace(cell.Email), Phone: phone}
	field.Valid = true
	return field
}
