package unitimport

import (
	"strings"
	"unicode"

	"golang.org/x/exp/slices"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical field names a spreadsheet column can map to.
const (
	FieldUnitCode        = "unit_code"
	FieldOwnershipShare  = "ownership_share"
	FieldHolderKind      = "holder_kind"
	FieldHolderName      = "holder_name"
	FieldUsageTypes      = "usage_types"
	FieldRegistryRoles   = "registry_roles"
	FieldInscriptionFile = "inscription_file"
	FieldValidityFile    = "validity_file"
	FieldCoHolders       = "co_holders"
	FieldContact         = "contact"
	FieldNotes           = "notes"
)

// TemplateColumns are the headers of the downloadable template, in order.
var TemplateColumns = []string{
	"unidad_codigo",
	"alicuota",
	"titular_tipo",
	"nombre_razon_social",
	"tipo_uso",
	"roles",
	"archivo_inscripcion_cbr",
	"archivo_vigencia_cbr",
	"co_titulares",
	"contacto",
	"observaciones",
}

// headerAliases is keyed by folded header text. Canonical names are listed
// too so an already-normalized sheet maps onto itself.
var headerAliases = map[string]string{
	"unit_code":     FieldUnitCode,
	"unidad_codigo": FieldUnitCode,
	"codigo_unidad": FieldUnitCode,
	"codigo":        FieldUnitCode,
	"unidad":        FieldUnitCode,
	"cod_unidad":    FieldUnitCode,
	"numero_unidad": FieldUnitCode,
	"n_unidad":      FieldUnitCode,

	"ownership_share":     FieldOwnershipShare,
	"alicuota":            FieldOwnershipShare,
	"porcentaje_alicuota": FieldOwnershipShare,
	"prorrateo":           FieldOwnershipShare,

	"holder_kind":  FieldHolderKind,
	"titular_tipo": FieldHolderKind,
	"tipo_titular": FieldHolderKind,
	"tipo_persona": FieldHolderKind,

	"holder_name":         FieldHolderName,
	"nombre_razon_social": FieldHolderName,
	"nombre":              FieldHolderName,
	"razon_social":        FieldHolderName,
	"titular":             FieldHolderName,
	"nombre_titular":      FieldHolderName,
	"propietario":         FieldHolderName,

	"usage_types": FieldUsageTypes,
	"tipo_uso":    FieldUsageTypes,
	"tipos_uso":   FieldUsageTypes,
	"uso":         FieldUsageTypes,

	"registry_roles": FieldRegistryRoles,
	"roles":          FieldRegistryRoles,
	"roles_cbr":      FieldRegistryRoles,
	"inscripciones":  FieldRegistryRoles,

	"inscription_file":        FieldInscriptionFile,
	"archivo_inscripcion_cbr": FieldInscriptionFile,
	"archivo_inscripcion":     FieldInscriptionFile,

	"validity_file":        FieldValidityFile,
	"archivo_vigencia_cbr": FieldValidityFile,
	"archivo_vigencia":     FieldValidityFile,

	"co_holders":   FieldCoHolders,
	"co_titulares": FieldCoHolders,
	"cotitulares":  FieldCoHolders,

	"contact":  FieldContact,
	"contacto": FieldContact,

	"notes":         FieldNotes,
	"observaciones": FieldNotes,
	"notas":         FieldNotes,
	"comentarios":   FieldNotes,
}

// fold lowercases s, strips accents and collapses every run of
// non-alphanumeric characters into a single underscore.
func fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// CanonicalField resolves one header. ok is false for unknown headers.
func CanonicalField(header string) (string, bool) {
	field, ok := headerAliases[fold(header)]
	return field, ok
}

// NormalizeHeaders maps a header row onto canonical field names. Unknown
// headers are returned unchanged.
func NormalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		if field, ok := CanonicalField(h); ok {
			out[i] = field
			continue
		}
		out[i] = h
	}
	return out
}

// RawRow is one input row keyed by header text. Rows read from a sheet are
// already keyed by canonical field name.
type RawRow map[string]any

// NormalizeRow keeps only recognized columns, keyed by canonical name, with
// trimmed string values. A map has no column order, so headers are visited
// in sorted order and the first non-empty value wins when several fold to the
// same field. Sheet rows resolve that earlier, in RowsFromGrid.
func NormalizeRow(raw RawRow) map[string]string {
	headers := make([]string, 0, len(raw))
	for h := range raw {
		headers = append(headers, h)
	}
	slices.Sort(headers)

	fields := make(map[string]string, len(headers))
	for _, h := range headers {
		field, ok := CanonicalField(h)
		if !ok {
			continue
		}
		if fields[field] != "" {
			continue
		}
		fields[field] = CellString(raw[h])
	}
	return fields
}
