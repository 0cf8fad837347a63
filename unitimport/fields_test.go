package unitimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalField(t *testing.T) {
	cases := map[string]string{
		"unidad_codigo":           FieldUnitCode,
		"Código":                  FieldUnitCode,
		"  UNIDAD ":               FieldUnitCode,
		"Código Unidad":           FieldUnitCode,
		"N° Unidad":               FieldUnitCode,
		"Alícuota":                FieldOwnershipShare,
		"Nombre / Razón Social":   FieldHolderName,
		"Tipo de uso":             "",
		"tipo uso":                FieldUsageTypes,
		"Co-Titulares":            FieldCoHolders,
		"Archivo Inscripción CBR": FieldInscriptionFile,
		"observaciones":           FieldNotes,
	}
	for header, want := range cases {
		got, ok := CanonicalField(header)
		if want == "" {
			assert.False(t, ok, header)
			continue
		}
		assert.True(t, ok, header)
		assert.Equal(t, want, got, header)
	}
}

func TestNormalizeHeadersKeepsLengthAndUnknowns(t *testing.T) {
	headers := []string{"Unidad", "Alicuota", "Color favorito", "", "contacto"}

	got := NormalizeHeaders(headers)

	assert.Equal(t, []string{FieldUnitCode, FieldOwnershipShare, "Color favorito", "", FieldContact}, got)
}

func TestNormalizeHeadersTemplateRoundTrip(t *testing.T) {
	got := NormalizeHeaders(TemplateColumns)

	assert.Equal(t, []string{
		FieldUnitCode, FieldOwnershipShare, FieldHolderKind, FieldHolderName, FieldUsageTypes,
		FieldRegistryRoles, FieldInscriptionFile, FieldValidityFile, FieldCoHolders, FieldContact, FieldNotes,
	}, got)
	assert.Equal(t, got, NormalizeHeaders(got))
}

func TestNormalizeRow(t *testing.T) {
	raw := RawRow{
		"Código":        "  101 ",
		"alicuota":      1.5,
		"Color":         "azul",
		"observaciones": nil,
	}

	fields := NormalizeRow(raw)

	assert.Equal(t, "101", fields[FieldUnitCode])
	assert.Equal(t, "1.5", fields[FieldOwnershipShare])
	assert.Equal(t, "", fields[FieldNotes])
	assert.NotContains(t, fields, "Color")
}

func TestNormalizeRowFirstNonEmptyAliasWins(t *testing.T) {
	raw := RawRow{
		"codigo":        "",
		"unidad":        "B-2",
		"unidad_codigo": "A-1",
	}

	fields := NormalizeRow(raw)

	// sorted order: codigo, unidad, unidad_codigo
	assert.Equal(t, "B-2", fields[FieldUnitCode])
}
