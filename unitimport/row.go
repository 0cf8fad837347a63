package unitimport

import (
	"condo-app/models"
	"condo-app/types"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Row is the typed form of one spreadsheet row. Nothing downstream of the
// parsers sees the raw header map.
type Row struct {
	Index           int
	UnitCode        string
	Share           Share
	HolderKind      string
	HolderName      string
	UsageTypes      []string
	RegistryRoles   []models.RegistryRole
	InscriptionFile string
	ValidityFile    string
	CoHolders       JSONField[[]models.CoHolder]
	Contact         JSONField[models.Contact]
	Notes           string
}

// Number is the row as a user sees it in the sheet: 1-based, after the header.
func (r Row) Number() int { return r.Index + 2 }

// ParseRow builds a Row from canonical fields as returned by NormalizeRow.
func ParseRow(index int, fields map[string]string) Row {
	return Row{
		Index:           index,
		UnitCode:        fields[FieldUnitCode],
		Share:           ParseOwnershipShare(fields[FieldOwnershipShare]),
		HolderKind:      fields[FieldHolderKind],
		HolderName:      fields[FieldHolderName],
		UsageTypes:      ParseUsageTypes(fields[FieldUsageTypes]),
		RegistryRoles:   ParseRegistryRoles(fields[FieldRegistryRoles]),
		InscriptionFile: fields[FieldInscriptionFile],
		ValidityFile:    fields[FieldValidityFile],
		CoHolders:       ParseCoHolders(fields[FieldCoHolders]),
		Contact:         ParseContact(fields[FieldContact]),
		Notes:           fields[FieldNotes],
	}
}

// ParseRows normalizes and parses every data row of a sheet.
func ParseRows(raw []RawRow) []Row {
	rows := make([]Row, len(raw))
	for i, r := range raw {
		rows[i] = ParseRow(i, NormalizeRow(r))
	}
	return rows
}

// Unit converts a validated row into the record to persist. Fields that
// failed to parse are left empty, so only call it on rows without errors.
func (r Row) Unit(condominiumID types.SnowflakeID) models.OwnershipUnit {
	unit := models.OwnershipUnit{
		CondominiumID:   condominiumID,
		UnitCode:        r.UnitCode,
		HolderName:      r.HolderName,
		RegistryRoles:   r.RegistryRoles,
		InscriptionFile: r.InscriptionFile,
		ValidityFile:    r.ValidityFile,
		Notes:           r.Notes,
	}

	if r.Share.Valid() {
		unit.OwnershipShare = decimal.NewNullDecimal(r.Share.Value)
	}
	if kind, ok := ResolveHolderKind(r.HolderKind); ok {
		unit.HolderKind = kind
	}
	for _, token := range r.UsageTypes {
		usage, ok := ResolveUsageType(token)
		if ok && !slices.Contains(unit.UsageTypes, usage) {
			unit.UsageTypes = append(unit.UsageTypes, usage)
		}
	}
	if r.CoHolders.Valid {
		unit.CoHolders = r.CoHolders.Value
	}
	if r.Contact.Valid && (r.Contact.Value.Email != "" || r.Contact.Value.Phone != "") {
		contact := r.Contact.Value
		unit.Contact = &contact
	}
	return unit
}
