package database

import (
	"fmt"

	"gorm.io/gorm"
)

// ClearProcedureName is the server-side routine that removes every unit of a
// condominium together with its history and registry-file rows.
const ClearProcedureName = "clear_ownership_units"

const postgresClearProcedure = `
CREATE OR REPLACE FUNCTION clear_ownership_units(p_condominium_id BIGINT) RETURNS BIGINT
LANGUAGE plpgsql AS $$
DECLARE
    deleted BIGINT;
BEGIN
    DELETE FROM unit_histories
     WHERE unit_id IN (SELECT id FROM ownership_units WHERE condominium_id = p_condominium_id);
    DELETE FROM registry_files
     WHERE unit_id IN (SELECT id FROM ownership_units WHERE condominium_id = p_condominium_id);
    DELETE FROM ownership_units WHERE condominium_id = p_condominium_id;
    GET DIAGNOSTICS deleted = ROW_COUNT;
    RETURN deleted;
END;
$$`

const mysqlClearProcedure = `
CREATE PROCEDURE clear_ownership_units(IN p_condominium_id BIGINT)
BEGIN
    DECLARE deleted BIGINT DEFAULT 0;
    DECLARE EXIT HANDLER FOR SQLEXCEPTION
    BEGIN
        ROLLBACK;
        RESIGNAL;
    END;
    START TRANSACTION;
    DELETE h FROM unit_histories h
      JOIN ownership_units u ON u.id = h.unit_id
     WHERE u.condominium_id = p_condominium_id;
    DELETE f FROM registry_files f
      JOIN ownership_units u ON u.id = f.unit_id
     WHERE u.condominium_id = p_condominium_id;
    DELETE FROM ownership_units WHERE condominium_id = p_condominium_id;
    SET deleted = ROW_COUNT();
    COMMIT;
    SELECT deleted;
END`

const mssqlClearProcedure = `
CREATE OR ALTER PROCEDURE clear_ownership_units @condominium_id BIGINT
AS
BEGIN
    SET NOCOUNT ON;
    SET XACT_ABORT ON;
    DECLARE @deleted BIGINT;
    BEGIN TRANSACTION;
    DELETE FROM unit_histories
     WHERE unit_id IN (SELECT id FROM ownership_units WHERE condominium_id = @condominium_id);
    DELETE FROM registry_files
     WHERE unit_id IN (SELECT id FROM ownership_units WHERE condominium_id = @condominium_id);
    DELETE FROM ownership_units WHERE condominium_id = @condominium_id;
    SET @deleted = @@ROWCOUNT;
    COMMIT TRANSACTION;
    SELECT @deleted AS deleted;
END`

// InstallClearProcedure (re)creates the clear procedure for the connected
// dialect. Dialects without stored routines are left alone; the reset
// operator falls back to plain deletes there.
func InstallClearProcedure(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case "postgres":
		return db.Exec(postgresClearProcedure).Error
	case "mysql":
		if err := db.Exec("DROP PROCEDURE IF EXISTS " + ClearProcedureName).Error; err != nil {
			return err
		}
		return db.Exec(mysqlClearProcedure).Error
	case "sqlserver":
		return db.Exec(mssqlClearProcedure).Error
	default:
		return nil
	}
}

// CallClearProcedure runs the procedure and returns how many units it
// removed. ok is false when the dialect has no procedure.
func CallClearProcedure(db *gorm.DB, condominiumID int64) (deleted int64, ok bool, err error) {
	var query string
	switch db.Dialector.Name() {
	case "postgres":
		query = "SELECT " + ClearProcedureName + "(?)"
	case "mysql":
		query = "CALL " + ClearProcedureName + "(?)"
	case "sqlserver":
		query = "EXEC " + ClearProcedureName + " ?"
	default:
		return 0, false, nil
	}

	if err := db.Raw(query, condominiumID).Scan(&deleted).Error; err != nil {
		return 0, true, fmt.Errorf("call %s: %w", ClearProcedureName, err)
	}
	return deleted, true, nil
}
