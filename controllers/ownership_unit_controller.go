package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"

	"condo-app/audit"
	"condo-app/config"
	"condo-app/middleware"
	"condo-app/models"
	"condo-app/notify"
	"condo-app/repositories"
	"condo-app/types"
	"condo-app/unitimport"
	"condo-app/unitreset"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type OwnershipUnitController struct {
	DB        *gorm.DB
	Units     *repositories.OwnershipUnitRepository
	History   *audit.GormSink
	Recorder  audit.Recorder
	Importer  *unitimport.Importer
	Resetter  *unitreset.Operator
	Validator *unitimport.Validator
	Notifier  *notify.MailNotifier
}

func NewOwnershipUnitController(db *gorm.DB, recorder audit.Recorder, notifier *notify.MailNotifier) *OwnershipUnitController {
	units := repositories.NewOwnershipUnitRepository(db)
	log := config.Logger.WithField("controller", "ownership_units")
	return &OwnershipUnitController{
		DB:        db,
		Units:     units,
		History:   audit.NewGormSink(db),
		Recorder:  recorder,
		Importer:  unitimport.NewImporter(units, recorder, log),
		Resetter:  unitreset.NewStoreOperator(units, recorder, log),
		Validator: unitimport.NewValidator(),
		Notifier:  notifier,
	}
}

func (c *OwnershipUnitController) GetAllUnits(ctx *fiber.Ctx) error {
	condo, err := c.loadCondominium(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	units, err := c.Units.List(ctx.UserContext(), condo.ID)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Units found", "data": units})
}

func (c *OwnershipUnitController) GetUnitByID(ctx *fiber.Ctx) error {
	unit, err := c.loadUnit(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Unit found", "data": unit})
}

func (c *OwnershipUnitController) CreateUnit(ctx *fiber.Ctx) error {
	condo, err := c.loadCondominium(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	row, report, err := c.parseUnitBody(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	if !report.Valid() {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"success": false, "error": "Invalid unit", "errors": report.Messages})
	}

	existing, err := c.Units.FindByUnitCode(ctx.UserContext(), condo.ID, row.UnitCode)
	if err != nil {
		return respondError(ctx, err)
	}
	if existing != nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "error": "Unit code already exists"})
	}

	unit := row.Unit(condo.ID)
	unit.CreatedBy = middleware.UserID(ctx)
	unit.UpdatedBy = unit.CreatedBy
	if err := c.Units.Insert(ctx.UserContext(), &unit); err != nil {
		return respondError(ctx, err)
	}

	c.Recorder.Record(ctx.UserContext(), audit.Entry{
		CondominiumID: condo.ID,
		UnitID:        unit.ID,
		UnitCode:      unit.UnitCode,
		Action:        audit.ActionCreate,
		Actor:         unit.CreatedBy,
		After:         audit.Snapshot(unit),
	})

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "Unit created successfully", "data": unit})
}

func (c *OwnershipUnitController) UpdateUnit(ctx *fiber.Ctx) error {
	current, err := c.loadUnit(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	row, report, err := c.parseUnitBody(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	if !report.Valid() {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"success": false, "error": "Invalid unit", "errors": report.Messages})
	}

	if row.UnitCode != current.UnitCode {
		clash, err := c.Units.FindByUnitCode(ctx.UserContext(), current.CondominiumID, row.UnitCode)
		if err != nil {
			return respondError(ctx, err)
		}
		if clash != nil {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "error": "Unit code already exists"})
		}
	}

	unit := row.Unit(current.CondominiumID)
	unit.ID = current.ID
	unit.CreatedAt = current.CreatedAt
	unit.CreatedBy = current.CreatedBy
	unit.UpdatedBy = middleware.UserID(ctx)
	if err := c.Units.Update(ctx.UserContext(), &unit); err != nil {
		return respondError(ctx, err)
	}

	c.Recorder.Record(ctx.UserContext(), audit.Entry{
		CondominiumID: unit.CondominiumID,
		UnitID:        unit.ID,
		UnitCode:      unit.UnitCode,
		Action:        audit.ActionUpdate,
		Actor:         unit.UpdatedBy,
		Before:        audit.Snapshot(current),
		After:         audit.Snapshot(unit),
	})

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Unit updated successfully", "data": unit})
}

func (c *OwnershipUnitController) DeleteUnit(ctx *fiber.Ctx) error {
	unit, err := c.loadUnit(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	if err := c.Units.Delete(ctx.UserContext(), unit); err != nil {
		return respondError(ctx, err)
	}

	c.Recorder.Record(ctx.UserContext(), audit.Entry{
		CondominiumID: unit.CondominiumID,
		UnitID:        unit.ID,
		UnitCode:      unit.UnitCode,
		Action:        audit.ActionDelete,
		Actor:         middleware.UserID(ctx),
		Before:        audit.Snapshot(unit),
	})

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Unit deleted successfully", "data": unit})
}

// ============================================================================
// Begin upload units from excel file
// ============================================================================

func (c *OwnershipUnitController) UploadUnitsFromExcel(ctx *fiber.Ctx) error {
	condo, err := c.loadCondominium(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "File is required",
		})
	}

	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".xlsx" && ext != ".xlsm" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Only Excel files (.xlsx) are allowed",
		})
	}

	if config.MaxUploadFileSize > 0 && file.Size > int64(config.MaxUploadFileSize) {
		return ctx.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"success": false,
			"error":   "File is too large",
		})
	}

	fileContent, err := file.Open()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to open file",
		})
	}
	defer fileContent.Close()

	rows, err := unitimport.ReadSheet(fileContent)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	result := c.Importer.Import(ctx.UserContext(), condo.ID, middleware.UserID(ctx), rows)

	if c.Notifier != nil {
		go func(name, source string) {
			if err := c.Notifier.ImportFinished(name, source, result); err != nil {
				config.Logger.WithError(err).Warn("import notification not sent")
			}
		}(condo.Name, file.Filename)
	}

	return ctx.Status(importStatus(result.Outcome)).JSON(result)
}

func importStatus(outcome unitimport.Outcome) int {
	switch outcome {
	case unitimport.OutcomeRejected:
		return fiber.StatusUnprocessableEntity
	case unitimport.OutcomePartialFailure:
		return fiber.StatusConflict
	default:
		return fiber.StatusOK
	}
}

func (c *OwnershipUnitController) DownloadTemplate(ctx *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := unitimport.WriteTemplate(&buf); err != nil {
		return respondError(ctx, err)
	}

	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="plantilla_unidades.xlsx"`)
	return ctx.Send(buf.Bytes())
}

//==============================================================================
// End upload units from excel file
//==============================================================================

func (c *OwnershipUnitController) ClearAllUnits(ctx *fiber.Ctx) error {
	condo, err := c.loadCondominium(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	result := c.Resetter.Reset(ctx.UserContext(), condo.ID, middleware.UserID(ctx))
	if !result.Success {
		return ctx.Status(fiber.StatusInternalServerError).JSON(result)
	}
	return ctx.Status(fiber.StatusOK).JSON(result)
}

func (c *OwnershipUnitController) GetHistory(ctx *fiber.Ctx) error {
	condo, err := c.loadCondominium(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	histories, err := c.History.List(ctx.UserContext(), condo.ID, ctx.QueryInt("limit", 100))
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "History found", "data": histories})
}

func (c *OwnershipUnitController) loadCondominium(ctx *fiber.Ctx) (*models.Condominium, error) {
	id, err := types.ParseSnowflakeID(ctx.Params("condoId"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid condominium ID")
	}

	var condo models.Condominium
	if err := c.DB.WithContext(ctx.UserContext()).First(&condo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Condominium not found")
		}
		return nil, err
	}
	return &condo, nil
}

func (c *OwnershipUnitController) loadUnit(ctx *fiber.Ctx) (*models.OwnershipUnit, error) {
	condo, err := c.loadCondominium(ctx)
	if err != nil {
		return nil, err
	}

	id, err := types.ParseSnowflakeID(ctx.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid ID")
	}

	unit, err := c.Units.FindByID(ctx.UserContext(), condo.ID, id)
	if errors.Is(err, repositories.ErrUnitNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Unit not found")
	}
	return unit, err
}

// parseUnitBody runs a single-record form through the same parsers and
// validator as a spreadsheet row. Keys may be canonical names or any
// spreadsheet alias; structured fields may be sent as JSON values or text.
func (c *OwnershipUnitController) parseUnitBody(ctx *fiber.Ctx) (unitimport.Row, unitimport.RowResult, error) {
	var body map[string]any
	if err := json.Unmarshal(ctx.Body(), &body); err != nil {
		return unitimport.Row{}, unitimport.RowResult{}, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	raw := make(unitimport.RawRow, len(body))
	for key, value := range body {
		switch v := value.(type) {
		case map[string]any, []any:
			data, _ := json.Marshal(v)
			raw[key] = string(data)
		default:
			raw[key] = v
		}
	}

	row := unitimport.ParseRow(0, unitimport.NormalizeRow(raw))
	return row, c.Validator.Validate(row), nil
}

func respondError(ctx *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ctx.Status(fe.Code).JSON(fiber.Map{"success": false, "error": fe.Message})
	}
	if errors.Is(err, repositories.ErrUnitNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	config.Logger.WithError(err).Error("request failed")
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
}
