package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"condo-app/audit"
	"condo-app/config"
	"condo-app/migration"
	"condo-app/models"
	"condo-app/unitimport"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testServer struct {
	app   *fiber.App
	db    *gorm.DB
	condo models.Condominium
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	config.LoadConfig()
	config.JWTSecret = "test-secret"
	config.Logger.SetOutput(io.Discard)

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.Migrate(db))

	condo := models.Condominium{Name: "Edificio Los Robles"}
	require.NoError(t, db.Create(&condo).Error)

	app := fiber.New()
	recorder := audit.NewDirect(audit.NewGormSink(db), logrus.NewEntry(config.Logger))
	Setup(app, db, recorder, nil)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 5,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(config.JWTSecret))
	require.NoError(t, err)

	return &testServer{app: app, db: db, condo: condo, token: token}
}

func (s *testServer) unitsURL(suffix string) string {
	return fmt.Sprintf("%s/condominiums/%s/units%s", config.MAIN_ROUTES, s.condo.ID, suffix)
}

func (s *testServer) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(body, &out), string(body))
	}
	return resp, out
}

func (s *testServer) doJSON(t *testing.T, method, url string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, url, bytes.NewReader(data))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return s.do(t, req)
}

func (s *testServer) upload(t *testing.T, filename string, rows [][]string) (*http.Response, map[string]any) {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	var sheet bytes.Buffer
	require.NoError(t, f.Write(&sheet))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(sheet.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, s.unitsURL("/upload-excel"), &body)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	return s.do(t, req)
}

var uploadHeader = []string{"Código", "Alícuota", "Titular Tipo", "Nombre Razón Social", "Tipo Uso"}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnitsRequireToken(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, s.unitsURL("/"), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, s.unitsURL("/"), nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTokenCheckedOncePerRequest(t *testing.T) {
	s := newTestServer(t)
	level := config.Logger.GetLevel()
	config.Logger.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() { config.Logger.SetLevel(level) })
	hook := logtest.NewLocal(config.Logger)

	accepted := func() int {
		n := 0
		for _, e := range hook.AllEntries() {
			if e.Message == "token accepted" {
				n++
			}
		}
		return n
	}

	resp, _ := s.do(t, httptest.NewRequest(http.MethodGet, s.unitsURL("/"), nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, accepted())

	hook.Reset()
	resp, _ = s.do(t, httptest.NewRequest(http.MethodGet, config.MAIN_ROUTES+"/condominiums/", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, accepted())

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, config.MAIN_ROUTES+"/condominiums/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUnknownCondominium(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, config.MAIN_ROUTES+"/condominiums/123/units/", nil)
	resp, _ := s.do(t, req)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, config.MAIN_ROUTES+"/condominiums/abc/units/", nil)
	resp, _ = s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCondominiums(t *testing.T) {
	s := newTestServer(t)
	url := config.MAIN_ROUTES + "/condominiums/"

	resp, body := s.doJSON(t, http.MethodPost, url, map[string]any{"name": "Torre Norte", "address": "Av. Siempre Viva 742"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode, body)

	resp, _ = s.doJSON(t, http.MethodPost, url, map[string]any{"name": "Torre Norte"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.doJSON(t, http.MethodPost, url, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, url, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 2)
}

func TestUploadExcel(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.upload(t, "unidades.xlsx", [][]string{
		uploadHeader,
		{"101", "1,5", "PersonaNatural", "Juan Pérez", "Departamento"},
		{"B-1", "0,2", "PersonaJuridica", "Inversiones SpA", "Bodega;Estacionamiento"},
	})

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["imported"])

	var unit models.OwnershipUnit
	require.NoError(t, s.db.Where("condominium_id = ? AND unit_code = ?", s.condo.ID, "101").First(&unit).Error)
	assert.True(t, decimal.RequireFromString("0.015").Equal(unit.OwnershipShare.Decimal))
	assert.Equal(t, 5, unit.CreatedBy)

	var bodega models.OwnershipUnit
	require.NoError(t, s.db.Where("unit_code = ?", "B-1").First(&bodega).Error)
	assert.Equal(t, models.HolderLegalEntity, bodega.HolderKind)
	assert.Equal(t, []models.UsageType{models.UsageStorage, models.UsageParkingSpot}, bodega.UsageTypes)
}

func TestUploadExcelRejectsWholeBatch(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.upload(t, "unidades.xlsx", [][]string{
		uploadHeader,
		{"101", "10", "PersonaNatural", "A", "Departamento"},
		{"102", "150", "PersonaNatural", "B", "Departamento"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, string(unitimport.OutcomeRejected), body["outcome"])
	errs, ok := body["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.EqualValues(t, 3, errs[0].(map[string]any)["row"])

	var count int64
	require.NoError(t, s.db.Model(&models.OwnershipUnit{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUploadExcelChecksFile(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.upload(t, "unidades.csv", [][]string{uploadHeader})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := s.upload(t, "unidades.xlsx", [][]string{uploadHeader})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, unitimport.ErrNoDataRows.Error(), body["error"])

	req := httptest.NewRequest(http.MethodPost, s.unitsURL("/upload-excel"), nil)
	resp, _ = s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownloadTemplate(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, s.unitsURL("/template"), nil)
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "plantilla_unidades.xlsx")

	rows, err := unitimport.ReadSheet(resp.Body)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUnitCRUD(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.doJSON(t, http.MethodPost, s.unitsURL("/"), map[string]any{
		"unit_code":       "301",
		"ownership_share": "2,5",
		"holder_name":     "María Soto",
		"usage_types":     "Apartment",
		"contact":         map[string]any{"email": "maria@example.com"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	id := body["data"].(map[string]any)["id"].(string)

	resp, _ = s.doJSON(t, http.MethodPost, s.unitsURL("/"), map[string]any{
		"unit_code": "301", "holder_name": "Otro", "usage_types": "Bodega",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = s.doJSON(t, http.MethodPost, s.unitsURL("/"), map[string]any{"unit_code": "302"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Len(t, body["errors"], 2)

	resp, body = s.doJSON(t, http.MethodPut, s.unitsURL("/"+id), map[string]any{
		"unit_code":   "301",
		"holder_name": "María Soto Pérez",
		"usage_types": "Apartment;Storage",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, s.unitsURL("/"+id), nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "María Soto Pérez", data["holder_name"])
	assert.Nil(t, data["ownership_share"])

	resp, _ = s.do(t, httptest.NewRequest(http.MethodDelete, s.unitsURL("/"+id), nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, httptest.NewRequest(http.MethodGet, s.unitsURL("/"+id), nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, s.unitsURL("/history"), nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 3)
}

func TestClearAllUnits(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.upload(t, "unidades.xlsx", [][]string{
		uploadHeader,
		{"101", "10", "PersonaNatural", "A", "Departamento"},
		{"102", "20", "PersonaNatural", "B", "Departamento"},
		{"103", "30", "PersonaNatural", "C", "Bodega"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = s.do(t, httptest.NewRequest(http.MethodDelete, s.unitsURL("/"), nil))

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 3, body["deletedCount"])
	assert.Equal(t, true, body["usedFallback"])

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, s.unitsURL("/"), nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["data"])
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, s.db.Create(&models.User{Username: "admin", Email: "admin@condo.test", Password: string(hash)}).Error)

	login := func(password string) *http.Response {
		data, _ := json.Marshal(map[string]string{"email": "admin", "password": password})
		req := httptest.NewRequest(http.MethodPost, config.MAIN_ROUTES+"/auth/login", bytes.NewReader(data))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := s.app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, http.StatusUnauthorized, login("wrong").StatusCode)

	resp := login("s3cret!")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	access := body["x_token"].(string)
	assert.NotContains(t, body["user"], "password")

	var refresh *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" {
			refresh = c
		}
	}
	require.NotNil(t, refresh)

	req := httptest.NewRequest(http.MethodGet, s.unitsURL("/"), nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, s.unitsURL("/"), nil)
	req.Header.Set("Authorization", "Bearer "+refresh.Value)
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "refresh tokens are not access tokens")

	req = httptest.NewRequest(http.MethodPost, config.MAIN_ROUTES+"/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refresh.Value})
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, config.MAIN_ROUTES+"/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
