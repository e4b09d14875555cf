package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	ledgerapp "github.com/fleetops/backend/internal/application/ledger"
	"github.com/fleetops/backend/internal/domain/ledger"
	"github.com/fleetops/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLedgerTestHandler() (*LedgerHandler, *mockLedgerRepository) {
	gin.SetMode(gin.TestMode)

	ledgerRepo := newMockLedgerRepository()
	service := ledgerapp.NewService(ledgerRepo)
	handler := NewLedgerHandler(service)

	return handler, ledgerRepo
}

func appendTestCredit(t *testing.T, repo *mockLedgerRepository, driverID uuid.UUID, amount float64, costRecordID uuid.UUID) *ledger.Entry {
	t.Helper()
	entry, err := ledger.NewCredit(driverID, decimal.NewFromFloat(amount), costRecordID)
	require.NoError(t, err)
	require.NoError(t, repo.Append(t.Context(), entry))
	return entry
}

func TestNewLedgerHandler(t *testing.T) {
	handler, _ := setupLedgerTestHandler()
	assert.NotNil(t, handler)
}

func TestLedgerHandler_PostCredit_Success(t *testing.T) {
	handler, ledgerRepo := setupLedgerTestHandler()

	driverID := uuid.New()
	costRecordID := uuid.New()
	reqBody := PostLedgerCreditRequest{
		DriverID:     driverID.String(),
		Amount:       12.35,
		CostRecordID: costRecordID.String(),
	}
	body, _ := json.Marshal(reqBody)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/ledger/credits", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.PostCredit(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.True(t, data["created"].(bool))
	assert.Len(t, ledgerRepo.entries, 1)
}

func TestLedgerHandler_PostCredit_Idempotent(t *testing.T) {
	handler, ledgerRepo := setupLedgerTestHandler()

	driverID := uuid.New()
	costRecordID := uuid.New()
	appendTestCredit(t, ledgerRepo, driverID, 12.35, costRecordID)

	reqBody := PostLedgerCreditRequest{
		DriverID:     driverID.String(),
		Amount:       12.35,
		CostRecordID: costRecordID.String(),
	}
	body, _ := json.Marshal(reqBody)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/ledger/credits", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.PostCredit(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.False(t, data["created"].(bool))
	assert.Len(t, ledgerRepo.entries, 1)
}

func TestLedgerHandler_PostCredit_InvalidBody(t *testing.T) {
	handler, _ := setupLedgerTestHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/ledger/credits", bytes.NewBufferString(`{"driver_id":"nope","amount":-1}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.PostCredit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerHandler_GetBalance_Success(t *testing.T) {
	handler, ledgerRepo := setupLedgerTestHandler()

	driverID := uuid.New()
	appendTestCredit(t, ledgerRepo, driverID, 20, uuid.New())
	appendTestCredit(t, ledgerRepo, driverID, 7.50, uuid.New())
	appendTestCredit(t, ledgerRepo, uuid.New(), 99, uuid.New())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/ledger/balance?driver_id="+driverID.String(), nil)

	handler.GetBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, driverID.String(), data["driver_id"])
	assert.Equal(t, "27.50", data["balance"])
}

func TestLedgerHandler_GetBalance_MissingDriverID(t *testing.T) {
	handler, _ := setupLedgerTestHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/ledger/balance", nil)

	handler.GetBalance(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerHandler_GetStatement_Success(t *testing.T) {
	handler, ledgerRepo := setupLedgerTestHandler()

	driverID := uuid.New()
	appendTestCredit(t, ledgerRepo, driverID, 10, uuid.New())
	appendTestCredit(t, ledgerRepo, driverID, 5, uuid.New())

	debit, err := ledger.NewDebit(driverID, decimal.NewFromInt(8), uuid.New())
	require.NoError(t, err)
	require.NoError(t, ledgerRepo.Append(t.Context(), debit))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet,
		"/ledger/statement?driver_id="+driverID.String()+"&from_date=2020-01-01&to_date=2030-01-01", nil)

	handler.GetStatement(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	lines := resp.Data.([]interface{})
	require.Len(t, lines, 3)

	last := lines[2].(map[string]interface{})
	assert.Equal(t, "7.00", last["running_balance"])

	entry := last["entry"].(map[string]interface{})
	assert.Equal(t, "debit", entry["type"])
	assert.Equal(t, "8.00", entry["amount"])
}

func TestLedgerHandler_GetStatement_InvalidPeriod(t *testing.T) {
	handler, _ := setupLedgerTestHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet,
		"/ledger/statement?driver_id="+uuid.New().String()+"&from_date=2030-01-01&to_date=2020-01-01", nil)

	handler.GetStatement(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_PERIOD", resp.Error.Code)
}
