package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"bursar/pkg/models"
)

func setupBillingRouter(t *testing.T, accountID string) (*gin.Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mock, closeDB := newHandlerTestDB(t)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("account_id", accountID)
		c.Next()
	})
	router.GET("/billing/balance", GetBalance)
	router.POST("/billing/pay", PayInvoice)
	return router, mock, closeDB
}

func TestPayInvoice_BlankAmountIsMissingValue(t *testing.T) {
	router, mock, closeDB := setupBillingRouter(t, "111")
	defer closeDB()

	body, _ := json.Marshal(map[string]string{
		"invoice_reference": "111-001",
		"amount":            "   ",
	})
	req := httptest.NewRequest(http.MethodPost, "/billing/pay", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPayInvoice_NonNumericAmountIsMissingValue(t *testing.T) {
	router, mock, closeDB := setupBillingRouter(t, "111")
	defer closeDB()

	body, _ := json.Marshal(map[string]string{
		"invoice_reference": "111-001",
		"amount":            "twenty",
	})
	req := httptest.NewRequest(http.MethodPost, "/billing/pay", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPayInvoice_RecordsPayment(t *testing.T) {
	router, mock, closeDB := setupBillingRouter(t, "111")
	defer closeDB()

	mock.ExpectBegin()
	expectInvoiceForUpdate(mock, "111-001", "111", 20, 20, models.InvoiceUnpaid)
	mock.ExpectExec(`UPDATE invoices SET status`).
		WithArgs(models.InvoicePartiallyPaid, 12, "111-001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectBalanceRecompute(mock, 111, 20, 8)
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(sqlmock.AnyArg(), "111", "111-001", 8).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body, _ := json.Marshal(map[string]string{
		"invoice_reference": "111-001",
		"amount":            "8",
	})
	req := httptest.NewRequest(http.MethodPost, "/billing/pay", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payment struct {
		Outstanding int    `json:"outstanding"`
		Status      string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payment); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payment.Status != string(models.InvoicePartiallyPaid) {
		t.Fatalf("expected status PARTIALLY_PAID, got %s", payment.Status)
	}
	if payment.Outstanding != 12 {
		t.Fatalf("expected outstanding 12, got %d", payment.Outstanding)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetBalance_ReturnsRecomputedBalanceWithLedger(t *testing.T) {
	router, mock, closeDB := setupBillingRouter(t, "3")
	defer closeDB()

	expectBalanceRecompute(mock, 3, 40, 20)

	invoiceCols := []string{"reference_number", "student_id", "fee_amount", "outstanding", "status", "lesson_id", "created_at", "updated_at"}
	now := time.Now()
	mock.ExpectQuery(`FROM invoices\s+WHERE student_id = \$1`).
		WithArgs("3").
		WillReturnRows(sqlmock.NewRows(invoiceCols).
			AddRow("3-001", "3", 20, 0, models.InvoicePaid, "7", now, now))
	mock.ExpectQuery(`FROM invoices\s+WHERE student_id IN`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(invoiceCols).
			AddRow("12-001", "12", 20, 20, models.InvoiceUnpaid, "8", now, now))
	mock.ExpectQuery(`FROM transactions`).
		WithArgs("3").
		WillReturnRows(sqlmock.NewRows([]string{"id", "payer_id", "invoice_reference", "amount", "created_at"}).
			AddRow("c0ffee00-0000-0000-0000-000000000001", "3", "3-001", 20, now))

	req := httptest.NewRequest(http.MethodGet, "/billing/balance", nil)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var balance struct {
		Balance           int               `json:"balance"`
		Invoices          []json.RawMessage `json:"invoices"`
		DependentInvoices []json.RawMessage `json:"dependent_invoices"`
		Transactions      []json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &balance); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if balance.Balance != -20 {
		t.Fatalf("expected balance -20, got %d", balance.Balance)
	}
	if len(balance.Invoices) != 1 || len(balance.DependentInvoices) != 1 || len(balance.Transactions) != 1 {
		t.Fatalf("unexpected ledger sizes: %d invoices, %d dependent, %d transactions",
			len(balance.Invoices), len(balance.DependentInvoices), len(balance.Transactions))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
