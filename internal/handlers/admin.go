package handlers

import (
	"net/http"
	"strconv"

	bursarapi "bursar/pkg/api/bursar"
	"bursar/pkg/logging"
	"bursar/pkg/middleware"
)

// Admin API Endpoints

// GetAllInvoices returns every invoice in the ledger, newest first
func GetAllInvoices(c middleware.Context) {
	invoices, err := fetchInvoices(c.Request.Context(), `
		SELECT reference_number, student_id, fee_amount, outstanding, status, lesson_id, created_at, updated_at
		FROM invoices
		ORDER BY created_at DESC
	`)
	if err != nil {
		logger.WithFields(logging.Fields{"error": err}).Error("Failed to fetch invoices")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "Failed to fetch invoices"})
		return
	}

	c.JSON(http.StatusOK, bursarapi.GetInvoicesResponse{
		Invoices: invoices,
		Count:    len(invoices),
	})
}

// GetAllTransactions returns every recorded payment together with the grand
// total of money taken
func GetAllTransactions(c middleware.Context) {
	transactions, err := fetchTransactions(c.Request.Context(), `
		SELECT id, payer_id, invoice_reference, amount, created_at
		FROM transactions
		ORDER BY created_at DESC
	`)
	if err != nil {
		logger.WithFields(logging.Fields{"error": err}).Error("Failed to fetch transactions")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "Failed to fetch transactions"})
		return
	}

	total := 0
	for _, tx := range transactions {
		total += tx.Amount
	}

	c.JSON(http.StatusOK, bursarapi.GetTransactionsResponse{
		Transactions: transactions,
		Count:        len(transactions),
		TotalAmount:  total,
	})
}

// GetStudentHistory returns one student's full billing history: their
// invoices and the payments recorded under their account
func GetStudentHistory(c middleware.Context) {
	studentID := c.Param("student_id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: "Student ID required"})
		return
	}

	invoices, err := fetchInvoices(c.Request.Context(), `
		SELECT reference_number, student_id, fee_amount, outstanding, status, lesson_id, created_at, updated_at
		FROM invoices
		WHERE student_id = $1
		ORDER BY created_at DESC
	`, studentID)
	if err != nil {
		logger.WithFields(logging.Fields{"student_id": studentID, "error": err}).Error("Failed to fetch invoices")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "Failed to fetch invoices"})
		return
	}

	transactions, err := fetchTransactions(c.Request.Context(), `
		SELECT id, payer_id, invoice_reference, amount, created_at
		FROM transactions
		WHERE payer_id = $1
		ORDER BY created_at DESC
	`, studentID)
	if err != nil {
		logger.WithFields(logging.Fields{"student_id": studentID, "error": err}).Error("Failed to fetch transactions")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, bursarapi.StudentHistoryResponse{
		StudentID:    studentID,
		Invoices:     invoices,
		Transactions: transactions,
	})
}

// RecomputeAccountBalance rebuilds one account's balance from its invoices
// and transactions. Useful after manual ledger corrections.
func RecomputeAccountBalance(c middleware.Context) {
	accountID, err := strconv.ParseInt(c.Param("account_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: "Invalid account id"})
		return
	}

	balance, err := RecomputeBalance(c.Request.Context(), db, accountID)
	if err != nil {
		logger.WithFields(logging.Fields{"account_id": accountID, "error": err}).Error("Failed to recompute balance")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "Failed to recompute balance"})
		return
	}

	c.JSON(http.StatusOK, bursarapi.RecomputeBalanceResponse{
		AccountID: accountID,
		Balance:   balance,
	})
}
