package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	bursarapi "bursar/pkg/api/bursar"
	"bursar/pkg/logging"
	"bursar/pkg/middleware"
	"bursar/pkg/models"
)

// Billing API Endpoints

// GetBalance returns the authenticated account's balance page: the freshly
// recomputed balance together with the invoices and transactions behind it.
// Parents also see their dependents' invoices, since those count against the
// parent's balance.
func GetBalance(c middleware.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	balance, err := RecomputeBalance(c.Request.Context(), db, accountID)
	if err != nil {
		logger.WithFields(logging.Fields{
			"account_id": accountID,
			"error":      err,
		}).Error("Failed to recompute balance")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "Failed to compute balance"})
		return
	}

	idStr := strconv.FormatInt(accountID, 10)

	invoices, err := fetchInvoices(c.Request.Context(), `
		SELECT reference_number, student_id, fee_amount, outstanding, status, lesson_id, created_at, updated_at
		FROM invoices
		WHERE student_id = $1
		ORDER BY created_at DESC
	`, idStr)
	if err != nil {
		logger.WithFields(logging.Fields{"account_id": accountID, "error": err}).Error("Failed to fetch invoices")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "Failed to fetch invoices"})
		return
	}

	dependentInvoices, err := fetchInvoices(c.Request.Context(), `
		SELECT reference_number, student_id, fee_amount, outstanding, status, lesson_id, created_at, updated_at
		FROM invoices
		WHERE student_id IN (SELECT id::text FROM accounts WHERE parent_account_id = $1)
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		logger.WithFields(logging.Fields{"account_id": accountID, "error": err}).Error("Failed to fetch dependent invoices")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "Failed to fetch invoices"})
		return
	}

	transactions, err := fetchTransactions(c.Request.Context(), `
		SELECT id, payer_id, invoice_reference, amount, created_at
		FROM transactions
		WHERE payer_id = $1
		ORDER BY created_at DESC
	`, idStr)
	if err != nil {
		logger.WithFields(logging.Fields{"account_id": accountID, "error": err}).Error("Failed to fetch transactions")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, bursarapi.BalanceResponse{
		AccountID:         accountID,
		Balance:           balance,
		Invoices:          invoices,
		Transactions:      transactions,
		DependentInvoices: dependentInvoices,
	})
}

// PayInvoice accepts a payment against an invoice from the authenticated
// account. The amount arrives as a raw form value; blank or non-numeric input
// is rejected the same way as a missing value.
func PayInvoice(c middleware.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	var req bursarapi.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: ErrMissingPaymentValue.Error()})
		return
	}

	req.InvoiceReference = strings.TrimSpace(req.InvoiceReference)
	req.Amount = strings.TrimSpace(req.Amount)
	if req.InvoiceReference == "" || req.Amount == "" {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: ErrMissingPaymentValue.Error()})
		return
	}

	amount, err := strconv.Atoi(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: ErrMissingPaymentValue.Error()})
		return
	}

	invoice, err := ProcessPayment(c.Request.Context(), accountID, req.InvoiceReference, amount)
	if err != nil {
		status := paymentErrorStatus(err)
		if status == http.StatusInternalServerError {
			logger.WithFields(logging.Fields{
				"account_id": accountID,
				"reference":  req.InvoiceReference,
				"error":      err,
			}).Error("Failed to process payment")
			c.JSON(status, bursarapi.ErrorResponse{Error: "Failed to process payment"})
			return
		}
		c.JSON(status, bursarapi.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, bursarapi.PaymentResponse{
		Message:          "Payment recorded",
		InvoiceReference: invoice.ReferenceNumber,
		AmountPaid:       amount,
		Outstanding:      invoice.Outstanding,
		Status:           invoice.Status,
	})
}

// GetMyInvoices returns the authenticated account's own invoices
func GetMyInvoices(c middleware.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	invoices, err := fetchInvoices(c.Request.Context(), `
		SELECT reference_number, student_id, fee_amount, outstanding, status, lesson_id, created_at, updated_at
		FROM invoices
		WHERE student_id = $1
		ORDER BY created_at DESC
	`, strconv.FormatInt(accountID, 10))
	if err != nil {
		logger.WithFields(logging.Fields{"account_id": accountID, "error": err}).Error("Failed to fetch invoices")
		c.JSON(http.StatusInternalServerError, bursarapi.ErrorResponse{Error: "Failed to fetch invoices"})
		return
	}

	c.JSON(http.StatusOK, bursarapi.GetInvoicesResponse{
		Invoices: invoices,
		Count:    len(invoices),
	})
}

// GetMyTransactions returns the authenticated account's payment history
func GetMyTransactions(c middleware.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	transactions, err := fetchTransactions(c.Request.Context(), `
		SELECT id, payer_id, invoice_reference, amount, created_at
		FROM transactions
		WHERE payer_id = $1
		ORDER BY created_at DESC
	`, strconv.FormatInt(accountID, 10))
	if err != nil {
		logger.WithFields(logging.Fields{"account_id": accountID, "error": err}).Error("Failed to fetch transactions")
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

// accountIDFromContext reads the JWT account claim set by the auth middleware
// and parses it into a numeric account id. Writes the error response itself
// when the claim is missing or malformed.
func accountIDFromContext(c middleware.Context) (int64, bool) {
	claim := c.GetString("account_id")
	if claim == "" {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: "Account context required"})
		return 0, false
	}

	accountID, err := strconv.ParseInt(claim, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: "Invalid account id"})
		return 0, false
	}

	return accountID, true
}

func paymentErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingPaymentValue),
		errors.Is(err, ErrAmountBelowMinimum),
		errors.Is(err, ErrAmountAboveMaximum):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvoiceNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvoiceNotYours):
		return http.StatusForbidden
	case errors.Is(err, ErrInvoiceAlreadyPaid), errors.Is(err, ErrInvoiceIsDeleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fetchInvoices(ctx context.Context, query string, args ...interface{}) ([]models.Invoice, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		var invoice models.Invoice
		if err := rows.Scan(&invoice.ReferenceNumber, &invoice.StudentID,
			&invoice.FeeAmount, &invoice.Outstanding, &invoice.Status,
			&invoice.LessonID, &invoice.CreatedAt, &invoice.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

func fetchTransactions(ctx context.Context, query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.PayerID, &tx.InvoiceReference,
			&tx.Amount, &tx.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}
