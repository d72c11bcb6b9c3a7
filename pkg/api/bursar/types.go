package bursar

import (
	"bursar/pkg/api/common"
	"bursar/pkg/models"
)

// ErrorResponse is a type alias to the common error response
type ErrorResponse = common.ErrorResponse

// PaymentRequest is a payment submitted against an invoice. Amount arrives as
// a string straight from the payment form; the handler parses it and treats a
// blank or non-numeric value as a missing-value error.
type PaymentRequest struct {
	InvoiceReference string `json:"invoice_reference"`
	Amount           string `json:"amount"`
}

// PaymentResponse confirms a recorded payment
type PaymentResponse struct {
	Message          string        `json:"message"`
	InvoiceReference string        `json:"invoice_reference"`
	AmountPaid       int           `json:"amount_paid"`
	Outstanding      int           `json:"outstanding"`
	Status           models.InvoiceStatus `json:"status"`
}

// BalanceResponse is the student-facing balance page payload: the freshly
// recomputed balance plus the invoices and transactions it derives from,
// including any dependents' invoices.
type BalanceResponse struct {
	AccountID          int64                `json:"account_id"`
	Balance            int                  `json:"balance"`
	Invoices           []models.Invoice     `json:"invoices"`
	Transactions       []models.Transaction `json:"transactions"`
	DependentInvoices  []models.Invoice     `json:"dependent_invoices"`
}

// LessonBookedRequest notifies Bursar that a lesson was booked and should be
// invoiced
type LessonBookedRequest struct {
	LessonID  string                `json:"lesson_id" validate:"required,numeric"`
	StudentID string                `json:"student_id" validate:"required,numeric"`
	Duration  models.LessonDuration `json:"duration" validate:"required"`
}

// LessonUpdatedRequest notifies Bursar that a booked lesson's duration
// changed
type LessonUpdatedRequest struct {
	StudentID string                `json:"student_id" validate:"required,numeric"`
	Duration  models.LessonDuration `json:"duration" validate:"required"`
}

// InvoiceResponse wraps a single invoice
type InvoiceResponse struct {
	Invoice models.Invoice `json:"invoice"`
}

// GetInvoicesResponse lists invoices with a count
type GetInvoicesResponse struct {
	Invoices []models.Invoice `json:"invoices"`
	Count    int              `json:"count"`
}

// GetTransactionsResponse lists transactions together with the grand total
// of their amounts
type GetTransactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
	TotalAmount  int                  `json:"total_amount"`
}

// StudentHistoryResponse is the admin view of one student's full billing
// history
type StudentHistoryResponse struct {
	StudentID    string               `json:"student_id"`
	Invoices     []models.Invoice     `json:"invoices"`
	Transactions []models.Transaction `json:"transactions"`
}

// RecomputeBalanceResponse reports a freshly recomputed account balance
type RecomputeBalanceResponse struct {
	AccountID int64 `json:"account_id"`
	Balance   int   `json:"balance"`
}
