package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"bursar/pkg/logging"
	"bursar/pkg/models"
)

// Payment validation errors, in the order the checks run. Each one is
// terminal: the first failure aborts the payment with no state changed.
var (
	ErrMissingPaymentValue = errors.New("you cannot submit without entering a value")
	ErrInvoiceNotFound     = errors.New("there isn't such invoice")
	ErrInvoiceNotYours     = errors.New("this invoice does not belong to you or your children")
	ErrInvoiceAlreadyPaid  = errors.New("this invoice has already been paid")
	ErrInvoiceIsDeleted    = errors.New("this invoice has already been deleted")
	ErrAmountBelowMinimum  = errors.New("transaction amount cannot be less than 1")
	ErrAmountAboveMaximum  = errors.New("transaction amount cannot be larger than 10000")
)

// ProcessPayment validates and applies a payment against an invoice. The
// payer must own the invoice directly or be the parent of the dependent who
// owns it. Overpayment settles the invoice and discards the excess; it is
// never recorded as a credit. The invoice update, the payer's balance
// recomputation and the transaction record are committed as one database
// transaction, with the invoice row locked for the duration.
func ProcessPayment(ctx context.Context, payerID int64, reference string, amount int) (models.Invoice, error) {
	if reference == "" {
		return models.Invoice{}, ErrMissingPaymentValue
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		countPayment("error")
		return models.Invoice{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var invoice models.Invoice
	err = tx.QueryRowContext(ctx, `
		SELECT reference_number, student_id, fee_amount, outstanding, status, lesson_id
		FROM invoices
		WHERE reference_number = $1
		FOR UPDATE
	`, reference).Scan(&invoice.ReferenceNumber, &invoice.StudentID,
		&invoice.FeeAmount, &invoice.Outstanding, &invoice.Status, &invoice.LessonID)

	if err == sql.ErrNoRows {
		countPayment("rejected")
		return models.Invoice{}, ErrInvoiceNotFound
	}
	if err != nil {
		countPayment("error")
		return models.Invoice{}, fmt.Errorf("failed to fetch invoice %s: %w", reference, err)
	}

	payerStr := strconv.FormatInt(payerID, 10)
	if invoice.StudentID != payerStr {
		var ownedByChild bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM accounts WHERE id::text = $1 AND parent_account_id = $2
			)
		`, invoice.StudentID, payerID).Scan(&ownedByChild)
		if err != nil {
			countPayment("error")
			return models.Invoice{}, fmt.Errorf("failed to check invoice ownership: %w", err)
		}
		if !ownedByChild {
			countPayment("rejected")
			return models.Invoice{}, ErrInvoiceNotYours
		}
	}

	switch {
	case invoice.Status == models.InvoicePaid:
		countPayment("rejected")
		return models.Invoice{}, ErrInvoiceAlreadyPaid
	case invoice.Status == models.InvoiceDeleted:
		countPayment("rejected")
		return models.Invoice{}, ErrInvoiceIsDeleted
	case amount < models.MinPaymentAmount:
		countPayment("rejected")
		return models.Invoice{}, ErrAmountBelowMinimum
	case amount > models.MaxPaymentAmount:
		countPayment("rejected")
		return models.Invoice{}, ErrAmountAboveMaximum
	}

	if amount >= invoice.Outstanding {
		invoice.Status = models.InvoicePaid
		invoice.Outstanding = 0
	} else {
		invoice.Status = models.InvoicePartiallyPaid
		invoice.Outstanding -= amount
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE invoices SET status = $1, outstanding = $2, updated_at = NOW()
		WHERE reference_number = $3
	`, invoice.Status, invoice.Outstanding, invoice.ReferenceNumber)
	if err != nil {
		countPayment("error")
		return models.Invoice{}, fmt.Errorf("failed to update invoice %s: %w", reference, err)
	}

	if _, err := RecomputeBalance(ctx, tx, payerID); err != nil {
		countPayment("error")
		return models.Invoice{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, payer_id, invoice_reference, amount, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, uuid.New().String(), payerStr, reference, amount)
	if err != nil {
		countPayment("error")
		return models.Invoice{}, fmt.Errorf("failed to record transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		countPayment("error")
		return models.Invoice{}, fmt.Errorf("failed to commit payment: %w", err)
	}

	logger.WithFields(logging.Fields{
		"payer_id":    payerID,
		"reference":   reference,
		"amount":      amount,
		"status":      invoice.Status,
		"outstanding": invoice.Outstanding,
	}).Info("Payment recorded")

	countPayment("success")
	return invoice, nil
}
