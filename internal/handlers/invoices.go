package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"bursar/pkg/logging"
	"bursar/pkg/models"
)

// ErrAccountNotFound is returned when the owning account of an invoice does
// not exist in the accounts table.
var ErrAccountNotFound = errors.New("account not found")

// Invoice creation retries when two invoices for the same student race on
// the same sequence number; the unique index on reference_number surfaces
// the loser as a 23505.
const referenceRetryAttempts = 3

// CreateInvoiceForLesson creates an UNPAID invoice for a freshly booked
// lesson. The fee comes from the duration bucket, the reference number from
// the student's current invoice count, and the billable account's balance is
// recomputed afterwards (the parent's, when the student is a dependent).
func CreateInvoiceForLesson(ctx context.Context, lesson models.LessonEvent) (models.Invoice, error) {
	billable, err := resolveBillableAccount(ctx, db, lesson.StudentID)
	if err == sql.ErrNoRows {
		return models.Invoice{}, ErrAccountNotFound
	}
	if err != nil {
		return models.Invoice{}, fmt.Errorf("failed to resolve billable account: %w", err)
	}

	fee := CalculateLessonFee(lesson.Duration)

	var invoice models.Invoice
	for attempt := 0; attempt < referenceRetryAttempts; attempt++ {
		var existing int
		err = db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM invoices WHERE student_id = $1
		`, lesson.StudentID).Scan(&existing)
		if err != nil {
			countInvoiceOperation("create", "error")
			return models.Invoice{}, fmt.Errorf("failed to count invoices: %w", err)
		}

		reference := GenerateReferenceNumber(lesson.StudentID, existing)

		_, err = db.ExecContext(ctx, `
			INSERT INTO invoices (reference_number, student_id, fee_amount, outstanding, status, lesson_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		`, reference, lesson.StudentID, fee, fee, models.InvoiceUnpaid, lesson.LessonID)

		if isUniqueViolation(err) {
			logger.WithFields(logging.Fields{
				"student_id": lesson.StudentID,
				"reference":  reference,
				"attempt":    attempt + 1,
			}).Warn("Invoice reference collision, retrying with a fresh count")
			continue
		}
		if err != nil {
			countInvoiceOperation("create", "error")
			return models.Invoice{}, fmt.Errorf("failed to insert invoice: %w", err)
		}

		invoice = models.Invoice{
			ReferenceNumber: reference,
			StudentID:       lesson.StudentID,
			FeeAmount:       fee,
			Outstanding:     fee,
			Status:          models.InvoiceUnpaid,
			LessonID:        lesson.LessonID,
		}
		break
	}

	if invoice.ReferenceNumber == "" {
		countInvoiceOperation("create", "error")
		return models.Invoice{}, fmt.Errorf("failed to allocate invoice reference for student %s after %d attempts", lesson.StudentID, referenceRetryAttempts)
	}

	if _, err := RecomputeBalance(ctx, db, billable); err != nil {
		logger.WithError(err).WithField("account_id", billable).Error("Failed to recompute balance after invoice creation")
	}

	logger.WithFields(logging.Fields{
		"reference":  invoice.ReferenceNumber,
		"student_id": invoice.StudentID,
		"lesson_id":  invoice.LessonID,
		"fee":        invoice.FeeAmount,
	}).Info("Invoice created")

	countInvoiceOperation("create", "success")
	return invoice, nil
}

// UpdateInvoiceForLesson adjusts the invoice of a booked lesson after its
// duration changed. Both the fee and the outstanding amount move by the
// delta between old and new fee, so earlier partial payments keep counting.
// A lesson with no invoice (booked outside the normal flow) gets a brand-new
// invoice instead.
func UpdateInvoiceForLesson(ctx context.Context, lesson models.LessonEvent) (models.Invoice, error) {
	var invoice models.Invoice
	err := db.QueryRowContext(ctx, `
		SELECT reference_number, student_id, fee_amount, outstanding, status, lesson_id
		FROM invoices
		WHERE lesson_id = $1
	`, lesson.LessonID).Scan(&invoice.ReferenceNumber, &invoice.StudentID,
		&invoice.FeeAmount, &invoice.Outstanding, &invoice.Status, &invoice.LessonID)

	if err == sql.ErrNoRows {
		// Retroactive invoicing for bookings that bypassed the booking flow.
		return CreateInvoiceForLesson(ctx, lesson)
	}
	if err != nil {
		countInvoiceOperation("update", "error")
		return models.Invoice{}, fmt.Errorf("failed to look up invoice for lesson %s: %w", lesson.LessonID, err)
	}

	newFee := CalculateLessonFee(lesson.Duration)
	delta := newFee - invoice.FeeAmount

	_, err = db.ExecContext(ctx, `
		UPDATE invoices SET fee_amount = $1, outstanding = outstanding + $2, updated_at = NOW()
		WHERE reference_number = $3
	`, newFee, delta, invoice.ReferenceNumber)
	if err != nil {
		countInvoiceOperation("update", "error")
		return models.Invoice{}, fmt.Errorf("failed to update invoice %s: %w", invoice.ReferenceNumber, err)
	}

	invoice.FeeAmount = newFee
	invoice.Outstanding += delta

	billable, err := resolveBillableAccount(ctx, db, invoice.StudentID)
	if err != nil {
		logger.WithError(err).WithField("student_id", invoice.StudentID).Error("Failed to resolve billable account after invoice update")
	} else if _, err := RecomputeBalance(ctx, db, billable); err != nil {
		logger.WithError(err).WithField("account_id", billable).Error("Failed to recompute balance after invoice update")
	}

	logger.WithFields(logging.Fields{
		"reference": invoice.ReferenceNumber,
		"lesson_id": lesson.LessonID,
		"fee":       newFee,
		"delta":     delta,
	}).Info("Invoice adjusted for lesson change")

	countInvoiceOperation("update", "success")
	return invoice, nil
}

// MarkInvoiceDeletedForLesson voids the invoice of a removed lesson: status
// DELETED, amounts zeroed, lesson reference cleared. The row itself survives
// as an audit record. Lessons that never reached the booked state have no
// invoice, and a missing invoice is a silent no-op either way.
func MarkInvoiceDeletedForLesson(ctx context.Context, lessonID string, wasBooked bool) error {
	if !wasBooked {
		return nil
	}

	res, err := db.ExecContext(ctx, `
		UPDATE invoices SET status = $1, fee_amount = 0, outstanding = 0, lesson_id = '', updated_at = NOW()
		WHERE lesson_id = $2
	`, models.InvoiceDeleted, lessonID)
	if err != nil {
		countInvoiceOperation("delete", "error")
		return fmt.Errorf("failed to mark invoice deleted for lesson %s: %w", lessonID, err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		logger.WithField("lesson_id", lessonID).Debug("No invoice to void for deleted lesson")
		countInvoiceOperation("delete", "noop")
		return nil
	}

	logger.WithFields(logging.Fields{
		"lesson_id": lessonID,
	}).Info("Invoice voided after lesson removal")

	countInvoiceOperation("delete", "success")
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
