package models

import (
	"time"
)

// InvoiceStatus tracks an invoice through its lifecycle.
type InvoiceStatus string

const (
	InvoiceUnpaid        InvoiceStatus = "UNPAID"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
	InvoiceDeleted       InvoiceStatus = "DELETED"
)

// LessonDuration is one of the three fixed lesson length buckets offered by
// the school. The value is the duration in minutes, carried as a string on
// the wire.
type LessonDuration string

const (
	DurationThirtyMinutes    LessonDuration = "30"
	DurationFortyFiveMinutes LessonDuration = "45"
	DurationOneHour          LessonDuration = "60"
)

// Payment amount bounds shared by invoices and transactions.
const (
	MinPaymentAmount = 1
	MaxPaymentAmount = 10000
)

// Account identifies a person who can owe or pay money. Accounts themselves
// are created and deleted by the account service; Bursar only reads the
// parent/child relationship and maintains the derived balance.
//
// An account with a non-nil ParentAccountID is a dependent: its invoices are
// folded into the parent's balance and the parent is the one who pays.
type Account struct {
	ID              int64     `json:"id" db:"id"`
	ParentAccountID *int64    `json:"parent_account_id,omitempty" db:"parent_account_id"`
	IsParent        bool      `json:"is_parent" db:"is_parent"`
	Balance         int       `json:"balance" db:"balance"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Invoice represents money owed for a single lesson.
//
// ReferenceNumber is globally unique in the form "<student-id>-<sequence>",
// where the sequence is zero-padded to three digits below 1000. StudentID is
// stored as a string to preserve the legacy loose coupling with the account
// service. LessonID is blank only after the underlying lesson was removed;
// the invoice row itself is never deleted, it survives as an audit record
// with status DELETED and zeroed amounts.
type Invoice struct {
	ReferenceNumber string        `json:"reference_number" db:"reference_number"`
	StudentID       string        `json:"student_id" db:"student_id"`
	FeeAmount       int           `json:"fee_amount" db:"fee_amount"`
	Outstanding     int           `json:"outstanding" db:"outstanding"`
	Status          InvoiceStatus `json:"status" db:"status"`
	LessonID        string        `json:"lesson_id" db:"lesson_id"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// Transaction records a single payment event applied toward an invoice.
// Rows are append-only. PayerID is always the billable account: payments for
// a dependent's invoice are recorded under the parent's id. InvoiceReference
// may be blank for manually entered adjustment records and is matched against
// invoices by string equality, not by foreign key.
type Transaction struct {
	ID               string    `json:"id" db:"id"`
	PayerID          string    `json:"payer_id" db:"payer_id"`
	InvoiceReference string    `json:"invoice_reference" db:"invoice_reference"`
	Amount           int       `json:"amount" db:"amount"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// LessonEvent is the slice of a lesson the lesson service hands to Bursar on
// lifecycle transitions. Bursar never stores lessons; it only derives fees
// from them.
type LessonEvent struct {
	LessonID  string         `json:"lesson_id"`
	StudentID string         `json:"student_id"`
	Duration  LessonDuration `json:"duration"`
	WasBooked bool           `json:"was_booked"`
}
