package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"bursar/pkg/logging"
)

// querier is the subset of database operations the balance reconciler needs,
// satisfied by both *sql.DB and *sql.Tx so recomputation can run inside an
// open transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// RecomputeBalance recalculates an account's balance from scratch and
// persists it: the sum of all transaction amounts paid by the account minus
// the sum of invoice fees owed by the account and every one of its
// dependents. The subtraction uses the original fee, not the outstanding
// amount, so the balance is a net historical position rather than a live
// amount-currently-owed figure; DELETED invoices drop out because their fee
// is zeroed.
func RecomputeBalance(ctx context.Context, q querier, accountID int64) (int, error) {
	idStr := strconv.FormatInt(accountID, 10)

	var invoiceFeeTotal int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(fee_amount), 0)
		FROM invoices
		WHERE student_id = $1
		   OR student_id IN (SELECT id::text FROM accounts WHERE parent_account_id = $2)
	`, idStr, accountID).Scan(&invoiceFeeTotal)
	if err != nil {
		countBalanceRecompute("error")
		return 0, fmt.Errorf("failed to sum invoice fees: %w", err)
	}

	var paymentTotal int
	err = q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE payer_id = $1
	`, idStr).Scan(&paymentTotal)
	if err != nil {
		countBalanceRecompute("error")
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}

	balance := paymentTotal - invoiceFeeTotal

	_, err = q.ExecContext(ctx, `
		UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2
	`, balance, accountID)
	if err != nil {
		countBalanceRecompute("error")
		return 0, fmt.Errorf("failed to persist balance: %w", err)
	}

	logger.WithFields(logging.Fields{
		"account_id":    accountID,
		"invoice_total": invoiceFeeTotal,
		"payment_total": paymentTotal,
		"balance":       balance,
	}).Debug("Recomputed account balance")

	countBalanceRecompute("success")
	return balance, nil
}

// resolveBillableAccount maps a student id to the account that actually gets
// billed: the student's parent when the student is a dependent, otherwise
// the student themselves.
func resolveBillableAccount(ctx context.Context, q querier, studentID string) (int64, error) {
	var id int64
	var parentID sql.NullInt64
	err := q.QueryRowContext(ctx, `
		SELECT id, parent_account_id FROM accounts WHERE id::text = $1
	`, studentID).Scan(&id, &parentID)
	if err != nil {
		return 0, err
	}

	if parentID.Valid {
		return parentID.Int64, nil
	}
	return id, nil
}
