package loan

import (
	"context"

	"credit-approval/internal/domain/customer"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Repository interface {
	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)

	ListByCustomer(ctx context.Context, customerID int64) ([]Loan, error)

	// LockCustomerForUpdate takes a row lock on the customer so that
	// concurrent originations for the same customer serialize.
	LockCustomerForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*customer.Customer, error)

	ListByCustomerInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]Loan, error)

	CreateLoanInTx(ctx context.Context, tx pgx.Tx, newLoan *Loan) (*Loan, error)

	IncreaseCustomerDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64, amount decimal.Decimal) error

	Upsert(ctx context.Context, l *Loan) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
