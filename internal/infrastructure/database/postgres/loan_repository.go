package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-approval/internal/domain/customer"
	"credit-approval/internal/domain/loan"
	"credit-approval/internal/infrastructure/monitoring"
	"credit-approval/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var errMsgFormat = "%w: %w"

const loanColumns = `loan_id, customer_id, loan_amount, tenure, interest_rate, monthly_installment, emis_paid_on_time, start_date, end_date, created_at, updated_at`

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Commit(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE loan_id = $1`
	status := "success"
	startTime := time.Now()

	var l loan.Loan
	err := r.db.QueryRow(ctx, query, loanID).Scan(
		&l.LoanID, &l.CustomerID, &l.Amount, &l.Tenure,
		&l.InterestRate, &l.MonthlyInstallment, &l.EMIsPaidOnTime,
		&l.StartDate, &l.EndDate, &l.CreatedAt, &l.UpdatedAt,
	)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetLoanByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &l, nil
}

func (r *LoanRepository) ListByCustomer(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	query := `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE customer_id = $1
        ORDER BY loan_id ASC`
	status := "success"
	startTime := time.Now()

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		monitoring.RecordDBQuery("ListByCustomer", "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Failed to query loans for customer", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	loans, err := scanLoans(rows)
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("ListByCustomer", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to read loan rows for customer", "customer_id", customerID, "error", err)
		return nil, err
	}
	return loans, nil
}

// ListByCustomerInTx reads the customer's loans through an open transaction
// so the snapshot matches the row lock taken by LockCustomerForUpdate.
func (r *LoanRepository) ListByCustomerInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]loan.Loan, error) {
	query := `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE customer_id = $1
        ORDER BY loan_id ASC`

	rows, err := tx.Query(ctx, query, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loans for customer in tx", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	loans, err := scanLoans(rows)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to read loan rows for customer in tx", "customer_id", customerID, "error", err)
		return nil, err
	}
	return loans, nil
}

func scanLoans(rows pgx.Rows) ([]loan.Loan, error) {
	defer rows.Close()

	loans := make([]loan.Loan, 0)
	for rows.Next() {
		var l loan.Loan
		err := rows.Scan(
			&l.LoanID, &l.CustomerID, &l.Amount, &l.Tenure,
			&l.InterestRate, &l.MonthlyInstallment, &l.EMIsPaidOnTime,
			&l.StartDate, &l.EndDate, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return loans, nil
}

// LockCustomerForUpdate takes a row lock on the customer for the lifetime of
// the transaction so concurrent originations for the same customer serialize.
func (r *LoanRepository) LockCustomerForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*customer.Customer, error) {
	query := `
        SELECT customer_id, first_name, last_name, age, phone_number, monthly_income, approved_limit, current_debt, created_at, updated_at
        FROM customers
        WHERE customer_id = $1
        FOR UPDATE`

	var cust customer.Customer
	err := tx.QueryRow(ctx, query, customerID).Scan(
		&cust.CustomerID, &cust.FirstName, &cust.LastName, &cust.Age,
		&cust.PhoneNumber, &cust.MonthlyIncome, &cust.ApprovedLimit,
		&cust.CurrentDebt, &cust.CreatedAt, &cust.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found for row lock", "customer_id", customerID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to lock customer row", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &cust, nil
}

func (r *LoanRepository) CreateLoanInTx(ctx context.Context, tx pgx.Tx, newLoan *loan.Loan) (*loan.Loan, error) {
	loanSQL := `
        INSERT INTO loans (customer_id, loan_amount, tenure, interest_rate, monthly_installment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING ` + loanColumns

	var createdLoan loan.Loan
	err := tx.QueryRow(ctx, loanSQL,
		newLoan.CustomerID, newLoan.Amount, newLoan.Tenure, newLoan.InterestRate,
		newLoan.MonthlyInstallment, newLoan.EMIsPaidOnTime, newLoan.StartDate, newLoan.EndDate,
	).Scan(
		&createdLoan.LoanID, &createdLoan.CustomerID, &createdLoan.Amount, &createdLoan.Tenure,
		&createdLoan.InterestRate, &createdLoan.MonthlyInstallment, &createdLoan.EMIsPaidOnTime,
		&createdLoan.StartDate, &createdLoan.EndDate, &createdLoan.CreatedAt, &createdLoan.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "customer_id", newLoan.CustomerID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", createdLoan.LoanID, "customer_id", createdLoan.CustomerID)
	return &createdLoan, nil
}

func (r *LoanRepository) IncreaseCustomerDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64, amount decimal.Decimal) error {
	sql := `
        UPDATE customers
        SET current_debt = current_debt + $1, updated_at = NOW()
        WHERE customer_id = $2`

	cmdTag, err := tx.Exec(ctx, sql, amount, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to increase customer debt", "customer_id", customerID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() != 1 {
		r.logger.ErrorContext(ctx, "Debt update affected zero rows", "customer_id", customerID)
		return fmt.Errorf("%w: debt update affected zero rows", apperrors.ErrDatabase)
	}
	return nil
}

// Upsert writes a loan under its externally assigned identifier. It exists
// for the data ingestion path, where loan IDs come from the source file.
func (r *LoanRepository) Upsert(ctx context.Context, l *loan.Loan) error {
	sql := `
        INSERT INTO loans (loan_id, customer_id, loan_amount, tenure, interest_rate, monthly_installment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        ON CONFLICT (loan_id) DO UPDATE
        SET customer_id = EXCLUDED.customer_id,
            loan_amount = EXCLUDED.loan_amount,
            tenure = EXCLUDED.tenure,
            interest_rate = EXCLUDED.interest_rate,
            monthly_installment = EXCLUDED.monthly_installment,
            emis_paid_on_time = EXCLUDED.emis_paid_on_time,
            start_date = EXCLUDED.start_date,
            end_date = EXCLUDED.end_date,
            updated_at = NOW()`

	_, err := r.db.Exec(ctx, sql,
		l.LoanID, l.CustomerID, l.Amount, l.Tenure, l.InterestRate,
		l.MonthlyInstallment, l.EMIsPaidOnTime, l.StartDate, l.EndDate,
	)
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		r.logger.ErrorContext(ctx, "Failed to upsert loan", "loan_id", l.LoanID, "error", err)
		return translatedErr
	}
	return nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {

		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return apperrors.WrapDatabaseError(err, "unexpected database error")
}
