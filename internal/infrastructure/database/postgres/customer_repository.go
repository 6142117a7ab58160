package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"credit-approval/internal/domain/customer"
	"credit-approval/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const customerColumns = `customer_id, first_name, last_name, age, phone_number, monthly_income, approved_limit, current_debt, created_at, updated_at`

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	if cust.CustomerID == 0 {

		return r.createCustomer(ctx, cust)
	} else {

		return r.updateCustomer(ctx, cust)
	}
}

func (r *CustomerRepository) createCustomer(ctx context.Context, cust *customer.Customer) error {

	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("name", cust.FullName()))

	query := `
        INSERT INTO customers (first_name, last_name, age, phone_number, monthly_income, approved_limit, current_debt, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING customer_id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlyIncome,
		cust.ApprovedLimit,
		cust.CurrentDebt,
	).Scan(
		&cust.CustomerID,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			r.logger.WarnContext(ctx, "Failed to insert customer, phone number already registered", slog.String("phone_number", cust.PhoneNumber))
			return customer.ErrDuplicatePhone
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.CustomerID))
	return nil
}

func (r *CustomerRepository) updateCustomer(ctx context.Context, cust *customer.Customer) error {

	r.logger.InfoContext(ctx, "Attempting to update customer", slog.Int64("customerID", cust.CustomerID))

	query := `
        UPDATE customers
        SET first_name = $1,
            last_name = $2,
            age = $3,
            phone_number = $4,
            monthly_income = $5,
            approved_limit = $6,
            current_debt = $7,
            updated_at = NOW()
        WHERE customer_id = $8`

	cmdTag, err := r.db.Exec(ctx, query,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlyIncome,
		cust.ApprovedLimit,
		cust.CurrentDebt,
		cust.CustomerID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			r.logger.WarnContext(ctx, "Failed to update customer, phone number already registered", slog.String("phone_number", cust.PhoneNumber))
			return customer.ErrDuplicatePhone
		}
		r.logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update affected zero rows, customer likely not found")

		return customer.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer updated successfully", slog.Int64("customerID", cust.CustomerID))

	return nil
}

// Upsert writes a customer under its externally assigned identifier, for the
// data ingestion path.
func (r *CustomerRepository) Upsert(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO customers (customer_id, first_name, last_name, age, phone_number, monthly_income, approved_limit, current_debt, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        ON CONFLICT (customer_id) DO UPDATE
        SET first_name = EXCLUDED.first_name,
            last_name = EXCLUDED.last_name,
            age = EXCLUDED.age,
            phone_number = EXCLUDED.phone_number,
            monthly_income = EXCLUDED.monthly_income,
            approved_limit = EXCLUDED.approved_limit,
            current_debt = EXCLUDED.current_debt,
            updated_at = NOW()`

	_, err := r.db.Exec(ctx, query,
		cust.CustomerID,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlyIncome,
		cust.ApprovedLimit,
		cust.CurrentDebt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert customer", slog.Int64("customerID", cust.CustomerID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {

	r.logger.InfoContext(ctx, "Attempting to find customer by ID", slog.Int64("customerID", customerID))

	query := `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE customer_id = $1`

	var cust customer.Customer
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&cust.CustomerID,
		&cust.FirstName,
		&cust.LastName,
		&cust.Age,
		&cust.PhoneNumber,
		&cust.MonthlyIncome,
		&cust.ApprovedLimit,
		&cust.CurrentDebt,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found", slog.Int64("customerID", customerID))
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by ID: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer found successfully")
	return &cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {

	r.logger.InfoContext(ctx, "Attempting to find all customers")

	query := `
        SELECT ` + customerColumns + `
        FROM customers
        ORDER BY customer_id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {

		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		var cust customer.Customer
		err := rows.Scan(
			&cust.CustomerID,
			&cust.FirstName,
			&cust.LastName,
			&cust.Age,
			&cust.PhoneNumber,
			&cust.MonthlyIncome,
			&cust.ApprovedLimit,
			&cust.CurrentDebt,
			&cust.CreatedAt,
			&cust.UpdatedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))

			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, &cust)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Finished finding customers", slog.Int("count", len(customers)))
	return customers, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
