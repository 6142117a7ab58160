package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"credit-approval/internal/domain/customer"
	"credit-approval/internal/domain/loan"

	"github.com/shopspring/decimal"
)

// Date layouts seen across source exports.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
}

// Ingestor bulk-loads customer and loan records from CSV exports of the
// original spreadsheets. Rows are upserted by their source-assigned IDs so
// a re-run converges instead of duplicating.
type Ingestor struct {
	customers customer.CustomerRepository
	loans     loan.Repository
	logger    *slog.Logger
}

func NewIngestor(customers customer.CustomerRepository, loans loan.Repository, logger *slog.Logger) *Ingestor {
	if customers == nil || loans == nil {
		panic("ingestor repositories cannot be nil")
	}
	return &Ingestor{
		customers: customers,
		loans:     loans,
		logger:    logger.With("component", "Ingestor"),
	}
}

// Result reports what a single file load did.
type Result struct {
	Loaded  int
	Skipped int
}

func (ing *Ingestor) LoadCustomers(ctx context.Context, r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read customer header row: %w", err)
	}
	cols, err := CustomerColumns().Resolve(headers)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("failed to read customer row at line %d: %w", line, err)
		}

		cust, err := parseCustomerRow(record, cols)
		if err != nil {
			ing.logger.WarnContext(ctx, "Skipping malformed customer row", slog.Int("line", line), slog.Any("error", err))
			res.Skipped++
			continue
		}

		if err := ing.customers.Upsert(ctx, cust); err != nil {
			return res, fmt.Errorf("failed to upsert customer %d (line %d): %w", cust.CustomerID, line, err)
		}
		res.Loaded++
	}

	ing.logger.InfoContext(ctx, "Customer ingestion finished",
		slog.Int("loaded", res.Loaded), slog.Int("skipped", res.Skipped))
	return res, nil
}

func (ing *Ingestor) LoadLoans(ctx context.Context, r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read loan header row: %w", err)
	}
	cols, err := LoanColumns().Resolve(headers)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("failed to read loan row at line %d: %w", line, err)
		}

		l, err := parseLoanRow(record, cols)
		if err != nil {
			ing.logger.WarnContext(ctx, "Skipping malformed loan row", slog.Int("line", line), slog.Any("error", err))
			res.Skipped++
			continue
		}

		if err := ing.loans.Upsert(ctx, l); err != nil {
			return res, fmt.Errorf("failed to upsert loan %d (line %d): %w", l.LoanID, line, err)
		}
		res.Loaded++
	}

	ing.logger.InfoContext(ctx, "Loan ingestion finished",
		slog.Int("loaded", res.Loaded), slog.Int("skipped", res.Skipped))
	return res, nil
}

func parseCustomerRow(record []string, cols map[string]int) (*customer.Customer, error) {
	id, err := parseInt64(field(record, cols[ColCustomerID]))
	if err != nil {
		return nil, fmt.Errorf("customer id: %w", err)
	}
	age, err := strconv.Atoi(field(record, cols[ColAge]))
	if err != nil {
		return nil, fmt.Errorf("age: %w", err)
	}
	income, err := decimal.NewFromString(field(record, cols[ColMonthlyIncome]))
	if err != nil {
		return nil, fmt.Errorf("monthly income: %w", err)
	}
	limit, err := decimal.NewFromString(field(record, cols[ColApprovedLimit]))
	if err != nil {
		return nil, fmt.Errorf("approved limit: %w", err)
	}

	debt := decimal.Zero
	if raw := field(record, cols[ColCurrentDebt]); raw != "" {
		debt, err = decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("current debt: %w", err)
		}
	}

	return &customer.Customer{
		CustomerID:    id,
		FirstName:     field(record, cols[ColFirstName]),
		LastName:      field(record, cols[ColLastName]),
		Age:           age,
		PhoneNumber:   field(record, cols[ColPhoneNumber]),
		MonthlyIncome: income,
		ApprovedLimit: limit,
		CurrentDebt:   debt,
	}, nil
}

func parseLoanRow(record []string, cols map[string]int) (*loan.Loan, error) {
	loanID, err := parseInt64(field(record, cols[ColLoanID]))
	if err != nil {
		return nil, fmt.Errorf("loan id: %w", err)
	}
	customerID, err := parseInt64(field(record, cols[ColCustomerID]))
	if err != nil {
		return nil, fmt.Errorf("customer id: %w", err)
	}
	amount, err := decimal.NewFromString(field(record, cols[ColLoanAmount]))
	if err != nil {
		return nil, fmt.Errorf("loan amount: %w", err)
	}
	tenure, err := strconv.Atoi(field(record, cols[ColTenure]))
	if err != nil {
		return nil, fmt.Errorf("tenure: %w", err)
	}
	rate, err := decimal.NewFromString(field(record, cols[ColInterestRate]))
	if err != nil {
		return nil, fmt.Errorf("interest rate: %w", err)
	}
	installment, err := decimal.NewFromString(field(record, cols[ColInstallment]))
	if err != nil {
		return nil, fmt.Errorf("monthly installment: %w", err)
	}
	paidOnTime, err := strconv.Atoi(field(record, cols[ColEMIsPaidOnTime]))
	if err != nil {
		return nil, fmt.Errorf("emis paid on time: %w", err)
	}
	startDate, err := parseDate(field(record, cols[ColStartDate]))
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}
	endDate, err := parseDate(field(record, cols[ColEndDate]))
	if err != nil {
		return nil, fmt.Errorf("end date: %w", err)
	}

	return &loan.Loan{
		LoanID:             loanID,
		CustomerID:         customerID,
		Amount:             amount,
		Tenure:             tenure,
		InterestRate:       rate,
		MonthlyInstallment: installment,
		EMIsPaidOnTime:     paidOnTime,
		StartDate:          startDate,
		EndDate:            endDate,
	}, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
