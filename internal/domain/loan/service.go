package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-approval/internal/domain/customer"
	"credit-approval/internal/event"
	"credit-approval/internal/infrastructure/monitoring"
	"credit-approval/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const (
	msgLoanApproved = "Loan approved and created successfully"
	msgLoanRejected = "Loan not approved based on eligibility criteria"
)

type EligibilityResult struct {
	CustomerID    int64
	Approved      bool
	RequestedRate decimal.Decimal
	EffectiveRate decimal.Decimal
	Tenure        int
	Installment   decimal.Decimal
}

type OriginationResult struct {
	LoanID      *int64
	CustomerID  int64
	Approved    bool
	Message     string
	Installment decimal.Decimal
}

type LoanDetail struct {
	Loan     *Loan
	Customer *customer.Customer
}

type LoanService interface {
	CheckEligibility(ctx context.Context, customerID int64, amount, requestedRate decimal.Decimal, tenureMonths int) (*EligibilityResult, error)

	CreateLoan(ctx context.Context, customerID int64, amount, requestedRate decimal.Decimal, tenureMonths int) (*OriginationResult, error)

	GetLoan(ctx context.Context, loanID int64) (*LoanDetail, error)

	GetCustomerLoans(ctx context.Context, customerID int64) ([]Loan, error)
}

type loanServiceImpl struct {
	repo            Repository
	customerService customer.CustomerService
	pub             event.Publisher
	logger          *slog.Logger
}

func NewLoanService(r Repository, cs customer.CustomerService, publisher event.Publisher, logger *slog.Logger) LoanService {
	if publisher == nil {
		publisher = event.NoopPublisher{}
	}
	return &loanServiceImpl{repo: r, customerService: cs, pub: publisher, logger: logger.With("component", "loanService")}
}

func (s *loanServiceImpl) CheckEligibility(ctx context.Context, customerID int64, amount, requestedRate decimal.Decimal, tenureMonths int) (*EligibilityResult, error) {
	if err := ValidateTerms(amount, requestedRate, tenureMonths); err != nil {
		return nil, err
	}

	cust, err := s.customerService.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %d not found", apperrors.ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}

	history, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load loan history for customer %d: %v", apperrors.ErrInternalServer, customerID, err)
	}

	decision := Evaluate(cust, history, amount, requestedRate, tenureMonths, time.Now())
	outcome := "rejected"
	if decision.Approved {
		outcome = "approved"
	}
	monitoring.RecordEligibilityCheck(outcome)
	s.logger.InfoContext(ctx, "Eligibility evaluated",
		"customerID", customerID,
		"approved", decision.Approved,
		"score", decision.CreditScore.String(),
		"effectiveRate", decision.EffectiveRate.String())

	return &EligibilityResult{
		CustomerID:    customerID,
		Approved:      decision.Approved,
		RequestedRate: decision.RequestedRate,
		EffectiveRate: decision.EffectiveRate,
		Tenure:        tenureMonths,
		Installment:   decision.Installment,
	}, nil
}

// CreateLoan re-runs the eligibility decision inside a transaction that
// holds a row lock on the customer, so two concurrent originations cannot
// both pass the debt gate against a stale debt figure. The loan insert and
// the debt increment commit together or not at all.
func (s *loanServiceImpl) CreateLoan(ctx context.Context, customerID int64, amount, requestedRate decimal.Decimal, tenureMonths int) (result *OriginationResult, err error) {
	if err := ValidateTerms(amount, requestedRate, tenureMonths); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrInternalServer, err)
	}

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("Panic occurred during loan origination", "customerID", customerID, "error", p)
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	cust, err := s.repo.LockCustomerForUpdate(ctx, tx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %d not found", apperrors.ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("%w: failed to lock customer %d: %v", apperrors.ErrInternalServer, customerID, err)
	}

	history, err := s.repo.ListByCustomerInTx(ctx, tx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load loan history for customer %d: %v", apperrors.ErrInternalServer, customerID, err)
	}

	decision := Evaluate(cust, history, amount, requestedRate, tenureMonths, time.Now())
	if !decision.Approved {
		monitoring.RecordLoanOrigination("rejected")
		s.logger.InfoContext(ctx, "Loan origination rejected",
			"customerID", customerID, "reason", decision.Reason)

		// Nothing was written; rolling back just releases the row lock.
		if rbErr := s.repo.RollbackTx(ctx, tx); rbErr != nil {
			s.logger.ErrorContext(ctx, "Failed to release origination transaction", slog.Any("error", rbErr))
		}
		return &OriginationResult{
			CustomerID:  customerID,
			Approved:    false,
			Message:     fmt.Sprintf("%s: %s", msgLoanRejected, decision.Reason),
			Installment: decimal.Zero,
		}, nil
	}

	today := time.Now().Truncate(24 * time.Hour)
	newLoan, err := NewLoan(customerID, amount, decision.EffectiveRate, tenureMonths, today)
	if err != nil {
		return nil, fmt.Errorf("failed to build loan: %w", err)
	}
	// Persist the exact figure the gate reported, not a recomputation.
	newLoan.MonthlyInstallment = decision.Installment

	createdLoan, err := s.repo.CreateLoanInTx(ctx, tx, newLoan)
	if err != nil {
		monitoring.RecordLoanOrigination("failure")
		return nil, fmt.Errorf("%w: failed to save loan: %v", apperrors.ErrInternalServer, err)
	}

	if err = s.repo.IncreaseCustomerDebtInTx(ctx, tx, customerID, amount); err != nil {
		monitoring.RecordLoanOrigination("failure")
		return nil, fmt.Errorf("%w: failed to update customer debt: %v", apperrors.ErrInternalServer, err)
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		monitoring.RecordLoanOrigination("failure")
		return nil, fmt.Errorf("%w: could not commit transaction: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordLoanOrigination("approved")
	s.logger.InfoContext(ctx, "Loan originated", "loanID", createdLoan.LoanID, "customerID", customerID)

	originated := event.LoanOriginatedEvent{
		Timestamp: time.Now(),
		Payload: event.LoanPayload{
			LoanID:             createdLoan.LoanID,
			CustomerID:         customerID,
			Amount:             createdLoan.Amount,
			InterestRate:       createdLoan.InterestRate,
			TenureMonths:       createdLoan.Tenure,
			MonthlyInstallment: createdLoan.MonthlyInstallment,
			StartDate:          createdLoan.StartDate,
			EndDate:            createdLoan.EndDate,
		},
	}
	if pubErr := s.pub.PublishLoanOriginated(ctx, originated); pubErr != nil {
		s.logger.ErrorContext(ctx, "Loan created, but failed to publish origination event", slog.Any("error", pubErr))
	}

	loanID := createdLoan.LoanID
	return &OriginationResult{
		LoanID:      &loanID,
		CustomerID:  customerID,
		Approved:    true,
		Message:     msgLoanApproved,
		Installment: createdLoan.MonthlyInstallment,
	}, nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*LoanDetail, error) {
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("%w: failed to get loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}

	cust, err := s.customerService.GetCustomer(ctx, l.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owning customer %d for loan %d: %w", l.CustomerID, loanID, err)
	}

	return &LoanDetail{Loan: l, Customer: cust}, nil
}

func (s *loanServiceImpl) GetCustomerLoans(ctx context.Context, customerID int64) ([]Loan, error) {
	if _, err := s.customerService.GetCustomer(ctx, customerID); err != nil {
		if errors.Is(err, customer.ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %d not found", apperrors.ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}

	loans, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list loans for customer %d: %v", apperrors.ErrInternalServer, customerID, err)
	}
	return loans, nil
}
