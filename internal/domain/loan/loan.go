package loan

import (
	"time"

	"credit-approval/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

// Loan tenure is expressed in whole months; each month occupies a fixed
// 30-day slot when deriving the end date.
const daysPerInstallment = 30

var (
	one        = decimal.NewFromInt(1)
	twelve     = decimal.NewFromInt(12)
	sixteen    = decimal.NewFromInt(16)
	percentDiv = decimal.NewFromInt(1200)
)

type Loan struct {
	LoanID             int64
	CustomerID         int64
	Amount             decimal.Decimal
	Tenure             int
	InterestRate       decimal.Decimal
	MonthlyInstallment decimal.Decimal
	EMIsPaidOnTime     int
	StartDate          time.Time
	EndDate            time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func NewLoan(customerID int64, amount decimal.Decimal, annualRate decimal.Decimal, tenureMonths int, startDate time.Time) (*Loan, error) {
	if err := ValidateTerms(amount, annualRate, tenureMonths); err != nil {
		return nil, err
	}
	if startDate.IsZero() {
		startDate = time.Now().Truncate(24 * time.Hour)
	}

	return &Loan{
		CustomerID:         customerID,
		Amount:             amount,
		Tenure:             tenureMonths,
		InterestRate:       annualRate,
		MonthlyInstallment: MonthlyInstallment(amount, annualRate, tenureMonths),
		EMIsPaidOnTime:     0,
		StartDate:          startDate,
		EndDate:            startDate.AddDate(0, 0, daysPerInstallment*tenureMonths),
	}, nil
}

func ValidateTerms(amount decimal.Decimal, annualRate decimal.Decimal, tenureMonths int) error {
	if amount.IsNegative() {
		return apperrors.NewValidationError("loan_amount", "cannot be negative")
	}
	if annualRate.IsNegative() {
		return apperrors.NewValidationError("interest_rate", "cannot be negative")
	}
	if tenureMonths < 1 {
		return apperrors.NewValidationError("tenure", "must be at least 1 month")
	}
	return nil
}

// MonthlyInstallment converts principal, annual percentage rate and tenure
// into the fixed payment of a compound-interest amortization schedule,
// rounded half-up to 2 decimal places. A zero rate degrades to a
// straight-line split of the principal.
func MonthlyInstallment(principal decimal.Decimal, annualRatePercent decimal.Decimal, tenureMonths int) decimal.Decimal {
	months := decimal.NewFromInt(int64(tenureMonths))

	monthlyRate := annualRatePercent.Div(percentDiv)
	if monthlyRate.IsZero() {
		return principal.Div(months).Round(2)
	}

	growth := one.Add(monthlyRate).Pow(months)
	return principal.Mul(monthlyRate).Mul(growth).Div(growth.Sub(one)).Round(2)
}

func (l *Loan) RepaymentsLeft() int {
	left := l.Tenure - l.EMIsPaidOnTime
	if left < 0 {
		return 0
	}
	return left
}
