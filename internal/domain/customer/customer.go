package customer

import (
	"fmt"
	"time"

	"credit-approval/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const MinimumAge = 18

var lakh = decimal.NewFromInt(100_000)

type Customer struct {
	CustomerID    int64
	FirstName     string
	LastName      string
	Age           int
	PhoneNumber   string
	MonthlyIncome decimal.Decimal
	ApprovedLimit decimal.Decimal
	CurrentDebt   decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewCustomer(firstName, lastName string, age int, monthlyIncome decimal.Decimal, phoneNumber string) (*Customer, error) {
	if firstName == "" {
		return nil, apperrors.NewValidationError("first_name", "cannot be empty")
	}
	if lastName == "" {
		return nil, apperrors.NewValidationError("last_name", "cannot be empty")
	}
	if age < MinimumAge {
		return nil, apperrors.NewValidationError("age", fmt.Sprintf("must be at least %d", MinimumAge))
	}
	if monthlyIncome.IsNegative() {
		return nil, apperrors.NewValidationError("monthly_income", "cannot be negative")
	}
	if phoneNumber == "" {
		return nil, apperrors.NewValidationError("phone_number", "cannot be empty")
	}

	return &Customer{
		FirstName:     firstName,
		LastName:      lastName,
		Age:           age,
		PhoneNumber:   phoneNumber,
		MonthlyIncome: monthlyIncome,
		ApprovedLimit: ApprovedLimitFor(monthlyIncome),
		CurrentDebt:   decimal.Zero,
	}, nil
}

// ApprovedLimitFor derives the credit limit as 36x the monthly income,
// rounded to the nearest lakh (100,000 units).
func ApprovedLimitFor(monthlyIncome decimal.Decimal) decimal.Decimal {
	return monthlyIncome.Mul(decimal.NewFromInt(36)).Div(lakh).Round(0).Mul(lakh)
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// AddDebt records a newly originated loan's principal. The debt counter
// is never written any other way.
func (c *Customer) AddDebt(principal decimal.Decimal) {
	c.CurrentDebt = c.CurrentDebt.Add(principal)
	c.UpdatedAt = time.Now()
}
