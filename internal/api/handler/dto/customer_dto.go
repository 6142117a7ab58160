package dto

import (
	"fmt"
	"strings"

	"credit-approval/internal/domain/customer"

	"github.com/shopspring/decimal"
)

type RegisterCustomerRequest struct {
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Age           int             `json:"age"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	PhoneNumber   string          `json:"phone_number"`
}

func (r *RegisterCustomerRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return fmt.Errorf("first_name cannot be empty")
	}
	if strings.TrimSpace(r.LastName) == "" {
		return fmt.Errorf("last_name cannot be empty")
	}
	if r.Age < customer.MinimumAge {
		return fmt.Errorf("age must be at least %d", customer.MinimumAge)
	}
	if r.MonthlyIncome.IsNegative() {
		return fmt.Errorf("monthly_income cannot be negative")
	}
	if strings.TrimSpace(r.PhoneNumber) == "" {
		return fmt.Errorf("phone_number cannot be empty")
	}
	return nil
}

// CustomerResponse is the registration projection: name is the joined full
// name and approved_limit is always a whole number of rupees.
type CustomerResponse struct {
	CustomerID    int64   `json:"customer_id"`
	Name          string  `json:"name"`
	Age           int     `json:"age"`
	MonthlyIncome float64 `json:"monthly_income"`
	ApprovedLimit int64   `json:"approved_limit"`
	PhoneNumber   string  `json:"phone_number"`
}

func NewCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		CustomerID:    c.CustomerID,
		Name:          c.FullName(),
		Age:           c.Age,
		MonthlyIncome: c.MonthlyIncome.InexactFloat64(),
		ApprovedLimit: c.ApprovedLimit.IntPart(),
		PhoneNumber:   c.PhoneNumber,
	}
}
