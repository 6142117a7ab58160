package dto

import (
	"fmt"

	"credit-approval/internal/domain/customer"
	"credit-approval/internal/domain/loan"

	"github.com/shopspring/decimal"
)

// LoanTermsRequest is shared by eligibility checks and loan creation; the
// original wire format uses the same body for both routes.
type LoanTermsRequest struct {
	CustomerID   int64           `json:"customer_id"`
	LoanAmount   decimal.Decimal `json:"loan_amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Tenure       int             `json:"tenure"`
}

func (r *LoanTermsRequest) Validate() error {
	if r.CustomerID <= 0 {
		return fmt.Errorf("customer_id must be positive")
	}
	if r.LoanAmount.IsNegative() {
		return fmt.Errorf("loan_amount cannot be negative")
	}
	if r.InterestRate.IsNegative() {
		return fmt.Errorf("interest_rate cannot be negative")
	}
	if r.Tenure < 1 {
		return fmt.Errorf("tenure must be at least 1 month")
	}
	return nil
}

type EligibilityResponse struct {
	CustomerID            int64   `json:"customer_id"`
	Approval              bool    `json:"approval"`
	InterestRate          float64 `json:"interest_rate"`
	CorrectedInterestRate float64 `json:"corrected_interest_rate"`
	Tenure                int     `json:"tenure"`
	MonthlyInstallment    float64 `json:"monthly_installment"`
}

func NewEligibilityResponse(res *loan.EligibilityResult) EligibilityResponse {
	return EligibilityResponse{
		CustomerID:            res.CustomerID,
		Approval:              res.Approved,
		InterestRate:          res.RequestedRate.InexactFloat64(),
		CorrectedInterestRate: res.EffectiveRate.InexactFloat64(),
		Tenure:                res.Tenure,
		MonthlyInstallment:    res.Installment.InexactFloat64(),
	}
}

type CreateLoanResponse struct {
	LoanID             *int64  `json:"loan_id"`
	CustomerID         int64   `json:"customer_id"`
	LoanApproved       bool    `json:"loan_approved"`
	Message            string  `json:"message"`
	MonthlyInstallment float64 `json:"monthly_installment"`
}

func NewCreateLoanResponse(res *loan.OriginationResult) CreateLoanResponse {
	return CreateLoanResponse{
		LoanID:             res.LoanID,
		CustomerID:         res.CustomerID,
		LoanApproved:       res.Approved,
		Message:            res.Message,
		MonthlyInstallment: res.Installment.InexactFloat64(),
	}
}

// CustomerBlock is the embedded owner summary on the loan detail view.
type CustomerBlock struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Age         int    `json:"age"`
}

type LoanDetailResponse struct {
	LoanID             int64         `json:"loan_id"`
	Customer           CustomerBlock `json:"customer"`
	LoanAmount         float64       `json:"loan_amount"`
	InterestRate       float64       `json:"interest_rate"`
	MonthlyInstallment float64       `json:"monthly_installment"`
	Tenure             int           `json:"tenure"`
}

func NewLoanDetailResponse(detail *loan.LoanDetail) LoanDetailResponse {
	return LoanDetailResponse{
		LoanID:             detail.Loan.LoanID,
		Customer:           newCustomerBlock(detail.Customer),
		LoanAmount:         detail.Loan.Amount.InexactFloat64(),
		InterestRate:       detail.Loan.InterestRate.InexactFloat64(),
		MonthlyInstallment: detail.Loan.MonthlyInstallment.InexactFloat64(),
		Tenure:             detail.Loan.Tenure,
	}
}

func newCustomerBlock(c *customer.Customer) CustomerBlock {
	return CustomerBlock{
		ID:          c.CustomerID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		PhoneNumber: c.PhoneNumber,
		Age:         c.Age,
	}
}

type CustomerLoanResponse struct {
	LoanID             int64   `json:"loan_id"`
	LoanAmount         float64 `json:"loan_amount"`
	InterestRate       float64 `json:"interest_rate"`
	MonthlyInstallment float64 `json:"monthly_installment"`
	RepaymentsLeft     int     `json:"repayments_left"`
}

func NewCustomerLoanResponse(l *loan.Loan) CustomerLoanResponse {
	return CustomerLoanResponse{
		LoanID:             l.LoanID,
		LoanAmount:         l.Amount.InexactFloat64(),
		InterestRate:       l.InterestRate.InexactFloat64(),
		MonthlyInstallment: l.MonthlyInstallment.InexactFloat64(),
		RepaymentsLeft:     l.RepaymentsLeft(),
	}
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
