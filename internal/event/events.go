package event

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CustomerPayload struct {
	CustomerID    int64           `json:"customerId"`
	Name          string          `json:"name"`
	Age           int             `json:"age"`
	MonthlyIncome decimal.Decimal `json:"monthlyIncome"`
	ApprovedLimit decimal.Decimal `json:"approvedLimit"`
}

type CustomerRegisteredEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	Payload   CustomerPayload `json:"payload"`
}

type LoanPayload struct {
	LoanID             int64           `json:"loanId"`
	CustomerID         int64           `json:"customerId"`
	Amount             decimal.Decimal `json:"amount"`
	InterestRate       decimal.Decimal `json:"interestRate"`
	TenureMonths       int             `json:"tenureMonths"`
	MonthlyInstallment decimal.Decimal `json:"monthlyInstallment"`
	StartDate          time.Time       `json:"startDate"`
	EndDate            time.Time       `json:"endDate"`
}

type LoanOriginatedEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	Payload   LoanPayload `json:"payload"`
}

type Publisher interface {
	PublishCustomerRegistered(ctx context.Context, event CustomerRegisteredEvent) error
	PublishLoanOriginated(ctx context.Context, event LoanOriginatedEvent) error
}

// NoopPublisher is used when messaging is disabled in configuration.
type NoopPublisher struct{}

func (NoopPublisher) PublishCustomerRegistered(context.Context, CustomerRegisteredEvent) error {
	return nil
}

func (NoopPublisher) PublishLoanOriginated(context.Context, LoanOriginatedEvent) error {
	return nil
}
