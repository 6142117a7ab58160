package loan

import (
	"time"

	"credit-approval/internal/domain/customer"

	"github.com/shopspring/decimal"
)

var (
	scoreFloorNone   = decimal.NewFromInt(50)
	scoreFloorTwelve = decimal.NewFromInt(30)
	scoreFloorReject = decimal.NewFromInt(10)
	half             = decimal.New(5, -1) // 0.5
)

const (
	ReasonDebtLimitExceeded = "requested amount would exceed the approved credit limit"
	ReasonEMIBurdenTooHigh  = "existing monthly installments exceed half of monthly income"
	ReasonCreditScoreTooLow = "credit score too low"
)

type Decision struct {
	Approved      bool
	RequestedRate decimal.Decimal
	EffectiveRate decimal.Decimal
	Installment   decimal.Decimal
	CreditScore   decimal.Decimal
	Reason        string
}

// Evaluate runs the hard gates and the score policy against a consistent
// snapshot of the customer's loan history. Gates short-circuit: a rejected
// request reports installment 0 and the originally requested rate.
func Evaluate(cust *customer.Customer, history []Loan, amount, requestedRate decimal.Decimal, tenureMonths int, now time.Time) Decision {
	rejected := Decision{
		Approved:      false,
		RequestedRate: requestedRate,
		EffectiveRate: requestedRate,
		Installment:   decimal.Zero,
	}

	existingPrincipal := decimal.Zero
	existingInstallments := decimal.Zero
	for _, l := range history {
		existingPrincipal = existingPrincipal.Add(l.Amount)
		existingInstallments = existingInstallments.Add(l.MonthlyInstallment)
	}

	if existingPrincipal.Add(amount).GreaterThan(cust.ApprovedLimit) {
		rejected.Reason = ReasonDebtLimitExceeded
		return rejected
	}

	if existingInstallments.GreaterThan(cust.MonthlyIncome.Mul(half)) {
		rejected.Reason = ReasonEMIBurdenTooHigh
		return rejected
	}

	score := CreditScore(history, now)
	rejected.CreditScore = score

	effectiveRate := requestedRate
	switch {
	case score.GreaterThan(scoreFloorNone):
		// approved at the requested rate
	case score.GreaterThan(scoreFloorTwelve):
		if requestedRate.LessThan(twelve) {
			effectiveRate = twelve
		}
	case score.GreaterThan(scoreFloorReject):
		if requestedRate.LessThan(sixteen) {
			effectiveRate = sixteen
		}
	default:
		rejected.Reason = ReasonCreditScoreTooLow
		return rejected
	}

	return Decision{
		Approved:      true,
		RequestedRate: requestedRate,
		EffectiveRate: effectiveRate,
		Installment:   MonthlyInstallment(amount, effectiveRate, tenureMonths),
		CreditScore:   score,
	}
}
