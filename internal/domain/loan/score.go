package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	scoreCap        = decimal.NewFromInt(100)
	onTimeCap       = decimal.NewFromInt(20)
	countCap        = decimal.NewFromInt(20)
	volumeCap       = decimal.NewFromInt(30)
	onTimeWeight    = decimal.New(2, -1) // 0.2
	pointsPerVolume = decimal.NewFromInt(10_000)
	hundred         = decimal.NewFromInt(100)
)

// CreditScore summarizes a customer's loan history as a value in [0,100].
// A customer with no history scores exactly 0. Four independently capped
// components are summed:
//
//	on-time EMI ratio      scaled by 0.2, capped at 20
//	number of loans        2 points each, capped at 20
//	current-year volume    1 point per 10,000 units, capped at 30
//	lifetime volume        1 point per 10,000 units, capped at 30
//
// The outer cap at 100 is kept even though the component caps already sum
// to 100; removing it would change documented behavior.
func CreditScore(history []Loan, now time.Time) decimal.Decimal {
	if len(history) == 0 {
		return decimal.Zero
	}

	score := decimal.Zero

	var totalTenure, paidOnTime int64
	for _, l := range history {
		totalTenure += int64(l.Tenure)
		paidOnTime += int64(l.EMIsPaidOnTime)
	}
	if totalTenure > 0 {
		onTimeRatio := decimal.NewFromInt(paidOnTime).Mul(hundred).Div(decimal.NewFromInt(totalTenure))
		score = score.Add(capAt(onTimeRatio.Mul(onTimeWeight), onTimeCap))
	}

	loanCount := decimal.NewFromInt(int64(len(history)) * 2)
	score = score.Add(capAt(loanCount, countCap))

	currentYear := now.Year()
	currentYearVolume := decimal.Zero
	totalVolume := decimal.Zero
	for _, l := range history {
		totalVolume = totalVolume.Add(l.Amount)
		if l.StartDate.Year() == currentYear {
			currentYearVolume = currentYearVolume.Add(l.Amount)
		}
	}
	score = score.Add(capAt(currentYearVolume.Div(pointsPerVolume), volumeCap))
	score = score.Add(capAt(totalVolume.Div(pointsPerVolume), volumeCap))

	return capAt(score, scoreCap)
}

func capAt(v, cap decimal.Decimal) decimal.Decimal {
	if v.GreaterThan(cap) {
		return cap
	}
	return v
}
