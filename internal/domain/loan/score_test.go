package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var scoreNow = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

// pastLoan starts the year before scoreNow so it never counts toward the
// current-year volume component.
func pastLoan(amount string, tenure, paidOnTime int) Loan {
	return Loan{
		Amount:         d(amount),
		Tenure:         tenure,
		EMIsPaidOnTime: paidOnTime,
		StartDate:      scoreNow.AddDate(-1, 0, 0),
	}
}

func currentYearLoan(amount string, tenure, paidOnTime int) Loan {
	return Loan{
		Amount:         d(amount),
		Tenure:         tenure,
		EMIsPaidOnTime: paidOnTime,
		StartDate:      scoreNow.AddDate(0, -2, 0),
	}
}

func TestCreditScore(t *testing.T) {
	t.Run("should score zero with no history", func(t *testing.T) {
		assert.True(t, CreditScore(nil, scoreNow).IsZero())
		assert.True(t, CreditScore([]Loan{}, scoreNow).IsZero())
	})

	t.Run("should sum the four components", func(t *testing.T) {
		// Two fully on-time past loans of 80,000 each:
		// on-time 20 + count 4 + current-year 0 + volume 16 = 40.
		history := []Loan{
			pastLoan("80000", 24, 24),
			pastLoan("80000", 24, 24),
		}
		assert.True(t, d("40").Equal(CreditScore(history, scoreNow)))
	})

	t.Run("should scale the on-time component by the paid ratio", func(t *testing.T) {
		// Half the EMIs on time: on-time 10 + count 2 + volume 1 = 13.
		history := []Loan{pastLoan("10000", 10, 5)}
		assert.True(t, d("13").Equal(CreditScore(history, scoreNow)))
	})

	t.Run("should cap the loan count component at 20", func(t *testing.T) {
		var history []Loan
		for i := 0; i < 15; i++ {
			history = append(history, pastLoan("1000", 12, 0))
		}
		// count would be 30 uncapped; volume 1.5; on-time 0.
		assert.True(t, d("21.5").Equal(CreditScore(history, scoreNow)))
	})

	t.Run("should cap each volume component at 30", func(t *testing.T) {
		history := []Loan{currentYearLoan("5000000", 12, 0)}
		// current-year and lifetime volume each capped at 30, count 2.
		assert.True(t, d("62").Equal(CreditScore(history, scoreNow)))
	})

	t.Run("should never exceed 100", func(t *testing.T) {
		var history []Loan
		for i := 0; i < 11; i++ {
			history = append(history, currentYearLoan("400000", 12, 12))
		}
		assert.True(t, d("100").Equal(CreditScore(history, scoreNow)))
	})
}
