package ingest

import (
	"fmt"
	"strings"
)

// Canonical customer column names.
const (
	ColCustomerID    = "customer_id"
	ColFirstName     = "first_name"
	ColLastName      = "last_name"
	ColAge           = "age"
	ColPhoneNumber   = "phone_number"
	ColMonthlyIncome = "monthly_income"
	ColApprovedLimit = "approved_limit"
	ColCurrentDebt   = "current_debt"
)

// Canonical loan column names.
const (
	ColLoanID         = "loan_id"
	ColLoanAmount     = "loan_amount"
	ColTenure         = "tenure"
	ColInterestRate   = "interest_rate"
	ColInstallment    = "monthly_installment"
	ColEMIsPaidOnTime = "emis_paid_on_time"
	ColStartDate      = "start_date"
	ColEndDate        = "end_date"
)

// ColumnResolver maps the header spellings found in source exports onto
// canonical column names. The source spreadsheets were maintained by hand
// and their headers are not consistent between files or revisions.
type ColumnResolver struct {
	aliases map[string][]string
}

// CustomerColumns returns a resolver preloaded with every customer header
// spelling observed in the source data.
func CustomerColumns() *ColumnResolver {
	return &ColumnResolver{aliases: map[string][]string{
		ColCustomerID:    {"customer id", "customer_id"},
		ColFirstName:     {"first name", "first_name"},
		ColLastName:      {"last name", "last_name"},
		ColAge:           {"age"},
		ColPhoneNumber:   {"phone number", "phone_number"},
		ColMonthlyIncome: {"monthly salary", "monthly_salary", "monthly income", "monthly_income"},
		ColApprovedLimit: {"approved limit", "approved_limit"},
		ColCurrentDebt:   {"current debt", "current_debt"},
	}}
}

// LoanColumns returns a resolver preloaded with every loan header spelling
// observed in the source data.
func LoanColumns() *ColumnResolver {
	return &ColumnResolver{aliases: map[string][]string{
		ColCustomerID:     {"customer id", "customer_id"},
		ColLoanID:         {"loan id", "loan_id"},
		ColLoanAmount:     {"loan amount", "loan_amount"},
		ColTenure:         {"tenure"},
		ColInterestRate:   {"interest rate", "interest_rate"},
		ColInstallment:    {"monthly repayment (emi)", "monthly payment", "monthly_payment", "monthly installment", "monthly_installment"},
		ColEMIsPaidOnTime: {"emis paid on time", "emis_paid_on_time"},
		ColStartDate:      {"start date", "start_date", "date of approval", "date_of_approval"},
		ColEndDate:        {"end date", "end_date"},
	}}
}

// AddAlias registers an extra header spelling for a canonical column, so
// deployments can extend the table from configuration without code changes.
func (cr *ColumnResolver) AddAlias(canonical, alias string) {
	cr.aliases[canonical] = append(cr.aliases[canonical], normalizeHeader(alias))
}

// Resolve maps a header row to canonical column indexes. Every canonical
// column must be present; the first matching header wins when a file
// carries duplicates.
func (cr *ColumnResolver) Resolve(headers []string) (map[string]int, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	resolved := make(map[string]int, len(cr.aliases))
	for canonical, spellings := range cr.aliases {
		idx := -1
	search:
		for _, spelling := range spellings {
			for i, h := range normalized {
				if h == spelling {
					idx = i
					break search
				}
			}
		}
		if idx == -1 {
			return nil, fmt.Errorf("required column %q not found in header %v", canonical, headers)
		}
		resolved[canonical] = idx
	}
	return resolved, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), " ")
}
