package model

// Budget is the budget range a lead selects on the contact form.
type Budget string

const (
	BudgetBelow5k  Budget = "<5k"
	Budget5kTo10k  Budget = "5k-10k"
	Budget10kTo50k Budget = "10k-50k"
	Budget50kPlus  Budget = "50k+"
)

// Budgets lists every accepted budget range in form order.
var Budgets = []Budget{BudgetBelow5k, Budget5kTo10k, Budget10kTo50k, Budget50kPlus}

// Valid reports whether b is one of the accepted budget ranges.
func (b Budget) Valid() bool {
	for _, v := range Budgets {
		if b == v {
			return true
		}
	}
	return false
}

// HighTicket reports whether the range qualifies for the premium tier (10k and up).
func (b Budget) HighTicket() bool {
	return b == Budget10kTo50k || b == Budget50kPlus
}

// LeadSubmission is one contact-form submission. Values are checked by
// internal/validate against the struct tags before any external call.
type LeadSubmission struct {
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"required,email"`
	Website string `json:"website,omitempty"`
	Budget  Budget `json:"budget" validate:"required,budget"`
	Goals   string `json:"goals" validate:"required,min=10"`
}

// WebsiteOrNA returns the website, or "N/A" when none was given.
func (s LeadSubmission) WebsiteOrNA() string {
	if s.Website == "" {
		return "N/A"
	}
	return s.Website
}
