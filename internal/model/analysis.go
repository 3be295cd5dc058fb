package model

// Intent is the lead classification produced by the analyzer.
type Intent string

const (
	IntentHiring      Intent = "hiring"
	IntentInquiry     Intent = "inquiry"
	IntentSpam        Intent = "spam"
	IntentPartnership Intent = "partnership"
)

// Intents lists every intent the analyzer may return.
var Intents = []Intent{IntentHiring, IntentInquiry, IntentSpam, IntentPartnership}

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool {
	for _, v := range Intents {
		if i == v {
			return true
		}
	}
	return false
}

// LeadAnalysis is the structured output of the analyzer. The shape is
// guaranteed by the completion contract; the content is not.
type LeadAnalysis struct {
	LeadScore    int    `json:"leadScore"`
	Intent       Intent `json:"intent"`
	Sentiment    string `json:"sentiment"`
	EmailSubject string `json:"emailSubject"`
	EmailBody    string `json:"emailBody"`
	IsHighTicket bool   `json:"isHighTicket"`
}

// ActionTaken describes which reply variant the lead received.
func (a LeadAnalysis) ActionTaken() string {
	if a.IsHighTicket {
		return "High Ticket Invite Sent"
	}
	return "Standard Reply Sent"
}
