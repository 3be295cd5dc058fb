package analyzer

import (
	"fmt"
	"strings"

	"github.com/studioluxe/leadflow/internal/config"
	"github.com/studioluxe/leadflow/internal/model"
)

const promptTemplate = `Analyze this inbound lead for '%s', a high-end design agency.

Lead Details:
- Name: %s
- Email: %s
- Website: %s
- Budget: %s
- Goals: %s

Context:
- If budget is '%s' or '%s', they are HIGH TICKET.
- If High Ticket, the email should invite them to book a call using this link: %s
- If Low Ticket (%s), politely mention we typically work with larger budgets but offer a 'Starter Audit' for %s, or point them to our 'Services' page%s.
- Tone: Professional, Confident, 'Tech-Brutalist' (concise, no fluff).

Record your analysis with the %s tool.`

// BuildPrompt renders the analysis prompt for one submission. The business
// rules come from cfg; the lead fields are embedded verbatim.
func BuildPrompt(biz config.BusinessConfig, sub model.LeadSubmission) string {
	services := ""
	if biz.ServicesURL != "" {
		services = " (" + biz.ServicesURL + ")"
	}
	return strings.TrimSpace(fmt.Sprintf(promptTemplate,
		orDefault(biz.AgencyName, "StudioLuxe"),
		sub.Name,
		sub.Email,
		sub.WebsiteOrNA(),
		sub.Budget,
		model.Budget50kPlus,
		model.Budget10kTo50k,
		biz.BookingURL,
		model.BudgetBelow5k,
		orDefault(biz.AuditPrice, "$500"),
		services,
		ToolName,
	))
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
