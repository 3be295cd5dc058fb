package crm

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/studioluxe/leadflow/pkg/salesforce"
)

// Custom Lead fields holding the form budget and analyzer score.
const (
	sfBudgetField = "Budget__c"
	sfScoreField  = "Lead_Score__c"
)

// SalesforceSink inserts one Lead sObject per lead.
type SalesforceSink struct {
	client  salesforce.Client
	sobject string
	timeout time.Duration
}

// NewSalesforceSink creates a SalesforceSink writing to sobject ("Lead" when empty).
func NewSalesforceSink(client salesforce.Client, sobject string, timeout time.Duration) *SalesforceSink {
	if sobject == "" {
		sobject = "Lead"
	}
	return &SalesforceSink{client: client, sobject: sobject, timeout: timeout}
}

// Name implements Sink.
func (s *SalesforceSink) Name() string { return "salesforce" }

// CreateLead implements Sink.
func (s *SalesforceSink) CreateLead(ctx context.Context, rec Record) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id, err := salesforce.CreateLead(ctx, s.client, s.sobject, salesforceFields(rec))
	if err != nil {
		return "", eris.Wrap(err, "crm: create salesforce lead")
	}
	return id, nil
}

func salesforceFields(rec Record) map[string]any {
	first, last := splitName(rec.Name)
	company := rec.Website
	if company == "" {
		company = rec.Name
	}
	fields := map[string]any{
		"LastName":    last,
		"Email":       rec.Email,
		"Company":     company,
		"Status":      rec.Status,
		"Description": rec.Goals,
		"LeadSource":  "Web",
		sfBudgetField: rec.Budget,
		sfScoreField:  rec.Score,
	}
	if first != "" {
		fields["FirstName"] = first
	}
	if rec.Website != "" {
		fields["Website"] = rec.Website
	}
	return fields
}

// splitName splits on the last space; single-word names become LastName only.
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	i := strings.LastIndexByte(name, ' ')
	if i < 0 {
		return "", name
	}
	return strings.TrimSpace(name[:i]), name[i+1:]
}
