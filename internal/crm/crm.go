// Package crm writes processed leads to the configured CRM: a Notion
// database or the Salesforce Lead object.
package crm

import (
	"context"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/studioluxe/leadflow/internal/config"
	"github.com/studioluxe/leadflow/internal/model"
	"github.com/studioluxe/leadflow/pkg/notion"
	"github.com/studioluxe/leadflow/pkg/salesforce"
)

// StatusLead is the status every new record is created with.
const StatusLead = "Lead"

// MaxGoalsRunes caps the goals text stored on a record.
const MaxGoalsRunes = 2000

// Sink creates lead records in a CRM.
type Sink interface {
	// CreateLead writes one record and returns the CRM's identifier for it.
	CreateLead(ctx context.Context, rec Record) (string, error)
	// Name identifies the provider in logs.
	Name() string
}

// Record is the CRM view of one processed lead.
type Record struct {
	Name    string
	Email   string
	Website string
	Budget  string
	Score   int
	Status  string
	Goals   string
}

// NewRecord maps a submission and its analysis onto a CRM record.
func NewRecord(sub model.LeadSubmission, analysis *model.LeadAnalysis) Record {
	rec := Record{
		Name:    sub.Name,
		Email:   sub.Email,
		Website: sub.Website,
		Budget:  string(sub.Budget),
		Status:  StatusLead,
		Goals:   truncateRunes(sub.Goals, MaxGoalsRunes),
	}
	if analysis != nil {
		rec.Score = analysis.LeadScore
	}
	return rec
}

// NormalizeCollectionID returns the bare collection id of a configured
// Notion database.
func NormalizeCollectionID(id string) string {
	return notion.NormalizeDatabaseID(id)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// New builds the Sink for the configured provider. It returns a nil Sink
// and nil error when the CRM is not configured.
func New(cfg *config.Config) (Sink, error) {
	if !cfg.CRMEnabled() {
		zap.L().Info("crm: not configured, sync stage disabled",
			zap.String("provider", cfg.CRM.Provider),
		)
		return nil, nil
	}

	switch cfg.CRM.Provider {
	case config.ProviderNotion:
		client := notion.NewClient(cfg.CRM.Notion.Token, notion.WithRateLimit(cfg.CRM.Notion.RateLimit))
		return NewNotionSink(client, cfg.CRM.Notion.DatabaseID, cfg.Timeouts.CRM()), nil
	case config.ProviderSalesforce:
		sf := cfg.CRM.Salesforce
		client, err := salesforce.Connect(salesforce.Creds{
			LoginURL: sf.LoginURL,
			Username: sf.Username,
			ClientID: sf.ClientID,
			KeyPath:  sf.KeyPath,
			Timeout:  cfg.Timeouts.CRM(),
		}, salesforce.WithRateLimit(sf.RateLimit))
		if err != nil {
			return nil, eris.Wrap(err, "crm: connect salesforce")
		}
		return NewSalesforceSink(client, sf.SObject, cfg.Timeouts.CRM()), nil
	default:
		return nil, eris.Errorf("crm: unsupported provider %q", cfg.CRM.Provider)
	}
}
