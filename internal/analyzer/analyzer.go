// Package analyzer scores and classifies a lead and drafts the reply email
// with a single structured Claude completion.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/studioluxe/leadflow/internal/config"
	"github.com/studioluxe/leadflow/internal/model"
	"github.com/studioluxe/leadflow/pkg/anthropic"
)

// ToolName is the tool the model is forced to call with its analysis.
const ToolName = "record_lead_analysis"

const systemPrompt = `You are the lead qualification assistant for a design agency. You score inbound leads, classify their intent and draft the first reply. Always answer by calling the provided tool.`

// ErrNoAnalysis is returned when the completion carries no tool call.
var ErrNoAnalysis = eris.New("analyzer: no structured analysis in response")

// Analyzer runs the lead analysis against an Anthropic client.
type Analyzer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	business  config.BusinessConfig
	timeout   time.Duration
}

// New creates an Analyzer from the anthropic, business and timeout config.
func New(client anthropic.Client, cfg *config.Config) *Analyzer {
	return &Analyzer{
		client:    client,
		model:     cfg.Anthropic.Model,
		maxTokens: cfg.Anthropic.MaxTokens,
		business:  cfg.Business,
		timeout:   cfg.Timeouts.Analyze(),
	}
}

// Analyze issues exactly one completion request and returns the decoded,
// schema-checked analysis. There are no retries.
func (a *Analyzer) Analyze(ctx context.Context, sub model.LeadSubmission) (*model.LeadAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: BuildPrompt(a.business, sub)},
		},
		Tools:      []anthropic.Tool{analysisTool()},
		ToolChoice: ToolName,
	})
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: completion")
	}
	resp.Usage.LogCost(zap.L(), a.model)

	raw, ok := resp.ToolInput(ToolName)
	if !ok {
		return nil, ErrNoAnalysis
	}
	return decode(raw)
}

func decode(raw json.RawMessage) (*model.LeadAnalysis, error) {
	var out model.LeadAnalysis
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrap(err, "analyzer: decode analysis")
	}
	if err := check(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// check enforces the parts of the schema the model could still get wrong.
func check(a *model.LeadAnalysis) error {
	if a.LeadScore < 0 || a.LeadScore > 100 {
		return eris.New(fmt.Sprintf("analyzer: leadScore %d out of range", a.LeadScore))
	}
	if !a.Intent.Valid() {
		return eris.New(fmt.Sprintf("analyzer: unknown intent %q", a.Intent))
	}
	if a.EmailSubject == "" {
		return eris.New("analyzer: empty emailSubject")
	}
	if a.EmailBody == "" {
		return eris.New("analyzer: empty emailBody")
	}
	return nil
}

func analysisTool() anthropic.Tool {
	intents := make([]string, len(model.Intents))
	for i, v := range model.Intents {
		intents[i] = string(v)
	}
	return anthropic.Tool{
		Name:        ToolName,
		Description: "Record the lead score, classification and drafted reply email.",
		InputSchema: map[string]any{
			"leadScore": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     100,
				"description": "0-100 score based on budget and clarity of goals",
			},
			"intent": map[string]any{
				"type": "string",
				"enum": intents,
			},
			"sentiment": map[string]any{
				"type":        "string",
				"description": "Brief tone analysis",
			},
			"emailSubject": map[string]any{
				"type": "string",
			},
			"emailBody": map[string]any{
				"type":        "string",
				"description": "Personalized response body in HTML format. Keep it professional but tech-forward.",
			},
			"isHighTicket": map[string]any{
				"type":        "boolean",
				"description": "True if budget is 10k+ or 50k+",
			},
		},
		Required: []string{"leadScore", "intent", "sentiment", "emailSubject", "emailBody", "isHighTicket"},
	}
}
