// Package notify sends the two transactional emails for a processed lead:
// the drafted reply to the lead and the summary to the operator.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/studioluxe/leadflow/internal/config"
	"github.com/studioluxe/leadflow/internal/model"
	"github.com/studioluxe/leadflow/pkg/sendgrid"
)

// ErrOperatorMissing reports that no operator address is configured.
var ErrOperatorMissing = eris.New("notify: operator email is not configured")

var operatorTmpl = template.Must(template.New("operator").Parse(`<h1>New Lead Received</h1>
<p><strong>Name:</strong> {{.Sub.Name}}</p>
<p><strong>Email:</strong> {{.Sub.Email}}</p>
<p><strong>Website:</strong> {{.Sub.WebsiteOrNA}}</p>
<p><strong>Budget:</strong> {{.Sub.Budget}}</p>
<p><strong>Goals:</strong> {{.Sub.Goals}}</p>
<hr />
<h3>AI Analysis</h3>
<p><strong>Score:</strong> {{.Analysis.LeadScore}}</p>
<p><strong>Intent:</strong> {{.Analysis.Intent}}</p>
<p><strong>Sentiment:</strong> {{.Analysis.Sentiment}}</p>
<p><strong>Action Taken:</strong> {{.Analysis.ActionTaken}}</p>
`))

// Notifier sends lead emails through SendGrid.
type Notifier struct {
	client   sendgrid.Client
	from     sendgrid.Address
	system   sendgrid.Address
	operator string
	timeout  time.Duration
}

// New creates a Notifier from the email and timeout config.
func New(client sendgrid.Client, cfg *config.Config) *Notifier {
	return &Notifier{
		client:   client,
		from:     sendgrid.Address{Name: cfg.Email.FromName, Email: cfg.Email.FromEmail},
		system:   sendgrid.Address{Name: cfg.Email.SystemFromName, Email: cfg.Email.SystemFromEmail},
		operator: cfg.Email.OperatorEmail,
		timeout:  cfg.Timeouts.Email(),
	}
}

// Ready returns ErrOperatorMissing when there is nobody to notify.
func (n *Notifier) Ready() error {
	if n.operator == "" {
		return ErrOperatorMissing
	}
	return nil
}

// Notify sends the lead reply and then the operator summary. A failed lead
// reply skips the summary.
func (n *Notifier) Notify(ctx context.Context, sub model.LeadSubmission, analysis *model.LeadAnalysis) error {
	if err := n.Ready(); err != nil {
		return err
	}
	if analysis == nil {
		return eris.New("notify: analysis is required")
	}

	operator := sendgrid.Address{Email: n.operator}

	reply := sendgrid.Message{
		From:    n.from,
		To:      sendgrid.Address{Name: sub.Name, Email: sub.Email},
		BCC:     []sendgrid.Address{operator},
		ReplyTo: &operator,
		Subject: analysis.EmailSubject,
		HTML:    analysis.EmailBody,
	}
	if err := n.send(ctx, reply); err != nil {
		return eris.Wrap(err, "notify: lead reply")
	}

	html, err := RenderOperatorSummary(sub, analysis)
	if err != nil {
		return err
	}
	summary := sendgrid.Message{
		From:    n.system,
		To:      operator,
		Subject: OperatorSubject(sub, analysis),
		HTML:    html,
	}
	if err := n.send(ctx, summary); err != nil {
		return eris.Wrap(err, "notify: operator summary")
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, msg sendgrid.Message) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	receipt, err := n.client.Send(ctx, msg)
	if err != nil {
		return err
	}
	zap.L().Debug("notify: email sent",
		zap.String("to", msg.To.Email),
		zap.String("message_id", receipt.MessageID),
	)
	return nil
}

// OperatorSubject formats the operator notification subject.
func OperatorSubject(sub model.LeadSubmission, analysis *model.LeadAnalysis) string {
	return fmt.Sprintf("[New Lead] %s - Score: %d", sub.Name, analysis.LeadScore)
}

// RenderOperatorSummary renders the operator notification body. Submission
// fields are HTML-escaped and the goals text is not truncated.
func RenderOperatorSummary(sub model.LeadSubmission, analysis *model.LeadAnalysis) (string, error) {
	var buf bytes.Buffer
	err := operatorTmpl.Execute(&buf, struct {
		Sub      model.LeadSubmission
		Analysis *model.LeadAnalysis
	}{sub, analysis})
	if err != nil {
		return "", eris.Wrap(err, "notify: render operator summary")
	}
	return buf.String(), nil
}
