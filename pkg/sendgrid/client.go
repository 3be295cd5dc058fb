// Package sendgrid sends transactional email through the SendGrid v3 API.
package sendgrid

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendPath = "/v3/mail/send"

// Address is a display name plus email address.
type Address struct {
	Name  string
	Email string
}

// Message is one outbound email. BCC and ReplyTo are optional.
type Message struct {
	From    Address
	To      Address
	BCC     []Address
	ReplyTo *Address
	Subject string
	HTML    string
}

// Receipt acknowledges an accepted send.
type Receipt struct {
	StatusCode int
	MessageID  string
}

// StatusError is returned when SendGrid answers with a non-2xx status.
type StatusError struct {
	To         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sendgrid: send to %s returned status %d: %s", e.To, e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Client defines the email operations used by the notifier.
type Client interface {
	Send(ctx context.Context, msg Message) (*Receipt, error)
}

// ClientOption configures the SendGrid client.
type ClientOption func(*sgClient)

// WithBaseURL points the client at a different API host.
func WithBaseURL(url string) ClientOption {
	return func(c *sgClient) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

type sgClient struct {
	apiKey  string
	baseURL string
}

// NewClient creates a SendGrid client for the given API key.
func NewClient(apiKey string, opts ...ClientOption) Client {
	c := &sgClient{apiKey: apiKey}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers msg. A non-2xx response is an error; nothing is retried.
func (c *sgClient) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if msg.To.Email == "" {
		return nil, eris.New("sendgrid: recipient is required")
	}

	// The send client is a value carrying its own request; build one per
	// call so concurrent sends never share headers.
	client := sg.NewSendClient(c.apiKey)
	if c.baseURL != "" {
		client.BaseURL = c.baseURL + sendPath
	}

	resp, err := client.SendWithContext(ctx, buildMail(msg))
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sendgrid: send to %s", msg.To.Email))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{To: msg.To.Email, StatusCode: resp.StatusCode, Body: resp.Body}
	}

	receipt := &Receipt{StatusCode: resp.StatusCode}
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		receipt.MessageID = ids[0]
	}
	return receipt, nil
}

func buildMail(msg Message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(msg.From.Name, msg.From.Email))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(msg.To.Name, msg.To.Email))
	for _, b := range msg.BCC {
		p.AddBCCs(mail.NewEmail(b.Name, b.Email))
	}
	m.AddPersonalizations(p)

	if msg.ReplyTo != nil {
		m.SetReplyTo(mail.NewEmail(msg.ReplyTo.Name, msg.ReplyTo.Email))
	}
	m.AddContent(mail.NewContent("text/html", msg.HTML))
	return m
}
