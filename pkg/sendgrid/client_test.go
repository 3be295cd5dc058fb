package sendgrid

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMail struct {
	Personalizations []struct {
		To  []map[string]string `json:"to"`
		BCC []map[string]string `json:"bcc"`
	} `json:"personalizations"`
	From    map[string]string   `json:"from"`
	ReplyTo map[string]string   `json:"reply_to"`
	Subject string              `json:"subject"`
	Content []map[string]string `json:"content"`
}

func newTestServer(t *testing.T, status int, got *capturedMail) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		if got != nil {
			require.NoError(t, json.Unmarshal(raw, got))
		}
		w.Header().Set("X-Message-Id", "msg-abc")
		w.WriteHeader(status)
		if status >= 400 {
			w.Write([]byte(`{"errors":[{"message":"bad"}]}`)) //nolint:errcheck
		}
	}))
}

func TestSend_ReplyWithBCCAndReplyTo(t *testing.T) {
	var got capturedMail
	ts := newTestServer(t, http.StatusAccepted, &got)
	defer ts.Close()

	c := NewClient("SG.test", WithBaseURL(ts.URL+"/"))
	receipt, err := c.Send(context.Background(), Message{
		From:    Address{Name: "StudioLuxe", Email: "hello@studioluxe.design"},
		To:      Address{Email: "jane@co.com"},
		BCC:     []Address{{Email: "ops@studioluxe.design"}},
		ReplyTo: &Address{Email: "ops@studioluxe.design"},
		Subject: "Let's talk",
		HTML:    "<p>Hi Jane</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, receipt.StatusCode)
	assert.Equal(t, "msg-abc", receipt.MessageID)

	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "jane@co.com", got.Personalizations[0].To[0]["email"])
	require.Len(t, got.Personalizations[0].BCC, 1)
	assert.Equal(t, "ops@studioluxe.design", got.Personalizations[0].BCC[0]["email"])
	assert.Equal(t, "ops@studioluxe.design", got.ReplyTo["email"])
	assert.Equal(t, "StudioLuxe", got.From["name"])
	assert.Equal(t, "Let's talk", got.Subject)
	require.Len(t, got.Content, 1)
	assert.Equal(t, "text/html", got.Content[0]["type"])
	assert.Equal(t, "<p>Hi Jane</p>", got.Content[0]["value"])
}

func TestSend_NoOptionalFields(t *testing.T) {
	var got capturedMail
	ts := newTestServer(t, http.StatusAccepted, &got)
	defer ts.Close()

	c := NewClient("SG.test", WithBaseURL(ts.URL))
	_, err := c.Send(context.Background(), Message{
		From:    Address{Email: "system@studioluxe.design"},
		To:      Address{Email: "ops@studioluxe.design"},
		Subject: "[New Lead]",
		HTML:    "<h1>New Lead Received</h1>",
	})
	require.NoError(t, err)
	assert.Empty(t, got.Personalizations[0].BCC)
	assert.Nil(t, got.ReplyTo)
}

func TestSend_ErrorStatus(t *testing.T) {
	ts := newTestServer(t, http.StatusUnauthorized, nil)
	defer ts.Close()

	c := NewClient("SG.test", WithBaseURL(ts.URL))
	_, err := c.Send(context.Background(), Message{
		From: Address{Email: "a@b.co"},
		To:   Address{Email: "jane@co.com"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jane@co.com")
}

func TestSend_RequiresRecipient(t *testing.T) {
	c := NewClient("SG.test")
	_, err := c.Send(context.Background(), Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient is required")
}

func TestSend_CancelledContext(t *testing.T) {
	ts := newTestServer(t, http.StatusAccepted, nil)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("SG.test", WithBaseURL(ts.URL))
	_, err := c.Send(ctx, Message{From: Address{Email: "a@b.co"}, To: Address{Email: "jane@co.com"}})
	assert.Error(t, err)
}
