package notification

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	emaildomain "unibox-backend/internal/email/domain"
)

func interestedEmail() *emaildomain.Email {
	return &emaildomain.Email{
		ID:        "e1",
		AccountID: "acc-1",
		MessageID: "lead@example.com",
		From:      "Ada Lovelace <ada@example.com>",
		Subject:   "Budget approved",
		Category:  emaildomain.CategoryInterested,
	}
}

func countingServer(count *int32, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(count, 1)
		w.WriteHeader(status)
	}))
}

func TestNotifyInterestedHitsBothTargets(t *testing.T) {
	var slackHits, webhookHits int32
	slack := countingServer(&slackHits, http.StatusOK)
	defer slack.Close()
	webhook := countingServer(&webhookHits, http.StatusOK)
	defer webhook.Close()

	s := NewService(slack.URL, webhook.URL)
	s.NotifyInterested(interestedEmail())

	assert.Equal(t, int32(1), atomic.LoadInt32(&slackHits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&webhookHits))
}

func TestNotifyInterestedFailureIsIsolated(t *testing.T) {
	var slackHits, webhookHits int32
	slack := countingServer(&slackHits, http.StatusInternalServerError)
	defer slack.Close()
	webhook := countingServer(&webhookHits, http.StatusOK)
	defer webhook.Close()

	s := NewService(slack.URL, webhook.URL)

	// A failing Slack target does not stop the webhook, and nothing panics
	// or propagates.
	s.NotifyInterested(interestedEmail())

	assert.Equal(t, int32(1), atomic.LoadInt32(&slackHits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&webhookHits))
}

func TestNotifyInterestedSkipsUnconfiguredTargets(t *testing.T) {
	var webhookHits int32
	webhook := countingServer(&webhookHits, http.StatusOK)
	defer webhook.Close()

	s := NewService("", webhook.URL)
	assert.False(t, s.SlackConfigured())
	assert.True(t, s.WebhookConfigured())

	s.NotifyInterested(interestedEmail())
	assert.Equal(t, int32(1), atomic.LoadInt32(&webhookHits))

	// Both unconfigured: a pure no-op.
	NewService("", "").NotifyInterested(interestedEmail())
}

func TestWebhookPayloadShape(t *testing.T) {
	var payload map[string]interface{}
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer webhook.Close()

	s := NewService("", webhook.URL)
	s.NotifyInterested(interestedEmail())

	assert.Equal(t, "email.interested", payload["event"])
	assert.Equal(t, "e1", payload["email_id"])
	assert.Equal(t, "acc-1", payload["account_id"])
	assert.Equal(t, "Budget approved", payload["subject"])
}
