package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	emaildomain "unibox-backend/internal/email/domain"
)

// Service fans out "interesting email" notifications to a Slack incoming
// webhook and a generic outbound webhook. Both targets are optional and
// independent: a missing URL skips the target with a log line, and a
// delivery failure is swallowed after logging. Nothing here ever
// propagates an error back into the ingestion path.
type Service struct {
	slackWebhookURL    string
	outboundWebhookURL string
	httpClient         *http.Client
}

func NewService(slackWebhookURL, outboundWebhookURL string) *Service {
	return &Service{
		slackWebhookURL:    slackWebhookURL,
		outboundWebhookURL: outboundWebhookURL,
		httpClient:         &http.Client{Timeout: 10 * time.Second},
	}
}

// SlackConfigured reports whether the Slack target has a URL.
func (s *Service) SlackConfigured() bool { return s.slackWebhookURL != "" }

// WebhookConfigured reports whether the generic webhook target has a URL.
func (s *Service) WebhookConfigured() bool { return s.outboundWebhookURL != "" }

// NotifyInterested dispatches both notifications concurrently and waits for
// them to finish. Each target succeeds or fails on its own.
func (s *Service) NotifyInterested(email *emaildomain.Email) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.sendSlack(email)
	}()
	go func() {
		defer wg.Done()
		s.sendWebhook(email)
	}()

	wg.Wait()
}

func (s *Service) sendSlack(email *emaildomain.Email) {
	if s.slackWebhookURL == "" {
		log.Debug("slack webhook not configured, skipping notification")
		return
	}

	payload := map[string]interface{}{
		"text": fmt.Sprintf("📬 *Interested lead*\n*From:* %s\n*Subject:* %s\n*Account:* %s",
			email.From, email.Subject, email.AccountID),
	}

	if err := s.post(s.slackWebhookURL, payload); err != nil {
		log.WithError(err).WithField("email_id", email.ID).Warn("slack notification failed")
		return
	}
	log.WithField("email_id", email.ID).Info("slack notification sent")
}

func (s *Service) sendWebhook(email *emaildomain.Email) {
	if s.outboundWebhookURL == "" {
		log.Debug("outbound webhook not configured, skipping notification")
		return
	}

	payload := map[string]interface{}{
		"event":       "email.interested",
		"email_id":    email.ID,
		"account_id":  email.AccountID,
		"message_id":  email.MessageID,
		"from":        email.From,
		"subject":     email.Subject,
		"category":    email.Category,
		"received_at": email.ReceivedAt,
	}

	if err := s.post(s.outboundWebhookURL, payload); err != nil {
		log.WithError(err).WithField("email_id", email.ID).Warn("webhook notification failed")
		return
	}
	log.WithField("email_id", email.ID).Info("webhook notification sent")
}

func (s *Service) post(url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := s.httpClient.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("target returned status %d", resp.StatusCode)
	}
	return nil
}
