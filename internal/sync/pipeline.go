package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/emersion/go-imap"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	accountdomain "unibox-backend/internal/account/domain"
	emaildomain "unibox-backend/internal/email/domain"
	"unibox-backend/pkg/ai"
	"unibox-backend/pkg/config"
	"unibox-backend/pkg/mailparse"
)

// maxFetchBatch caps a single pass to the most recent messages. This is a
// deliberate load ceiling: older messages beyond it are not ingested in
// that pass.
const maxFetchBatch = 100

// classifyBodyLimit is how much of the body the classifier sees.
const classifyBodyLimit = 1000

// Mode distinguishes the initial full pass from the incremental
// unseen-only pass triggered by a mailbox update.
type Mode int

const (
	ModeInitial Mode = iota
	ModeIncremental
)

func (m Mode) String() string {
	if m == ModeIncremental {
		return "incremental"
	}
	return "initial"
}

// EmailStore is the slice of the email repository the pipeline needs.
type EmailStore interface {
	GetByMessageID(accountID, messageID string) (*emaildomain.Email, error)
	Create(email *emaildomain.Email) (*emaildomain.Email, bool, error)
}

// AccountStore is the slice of the account repository the pipeline needs.
type AccountStore interface {
	UpdateSyncTime(id string, syncedAt time.Time) error
}

// Classifier assigns one closed-enum category to a message. *ai.OpenAIService
// and *ai.OllamaService satisfy it through ai.Service.
type Classifier interface {
	ClassifyEmail(ctx context.Context, subject, body, sender string, labels []string) (*ai.Classification, error)
}

// Notifier dispatches the interested-lead fan-out. It must swallow its own
// errors; the pipeline treats it as infallible.
type Notifier interface {
	NotifyInterested(email *emaildomain.Email)
}

// Pipeline turns raw fetched messages into persisted, classified, indexed
// email records. Per-message failures are logged and skipped so one bad
// message never aborts a batch; only search and fetch failures abort a
// pass.
type Pipeline struct {
	emails      EmailStore
	accounts    AccountStore
	classifier  Classifier
	indexer     *Indexer
	notifier    Notifier
	granularity config.SyncTimeGranularity
}

func NewPipeline(emails EmailStore, accounts AccountStore, classifier Classifier, indexer *Indexer, notifier Notifier, granularity config.SyncTimeGranularity) *Pipeline {
	return &Pipeline{
		emails:      emails,
		accounts:    accounts,
		classifier:  classifier,
		indexer:     indexer,
		notifier:    notifier,
		granularity: granularity,
	}
}

// RunPass searches the selected mailbox, fetches the matching messages and
// runs each through the ingestion pipeline. Zero matches is a normal
// outcome, not an error.
func (p *Pipeline) RunPass(c Client, account *accountdomain.EmailAccount, mode Mode) error {
	logger := log.WithFields(log.Fields{
		"account": account.Email,
		"mode":    mode.String(),
	})

	criteria := imap.NewSearchCriteria()
	if mode == ModeIncremental {
		criteria.WithoutFlags = []string{imap.SeenFlag}
	} else {
		// "NOT DELETED" stands in for ALL; a bare SEARCH with no keys is
		// rejected by servers.
		criteria.WithoutFlags = []string{imap.DeletedFlag}
	}

	uids, err := c.UidSearch(criteria)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(uids) == 0 {
		logger.Info("no messages matched, nothing to sync")
		return nil
	}

	// Keep the newest messages. Servers are not required to return SEARCH
	// results in UID order, so sort before taking the tail.
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	if len(uids) > maxFetchBatch {
		logger.WithFields(log.Fields{
			"matched": len(uids),
			"cap":     maxFetchBatch,
		}).Info("capping fetch batch to most recent messages")
		uids = uids[len(uids)-maxFetchBatch:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid}

	messages := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, messages)
	}()

	processed := 0
	for msg := range messages {
		parsed, err := mailparse.Parse(msg)
		if err != nil {
			logger.WithError(err).WithField("uid", msg.Uid).Warn("failed to parse message, skipping")
			continue
		}

		// Fallback identity keeps ingestion idempotent even for messages
		// without a Message-Id header.
		if parsed.MessageID == "" {
			parsed.MessageID = fmt.Sprintf("%s-%d", account.ID, parsed.UID)
		}

		if err := p.processMessage(account, parsed); err != nil {
			logger.WithError(err).WithField("message_id", parsed.MessageID).Warn("failed to process message, skipping")
			continue
		}
		processed++

		if p.syncTimePerMessage(mode) {
			p.touchSyncTime(account, logger)
		}
	}

	if err := <-done; err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if processed > 0 && !p.syncTimePerMessage(mode) {
		p.touchSyncTime(account, logger)
	}

	logger.WithField("processed", processed).Info("sync pass finished")
	return nil
}

// processMessage is the idempotency boundary: a known (account,
// message-id) pair skips classification, persistence, indexing and
// notification entirely. Classification is fail-closed; an email is never
// persisted with a defaulted category.
func (p *Pipeline) processMessage(account *accountdomain.EmailAccount, parsed *mailparse.ParsedEmail) error {
	existing, err := p.emails.GetByMessageID(account.ID, parsed.MessageID)
	if err != nil {
		return fmt.Errorf("dedupe lookup failed: %w", err)
	}
	if existing != nil {
		log.WithFields(log.Fields{
			"account":    account.Email,
			"message_id": parsed.MessageID,
		}).Debug("duplicate message, skipping")
		return nil
	}

	category, err := p.classify(parsed)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	email := &emaildomain.Email{
		ID:             uuid.New().String(),
		AccountID:      account.ID,
		MessageID:      parsed.MessageID,
		From:           parsed.From,
		To:             parsed.To,
		Subject:        parsed.Subject,
		TextBody:       parsed.TextBody,
		HTMLBody:       parsed.HTMLBody,
		Folder:         "INBOX",
		Category:       category,
		HasAttachments: parsed.AttachmentCount > 0,
		ReceivedAt:     parsed.ReceivedAt,
		CreatedAt:      time.Now(),
	}

	stored, created, err := p.emails.Create(email)
	if err != nil {
		return fmt.Errorf("persist failed: %w", err)
	}
	if !created {
		// Another pass won the insert race; its side effects already ran.
		log.WithField("message_id", parsed.MessageID).Debug("message persisted concurrently, skipping side effects")
		return nil
	}

	if p.indexer != nil {
		p.indexer.Enqueue(stored)
	}

	if stored.Category == emaildomain.CategoryInterested && p.notifier != nil {
		p.notifier.NotifyInterested(stored)
	}

	return nil
}

func (p *Pipeline) classify(parsed *mailparse.ParsedEmail) (emaildomain.Category, error) {
	if p.classifier == nil {
		return "", fmt.Errorf("classifier not configured")
	}

	body := parsed.TextBody
	if body == "" {
		body = parsed.HTMLBody
	}
	body = ai.TruncateText(body, classifyBodyLimit)

	labels := make([]string, 0, 5)
	for _, c := range emaildomain.Categories() {
		labels = append(labels, string(c))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := p.classifier.ClassifyEmail(ctx, parsed.Subject, body, parsed.From, labels)
	if err != nil {
		return "", err
	}

	category, err := emaildomain.ParseCategory(result.Label)
	if err != nil {
		return "", err
	}

	// The confidence is clamped at the provider but not acted on here:
	// there is no minimum-confidence gate, any valid verdict counts.
	return category, nil
}

func (p *Pipeline) syncTimePerMessage(mode Mode) bool {
	switch p.granularity {
	case config.SyncTimeMessage:
		return true
	case config.SyncTimeBatch:
		return false
	default:
		// Mixed keeps the historical split between the two paths.
		return mode == ModeIncremental
	}
}

func (p *Pipeline) touchSyncTime(account *accountdomain.EmailAccount, logger *log.Entry) {
	if err := p.accounts.UpdateSyncTime(account.ID, time.Now()); err != nil {
		logger.WithError(err).Warn("failed to update sync time")
	}
}
