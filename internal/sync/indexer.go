package sync

import (
	"context"
	stdsync "sync"
	"time"

	log "github.com/sirupsen/logrus"

	emaildomain "unibox-backend/internal/email/domain"
	"unibox-backend/pkg/search"
)

// SearchIndexer is the write side of the search index. *search.Client
// satisfies it.
type SearchIndexer interface {
	IndexEmail(ctx context.Context, doc *search.EmailDocument) error
}

// Indexer pushes persisted emails into the search index through a buffered
// job queue and a small worker pool. Indexing is strictly best-effort: a
// full queue drops the job with a log line and a failed write is logged and
// forgotten. Ingestion never waits on it and never sees its errors.
type Indexer struct {
	search      SearchIndexer
	jobQueue    chan *emaildomain.Email
	workerWg    stdsync.WaitGroup
	workerCount int
	started     bool
	mu          stdsync.Mutex
}

// NewIndexer creates an Indexer. A nil SearchIndexer is allowed and turns
// Enqueue into a no-op, matching an unconfigured search integration.
func NewIndexer(searchClient SearchIndexer, workerCount int) *Indexer {
	if workerCount <= 0 {
		workerCount = 3
	}
	return &Indexer{
		search:      searchClient,
		jobQueue:    make(chan *emaildomain.Email, 500),
		workerCount: workerCount,
	}
}

// Start launches the worker pool.
func (ix *Indexer) Start() {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.started || ix.search == nil {
		return
	}
	for i := 0; i < ix.workerCount; i++ {
		ix.workerWg.Add(1)
		go ix.worker(i)
	}
	ix.started = true
	log.WithField("workers", ix.workerCount).Info("search indexer started")
}

// Stop drains the queue and stops all workers.
func (ix *Indexer) Stop() {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if !ix.started {
		return
	}
	close(ix.jobQueue)
	ix.workerWg.Wait()
	ix.started = false
}

// Enqueue schedules one email for indexing without blocking.
func (ix *Indexer) Enqueue(email *emaildomain.Email) {
	if ix.search == nil || email == nil {
		return
	}

	select {
	case ix.jobQueue <- email:
	default:
		// Queue full. The email is already persisted, only its index entry
		// is lost until a later pass re-enqueues it.
		log.WithField("email_id", email.ID).Warn("index queue full, dropping job")
	}
}

func (ix *Indexer) worker(id int) {
	defer ix.workerWg.Done()

	for email := range ix.jobQueue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := ix.search.IndexEmail(ctx, &search.EmailDocument{
			ID:         email.ID,
			AccountID:  email.AccountID,
			Folder:     email.Folder,
			Category:   string(email.Category),
			From:       email.From,
			To:         email.To,
			Subject:    email.Subject,
			TextBody:   email.TextBody,
			ReceivedAt: email.ReceivedAt,
		})
		cancel()

		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"worker":   id,
				"email_id": email.ID,
			}).Warn("failed to index email")
		}
	}
}
