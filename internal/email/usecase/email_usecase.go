package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	emaildomain "unibox-backend/internal/email/domain"
	"unibox-backend/internal/email/dto"
	emailrepo "unibox-backend/internal/email/repository"
	"unibox-backend/pkg/ai"
	"unibox-backend/pkg/search"
)

// ErrEmailNotFound is returned for operations on unknown emails.
var ErrEmailNotFound = errors.New("email not found")

// Searcher resolves filters to email ids. *search.Client satisfies it.
type Searcher interface {
	SearchEmails(ctx context.Context, f search.Filters) []string
}

// ReplySuggester produces a grounded reply draft for an email. The
// knowledge usecase satisfies it.
type ReplySuggester interface {
	SuggestReply(ctx context.Context, subject, from, body string) (*ai.ReplySuggestion, error)
}

// Reindexer pushes an updated email back into the search index.
type Reindexer interface {
	Enqueue(email *emaildomain.Email)
}

// EmailUsecase is the read-and-annotate surface over the synced inbox.
type EmailUsecase interface {
	Search(req *dto.SearchEmailsRequest) ([]*emaildomain.Email, error)
	GetByID(id string) (*emaildomain.Email, error)
	MarkAsRead(id string) error
	UpdateCategory(id, category string) (*emaildomain.Email, error)
	SuggestReply(ctx context.Context, emailID string) (*ai.ReplySuggestion, error)
	SetSearcher(s Searcher)
	SetReplySuggester(s ReplySuggester)
	SetReindexer(r Reindexer)
}

// emailUsecase implements EmailUsecase
type emailUsecase struct {
	emailRepo emailrepo.EmailRepository
	searcher  Searcher
	suggester ReplySuggester
	reindexer Reindexer
}

func NewEmailUsecase(emailRepo emailrepo.EmailRepository) EmailUsecase {
	return &emailUsecase{emailRepo: emailRepo}
}

// SetSearcher allows wiring the search backend after creation
func (u *emailUsecase) SetSearcher(s Searcher) {
	u.searcher = s
}

// SetReplySuggester allows wiring the suggestion backend after creation
func (u *emailUsecase) SetReplySuggester(s ReplySuggester) {
	u.suggester = s
}

// SetReindexer allows wiring the index refresh queue after creation
func (u *emailUsecase) SetReindexer(r Reindexer) {
	u.reindexer = r
}

// Search resolves the filters through the search index, then hydrates the
// hits from the database. Ids the index knows but the database no longer
// has are silently dropped. Without a search backend the result is empty;
// search never fails the request.
func (u *emailUsecase) Search(req *dto.SearchEmailsRequest) ([]*emaildomain.Email, error) {
	emails := make([]*emaildomain.Email, 0)

	if u.searcher == nil {
		log.Warn("search backend not configured, returning empty result")
		return emails, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ids := u.searcher.SearchEmails(ctx, search.Filters{
		Query:     req.Query,
		AccountID: req.AccountID,
		Folder:    req.Folder,
		Category:  req.Category,
		Limit:     req.Limit,
	})

	for _, id := range ids {
		email, err := u.emailRepo.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load email %s: %w", id, err)
		}
		if email == nil {
			log.WithField("email_id", id).Debug("indexed email missing from database, dropping hit")
			continue
		}
		emails = append(emails, email)
	}

	return emails, nil
}

func (u *emailUsecase) GetByID(id string) (*emaildomain.Email, error) {
	email, err := u.emailRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, ErrEmailNotFound
	}
	return email, nil
}

func (u *emailUsecase) MarkAsRead(id string) error {
	email, err := u.emailRepo.GetByID(id)
	if err != nil {
		return err
	}
	if email == nil {
		return ErrEmailNotFound
	}

	if err := u.emailRepo.MarkAsRead(id); err != nil {
		return fmt.Errorf("failed to mark email as read: %w", err)
	}

	if u.reindexer != nil {
		email.IsRead = true
		u.reindexer.Enqueue(email)
	}
	return nil
}

// UpdateCategory applies a manual override. Only the closed category set
// is accepted; the override does not re-trigger notifications.
func (u *emailUsecase) UpdateCategory(id, category string) (*emaildomain.Email, error) {
	parsed, err := emaildomain.ParseCategory(category)
	if err != nil {
		return nil, err
	}

	email, err := u.emailRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, ErrEmailNotFound
	}

	if err := u.emailRepo.UpdateCategory(id, parsed); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	email.Category = parsed

	if u.reindexer != nil {
		u.reindexer.Enqueue(email)
	}
	return email, nil
}

// SuggestReply drafts a reply for the email, grounded in the knowledge
// base. There is no fallback text: a failing suggestion is an error.
func (u *emailUsecase) SuggestReply(ctx context.Context, emailID string) (*ai.ReplySuggestion, error) {
	if u.suggester == nil {
		return nil, fmt.Errorf("reply suggestion service not configured")
	}

	email, err := u.emailRepo.GetByID(emailID)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, ErrEmailNotFound
	}

	body := email.TextBody
	if body == "" {
		body = email.HTMLBody
	}

	return u.suggester.SuggestReply(ctx, email.Subject, email.From, body)
}
