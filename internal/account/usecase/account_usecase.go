package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	accountdomain "unibox-backend/internal/account/domain"
	"unibox-backend/internal/account/dto"
	accountrepo "unibox-backend/internal/account/repository"
)

var (
	// ErrDuplicateEmail is returned when registering an address that is
	// already taken; handlers map it to a client error.
	ErrDuplicateEmail = errors.New("an account with this email address already exists")

	// ErrAccountNotFound is returned for operations on unknown accounts.
	ErrAccountNotFound = errors.New("account not found")
)

// SessionManager is the sync engine surface the account lifecycle drives.
type SessionManager interface {
	Start(account *accountdomain.EmailAccount) error
	Stop(accountID string)
	Sync(accountID string) error
}

// EmailPurger removes an account's emails on cascade deletion.
type EmailPurger interface {
	DeleteByAccount(accountID string) error
}

// SearchPurger removes an account's documents from the search index.
// Best-effort: failures are logged, never propagated.
type SearchPurger interface {
	DeleteByAccount(ctx context.Context, accountID string) error
}

// AccountUsecase drives the account lifecycle: registration starts a sync
// session, deletion cascades to the account's emails and stops the session.
type AccountUsecase interface {
	Register(req *dto.RegisterAccountRequest) (*accountdomain.EmailAccount, error)
	GetAll() ([]*accountdomain.EmailAccount, error)
	GetByID(id string) (*accountdomain.EmailAccount, error)
	Delete(id string) error
	TriggerSync(id string) error
	ResumeSessions()
	SetSearchPurger(p SearchPurger)
}

// accountUsecase implements AccountUsecase
type accountUsecase struct {
	accountRepo  accountrepo.AccountRepository
	emails       EmailPurger
	sessions     SessionManager
	searchPurger SearchPurger
}

func NewAccountUsecase(accountRepo accountrepo.AccountRepository, emails EmailPurger, sessions SessionManager) AccountUsecase {
	return &accountUsecase{
		accountRepo: accountRepo,
		emails:      emails,
		sessions:    sessions,
	}
}

// SetSearchPurger allows wiring the search index cleanup after creation
func (u *accountUsecase) SetSearchPurger(p SearchPurger) {
	u.searchPurger = p
}

// Register creates the account and starts its sync session. The duplicate
// check happens before any session is opened; a session start failure is
// logged but does not undo the registration.
func (u *accountUsecase) Register(req *dto.RegisterAccountRequest) (*accountdomain.EmailAccount, error) {
	existing, err := u.accountRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	port := req.IMAPPort
	if port == 0 {
		port = accountdomain.DefaultIMAPPort
	}

	account := &accountdomain.EmailAccount{
		ID:           uuid.New().String(),
		Email:        req.Email,
		IMAPHost:     req.IMAPHost,
		IMAPPort:     port,
		IMAPUser:     req.IMAPUser,
		IMAPPassword: req.IMAPPassword,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	if err := u.accountRepo.Create(account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if u.sessions != nil {
		if err := u.sessions.Start(account); err != nil {
			log.WithError(err).WithField("account", account.Email).Error("failed to start sync session")
		}
	}

	return account, nil
}

func (u *accountUsecase) GetAll() ([]*accountdomain.EmailAccount, error) {
	return u.accountRepo.FindAll()
}

func (u *accountUsecase) GetByID(id string) (*accountdomain.EmailAccount, error) {
	account, err := u.accountRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// Delete stops the account's session and removes the account together with
// every email it owns. Emails of other accounts are untouched.
func (u *accountUsecase) Delete(id string) error {
	account, err := u.accountRepo.FindByID(id)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}

	if u.sessions != nil {
		u.sessions.Stop(id)
	}

	if err := u.emails.DeleteByAccount(id); err != nil {
		return fmt.Errorf("failed to delete account emails: %w", err)
	}
	if err := u.accountRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if u.searchPurger != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := u.searchPurger.DeleteByAccount(ctx, id); err != nil {
			log.WithError(err).WithField("account_id", id).Warn("failed to purge search index")
		}
	}

	return nil
}

// TriggerSync requests an incremental pass on the account's live session.
func (u *accountUsecase) TriggerSync(id string) error {
	account, err := u.accountRepo.FindByID(id)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	return u.sessions.Sync(id)
}

// ResumeSessions starts a session for every active account, typically at
// boot. Failures are logged per account and do not stop the rest.
func (u *accountUsecase) ResumeSessions() {
	accounts, err := u.accountRepo.FindActive()
	if err != nil {
		log.WithError(err).Error("failed to load active accounts")
		return
	}

	for _, account := range accounts {
		if err := u.sessions.Start(account); err != nil {
			log.WithError(err).WithField("account", account.Email).Error("failed to resume sync session")
		}
	}
}
