package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"unibox-backend/internal/account/domain"
	"unibox-backend/internal/account/dto"
)

type fakeAccountRepo struct {
	accounts map[string]*domain.EmailAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.EmailAccount)}
}

func (r *fakeAccountRepo) Create(account *domain.EmailAccount) error {
	r.accounts[account.ID] = account
	return nil
}

func (r *fakeAccountRepo) FindByID(id string) (*domain.EmailAccount, error) {
	return r.accounts[id], nil
}

func (r *fakeAccountRepo) FindByEmail(email string) (*domain.EmailAccount, error) {
	for _, a := range r.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) FindAll() ([]*domain.EmailAccount, error) {
	out := make([]*domain.EmailAccount, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAccountRepo) FindActive() ([]*domain.EmailAccount, error) {
	out := make([]*domain.EmailAccount, 0)
	for _, a := range r.accounts {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) UpdateSyncTime(id string, syncedAt time.Time) error {
	if a, ok := r.accounts[id]; ok {
		a.LastSyncedAt = &syncedAt
	}
	return nil
}

func (r *fakeAccountRepo) SetActive(id string, active bool) error {
	if a, ok := r.accounts[id]; ok {
		a.IsActive = active
	}
	return nil
}

func (r *fakeAccountRepo) Delete(id string) error {
	delete(r.accounts, id)
	return nil
}

type fakeSessions struct {
	started []string
	stopped []string
	synced  []string
}

func (s *fakeSessions) Start(account *domain.EmailAccount) error {
	s.started = append(s.started, account.ID)
	return nil
}

func (s *fakeSessions) Stop(accountID string) {
	s.stopped = append(s.stopped, accountID)
}

func (s *fakeSessions) Sync(accountID string) error {
	s.synced = append(s.synced, accountID)
	return nil
}

type fakePurger struct {
	purged []string
}

func (p *fakePurger) DeleteByAccount(accountID string) error {
	p.purged = append(p.purged, accountID)
	return nil
}

func registerRequest() *dto.RegisterAccountRequest {
	return &dto.RegisterAccountRequest{
		Email:        "user@example.com",
		IMAPHost:     "imap.example.com",
		IMAPUser:     "user@example.com",
		IMAPPassword: "secret",
	}
}

func TestRegisterStartsSessionAndDefaultsPort(t *testing.T) {
	repo := newFakeAccountRepo()
	sessions := &fakeSessions{}
	uc := NewAccountUsecase(repo, &fakePurger{}, sessions)

	account, err := uc.Register(registerRequest())
	assert.NoError(t, err)
	assert.Equal(t, domain.DefaultIMAPPort, account.IMAPPort)
	assert.True(t, account.IsActive)
	assert.Equal(t, []string{account.ID}, sessions.started)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeAccountRepo()
	sessions := &fakeSessions{}
	uc := NewAccountUsecase(repo, &fakePurger{}, sessions)

	_, err := uc.Register(registerRequest())
	assert.NoError(t, err)

	// The duplicate is rejected before any session is opened for it.
	_, err = uc.Register(registerRequest())
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Len(t, repo.accounts, 1)
	assert.Len(t, sessions.started, 1)
}

func TestDeleteCascades(t *testing.T) {
	repo := newFakeAccountRepo()
	sessions := &fakeSessions{}
	purger := &fakePurger{}
	uc := NewAccountUsecase(repo, purger, sessions)

	account, err := uc.Register(registerRequest())
	assert.NoError(t, err)

	assert.NoError(t, uc.Delete(account.ID))

	// Session stopped, emails purged, account gone.
	assert.Equal(t, []string{account.ID}, sessions.stopped)
	assert.Equal(t, []string{account.ID}, purger.purged)
	assert.Empty(t, repo.accounts)
}

func TestDeleteUnknownAccount(t *testing.T) {
	uc := NewAccountUsecase(newFakeAccountRepo(), &fakePurger{}, &fakeSessions{})
	assert.ErrorIs(t, uc.Delete("missing"), ErrAccountNotFound)
}

func TestTriggerSync(t *testing.T) {
	repo := newFakeAccountRepo()
	sessions := &fakeSessions{}
	uc := NewAccountUsecase(repo, &fakePurger{}, sessions)

	account, err := uc.Register(registerRequest())
	assert.NoError(t, err)

	assert.NoError(t, uc.TriggerSync(account.ID))
	assert.Equal(t, []string{account.ID}, sessions.synced)

	assert.ErrorIs(t, uc.TriggerSync("missing"), ErrAccountNotFound)
}

func TestResumeSessionsStartsOnlyActiveAccounts(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.accounts["a1"] = &domain.EmailAccount{ID: "a1", Email: "one@example.com", IsActive: true}
	repo.accounts["a2"] = &domain.EmailAccount{ID: "a2", Email: "two@example.com", IsActive: false}

	sessions := &fakeSessions{}
	uc := NewAccountUsecase(repo, &fakePurger{}, sessions)

	uc.ResumeSessions()
	assert.Equal(t, []string{"a1"}, sessions.started)
}
