package sync

import (
	"fmt"
	stdsync "sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	log "github.com/sirupsen/logrus"

	accountdomain "unibox-backend/internal/account/domain"
)

// keepaliveInterval is how often an authenticated session re-issues IDLE
// so the server does not expire it.
const keepaliveInterval = 10 * time.Minute

type session struct {
	account *accountdomain.EmailAccount
	client  Client
	updates chan client.Update
	mail    chan struct{}
	syncReq chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

// forwardUpdates drains the client's update channel for the whole life of
// the session. The go-imap client blocks on an unread Updates channel,
// which would wedge the connection (and any in-flight fetch) if updates
// piled up during a long pass. New-mail announcements are coalesced into
// the mail signal; everything else is discarded.
func (s *session) forwardUpdates() {
	for {
		select {
		case upd := <-s.updates:
			if isMailboxUpdate(upd) {
				select {
				case s.mail <- struct{}{}:
				default:
				}
			}
		case <-s.done:
			return
		}
	}
}

// Manager owns the registry of live IMAP sessions, at most one per
// account. All registry mutation goes through Start/Stop so the invariant
// is enforced in one place. A session that dies on its own is removed from
// the registry and NOT reconnected; the account stops syncing until Start
// is called for it again.
type Manager struct {
	mu       stdsync.Mutex
	sessions map[string]*session
	factory  ClientFactory
	pipeline *Pipeline
}

func NewManager(factory ClientFactory, pipeline *Pipeline) *Manager {
	return &Manager{
		sessions: make(map[string]*session),
		factory:  factory,
		pipeline: pipeline,
	}
}

// Start opens a session for the account, terminating any existing session
// for the same account first so duplicates cannot pile up.
func (m *Manager) Start(account *accountdomain.EmailAccount) error {
	m.Stop(account.ID)

	port := account.IMAPPort
	if port == 0 {
		port = accountdomain.DefaultIMAPPort
	}

	updates := make(chan client.Update, 32)
	c, err := m.factory.Dial(ClientConfig{
		Addr:     fmt.Sprintf("%s:%d", account.IMAPHost, port),
		Username: account.IMAPUser,
		Password: account.IMAPPassword,
		Updates:  updates,
	})
	if err != nil {
		return err
	}

	s := &session{
		account: account,
		client:  c,
		updates: updates,
		mail:    make(chan struct{}, 1),
		syncReq: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	m.mu.Lock()
	m.sessions[account.ID] = s
	m.mu.Unlock()

	go m.run(s)

	log.WithField("account", account.Email).Info("imap session started")
	return nil
}

// Stop terminates the named session and waits for its loop to exit.
// Unknown account ids are a no-op.
func (m *Manager) Stop(accountID string) {
	m.mu.Lock()
	s, ok := m.sessions[accountID]
	if ok {
		delete(m.sessions, accountID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	close(s.stop)
	<-s.done
}

// StopAll terminates every live session.
func (m *Manager) StopAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Stop(id)
	}
}

// Sync requests an incremental unseen-only pass on the account's live
// session, as if the server had announced new mail.
func (m *Manager) Sync(accountID string) error {
	m.mu.Lock()
	s, ok := m.sessions[accountID]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("no active session for account %s", accountID)
	}

	select {
	case s.syncReq <- struct{}{}:
	default:
		// A sync is already queued.
	}
	return nil
}

// remove drops a session from the registry on the fatal-exit path, unless
// Stop (or a replacing Start) already did.
func (m *Manager) remove(s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[s.account.ID]; ok && cur == s {
		delete(m.sessions, s.account.ID)
	}
}

func (m *Manager) run(s *session) {
	defer close(s.done)
	defer func() { _ = s.client.Logout() }()
	defer m.remove(s)

	logger := log.WithField("account", s.account.Email)

	go s.forwardUpdates()

	// Read-only select: the engine never mutates server-side state.
	if _, err := s.client.Select("INBOX", true); err != nil {
		logger.WithError(err).Error("failed to select inbox, tearing down session")
		return
	}

	if err := m.pipeline.RunPass(s.client, s.account, ModeInitial); err != nil {
		logger.WithError(err).Error("initial sync pass failed")
	}

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		idleStop := make(chan struct{})
		idleDone := make(chan error, 1)
		go func() {
			idleDone <- s.client.Idle(idleStop, &client.IdleOptions{})
		}()

		select {
		case <-s.stop:
			close(idleStop)
			<-idleDone
			logger.Info("imap session stopped")
			return

		case <-keepalive.C:
			if s.client.State()&imap.AuthenticatedState == 0 {
				logger.Warn("connection no longer authenticated, tearing down session")
				close(idleStop)
				<-idleDone
				return
			}
			// Leave and re-enter IDLE so the server sees activity.
			close(idleStop)
			<-idleDone
			logger.Debug("keepalive, re-entering idle")

		case <-s.mail:
			close(idleStop)
			<-idleDone
			if err := m.pipeline.RunPass(s.client, s.account, ModeIncremental); err != nil {
				logger.WithError(err).Error("incremental sync pass failed")
			}

		case <-s.syncReq:
			close(idleStop)
			<-idleDone
			if err := m.pipeline.RunPass(s.client, s.account, ModeIncremental); err != nil {
				logger.WithError(err).Error("manual sync pass failed")
			}

		case err := <-idleDone:
			// IDLE ended without being asked to: session-level failure.
			// There is no automatic reconnect here.
			if err != nil {
				logger.WithError(err).Error("idle failed, tearing down session")
			} else {
				logger.Warn("idle ended unexpectedly, tearing down session")
			}
			return
		}
	}
}

func isMailboxUpdate(upd client.Update) bool {
	_, ok := upd.(*client.MailboxUpdate)
	return ok
}
