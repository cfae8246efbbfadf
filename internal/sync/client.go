package sync

import (
	"fmt"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// Client is the subset of the go-imap client the sync engine drives. The
// library serializes commands per connection, so a session never issues
// concurrent operations on one Client.
type Client interface {
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Idle(stop <-chan struct{}, opts *client.IdleOptions) error
	State() imap.ConnState
	Logout() error
}

// ClientConfig carries everything needed to open one authenticated session.
// Updates receives unilateral server updates (new-mail notifications).
type ClientConfig struct {
	Addr     string
	Username string
	Password string
	Updates  chan<- client.Update
}

// ClientFactory opens IMAP sessions; swapped for a fake in tests.
type ClientFactory interface {
	Dial(cfg ClientConfig) (Client, error)
}

// TLSClientFactory dials real servers over implicit TLS.
type TLSClientFactory struct{}

func (TLSClientFactory) Dial(cfg ClientConfig) (Client, error) {
	c, err := client.DialTLS(cfg.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("imap connection failed: %w", err)
	}

	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("imap login failed: %w", err)
	}

	c.Updates = cfg.Updates
	return c, nil
}
