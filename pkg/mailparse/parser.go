package mailparse

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message/mail"

	_ "github.com/emersion/go-message/charset"
)

// ParsedEmail is the normalized form of one fetched message, ready for
// deduplication and persistence.
type ParsedEmail struct {
	UID             uint32
	MessageID       string
	Subject         string
	From            string
	To              string
	TextBody        string
	HTMLBody        string
	AttachmentCount int
	ReceivedAt      time.Time
}

// Parse turns a raw fetched message into a ParsedEmail. The MessageID field
// is left empty when the header is missing; callers synthesize a fallback
// identity in that case.
func Parse(msg *imap.Message) (*ParsedEmail, error) {
	section := &imap.BodySectionName{Peek: true}
	r := msg.GetBody(section)
	if r == nil {
		return nil, fmt.Errorf("message %d has no body section", msg.Uid)
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %d: %w", msg.Uid, err)
	}

	email := &ParsedEmail{
		UID:        msg.Uid,
		ReceivedAt: msg.InternalDate,
	}

	header := mr.Header

	if id, err := header.MessageID(); err == nil {
		email.MessageID = id
	}

	email.Subject, _ = header.Subject()
	email.From = formatAddressHeader(header, "From")
	email.To = formatAddressHeader(header, "To")

	if date, err := header.Date(); err == nil && !date.IsZero() {
		email.ReceivedAt = date
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			// A broken part should not discard what was already parsed.
			break
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, err := h.ContentType()
			if err != nil {
				continue
			}
			body, err := io.ReadAll(p.Body)
			if err != nil {
				continue
			}
			switch contentType {
			case "text/plain":
				if email.TextBody == "" {
					email.TextBody = string(body)
				}
			case "text/html":
				if email.HTMLBody == "" {
					email.HTMLBody = string(body)
				}
			}
		case *mail.AttachmentHeader:
			email.AttachmentCount++
		}
	}

	return email, nil
}

// formatAddressHeader renders an address header as a display string,
// preferring "Name <addr>" and falling back to the raw header value when
// the list cannot be parsed.
func formatAddressHeader(header mail.Header, key string) string {
	list, err := header.AddressList(key)
	if err != nil || len(list) == 0 {
		return header.Get(key)
	}

	parts := make([]string, 0, len(list))
	for _, addr := range list {
		if addr.Name != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", addr.Name, addr.Address))
		} else {
			parts = append(parts, addr.Address)
		}
	}
	return strings.Join(parts, ", ")
}
