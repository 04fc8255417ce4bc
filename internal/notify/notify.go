// Package notify delivers email on behalf of the marketplace core.
//
// The core never waits on mail for its own success: a Dispatcher sends in the
// background and tells the caller, after a short grace period, whether the
// message went out, failed, or is still on its way.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"

	"gopkg.in/gomail.v2"
)

// Message is one outgoing email. Text is optional when HTML is set and vice versa.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender hands a message to a mail transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers through an SMTP relay such as Gmail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   *mail.Address
}

func NewSMTPSender(host string, port int, user, password, from string) (*SMTPSender, error) {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("parse MAIL_FROM %q: %w", from, err)
	}
	return &SMTPSender{dialer: gomail.NewDialer(host, port, user, password), from: addr}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from.Address, s.from.Name)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Used when no SMTP
// relay is configured.
type LogSender struct {
	Log *slog.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Log.Info("mail not sent: smtp disabled", "to", msg.To, "subject", msg.Subject)
	return nil
}
