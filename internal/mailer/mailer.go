// Package mailer abstracts the outbound mail transport so the dispatch
// engine can be tested without an SMTP server.
package mailer

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Message is a fully-prepared email: recipient, subject, and HTML body.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers prepared messages. Send must respect ctx cancellation and
// return a definite success or failure; dispatch only mutates state after a
// confirmed success.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends messages through an SMTP relay.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// NewSMTPSender configures an SMTP client with PLAIN auth and opportunistic
// TLS.
func NewSMTPSender(host string, port int, username, password, from string) (*SMTPSender, error) {
	client, err := gomail.NewClient(host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(username),
		gomail.WithPassword(password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("configuring smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: from}, nil
}

// Send delivers a single message. The context bounds the whole dial-and-send
// exchange.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}
