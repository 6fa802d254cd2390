// Package mail delivers outbound email, currently only patient invoices.
package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer is the outbound email contract. Delivery failures are returned to
// the caller; there are no retries.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// NopMailer refuses every send. Wired when SMTP is not configured so that
// invoice actions fail with a clear message instead of silently dropping mail.
type NopMailer struct{}

func (NopMailer) Send(_ context.Context, to, _, _ string) error {
	return fmt.Errorf("mail delivery is not configured, cannot send to %s", to)
}
