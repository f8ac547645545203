package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/domodwyer/mailyak/v3"

	"github.com/angelmondragon/ticketing-backend/pkg/config"
)

// Attachment is a file carried by a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is a single outbound email.
type Message struct {
	To          []string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers mail through an SMTP relay using mailyak.
type SMTPSender struct {
	cfg  config.SMTPConfig
	auth smtp.Auth
}

func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.FromAddress) == "" {
		return nil, errors.New("smtp from address is required")
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{cfg: cfg, auth: auth}, nil
}

// Send builds the MIME message and hands it to the relay. The SMTP exchange is
// not context aware; cancellation is only checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mail, err := s.build(msg)
	if err != nil {
		return err
	}
	if err := mail.Send(); err != nil {
		return fmt.Errorf("sending email %q: %w", msg.Subject, err)
	}
	return nil
}

func (s *SMTPSender) build(msg Message) (*mailyak.MailYak, error) {
	if len(msg.To) == 0 {
		return nil, errors.New("email recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return nil, errors.New("email subject is required")
	}

	mail := mailyak.New(s.cfg.Addr(), s.auth)
	mail.To(msg.To...)
	mail.From(s.cfg.FromAddress)
	mail.FromName(s.cfg.FromName)
	mail.Subject(msg.Subject)
	if msg.HTML != "" {
		mail.HTML().Set(msg.HTML)
	}
	if msg.Text != "" {
		mail.Plain().Set(msg.Text)
	}
	for _, att := range msg.Attachments {
		if att.ContentType != "" {
			mail.AttachWithMimeType(att.Name, bytes.NewReader(att.Data), att.ContentType)
			continue
		}
		mail.Attach(att.Name, bytes.NewReader(att.Data))
	}
	return mail, nil
}
