package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Message is a rendered email ready for delivery.
type Message struct {
	From    Recipient
	To      []Recipient
	Cc      []Recipient
	Bcc     []Recipient
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers a message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridMailer delivers through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
}

// NewSendGridMailer creates a mailer authenticated with apiKey.
func NewSendGridMailer(apiKey string) (*SendGridMailer, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is empty")
	}
	return &SendGridMailer{client: sendgrid.NewSendClient(apiKey)}, nil
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("no recipients")
	}

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(sgmail.NewEmail(msg.From.Name, msg.From.Email))
	v3.Subject = msg.Subject

	p := sgmail.NewPersonalization()
	p.AddTos(toSendGrid(msg.To)...)
	if len(msg.Cc) > 0 {
		p.AddCCs(toSendGrid(msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		p.AddBCCs(toSendGrid(msg.Bcc)...)
	}
	v3.AddPersonalizations(p)

	// SendGrid requires text/plain before text/html.
	if msg.Text != "" {
		v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	v3.AddContent(sgmail.NewContent("text/html", msg.HTML))

	resp, err := m.client.SendWithContext(ctx, v3)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}

func toSendGrid(rs []Recipient) []*sgmail.Email {
	out := make([]*sgmail.Email, 0, len(rs))
	for _, r := range rs {
		out = append(out, sgmail.NewEmail(r.Name, r.Email))
	}
	return out
}

// LogMailer only logs messages. It is used when no mail provider is configured.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	to := make([]string, 0, len(msg.To))
	for _, r := range msg.To {
		to = append(to, r.Email)
	}
	m.log.Info("email not delivered, no mail provider configured",
		zap.String("from", msg.From.Email),
		zap.Strings("to", to),
		zap.String("subject", msg.Subject),
	)
	return nil
}
