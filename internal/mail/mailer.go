package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	gomail "github.com/wneessen/go-mail"

	"github.com/anoixa/photo-album/config"
)

// Message 一封待发送的邮件
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends a single message. Implementations do not retry.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer 基于 go-mail 的 SMTP 发送器
type SMTPMailer struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	senderName string
	timeout    time.Duration
}

// NewMailer returns an SMTP mailer when mail is configured and a LogMailer
// otherwise.
func NewMailer(cfg *config.Config) Mailer {
	if !cfg.MailEnabled() {
		logrus.Warn("Mail is not configured, outgoing messages will only be logged")
		return LogMailer{}
	}
	return &SMTPMailer{
		host:       cfg.MailHost,
		port:       cfg.MailPort,
		username:   cfg.MailUsername,
		password:   cfg.MailPassword,
		from:       cfg.MailFrom,
		senderName: cfg.MailSenderName,
		timeout:    15 * time.Second,
	}
}

func (m *SMTPMailer) buildMessage(msg Message) (*gomail.Msg, error) {
	out := gomail.NewMsg()

	var err error
	if m.senderName != "" {
		err = out.FromFormat(m.senderName, m.from)
	} else {
		err = out.From(m.from)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		out.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	return out, nil
}

// Send 通过 SMTP 发送邮件
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out, err := m.buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(m.host,
		gomail.WithPort(m.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.username),
		gomail.WithPassword(m.password),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(m.timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

// Send 仅记录日志
func (LogMailer) Send(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Mail delivery disabled, message dropped")
	logrus.Debug(msg.Text)
	return nil
}
