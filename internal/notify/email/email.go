package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/eduquest/internal/config"
	"github.com/jon4hz/eduquest/internal/notify"
	mail "github.com/xhit/go-simple-mail/v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))

// Notifier sends notifications to the configured admin recipients.
type Notifier struct {
	config *config.EmailConfig
}

var _ notify.Notifier = (*Notifier)(nil)

// New creates a new email notifier.
func New(cfg *config.EmailConfig) *Notifier {
	return &Notifier{config: cfg}
}

type templateData struct {
	Title   string
	Body    string
	Link    string
	Tags    []string
	SentAt  time.Time
	AppName string
}

// Notify renders msg and mails it to every recipient.
func (n *Notifier) Notify(_ context.Context, msg notify.Message) error {
	if len(n.config.Recipients) == 0 {
		log.Debug("No email recipients configured, skipping notification")
		return nil
	}

	body, err := renderBody(msg, time.Now())
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}
	return n.send(fmt.Sprintf("[EduQuest] %s", msg.Title), body)
}

func renderBody(msg notify.Message, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "message.html", templateData{
		Title:   msg.Title,
		Body:    msg.Body,
		Link:    msg.Link,
		Tags:    msg.Tags,
		SentAt:  now,
		AppName: "EduQuest",
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (n *Notifier) send(subject, body string) error {
	server := mail.NewSMTPClient()
	server.Host = n.config.SMTPHost
	server.Port = n.config.SMTPPort
	server.Username = n.config.Username
	server.Password = n.config.Password

	switch {
	case n.config.UseSSL:
		server.Encryption = mail.EncryptionSSLTLS
	case n.config.UseTLS:
		server.Encryption = mail.EncryptionSTARTTLS
	default:
		server.Encryption = mail.EncryptionNone
	}

	if n.config.InsecureSkipVerify {
		server.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second

	smtpClient, err := server.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() {
		if closeErr := smtpClient.Close(); closeErr != nil {
			log.Warn("Failed to close SMTP client", "error", closeErr)
		}
	}()

	fromName := n.config.FromName
	if fromName == "" {
		fromName = "EduQuest"
	}

	email := mail.NewMSG()
	email.SetFrom(fmt.Sprintf("%s <%s>", fromName, n.config.FromEmail))
	email.AddTo(n.config.Recipients...)
	email.SetSubject(subject)
	email.SetBody(mail.TextHTML, body)
	if email.Error != nil {
		return fmt.Errorf("failed to build email: %w", email.Error)
	}

	if err := email.Send(smtpClient); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info("Email notification sent", "recipients", len(n.config.Recipients), "subject", subject)
	return nil
}
