package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/gilsentrycs/monitor-flights/config"
	"github.com/gilsentrycs/monitor-flights/report"
)

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer e-mails scan reports
type Mailer struct {
	config config.EmailConfig
	sender Sender
}

// NewMailer creates a mailer that dials the configured SMTP server.
// Port 465 uses implicit TLS.
func NewMailer(cfg config.EmailConfig) *Mailer {
	return &Mailer{
		config: cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// NewMailerWithSender is NewMailer with an explicit transport
func NewMailerWithSender(cfg config.EmailConfig, sender Sender) *Mailer {
	return &Mailer{config: cfg, sender: sender}
}

// Enabled reports whether reports should be e-mailed
func (m *Mailer) Enabled() bool {
	return m.config.Enabled
}

// Compose builds the report message: HTML body plus the raw report as a JSON attachment.
func (m *Mailer) Compose(rep report.SavedReport) (*gomail.Message, error) {
	if len(m.config.To) == 0 {
		return nil, errors.New("no e-mail recipients configured")
	}

	body, err := report.RenderHTML(rep)
	if err != nil {
		return nil, err
	}
	raw, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report attachment: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.Username)
	msg.SetHeader("To", m.config.To...)
	msg.SetHeader("Subject", report.Subject(rep))
	msg.SetBody("text/html", body)

	name := fmt.Sprintf("flight_data_%s.json", rep.SearchMetadata.SearchDate.Format("20060102_1504"))
	msg.Attach(name,
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(raw)
			return err
		}),
		gomail.SetHeader(map[string][]string{"Content-Type": {"application/json"}}),
	)
	return msg, nil
}

// SendReport e-mails the report. It is a no-op when e-mail is disabled.
func (m *Mailer) SendReport(rep report.SavedReport) error {
	if !m.config.Enabled {
		return nil
	}
	msg, err := m.Compose(rep)
	if err != nil {
		return err
	}
	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send report e-mail: %w", err)
	}
	return nil
}
