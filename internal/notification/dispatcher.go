// Package notification emails generated invitation links to the customer.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"rabbit-moon/internal/config"
	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/models"

	"gopkg.in/mail.v2"
)

const subject = "Link Undangan Online Anda"

// Sender delivers composed messages. *mail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*mail.Message) error
}

type Dispatcher struct {
	sender Sender
	from   string
	logger *logger.Logger
}

// NewDispatcher builds an SMTP dispatcher. Without a host or credentials the
// dispatcher is unconfigured and every send reports false.
func NewDispatcher(cfg config.EmailConfig, log *logger.Logger) *Dispatcher {
	if cfg.Host == "" || cfg.Username == "" {
		log.Warn("EMAIL", "SMTP not configured, invitation emails are disabled")
		return &Dispatcher{logger: log}
	}

	dialer := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.Secure
	dialer.StartTLSPolicy = mail.OpportunisticStartTLS

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	log.Info("EMAIL", fmt.Sprintf("SMTP dispatcher ready (%s:%d)", cfg.Host, cfg.Port))
	return &Dispatcher{sender: dialer, from: from, logger: log}
}

func NewDispatcherWithSender(sender Sender, from string, log *logger.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, from: from, logger: log}
}

// SendInvitationLinks mails the guest/link table to the customer. It reports
// whether the message was handed to the SMTP server and never fails the
// caller.
func (d *Dispatcher) SendInvitationLinks(ctx context.Context, to string, links []models.GuestLink, templateName string) bool {
	if d == nil {
		return false
	}
	to = strings.TrimSpace(to)
	switch {
	case d.sender == nil:
		d.logger.Warn("EMAIL", "Email transport not configured")
		return false
	case to == "" || len(links) == 0:
		d.logger.Warn("EMAIL", "Missing email address or links")
		return false
	}
	if err := ctx.Err(); err != nil {
		return false
	}

	body, err := RenderLinksEmail(links, templateName)
	if err != nil {
		d.logger.Error("EMAIL", fmt.Sprintf("Render email for %s: %v", to, err))
		return false
	}

	m := mail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := d.sender.DialAndSend(m); err != nil {
		d.logger.Error("EMAIL", fmt.Sprintf("Send to %s failed: %v", to, err))
		return false
	}
	d.logger.Info("EMAIL", fmt.Sprintf("Sent %d invitation links to %s", len(links), to))
	return true
}

var linksEmail = template.Must(template.New("links").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #4a6ee0;">Link Undangan</h2>
  <p>Untuk Pengguna,</p>
  <p>Link undangan berdasarkan tamu:</p>
  <table style="width: 100%; border-collapse: collapse; margin-top: 15px; margin-bottom: 15px;">
    <thead>
      <tr style="background-color: #f2f2f2;">
        <th style="padding: 10px; border: 1px solid #ddd; text-align: left;">Guest Name</th>
        <th style="padding: 10px; border: 1px solid #ddd; text-align: left;">Invitation Link</th>
      </tr>
    </thead>
    <tbody>
{{- range .Links}}
      <tr>
        <td style="padding: 8px; border: 1px solid #ddd;">{{.Guest}}</td>
        <td style="padding: 8px; border: 1px solid #ddd;"><a href="{{.Link}}" target="_blank">{{.Link}}</a></td>
      </tr>
{{- end}}
    </tbody>
  </table>
  <p>Terima kasih telah menggunakan Pembuat Undangan Pernikahan <strong>{{.TemplateName}}</strong> template.</p>
  <p style="margin-top: 30px;">Semoga yang terbaik untuk hari istimewa Anda!</p>
  <p>Rabbit Moon</p>
</div>
`))

// RenderLinksEmail renders the HTML body of the links email.
func RenderLinksEmail(links []models.GuestLink, templateName string) (string, error) {
	if templateName == "" {
		templateName = "Selected"
	}
	var buf bytes.Buffer
	err := linksEmail.Execute(&buf, struct {
		Links        []models.GuestLink
		TemplateName string
	}{links, templateName})
	return buf.String(), err
}
