package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/ecopanier/backend/internal/config"
	"github.com/ecopanier/backend/pkg/logger"
)

// EmailService sends transactional mail over the configured SMTP relay.
// The email_notifications_enabled platform setting gates all sending; the
// SMTP config only says where to send.
type EmailService struct {
	smtp  config.SMTPConfig
	cache *SettingsCache
}

func NewEmailService(smtp config.SMTPConfig, cache *SettingsCache) *EmailService {
	return &EmailService{smtp: smtp, cache: cache}
}

// SettingChange describes one modified setting for notification mail.
type SettingChange struct {
	Key      string `json:"key"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// SendSettingsChangedNotification mails the platform contact address about
// settings changed by the named actor. Silently does nothing when email
// notifications are disabled or no SMTP host is configured.
func (s *EmailService) SendSettingsChangedNotification(actor string, changes []SettingChange) error {
	settings := s.cache.Current()
	if !AreNotificationsEnabled(ChannelEmail, settings) || s.smtp.Host == "" {
		return nil
	}
	if len(changes) == 0 {
		return nil
	}

	subject := fmt.Sprintf("[%s] Platform settings updated", settings.PlatformName)
	body := s.buildSettingsChangedBody(settings.PlatformName, actor, changes)

	return s.sendEmail([]string{settings.PlatformEmail}, subject, body)
}

func (s *EmailService) buildSettingsChangedBody(platformName, actor string, changes []SettingChange) string {
	var sb strings.Builder

	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString("<h2>Platform settings updated</h2>")
	sb.WriteString(fmt.Sprintf("<p>Changed by <strong>%s</strong> on %s.</p>", actor, time.Now().Format("2006-01-02 15:04")))

	sb.WriteString("<table style=\"border-collapse: collapse; margin-bottom: 20px;\">")
	sb.WriteString("<tr><th style=\"padding: 8px; border: 1px solid #ddd;\">Setting</th><th style=\"padding: 8px; border: 1px solid #ddd;\">Old value</th><th style=\"padding: 8px; border: 1px solid #ddd;\">New value</th></tr>")
	for _, c := range changes {
		sb.WriteString(fmt.Sprintf("<tr><td style=\"padding: 8px; border: 1px solid #ddd; font-weight: bold;\">%s</td><td style=\"padding: 8px; border: 1px solid #ddd;\">%s</td><td style=\"padding: 8px; border: 1px solid #ddd;\">%s</td></tr>", c.Key, c.OldValue, c.NewValue))
	}
	sb.WriteString("</table>")

	sb.WriteString(fmt.Sprintf("<hr><p style=\"color: #888; font-size: 12px;\">%s</p>", platformName))
	sb.WriteString("</body></html>")

	return sb.String()
}

func (s *EmailService) sendEmail(to []string, subject, body string) error {
	from := s.smtp.From
	if from == "" {
		from = s.smtp.Username
	}

	headers := make(map[string]string)
	headers["From"] = from
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.smtp.Host, s.smtp.Port)

	var auth smtp.Auth
	if s.smtp.Username != "" && s.smtp.Password != "" {
		auth = smtp.PlainAuth("", s.smtp.Username, s.smtp.Password, s.smtp.Host)
	}

	var err error
	if s.smtp.UseTLS {
		err = s.sendEmailTLS(addr, auth, from, to, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, to, []byte(message.String()))
	}

	if err != nil {
		logger.Infof("[Email] Failed to send email: %v", err)
		return err
	}

	logger.Infof("[Email] Sent notification to %v", to)
	return nil
}

func (s *EmailService) sendEmailTLS(addr string, auth smtp.Auth, from string, to []string, message string) error {
	tlsConfig := &tls.Config{
		ServerName: s.smtp.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.smtp.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}

	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err = w.Write([]byte(message)); err != nil {
		return err
	}

	return w.Close()
}
