package email

import (
	"fmt"
	"log"
	"net/smtp"

	"pine/common"
)

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(cfg common.SMTPConfig) *EmailService {
	return &EmailService{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		password: cfg.Password,
		from:     cfg.From,
		send:     smtp.SendMail,
	}
}

// Enabled reports whether an SMTP host is configured.
func (e *EmailService) Enabled() bool {
	return e.host != ""
}

func (e *EmailService) SendOTPEmail(to, otp string) error {
	subject := "Your Pine verification code"
	body := fmt.Sprintf(`
Hello!

Your verification code is:

    %s

The code expires in 10 minutes. If you did not create a Pine account, you can
ignore this email.

---
Pine - your personal journal
`, otp)

	return e.deliver(to, subject, body)
}

func (e *EmailService) deliver(to, subject, body string) error {
	if !e.Enabled() {
		log.Printf("SMTP not configured, skipping email %q to %s", subject, to)
		return nil
	}

	message := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", e.from, to, subject, body)

	auth := smtp.PlainAuth("", e.user, e.password, e.host)
	addr := fmt.Sprintf("%s:%s", e.host, e.port)

	if err := e.send(addr, auth, e.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	return nil
}
