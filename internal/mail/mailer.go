package mail

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer abstracts outbound delivery so the credential service can be tested
// without an SMTP connection.
type Mailer interface {
	SendLoginCode(toEmail, code string, isNewUser bool) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	AppName  string
	CodeExp  int // minutes
}

type SMTPMailer struct {
	config *SMTPConfig
}

func NewSMTPMailer(config *SMTPConfig) *SMTPMailer {
	return &SMTPMailer{config: config}
}

// send handles the actual SMTP handshake and delivery. Headers use CRLF per
// RFC 822, with a blank line separating headers from body.
func (m *SMTPMailer) send(toEmail, subject, body string) error {
	smtpAddr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)

	headers := []string{
		fmt.Sprintf("From: %s", m.config.User),
		fmt.Sprintf("To: %s", toEmail),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}

	message := strings.Join(headers, "\r\n")

	auth := smtp.PlainAuth("", m.config.User, m.config.Password, m.config.Host)
	return smtp.SendMail(smtpAddr, auth, m.config.User, []string{toEmail}, []byte(message))
}

// SendLoginCode delivers a one-time sign-in code. The copy differs between
// first-time sign-up and returning sign-in so the client can show matching
// messaging.
func (m *SMTPMailer) SendLoginCode(toEmail, code string, isNewUser bool) error {
	var subject, body string
	if isNewUser {
		subject = fmt.Sprintf("%s - Your Signup Verification Code", m.config.AppName)
		body = fmt.Sprintf(
			"Hello,\n\n"+
				"Welcome to %s! To finish creating your account, please use the verification code below:\n\n"+
				"Verification Code: %s\n\n"+
				"This code will expire in %d minutes.\n\n"+
				"Best regards,\nThe %s Team",
			m.config.AppName, code, m.config.CodeExp, m.config.AppName)
	} else {
		subject = fmt.Sprintf("%s - Your Login Verification Code", m.config.AppName)
		body = fmt.Sprintf(
			"Hello,\n\n"+
				"You requested a code to log in to %s. Please use the verification code below:\n\n"+
				"Login Code: %s\n\n"+
				"This code will expire in %d minutes. If you did not request this login, you can safely ignore this email.\n\n"+
				"Best regards,\nThe %s Team",
			m.config.AppName, code, m.config.CodeExp, m.config.AppName)
	}

	return m.send(toEmail, subject, body)
}
