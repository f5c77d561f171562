package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/ManuelReschke/PayFox/internal/pkg/env"
)

// SendMail sends an email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// Notifier sends subscription lifecycle notifications. Delivery is
// notify-and-forget: errors are logged inside SendMail and dropped here.
type Notifier struct{}

// NewNotifier creates a mail-backed notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Notify sends the template matching the given event to the user.
func (n *Notifier) Notify(email, event string) {
	if email == "" {
		return
	}

	var subject, body string
	switch event {
	case "subscription_cancelled":
		subject = "Your subscription has been cancelled"
		body = "<p>Your subscription was cancelled. You keep access until the end of the paid period.</p>"
	case "subscription_extended":
		subject = "Your subscription has been extended"
		body = "<p>Your subscription end date was extended. Thank you for staying with us!</p>"
	case "payment_verified":
		subject = "Payment received"
		body = "<p>We received and verified your payment. Your subscription is active.</p>"
	default:
		subject = "Subscription update"
		body = "<p>There was an update to your subscription.</p>"
	}

	go func() {
		_ = SendMail(email, subject, body)
	}()
}
