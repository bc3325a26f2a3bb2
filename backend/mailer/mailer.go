// Package mailer sends transactional mail. Production delivery goes
// through SendGrid; without an API key a console writer is used so local
// setups still surface reset links.
package mailer

import (
	"log"
)

type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Service delivers messages. Implementations must not block the request
// path on delivery failures; errors are for the caller to log.
type Service interface {
	Send(msg Message) error
}

// NewService picks SendGrid when a key is configured, the console
// fallback otherwise.
func NewService(sendgridKey, from string, logger *log.Logger) Service {
	if sendgridKey != "" {
		return &sendgridService{key: sendgridKey, from: from}
	}
	return &consoleService{logger: logger}
}

type consoleService struct {
	logger *log.Logger
}

func (s *consoleService) Send(msg Message) error {
	s.logger.Printf("mail to=%s subject=%q\n%s", msg.To, msg.Subject, msg.TextBody)
	return nil
}
