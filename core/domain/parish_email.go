// Package domain holds the entities shared across the processing pipeline.
package domain

import (
	"regexp"
	"strings"
)

// EmailMessage is a single inbound message as fetched from the mailbox.
type EmailMessage struct {
	ID          string
	ThreadID    string
	Subject     string
	From        string
	SenderName  string
	SenderEmail string
	Date        string
	MessageID   string
	Body        string
}

var (
	addrRe       = regexp.MustCompile(`<(.+?)>`)
	senderNameRe = regexp.MustCompile(`^"?(.+?)"?\s*<`)
)

// ParseSender fills SenderName and SenderEmail from the raw From header.
func (m *EmailMessage) ParseSender() {
	from := strings.TrimSpace(m.From)
	if match := addrRe.FindStringSubmatch(from); match != nil {
		m.SenderEmail = strings.ToLower(strings.TrimSpace(match[1]))
	} else {
		m.SenderEmail = strings.ToLower(from)
	}
	if match := senderNameRe.FindStringSubmatch(from); match != nil {
		m.SenderName = strings.TrimSpace(match[1])
	} else if at := strings.Index(m.SenderEmail, "@"); at > 0 {
		m.SenderName = m.SenderEmail[:at]
	} else {
		m.SenderName = "Utente"
	}
}

// IsReply reports whether the subject marks the message as part of an
// existing exchange.
func (m *EmailMessage) IsReply() bool {
	s := strings.ToLower(strings.TrimSpace(m.Subject))
	return strings.HasPrefix(s, "re:") || strings.HasPrefix(s, "r:")
}

// SenderDomain returns the part after '@', or "" when the address is
// malformed.
func (m *EmailMessage) SenderDomain() string {
	if at := strings.LastIndex(m.SenderEmail, "@"); at >= 0 {
		return m.SenderEmail[at+1:]
	}
	return ""
}

// ConversationTurn is one message of a threaded exchange, oldest first.
type ConversationTurn struct {
	FromSecretary bool
	SenderName    string
	Body          string
}
