// Package filter implements the cheap pre-classification screens applied
// before any provider call.
package filter

import (
	"strings"

	"parish_server/core/domain"
)

// Decision explains why a message was screened out.
type Decision struct {
	Ignore bool
	Reason string
}

const (
	ReasonIgnoredSender  = "ignored_sender"
	ReasonIgnoredKeyword = "ignored_keyword"
	ReasonSelfSent       = "self_sent"
)

// Filter screens messages against sender and keyword blocklists. The
// static lists come from configuration, the dynamic ones from the
// knowledge base; both are merged at check time so a sheet edit takes
// effect on the next cache reload.
type Filter struct {
	monitoredEmail string
	blockedSenders []string
	blockedWords   []string
}

func New(monitoredEmail string, blockedSenders, blockedWords []string) *Filter {
	return &Filter{
		monitoredEmail: strings.ToLower(monitoredEmail),
		blockedSenders: lowerAll(blockedSenders),
		blockedWords:   lowerAll(blockedWords),
	}
}

// Check screens one message. kb may be nil when the knowledge base could
// not be loaded; the static lists still apply.
func (f *Filter) Check(msg *domain.EmailMessage, kb *domain.KnowledgeBase) Decision {
	if msg.SenderEmail == f.monitoredEmail {
		return Decision{Ignore: true, Reason: ReasonSelfSent}
	}

	senders := f.blockedSenders
	words := f.blockedWords
	if kb != nil {
		senders = append(append([]string{}, senders...), lowerAll(kb.IgnoreDomains)...)
		words = append(append([]string{}, words...), lowerAll(kb.IgnoreKeywords)...)
	}

	if matchSender(msg.SenderEmail, senders) {
		return Decision{Ignore: true, Reason: ReasonIgnoredSender}
	}

	haystack := strings.ToLower(msg.Subject + " " + msg.Body)
	for _, w := range words {
		if w != "" && strings.Contains(haystack, w) {
			return Decision{Ignore: true, Reason: ReasonIgnoredKeyword}
		}
	}
	return Decision{}
}

// matchSender treats entries containing '@' as exact addresses and the
// rest as domains, matching the domain itself and any subdomain.
func matchSender(email string, entries []string) bool {
	domain := ""
	if at := strings.LastIndex(email, "@"); at >= 0 {
		domain = email[at+1:]
	}
	for _, e := range entries {
		if e == "" {
			continue
		}
		if strings.Contains(e, "@") {
			if email == e {
				return true
			}
			continue
		}
		if domain == e || strings.HasSuffix(domain, "."+e) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
