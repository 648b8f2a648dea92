// Package out declares the outbound ports the core services depend on.
package out

import (
	"context"

	"parish_server/core/domain"
)

// MailProvider abstracts the mailbox the responder reads from and replies
// through.
type MailProvider interface {
	// FetchUnprocessed returns unread messages not yet carrying the
	// processed label, capped at max.
	FetchUnprocessed(ctx context.Context, max int) ([]domain.EmailMessage, error)
	// FetchThread returns the full conversation for a thread, oldest
	// first.
	FetchThread(ctx context.Context, threadID string) ([]domain.ConversationTurn, error)
	// SendReply sends a threaded reply with a plain-text and an HTML part.
	SendReply(ctx context.Context, original domain.EmailMessage, plainBody, htmlBody string) error
	// MarkProcessed applies the given label so the message is not fetched
	// again.
	MarkProcessed(ctx context.Context, messageID, label string) error
}
