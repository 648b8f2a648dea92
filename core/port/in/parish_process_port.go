// Package in declares the inbound use-case ports exposed to transports.
package in

import (
	"context"

	"parish_server/core/domain"
)

// ProcessUseCase is the batch entry point exposed over HTTP and to the
// worker loop.
type ProcessUseCase interface {
	// ProcessNewMessages runs one batch over the unprocessed mailbox
	// messages. Per-message failures are recorded in the summary and never
	// abort the batch.
	ProcessNewMessages(ctx context.Context) (*domain.RunSummary, error)
}

// PushNotification is the decoded Pub/Sub payload for a mailbox change.
type PushNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// NotificationUseCase handles mailbox push notifications.
type NotificationUseCase interface {
	// HandleNotification validates the notification and, when processing
	// is not suspended, triggers a batch run.
	HandleNotification(ctx context.Context, n PushNotification) (*domain.RunSummary, error)
}

// KnowledgeUseCase exposes cache control over the knowledge base.
type KnowledgeUseCase interface {
	InvalidateKnowledge(ctx context.Context) error
	ReloadKnowledge(ctx context.Context) error
}
