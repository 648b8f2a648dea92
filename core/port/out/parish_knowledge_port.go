package out

import (
	"context"

	"parish_server/core/domain"
)

// KnowledgeSource loads the instruction spreadsheet.
type KnowledgeSource interface {
	LoadKnowledgeBase(ctx context.Context) (*domain.KnowledgeBase, error)
}

// BookingLedger persists event registrations on the bookings sheet.
type BookingLedger interface {
	// ConfirmedCount returns how many confirmed rows exist for an event.
	ConfirmedCount(ctx context.Context, eventName string) (int, error)
	// FindBooking returns the row index (1-based) of an existing booking,
	// or 0 when absent.
	FindBooking(ctx context.Context, eventName, email string) (int, error)
	AppendBooking(ctx context.Context, b domain.EventBooking) error
	UpdateBooking(ctx context.Context, rowIndex int, b domain.EventBooking) error
	// ListConfirmed returns the confirmed bookings whose requested date
	// matches, in dd/mm/yyyy form.
	ListConfirmed(ctx context.Context, requestedDate string) ([]domain.EventBooking, error)
}
