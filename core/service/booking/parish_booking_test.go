package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"parish_server/core/domain"
)

func TestDetectLimitedEvents(t *testing.T) {
	kb := `--- Informazione ---
Categoria: Eventi
**Pellegrinaggio a Assisi**
Partenza in pullman. Posti limitati. max: 50

--- Informazione ---
Categoria: Orari
Le messe feriali sono al mattino.

--- Informazione ---
Cena di comunità
max posti: 120`

	events := DetectLimitedEvents(kb)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (%+v)", len(events), events)
	}
	if events[0].MaxSeats != 50 {
		t.Errorf("first event seats = %d, want 50", events[0].MaxSeats)
	}
	if events[0].Name != "Pellegrinaggio a Assisi" {
		t.Errorf("first event name = %q", events[0].Name)
	}
	if events[1].MaxSeats != 120 {
		t.Errorf("second event seats = %d, want 120", events[1].MaxSeats)
	}
}

func TestExtractRequestedDate(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		text string
		want string
	}{
		{"vorrei partecipare il 20 settembre", "20/09/2026"},
		{"vorrei partecipare il 10 marzo", "10/03/2027"},
		{"ci saremo il 03/10/2026", "03/10/2026"},
		{"ci saremo il 3-10", "03/10/2026"},
		{"ci saremo il 10-01", "10/01/2027"},
		{"il 5 maggio 2027 va bene", "05/05/2027"},
		{"nessuna data qui", ""},
	}

	for _, tt := range tests {
		if got := ExtractRequestedDate(tt.text, now); got != tt.want {
			t.Errorf("ExtractRequestedDate(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

type fakeLedger struct {
	bookings  []domain.EventBooking
	updates   map[int]domain.EventBooking
	confirmed int
	existing  int
}

func (f *fakeLedger) ConfirmedCount(context.Context, string) (int, error) { return f.confirmed, nil }
func (f *fakeLedger) FindBooking(context.Context, string, string) (int, error) {
	return f.existing, nil
}
func (f *fakeLedger) AppendBooking(_ context.Context, b domain.EventBooking) error {
	f.bookings = append(f.bookings, b)
	return nil
}
func (f *fakeLedger) UpdateBooking(_ context.Context, row int, b domain.EventBooking) error {
	if f.updates == nil {
		f.updates = make(map[int]domain.EventBooking)
	}
	f.updates[row] = b
	return nil
}
func (f *fakeLedger) ListConfirmed(_ context.Context, date string) ([]domain.EventBooking, error) {
	var out []domain.EventBooking
	for _, b := range f.bookings {
		if b.RequestedDate == date && b.Status == StatusConfirmed {
			out = append(out, b)
		}
	}
	return out, nil
}

func TestRequestBooking(t *testing.T) {
	ctx := context.Background()
	event := LimitedEvent{Name: "Pellegrinaggio a Assisi", MaxSeats: 50}

	t.Run("new booking confirmed", func(t *testing.T) {
		ledger := &fakeLedger{confirmed: 10}
		s := NewService(ledger)
		status, err := s.RequestBooking(ctx, event, "mario@example.com", "Mario", "20/09/2026")
		if err != nil || status != StatusConfirmed {
			t.Fatalf("status = %q err = %v", status, err)
		}
		if len(ledger.bookings) != 1 || ledger.bookings[0].Note != "Posto 11/50" {
			t.Errorf("booking row = %+v", ledger.bookings)
		}
	})

	t.Run("full event books nothing", func(t *testing.T) {
		ledger := &fakeLedger{confirmed: 50}
		s := NewService(ledger)
		status, err := s.RequestBooking(ctx, event, "mario@example.com", "Mario", "")
		if err != nil || status != StatusFull {
			t.Fatalf("status = %q err = %v", status, err)
		}
		if len(ledger.bookings) != 0 {
			t.Error("no row must be appended when the event is full")
		}
	})

	t.Run("duplicate updates the row", func(t *testing.T) {
		ledger := &fakeLedger{existing: 7}
		s := NewService(ledger)
		status, err := s.RequestBooking(ctx, event, "mario@example.com", "Mario", "")
		if err != nil || status != StatusDuplicate {
			t.Fatalf("status = %q err = %v", status, err)
		}
		if _, ok := ledger.updates[7]; !ok {
			t.Error("existing row must be updated")
		}
	})
}

func TestDayBeforeRecap(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 9, 19, 18, 0, 0, 0, time.UTC)

	ledger := &fakeLedger{bookings: []domain.EventBooking{
		{EventName: "Pellegrinaggio a Assisi", Email: "mario@example.com", Name: "Mario Rossi", RequestedDate: "20/09/2026", Status: StatusConfirmed},
		{EventName: "Pellegrinaggio a Assisi", Email: "anna@example.com", RequestedDate: "20/09/2026", Status: StatusConfirmed},
		{EventName: "Cena di comunità", Email: "luca@example.com", Name: "Luca", RequestedDate: "21/09/2026", Status: StatusConfirmed},
	}}
	s := NewService(ledger).WithClock(func() time.Time { return now })

	recap, err := s.DayBeforeRecap(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(recap, "domani 20/09/2026") {
		t.Errorf("recap must name tomorrow's date:\n%s", recap)
	}
	if !strings.Contains(recap, "Pellegrinaggio a Assisi (2 iscritti)") {
		t.Errorf("recap must group by event with counts:\n%s", recap)
	}
	if !strings.Contains(recap, "Mario Rossi (mario@example.com)") {
		t.Errorf("recap must list attendees:\n%s", recap)
	}
	if !strings.Contains(recap, "anna@example.com (anna@example.com)") {
		t.Errorf("recap must fall back to email when the name is missing:\n%s", recap)
	}
	if strings.Contains(recap, "Cena di comunità") {
		t.Errorf("recap must exclude other dates:\n%s", recap)
	}

	s = NewService(&fakeLedger{}).WithClock(func() time.Time { return now })
	recap, err = s.DayBeforeRecap(ctx)
	if err != nil || recap != "" {
		t.Errorf("empty day must produce an empty recap, got %q err %v", recap, err)
	}
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()

	ledger := &fakeLedger{existing: 3}
	s := NewService(ledger)
	if err := s.CancelBooking(ctx, "Cena di comunità", "mario@example.com"); err != nil {
		t.Fatal(err)
	}
	if b, ok := ledger.updates[3]; !ok || b.Status != StatusCancelled {
		t.Errorf("updates = %+v", ledger.updates)
	}

	ledger = &fakeLedger{}
	s = NewService(ledger)
	if err := s.CancelBooking(ctx, "Cena di comunità", "sconosciuto@example.com"); err != nil {
		t.Fatal(err)
	}
	if len(ledger.updates) != 0 {
		t.Error("cancelling an unknown booking must be a no-op")
	}
}
