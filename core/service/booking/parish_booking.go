// Package booking tracks registrations for capacity-limited events
// announced in the knowledge base.
package booking

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"parish_server/core/domain"
	"parish_server/core/port/out"
	"parish_server/pkg/logger"
)

// LimitedEvent is an event announced with a seat cap.
type LimitedEvent struct {
	Name     string
	MaxSeats int
}

const (
	StatusConfirmed = "Confermato"
	StatusCancelled = "Cancellato"
	StatusFull      = "Completo"
	StatusDuplicate = "Duplicato"
)

var (
	seatCapRe   = regexp.MustCompile(`(?i)(?:posti limitati[.:]\s*max:\s*(\d+)|max\s*posti:\s*(\d+))`)
	markupRe    = regexp.MustCompile(`[*_#\[\]()>]`)
	numericDate = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})(?:[/.-](\d{2,4}))?\b`)
	textualDate = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(gennaio|febbraio|marzo|aprile|maggio|giugno|luglio|agosto|settembre|ottobre|novembre|dicembre)(?:\s+(\d{4}))?\b`)
)

var monthNumbers = map[string]int{
	"gennaio": 1, "febbraio": 2, "marzo": 3, "aprile": 4, "maggio": 5, "giugno": 6,
	"luglio": 7, "agosto": 8, "settembre": 9, "ottobre": 10, "novembre": 11, "dicembre": 12,
}

// DetectLimitedEvents scans the knowledge text for seat-capped events.
// Sections are separated by blank lines; the section's first line is the
// event name.
func DetectLimitedEvents(kbText string) []LimitedEvent {
	var events []LimitedEvent
	for _, section := range strings.Split(kbText, "\n\n") {
		m := seatCapRe.FindStringSubmatch(section)
		if m == nil {
			continue
		}
		capStr := m[1]
		if capStr == "" {
			capStr = m[2]
		}
		max, err := strconv.Atoi(capStr)
		if err != nil || max <= 0 {
			continue
		}
		events = append(events, LimitedEvent{Name: eventName(section), MaxSeats: max})
	}
	return events
}

// eventName picks the first meaningful line of the section, skipping
// separators and the sheet metadata prefixes.
func eventName(section string) string {
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "---") ||
			strings.HasPrefix(line, "Categoria:") || strings.HasPrefix(line, "Argomento:") ||
			strings.HasPrefix(line, "Dettagli:") {
			continue
		}
		line = markupRe.ReplaceAllString(line, "")
		line = strings.Trim(strings.TrimSpace(line), ".,;:-")
		if line == "" {
			continue
		}
		if len(line) > 100 {
			line = line[:100]
		}
		return line
	}
	return "Evento"
}

// ExtractRequestedDate pulls a date out of the message text. A date
// without a year rolls into next year when it already passed.
func ExtractRequestedDate(text string, now time.Time) string {
	if m := textualDate.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := monthNumbers[strings.ToLower(m[2])]
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		} else if month < int(now.Month()) || (month == int(now.Month()) && day < now.Day()) {
			year++
		}
		return fmt.Sprintf("%02d/%02d/%d", day, month, year)
	}

	if m := numericDate.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return ""
		}
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		} else if month < int(now.Month()) || (month == int(now.Month()) && day < now.Day()) {
			year++
		}
		return fmt.Sprintf("%02d/%02d/%d", day, month, year)
	}
	return ""
}

type Service struct {
	ledger out.BookingLedger
	nowFn  func() time.Time
	log    *logger.Logger
}

func NewService(ledger out.BookingLedger) *Service {
	return &Service{
		ledger: ledger,
		nowFn:  time.Now,
		log:    logger.WithField("component", "booking"),
	}
}

// WithClock overrides the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.nowFn = now
	return s
}

// RequestBooking registers one seat for the sender. Duplicates update the
// existing row; a full event books nothing.
func (s *Service) RequestBooking(ctx context.Context, event LimitedEvent, email, name, requestedDate string) (string, error) {
	if row, err := s.ledger.FindBooking(ctx, event.Name, email); err != nil {
		return "", err
	} else if row > 0 {
		b := domain.EventBooking{
			EventName:     event.Name,
			Email:         email,
			Name:          name,
			RequestedDate: requestedDate,
			Status:        StatusConfirmed,
			Note:          "Richiesta duplicata - aggiornato " + s.nowFn().Format("02/01/2006 15:04"),
		}
		if err := s.ledger.UpdateBooking(ctx, row, b); err != nil {
			return "", err
		}
		return StatusDuplicate, nil
	}

	confirmed, err := s.ledger.ConfirmedCount(ctx, event.Name)
	if err != nil {
		return "", err
	}
	if confirmed >= event.MaxSeats {
		return StatusFull, nil
	}

	b := domain.EventBooking{
		EventName:     event.Name,
		Email:         email,
		Name:          name,
		RequestedDate: requestedDate,
		Status:        StatusConfirmed,
		Note:          fmt.Sprintf("Posto %d/%d", confirmed+1, event.MaxSeats),
	}
	if err := s.ledger.AppendBooking(ctx, b); err != nil {
		return "", err
	}
	return StatusConfirmed, nil
}

// DayBeforeRecap builds the staff recap for tomorrow's confirmed
// bookings, grouped by event. Empty string when nothing is booked.
func (s *Service) DayBeforeRecap(ctx context.Context) (string, error) {
	tomorrow := s.nowFn().AddDate(0, 0, 1).Format("02/01/2006")
	bookings, err := s.ledger.ListConfirmed(ctx, tomorrow)
	if err != nil {
		return "", err
	}
	if len(bookings) == 0 {
		return "", nil
	}

	byEvent := map[string][]domain.EventBooking{}
	var order []string
	for _, b := range bookings {
		if _, seen := byEvent[b.EventName]; !seen {
			order = append(order, b.EventName)
		}
		byEvent[b.EventName] = append(byEvent[b.EventName], b)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Prenotazioni confermate per domani %s:\n", tomorrow)
	for _, event := range order {
		fmt.Fprintf(&sb, "\n%s (%d iscritti):\n", event, len(byEvent[event]))
		for _, b := range byEvent[event] {
			name := b.Name
			if name == "" {
				name = b.Email
			}
			fmt.Fprintf(&sb, "- %s (%s)\n", name, b.Email)
		}
	}
	return sb.String(), nil
}

// CancelBooking marks an existing booking as cancelled. Cancelling an
// unknown booking is a no-op.
func (s *Service) CancelBooking(ctx context.Context, eventName, email string) error {
	row, err := s.ledger.FindBooking(ctx, eventName, email)
	if err != nil {
		return err
	}
	if row == 0 {
		return nil
	}
	return s.ledger.UpdateBooking(ctx, row, domain.EventBooking{
		EventName: eventName,
		Email:     email,
		Status:    StatusCancelled,
		Note:      "Cancellato " + s.nowFn().Format("02/01/2006 15:04"),
	})
}
