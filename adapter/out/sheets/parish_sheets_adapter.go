// Package sheets implements the knowledge source and the booking ledger
// on the Google Sheets API. The parish staff edit the spreadsheet
// directly, so parsing is deliberately forgiving.
package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"parish_server/config"
	"parish_server/core/domain"
	"parish_server/core/port/out"
	"parish_server/pkg/apperr"
	"parish_server/pkg/logger"
)

// layer categories route a row into one of the instruction blocks
// instead of the regular entry list.
const (
	layerCoreLite = "ai_core_lite"
	layerCore     = "ai_core"
	layerDoctrine = "dottrina"
)

// Adapter reads the instruction sheet and keeps bookings on a separate
// tab of the same spreadsheet.
type Adapter struct {
	svc *sheets.Service
	cfg config.KnowledgeConfig
	log *logger.Logger
}

var _ out.KnowledgeSource = (*Adapter)(nil)
var _ out.BookingLedger = (*Adapter)(nil)

func New(ctx context.Context, cfg config.KnowledgeConfig, credentialsFile string) (*Adapter, error) {
	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, apperr.ConfigError(fmt.Sprintf("cannot read credentials file %s", credentialsFile)).WithError(err)
	}
	jwtCfg, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, apperr.ConfigError("invalid service account credentials").WithError(err)
	}
	svc, err := sheets.NewService(ctx, option.WithTokenSource(jwtCfg.TokenSource(ctx)))
	if err != nil {
		return nil, apperr.ProviderError("sheets", err)
	}
	return &Adapter{svc: svc, cfg: cfg, log: logger.WithField("component", "sheets")}, nil
}

// LoadKnowledgeBase reads the instruction rows, splits out the ignore
// lists and the layered instruction blocks, then loads the replacement
// map from its own tab.
func (a *Adapter) LoadKnowledgeBase(ctx context.Context) (*domain.KnowledgeBase, error) {
	rows, err := a.readRange(ctx, a.cfg.SheetName+"!A:C")
	if err != nil {
		return nil, apperr.KnowledgeError(err)
	}

	kb := &domain.KnowledgeBase{
		Replacements: map[string]string{},
		LoadedAt:     time.Now(),
	}

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		category := cell(row, 0)
		topic := cell(row, 1)
		answer := cell(row, 2)
		if category == "" && topic == "" && answer == "" {
			continue
		}

		lowerCat := strings.ToLower(category)
		switch {
		case strings.Contains(lowerCat, "da non processare"), strings.Contains(lowerCat, "da ignorare"):
			for _, item := range strings.Split(answer, ",") {
				item = strings.TrimSpace(strings.ToLower(item))
				if item == "" {
					continue
				}
				if strings.Contains(item, "@") {
					kb.IgnoreDomains = append(kb.IgnoreDomains, strings.TrimPrefix(item, "@"))
				} else {
					kb.IgnoreKeywords = append(kb.IgnoreKeywords, item)
				}
			}
		case lowerCat == layerCoreLite:
			kb.CoreLite = appendBlock(kb.CoreLite, answer)
		case lowerCat == layerCore:
			kb.Core = appendBlock(kb.Core, answer)
		case lowerCat == layerDoctrine:
			kb.Doctrine = appendBlock(kb.Doctrine, answer)
		default:
			kb.Entries = append(kb.Entries, domain.KnowledgeEntry{
				Category: category,
				Topic:    topic,
				Answer:   answer,
			})
		}
	}

	if err := a.loadReplacements(ctx, kb); err != nil {
		// replacements are cosmetic, a missing tab never blocks the load
		a.log.WithError(err).Warn("replacements unavailable")
	}

	a.log.Infof("knowledge base loaded: %d entries, %d ignore keywords, %d ignore domains",
		len(kb.Entries), len(kb.IgnoreKeywords), len(kb.IgnoreDomains))
	return kb, nil
}

func (a *Adapter) loadReplacements(ctx context.Context, kb *domain.KnowledgeBase) error {
	rows, err := a.readRange(ctx, a.cfg.ReplacementsSheet+"!A:B")
	if err != nil {
		return err
	}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		from := cell(row, 0)
		to := cell(row, 1)
		if from != "" {
			kb.Replacements[from] = to
		}
	}
	return nil
}

// bookingColumns is the fixed header of the bookings tab:
// Evento, Email, Nome, Data Richiesta, Stato, Note.

// ConfirmedCount counts confirmed rows for one event.
func (a *Adapter) ConfirmedCount(ctx context.Context, eventName string) (int, error) {
	rows, err := a.readRange(ctx, a.cfg.BookingsSheet+"!A:F")
	if err != nil {
		return 0, apperr.KnowledgeError(err)
	}
	count := 0
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if strings.EqualFold(cell(row, 0), eventName) && strings.EqualFold(cell(row, 4), "Confermato") {
			count++
		}
	}
	return count, nil
}

// FindBooking returns the 1-based sheet row of an existing booking, or 0.
func (a *Adapter) FindBooking(ctx context.Context, eventName, email string) (int, error) {
	rows, err := a.readRange(ctx, a.cfg.BookingsSheet+"!A:F")
	if err != nil {
		return 0, apperr.KnowledgeError(err)
	}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if strings.EqualFold(cell(row, 0), eventName) && strings.EqualFold(cell(row, 1), email) {
			return i + 1, nil
		}
	}
	return 0, nil
}

func (a *Adapter) AppendBooking(ctx context.Context, b domain.EventBooking) error {
	values := &sheets.ValueRange{Values: [][]interface{}{bookingRow(b)}}
	_, err := a.svc.Spreadsheets.Values.
		Append(a.cfg.SpreadsheetID, a.cfg.BookingsSheet+"!A:F", values).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return apperr.KnowledgeError(err)
	}
	return nil
}

func (a *Adapter) UpdateBooking(ctx context.Context, rowIndex int, b domain.EventBooking) error {
	rangeRef := fmt.Sprintf("%s!A%d:F%d", a.cfg.BookingsSheet, rowIndex, rowIndex)
	values := &sheets.ValueRange{Values: [][]interface{}{bookingRow(b)}}
	_, err := a.svc.Spreadsheets.Values.
		Update(a.cfg.SpreadsheetID, rangeRef, values).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return apperr.KnowledgeError(err)
	}
	return nil
}

// ListConfirmed returns the confirmed bookings for one requested date.
func (a *Adapter) ListConfirmed(ctx context.Context, requestedDate string) ([]domain.EventBooking, error) {
	rows, err := a.readRange(ctx, a.cfg.BookingsSheet+"!A:F")
	if err != nil {
		return nil, apperr.KnowledgeError(err)
	}
	var bookings []domain.EventBooking
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if cell(row, 3) != requestedDate || !strings.EqualFold(cell(row, 4), "Confermato") {
			continue
		}
		bookings = append(bookings, domain.EventBooking{
			EventName:     cell(row, 0),
			Email:         cell(row, 1),
			Name:          cell(row, 2),
			RequestedDate: cell(row, 3),
			Status:        cell(row, 4),
			Note:          cell(row, 5),
		})
	}
	return bookings, nil
}

func bookingRow(b domain.EventBooking) []interface{} {
	return []interface{}{b.EventName, b.Email, b.Name, b.RequestedDate, b.Status, b.Note}
}

func (a *Adapter) readRange(ctx context.Context, rangeRef string) ([][]interface{}, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(a.cfg.SpreadsheetID, rangeRef).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rangeRef, err)
	}
	return resp.Values, nil
}

func cell(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	s, _ := row[i].(string)
	return strings.TrimSpace(s)
}

func appendBlock(existing, block string) string {
	if existing == "" {
		return block
	}
	return existing + "\n\n" + block
}
