// Package schedule decides when the responder is allowed to run and what
// greetings fit the liturgical calendar.
package schedule

import (
	"fmt"
	"time"

	"parish_server/config"
	"parish_server/pkg/logger"
)

// suspensionHours maps weekday to the staffed office windows. While the
// office is staffed the automatic responder stays silent.
var suspensionHours = map[time.Weekday][][2]int{
	time.Monday:    {{8, 20}},
	time.Tuesday:   {{8, 14}},
	time.Wednesday: {{8, 17}},
	time.Thursday:  {{8, 14}},
	time.Friday:    {{8, 17}},
}

// specialPeriods are month/day ranges during which the office is closed
// and the responder answers around the clock. The first range crosses the
// year boundary.
var specialPeriods = [][2][2]int{
	{{12, 24}, {1, 6}},
	{{8, 15}, {8, 30}},
}

var holidays = [][2]int{
	{4, 25}, {5, 1}, {8, 15}, {11, 1}, {12, 8},
}

// Greeting is the adaptive opening and closing of a reply.
type Greeting struct {
	Opening string
	Closing string
}

type Service struct {
	loc   *time.Location
	cfg   config.ScheduleConfig
	nowFn func() time.Time
	log   *logger.Logger
}

func NewService(cfg config.ScheduleConfig) *Service {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warnf("unknown timezone %q, falling back to UTC", cfg.Timezone)
		loc = time.UTC
	}
	return &Service{
		loc:   loc,
		cfg:   cfg,
		nowFn: time.Now,
		log:   logger.WithField("component", "schedule"),
	}
}

// WithClock overrides the time source for callers that need a fixed
// reference time.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.nowFn = now
	return s
}

// Now returns the current time in the parish timezone.
func (s *Service) Now() time.Time {
	return s.nowFn().In(s.loc)
}

// IsSuspended reports whether automatic processing must pause right now.
// Special periods and holidays override the weekly office windows.
func (s *Service) IsSuspended() bool {
	if s.cfg.SuspensionDisabled {
		return false
	}
	return s.IsSuspendedAt(s.Now())
}

func (s *Service) IsSuspendedAt(t time.Time) bool {
	t = t.In(s.loc)
	if s.InSpecialPeriod(t) || s.IsHoliday(t) {
		return false
	}
	windows, ok := suspensionHours[t.Weekday()]
	if !ok {
		return false
	}
	for _, w := range windows {
		if t.Hour() >= w[0] && t.Hour() < w[1] {
			return true
		}
	}
	return false
}

// InSpecialPeriod reports whether t falls in a closure period, handling
// the range that wraps over New Year.
func (s *Service) InSpecialPeriod(t time.Time) bool {
	m, d := int(t.Month()), t.Day()
	for _, p := range specialPeriods {
		sm, sd := p[0][0], p[0][1]
		em, ed := p[1][0], p[1][1]
		if sm > em || (sm == em && sd > ed) {
			// wraps the year boundary
			if afterOrOn(m, d, sm, sd) || beforeOrOn(m, d, em, ed) {
				return true
			}
			continue
		}
		if afterOrOn(m, d, sm, sd) && beforeOrOn(m, d, em, ed) {
			return true
		}
	}
	return false
}

func (s *Service) IsHoliday(t time.Time) bool {
	m, d := int(t.Month()), t.Day()
	for _, h := range holidays {
		if m == h[0] && d == h[1] {
			return true
		}
	}
	return false
}

func afterOrOn(m, d, refM, refD int) bool {
	return m > refM || (m == refM && d >= refD)
}

func beforeOrOn(m, d, refM, refD int) bool {
	return m < refM || (m == refM && d <= refD)
}

// Season returns "estivo" inside the summer schedule window (June 29 to
// August 30) and "invernale" otherwise.
func (s *Service) Season(t time.Time) string {
	m, d := int(t.Month()), t.Day()
	if afterOrOn(m, d, 6, 29) && beforeOrOn(m, d, 8, 30) {
		return "estivo"
	}
	return "invernale"
}

// EasterSunday computes Easter for a given year (Gregorian computus).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

var fixedGreetings = map[[2]int]string{
	{1, 1}:   "Buon Capodanno!",
	{1, 6}:   "Buona Epifania!",
	{8, 15}:  "Auguri per oggi!",
	{11, 1}:  "Buona festa di Ognissanti!",
	{12, 8}:  "Buona Immacolata!",
	{12, 25}: "Buon Natale!",
}

var greetingTranslations = map[string]map[string]string{
	"en": {
		"Buon Capodanno!":                   "Happy New Year!",
		"Buona Epifania!":                   "Happy Epiphany!",
		"Auguri per oggi!":                  "Best wishes for today!",
		"Buona festa di Ognissanti!":        "Happy All Saints' Day!",
		"Buona Immacolata!":                 "Happy feast of the Immaculate Conception!",
		"Buon Natale!":                      "Merry Christmas!",
		"Buona Pasqua!":                     "Happy Easter!",
		"Buona Pentecoste!":                 "Happy Pentecost!",
		"Buona Festa della Sacra Famiglia.": "Happy Feast of the Holy Family.",
	},
	"es": {
		"Buon Capodanno!":                   "¡Feliz Año Nuevo!",
		"Buona Epifania!":                   "¡Feliz Epifanía!",
		"Auguri per oggi!":                  "¡Felicidades por hoy!",
		"Buona festa di Ognissanti!":        "¡Feliz día de Todos los Santos!",
		"Buona Immacolata!":                 "¡Feliz Inmaculada!",
		"Buon Natale!":                      "¡Feliz Navidad!",
		"Buona Pasqua!":                     "¡Feliz Pascua!",
		"Buona Pentecoste!":                 "¡Feliz Pentecostés!",
		"Buona Festa della Sacra Famiglia.": "Feliz fiesta de la Sagrada Familia.",
	},
}

// SpecialGreeting returns the feast-day greeting for t, or "" on ordinary
// days. Movable feasts are derived from the Easter computus.
func (s *Service) SpecialGreeting(t time.Time, language string) string {
	g := s.specialGreetingIT(t)
	if g == "" {
		return ""
	}
	if tr, ok := greetingTranslations[language]; ok {
		if translated, ok := tr[g]; ok {
			return translated
		}
	}
	return g
}

func (s *Service) specialGreetingIT(t time.Time) string {
	if g, ok := fixedGreetings[[2]int{int(t.Month()), t.Day()}]; ok {
		return g
	}

	easter := EasterSunday(t.Year())
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	delta := int(day.Sub(easter).Hours() / 24)
	switch {
	case delta >= 0 && delta <= 7:
		return "Buona Pasqua!"
	case delta == 49:
		return "Buona Pentecoste!"
	case delta == 63:
		return "Auguri per oggi!"
	}

	// Feast of the Holy Family: the Sunday between Dec 26 and Dec 31.
	if t.Month() == time.December && t.Day() >= 26 && t.Day() <= 31 && t.Weekday() == time.Sunday {
		return "Buona Festa della Sacra Famiglia."
	}
	return ""
}

// GreetingFor builds the adaptive opening and closing for a reply in the
// given language. Feast days win over the time of day.
func (s *Service) GreetingFor(t time.Time, language, senderName string) Greeting {
	t = t.In(s.loc)
	special := s.SpecialGreeting(t, language)

	switch language {
	case "en":
		return greetingWithFallback(t, special, Greeting{Closing: "Kind regards,"},
			"Happy Sunday.", "Good morning.", "Good afternoon.", "Good evening.",
			fmt.Sprintf("Dear %s,", senderName))
	case "es":
		return greetingWithFallback(t, special, Greeting{Closing: "Saludos cordiales,"},
			"Feliz domingo.", "Buenos días.", "Buenas tardes.", "Buenas noches.",
			fmt.Sprintf("Estimado/a %s,", senderName))
	default:
		return greetingWithFallback(t, special, Greeting{Closing: "Cordiali saluti,"},
			"Buona domenica.", "Buongiorno.", "Buon pomeriggio.", "Buonasera.",
			fmt.Sprintf("Gentile %s,", senderName))
	}
}

func greetingWithFallback(t time.Time, special string, g Greeting, sunday, morning, afternoon, evening, fallback string) Greeting {
	switch {
	case special != "":
		g.Opening = special
	case t.Weekday() == time.Sunday:
		g.Opening = sunday
	case t.Hour() >= 6 && t.Hour() < 13:
		g.Opening = morning
	case t.Hour() >= 13 && t.Hour() < 19:
		g.Opening = afternoon
	case t.Hour() >= 19 && t.Hour() < 23:
		g.Opening = evening
	default:
		g.Opening = fallback
	}
	return g
}

// DynamicContext renders the date-aware block prepended to the knowledge
// base so the model can resolve "domani" and seasonal schedules.
func (s *Service) DynamicContext(t time.Time) string {
	t = t.In(s.loc)
	today := t.Format("02/01/2006")
	tomorrow := t.AddDate(0, 0, 1).Format("02/01/2006")
	dayAfter := t.AddDate(0, 0, 2).Format("02/01/2006")
	return fmt.Sprintf(
		"--- Informazioni Dinamiche Contestuali ---\n"+
			"Oggi è %s (%s).\n"+
			"Domani è %s.\n"+
			"Dopodomani è %s.\n"+
			"Orario attualmente in vigore: %s (estivo dal 29/06 al 30/08, invernale nel resto dell'anno).\n"+
			"--- Fine Informazioni Dinamiche ---",
		today, italianWeekday(t.Weekday()), tomorrow, dayAfter, s.Season(t))
}

func italianWeekday(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "lunedì"
	case time.Tuesday:
		return "martedì"
	case time.Wednesday:
		return "mercoledì"
	case time.Thursday:
		return "giovedì"
	case time.Friday:
		return "venerdì"
	case time.Saturday:
		return "sabato"
	default:
		return "domenica"
	}
}
