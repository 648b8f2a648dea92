package schedule

import (
	"strings"
	"testing"
	"time"

	"parish_server/config"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(config.ScheduleConfig{Timezone: "Europe/Rome"})
}

func TestEasterSunday(t *testing.T) {
	tests := []struct {
		year      int
		wantMonth time.Month
		wantDay   int
	}{
		{2024, time.March, 31},
		{2025, time.April, 20},
		{2026, time.April, 5},
		{2027, time.March, 28},
		{2030, time.April, 21},
	}

	for _, tt := range tests {
		got := EasterSunday(tt.year)
		if got.Month() != tt.wantMonth || got.Day() != tt.wantDay {
			t.Errorf("EasterSunday(%d) = %s, want %s %d", tt.year, got.Format("Jan 2"), tt.wantMonth, tt.wantDay)
		}
	}
}

func TestIsSuspendedAt(t *testing.T) {
	s := newTestService(t)
	rome, _ := time.LoadLocation("Europe/Rome")

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"monday morning office hours", time.Date(2026, 3, 2, 10, 0, 0, 0, rome), true},
		{"monday late evening", time.Date(2026, 3, 2, 21, 0, 0, 0, rome), false},
		{"tuesday afternoon after close", time.Date(2026, 3, 3, 15, 0, 0, 0, rome), false},
		{"wednesday inside window", time.Date(2026, 3, 4, 16, 59, 0, 0, rome), true},
		{"saturday never staffed", time.Date(2026, 3, 7, 10, 0, 0, 0, rome), false},
		{"sunday never staffed", time.Date(2026, 3, 8, 10, 0, 0, 0, rome), false},
		{"christmas holidays override weekday window", time.Date(2026, 12, 28, 10, 0, 0, 0, rome), false},
		{"january 6 still in closure period", time.Date(2026, 1, 6, 10, 0, 0, 0, rome), false},
		{"august closure", time.Date(2026, 8, 17, 10, 0, 0, 0, rome), false},
		{"national holiday overrides window", time.Date(2026, 5, 1, 10, 0, 0, 0, rome), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsSuspendedAt(tt.at); got != tt.want {
				t.Errorf("IsSuspendedAt(%s) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestSeason(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		date string
		want string
	}{
		{"2026-06-28", "invernale"},
		{"2026-06-29", "estivo"},
		{"2026-08-30", "estivo"},
		{"2026-08-31", "invernale"},
		{"2026-12-25", "invernale"},
	}

	for _, tt := range tests {
		at, err := time.Parse("2006-01-02", tt.date)
		if err != nil {
			t.Fatal(err)
		}
		if got := s.Season(at); got != tt.want {
			t.Errorf("Season(%s) = %q, want %q", tt.date, got, tt.want)
		}
	}
}

func TestSpecialGreeting(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name string
		date time.Time
		lang string
		want string
	}{
		{"christmas italian", time.Date(2026, 12, 25, 10, 0, 0, 0, time.UTC), "it", "Buon Natale!"},
		{"christmas english", time.Date(2026, 12, 25, 10, 0, 0, 0, time.UTC), "en", "Merry Christmas!"},
		{"easter sunday 2026", time.Date(2026, 4, 5, 10, 0, 0, 0, time.UTC), "it", "Buona Pasqua!"},
		{"easter octave", time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC), "it", "Buona Pasqua!"},
		{"pentecost 2026", time.Date(2026, 5, 24, 10, 0, 0, 0, time.UTC), "it", "Buona Pentecoste!"},
		{"ordinary day", time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), "it", ""},
		{"holy family sunday 2027", time.Date(2027, 12, 26, 10, 0, 0, 0, time.UTC), "it", "Buona Festa della Sacra Famiglia."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SpecialGreeting(tt.date, tt.lang); got != tt.want {
				t.Errorf("SpecialGreeting(%s, %s) = %q, want %q", tt.date.Format("2006-01-02"), tt.lang, got, tt.want)
			}
		})
	}
}

func TestGreetingFor(t *testing.T) {
	s := newTestService(t)
	rome, _ := time.LoadLocation("Europe/Rome")

	tests := []struct {
		name        string
		at          time.Time
		lang        string
		sender      string
		wantOpening string
		wantClosing string
	}{
		{"weekday morning italian", time.Date(2026, 3, 3, 9, 0, 0, 0, rome), "it", "Mario", "Buongiorno.", "Cordiali saluti,"},
		{"weekday afternoon italian", time.Date(2026, 3, 3, 15, 0, 0, 0, rome), "it", "Mario", "Buon pomeriggio.", "Cordiali saluti,"},
		{"weekday evening english", time.Date(2026, 3, 3, 20, 0, 0, 0, rome), "en", "John", "Good evening.", "Kind regards,"},
		{"night falls back to personal address", time.Date(2026, 3, 3, 2, 0, 0, 0, rome), "it", "Mario", "Gentile Mario,", "Cordiali saluti,"},
		{"sunday italian", time.Date(2026, 3, 8, 10, 0, 0, 0, rome), "it", "Mario", "Buona domenica.", "Cordiali saluti,"},
		{"feast beats time of day", time.Date(2026, 12, 25, 9, 0, 0, 0, rome), "es", "Ana", "¡Feliz Navidad!", "Saludos cordiales,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.GreetingFor(tt.at, tt.lang, tt.sender)
			if got.Opening != tt.wantOpening {
				t.Errorf("opening = %q, want %q", got.Opening, tt.wantOpening)
			}
			if got.Closing != tt.wantClosing {
				t.Errorf("closing = %q, want %q", got.Closing, tt.wantClosing)
			}
		})
	}
}

func TestDynamicContextMentionsDates(t *testing.T) {
	s := newTestService(t)
	rome, _ := time.LoadLocation("Europe/Rome")
	got := s.DynamicContext(time.Date(2026, 7, 10, 10, 0, 0, 0, rome))

	for _, want := range []string{"10/07/2026", "11/07/2026", "12/07/2026", "estivo", "venerdì"} {
		if !strings.Contains(got, want) {
			t.Errorf("DynamicContext missing %q in:\n%s", want, got)
		}
	}
}
