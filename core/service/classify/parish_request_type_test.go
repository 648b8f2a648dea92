package classify

import (
	"testing"

	"parish_server/core/domain"
)

func TestScoreRequestType(t *testing.T) {
	tests := []struct {
		name            string
		subject         string
		body            string
		wantType        domain.RequestType
		wantDiscernment bool
		wantDoctrine    bool
	}{
		{
			name:     "procedural question is technical",
			subject:  "Cresima",
			body:     "A che ora si può fare la cresima? Che documenti servono per l'iscrizione?",
			wantType: domain.RequestTechnical,
		},
		{
			name:            "personal distress is pastoral",
			subject:         "una domanda",
			body:            "Mi sento esclusa dalla comunità da quando sono divorziata, soffro molto.",
			wantType:        domain.RequestPastoral,
			wantDiscernment: true,
		},
		{
			name:            "procedural plus personal is mixed",
			subject:         "matrimonio",
			body:            "Sono divorziato e convivente: è possibile fare da padrino? Che documenti servono?",
			wantType:        domain.RequestMixed,
			wantDiscernment: true,
		},
		{
			name:     "neutral text defaults to technical",
			subject:  "saluti",
			body:     "vi scrivo per ringraziarvi",
			wantType: domain.RequestTechnical,
		},
		{
			name:            "doctrine request flags doctrine",
			subject:         "dottrina",
			body:            "Vorrei una spiegazione: perché la chiesa insegna questo? Cosa dice il catechismo?",
			wantType:        domain.RequestPastoral,
			wantDiscernment: true,
			wantDoctrine:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreRequestType(tt.subject, tt.body)
			if got.Type != tt.wantType {
				t.Errorf("Type = %q, want %q (t=%d p=%d d=%d)", got.Type, tt.wantType,
					got.TechnicalScore, got.PastoralScore, got.DoctrineScore)
			}
			if got.NeedsDiscernment != tt.wantDiscernment {
				t.Errorf("NeedsDiscernment = %v, want %v", got.NeedsDiscernment, tt.wantDiscernment)
			}
			if got.NeedsDoctrine != tt.wantDoctrine {
				t.Errorf("NeedsDoctrine = %v, want %v", got.NeedsDoctrine, tt.wantDoctrine)
			}
		})
	}
}

// The scorer is a pure function of its input.
func TestScoreRequestTypeDeterminism(t *testing.T) {
	subject, body := "matrimonio", "Sono separato, mi sento escluso: si può ricevere la comunione?"
	first := ScoreRequestType(subject, body)
	for i := 0; i < 5; i++ {
		if got := ScoreRequestType(subject, body); got != first {
			t.Fatalf("run %d: got %+v, want %+v", i, got, first)
		}
	}
}

// A non-technical verdict always needs discernment.
func TestDiscernmentCoversNonTechnical(t *testing.T) {
	bodies := []string{
		"Mi sento solo e ho paura, soffro dopo il lutto.",
		"Sono divorziata e risposata, è possibile fare la comunione? che documenti servono?",
		"A che ora sono gli orari delle messe?",
		"ciao",
	}
	for _, body := range bodies {
		got := ScoreRequestType("", body)
		if got.Type != domain.RequestTechnical && !got.NeedsDiscernment {
			t.Errorf("body %q: type %q without discernment", body, got.Type)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantLang string
		lowConf  bool
	}{
		{
			name:     "italian request",
			text:     "Gentile segreteria, vorrei sapere quando è possibile il battesimo, grazie per la disponibilità",
			wantLang: "it",
		},
		{
			name:     "english request",
			text:     "Dear parish, we are students and would be honored to visit the church, thank you for your time",
			wantLang: "en",
		},
		{
			name:     "spanish request",
			text:     "Somos un grupo de la parroquia, gracias por la información que nos puede dar este mes",
			wantLang: "es",
		},
		{
			name:     "too short falls back to italian",
			text:     "ok",
			wantLang: "it",
			lowConf:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, conf := DetectLanguage(tt.text)
			if lang != tt.wantLang {
				t.Errorf("lang = %q, want %q", lang, tt.wantLang)
			}
			if tt.lowConf && conf >= 0.8 {
				t.Errorf("conf = %v, want below 0.8 for fallback", conf)
			}
			if conf <= 0 || conf > 1 {
				t.Errorf("conf = %v out of range", conf)
			}
		})
	}
}
