package validate

import (
	"strings"
	"testing"

	"parish_server/config"
)

func testConfig() config.ValidationConfig {
	return config.ValidationConfig{
		MinValidScore:    0.6,
		StrictScore:      0.8,
		MinLength:        25,
		OptimalMinLength: 100,
		WarnMaxLength:    3000,
	}
}

const goodReply = "Buongiorno. La ringraziamo per il suo messaggio: la segreteria resta a disposizione " +
	"per ogni chiarimento sugli orari e sulle attività della comunità. " +
	"Cordiali saluti, Segreteria Parrocchia Sant'Eugenio"

func TestValidateAccepts(t *testing.T) {
	v := NewValidator(testConfig())

	res := v.Validate(goodReply, "it", "richiesta di informazioni sugli orari")
	if !res.IsValid {
		t.Fatalf("expected valid, got errors=%v warnings=%v score=%v", res.Errors, res.Warnings, res.Score)
	}
	if res.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", res.Score)
	}
}

func TestValidateRejects(t *testing.T) {
	v := NewValidator(testConfig())

	tests := []struct {
		name      string
		reply     string
		lang      string
		context   string
		wantValid bool
		wantZero  bool
	}{
		{
			name:      "too short",
			reply:     "Grazie.",
			lang:      "it",
			wantValid: false,
			wantZero:  true,
		},
		{
			name:      "forbidden hedge",
			reply:     strings.Replace(goodReply, "La ringraziamo per il suo messaggio", "Purtroppo non posso aiutarla", 1),
			lang:      "it",
			wantValid: false,
		},
		{
			name:      "placeholder",
			reply:     strings.Replace(goodReply, "orari", "orari XXX", 1),
			lang:      "it",
			wantValid: false,
			wantZero:  true,
		},
		{
			name:      "no reply marker leaked",
			reply:     "NO_REPLY " + goodReply,
			lang:      "it",
			wantValid: false,
			wantZero:  true,
		},
		{
			name:      "invented email address",
			reply:     strings.Replace(goodReply, "la segreteria", "scriva a info@altraparrocchia.example e la segreteria", 1),
			lang:      "it",
			context:   "vorrei informazioni",
			wantValid: false,
		},
		{
			name:      "invented phone number",
			reply:     strings.Replace(goodReply, "la segreteria", "chiami lo 06 8537 2200, la segreteria", 1),
			lang:      "it",
			context:   "vorrei informazioni",
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.reply, tt.lang, tt.context)
			if res.IsValid != tt.wantValid {
				t.Errorf("IsValid = %v, want %v (errors=%v score=%v)", res.IsValid, tt.wantValid, res.Errors, res.Score)
			}
			if tt.wantZero && res.Score != 0 {
				t.Errorf("score = %v, want 0", res.Score)
			}
			if len(res.Errors) == 0 {
				t.Error("expected at least one hard error")
			}
		})
	}
}

func TestValidateLanguageMismatch(t *testing.T) {
	v := NewValidator(testConfig())

	english := "Dear friend, thank you for writing to our parish. We would be glad to help you " +
		"and the church office remains available for any question you could have. " +
		"Kind regards, Segreteria Parrocchia Sant'Eugenio"

	res := v.Validate(english, "it", "")
	if res.IsValid {
		t.Fatal("expected language mismatch to invalidate the reply")
	}
	if res.Score > 0.35 {
		t.Errorf("score = %v, want heavy penalty", res.Score)
	}
}

func TestValidateHallucinatedTime(t *testing.T) {
	v := NewValidator(testConfig())

	withTime := strings.Replace(goodReply, "sugli orari", "sulla messa delle 18:30", 1)

	res := v.Validate(withTime, "it", "nessun orario nel contesto")
	if len(res.Warnings) == 0 || res.Score >= 1.0 {
		t.Errorf("expected invented time warning, got warnings=%v score=%v", res.Warnings, res.Score)
	}
	if !res.IsValid {
		t.Errorf("a single invented time should downgrade, not reject (errors=%v)", res.Errors)
	}

	res = v.Validate(withTime, "it", "la messa è alle 18.30 in chiesa")
	for _, w := range res.Warnings {
		if strings.Contains(w, "time") {
			t.Errorf("18.30 in context should cover 18:30 in reply, got %v", res.Warnings)
		}
	}
}

func TestStrictModeRaisesThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.StrictMode = true
	v := NewValidator(cfg)

	// short reply with signature: one 0.85 warning, no errors
	short := "La segreteria resta a disposizione. Cordiali saluti, Segreteria Parrocchia Sant'Eugenio"
	res := v.Validate(short, "it", "")
	if res.Score >= 1.0 {
		t.Fatalf("expected sub-optimal length penalty, score=%v", res.Score)
	}
	if !res.IsValid {
		t.Errorf("score %v should still clear the strict threshold", res.Score)
	}

	cfg.StrictScore = 0.9
	v = NewValidator(cfg)
	if res := v.Validate(short, "it", ""); res.IsValid {
		t.Errorf("score %v must not clear a 0.9 threshold", res.Score)
	}
}
