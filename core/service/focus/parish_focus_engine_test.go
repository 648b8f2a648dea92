package focus

import (
	"testing"

	"parish_server/core/domain"
)

func TestMentionsDatesAndTimes(t *testing.T) {
	tests := []struct {
		text      string
		wantDates bool
		wantTimes bool
	}{
		{"ci vediamo il 12/05", true, false},
		{"il 3-4-2026 alle 18:30", true, true},
		{"a settembre riprende il catechismo", true, false},
		{"la messa è alle ore 18", false, true},
		{"vorrei informazioni sul battesimo", false, false},
	}

	for _, tt := range tests {
		if got := MentionsDates(tt.text); got != tt.wantDates {
			t.Errorf("MentionsDates(%q) = %v, want %v", tt.text, got, tt.wantDates)
		}
		if got := MentionsTimes(tt.text); got != tt.wantTimes {
			t.Errorf("MentionsTimes(%q) = %v, want %v", tt.text, got, tt.wantTimes)
		}
	}
}

func TestDeriveProfiles(t *testing.T) {
	tests := []struct {
		name string
		in   domain.FocusSignals
		want domain.FocusProfile
	}{
		{
			name: "plain italian technical request is lite",
			in: domain.FocusSignals{
				Language: "it", LanguageConfidence: 0.9, Confidence: 0.85,
				Request: domain.RequestTypeResult{Type: domain.RequestTechnical},
			},
			want: domain.ProfileLite,
		},
		{
			name: "time mention promotes to standard",
			in: domain.FocusSignals{
				Language: "it", LanguageConfidence: 0.9, Confidence: 0.85,
				Request:       domain.RequestTypeResult{Type: domain.RequestTechnical},
				MentionsTimes: true,
			},
			want: domain.ProfileStandard,
		},
		{
			name: "long knowledge base promotes to standard",
			in: domain.FocusSignals{
				Language: "it", LanguageConfidence: 0.9, Confidence: 0.85,
				Request:  domain.RequestTypeResult{Type: domain.RequestTechnical},
				KBLength: 900,
			},
			want: domain.ProfileStandard,
		},
		{
			name: "pastoral request is heavy",
			in: domain.FocusSignals{
				Language: "it", LanguageConfidence: 0.9, Confidence: 0.85,
				Request: domain.RequestTypeResult{Type: domain.RequestPastoral},
			},
			want: domain.ProfileHeavy,
		},
		{
			name: "doctrine flag is heavy",
			in: domain.FocusSignals{
				Language: "it", LanguageConfidence: 0.9, Confidence: 0.85,
				Request: domain.RequestTypeResult{Type: domain.RequestTechnical, NeedsDoctrine: true},
			},
			want: domain.ProfileHeavy,
		},
		{
			name: "address check is heavy",
			in: domain.FocusSignals{
				Language: "it", LanguageConfidence: 0.9, Confidence: 0.85,
				Request:      domain.RequestTypeResult{Type: domain.RequestTechnical},
				AddressFound: true,
			},
			want: domain.ProfileHeavy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive(tt.in); got.Profile != tt.want {
				t.Errorf("Profile = %q, want %q (focus %+v)", got.Profile, tt.want, got)
			}
		})
	}
}

func TestDeriveConcerns(t *testing.T) {
	in := domain.FocusSignals{
		Language: "en", LanguageConfidence: 0.9,
		Confidence:   0.85,
		Request:      domain.RequestTypeResult{Type: domain.RequestTechnical},
		IsReply:      true,
		MemoryExists: true, MessageCount: 3,
		SalutationMode: domain.SalutationContinuity,
	}
	got := Derive(in)

	if !got.LanguageSafety {
		t.Error("foreign language must enable language safety")
	}
	if !got.RepetitionRisk {
		t.Error("existing memory must enable repetition risk")
	}
	if !got.ResponseScopeControl {
		t.Error("a reply must enable response scope control")
	}
	if got.IdentityConsistency {
		t.Error("technical reply must not enable identity consistency")
	}
	if !got.SalutationControl {
		t.Error("continuity salutation must enable salutation control")
	}
}

// Same signals in, same focus out.
func TestDerivePurity(t *testing.T) {
	in := domain.FocusSignals{
		Language: "it", LanguageConfidence: 0.75, Confidence: 0.65,
		Request:       domain.RequestTypeResult{Type: domain.RequestMixed, NeedsDiscernment: true},
		MentionsDates: true,
	}
	first := Derive(in)
	for i := 0; i < 5; i++ {
		if got := Derive(in); got != first {
			t.Fatalf("run %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestSkippedSections(t *testing.T) {
	tests := []struct {
		name  string
		focus domain.PromptFocus
		want  []string
	}{
		{"lite drops all optional sections", domain.PromptFocus{Profile: domain.ProfileLite},
			[]string{"Examples", "FormattingGuidelines", "HumanToneGuidelines", "SpecialCases"}},
		{"standard drops examples", domain.PromptFocus{Profile: domain.ProfileStandard}, []string{"Examples"}},
		{"standard with formatting risk keeps examples", domain.PromptFocus{Profile: domain.ProfileStandard, FormattingRisk: true}, nil},
		{"heavy keeps everything", domain.PromptFocus{Profile: domain.ProfileHeavy}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SkippedSections(tt.focus)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestDetectComplexity(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"sono divorziata e risposata", true},
		{"il mio compagno è musulmano", true},
		{"chiedo l'annullamento del matrimonio", true},
		{"vorrei sapere gli orari delle messe", false},
	}
	for _, tt := range tests {
		if got := DetectComplexity(tt.text); got != tt.want {
			t.Errorf("DetectComplexity(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
