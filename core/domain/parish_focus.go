package domain

// FocusProfile selects how much instructional weight the composed prompt
// carries.
type FocusProfile string

const (
	ProfileLite     FocusProfile = "lite"
	ProfileStandard FocusProfile = "standard"
	ProfileHeavy    FocusProfile = "heavy"
)

// SalutationMode tells the composer how to open the reply.
type SalutationMode string

const (
	SalutationFull       SalutationMode = "full"
	SalutationContinuity SalutationMode = "none_or_continuity"
	SalutationSoft       SalutationMode = "soft"
)

// FocusSignals is everything the focus engine looks at. It is assembled
// by the orchestrator so the engine itself stays a pure function.
type FocusSignals struct {
	Language           string
	LanguageConfidence float64
	Category           Category
	Request            RequestTypeResult
	IsReply            bool
	Confidence         float64
	KBLength           int
	KBContainsDates    bool
	MentionsDates      bool
	MentionsTimes      bool
	AddressFound       bool
	MemoryExists       bool
	MessageCount       int
	EmotionalDistress  bool
	Bereavement        bool
	ComplexityDetected bool
	SalutationMode     SalutationMode
}

// PromptFocus is the set of active concerns plus the derived profile.
type PromptFocus struct {
	LanguageSafety       bool
	HallucinationRisk    bool
	FormattingRisk       bool
	TemporalRisk         bool
	DoctrinalRisk        bool
	EmotionalSensitivity bool
	RepetitionRisk       bool
	IdentityConsistency  bool
	ResponseScopeControl bool
	SalutationControl    bool

	Profile FocusProfile
}

// ActiveConcerns lists the enabled concern names in a stable order.
func (f PromptFocus) ActiveConcerns() []string {
	var out []string
	for _, c := range []struct {
		name string
		on   bool
	}{
		{"language_safety", f.LanguageSafety},
		{"hallucination_risk", f.HallucinationRisk},
		{"formatting_risk", f.FormattingRisk},
		{"temporal_risk", f.TemporalRisk},
		{"doctrinal_risk", f.DoctrinalRisk},
		{"emotional_sensitivity", f.EmotionalSensitivity},
		{"repetition_risk", f.RepetitionRisk},
		{"identity_consistency", f.IdentityConsistency},
		{"response_scope_control", f.ResponseScopeControl},
		{"salutation_control", f.SalutationControl},
	} {
		if c.on {
			out = append(out, c.name)
		}
	}
	return out
}
