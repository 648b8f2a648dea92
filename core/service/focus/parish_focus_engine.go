// Package focus derives the prompt-focus concerns for one message. The
// engine is a pure function: the orchestrator assembles the signals, the
// engine only maps them to concerns and a profile.
package focus

import (
	"regexp"
	"strings"

	"parish_server/core/domain"
)

var (
	dateRe  = regexp.MustCompile(`\b\d{1,2}[/.-]\d{1,2}(?:[/.-]\d{2,4})?\b`)
	timeRe  = regexp.MustCompile(`\b\d{1,2}[:.]\d{2}\b`)
	oreRe   = regexp.MustCompile(`(?i)\bore\s+\d{1,2}\b`)
	monthRe = regexp.MustCompile(`(?i)\b(?:gennaio|febbraio|marzo|aprile|maggio|giugno|luglio|agosto|settembre|ottobre|novembre|dicembre)\b`)
)

// complexityPatterns flag canonically delicate situations that must never
// be answered from the knowledge base alone.
var complexityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdivorzi[ao]t[aoi]?\b`),
	regexp.MustCompile(`(?i)\bseparat[aoi]\b`),
	regexp.MustCompile(`(?i)\brisposat[aoi]\b`),
	regexp.MustCompile(`(?i)\bconviven\w*`),
	regexp.MustCompile(`(?i)\bannullamento\b`),
	regexp.MustCompile(`(?i)\bmusulman[aoi]?\b`),
	regexp.MustCompile(`(?i)\bisla\w*`),
	regexp.MustCompile(`(?i)\bprotestante\b`),
	regexp.MustCompile(`(?i)\banglican[ao]?\b`),
	regexp.MustCompile(`(?i)\bortodoss[ao]?\b`),
	regexp.MustCompile(`(?i)\bnon\s*cattolic[ao]\b`),
	regexp.MustCompile(`(?i)\bateo\b|\batea\b`),
	regexp.MustCompile(`(?i)\bdivorced?\b`),
	regexp.MustCompile(`(?i)\bmuslim\b`),
	regexp.MustCompile(`(?i)\bmusulmán\b`),
}

// MentionsDates reports whether the text carries a numeric date or an
// Italian month name.
func MentionsDates(text string) bool {
	return dateRe.MatchString(text) || monthRe.MatchString(text)
}

// MentionsTimes reports whether the text carries a clock time.
func MentionsTimes(text string) bool {
	return timeRe.MatchString(text) || oreRe.MatchString(text)
}

// DetectComplexity reports whether the text touches a canonically
// delicate situation.
func DetectComplexity(text string) bool {
	for _, re := range complexityPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Derive maps the assembled signals to the prompt focus.
func Derive(s domain.FocusSignals) domain.PromptFocus {
	f := domain.PromptFocus{
		LanguageSafety:       s.Language != "it" || s.LanguageConfidence < 0.8,
		HallucinationRisk:    s.KBLength > 800 || s.MentionsDates || s.MentionsTimes,
		FormattingRisk:       s.MentionsTimes || s.Category == domain.CategoryInformation || s.Category == domain.CategorySacrament,
		TemporalRisk:         s.MentionsDates || s.KBContainsDates,
		DoctrinalRisk:        s.Request.NeedsDoctrine || s.AddressFound || s.ComplexityDetected,
		EmotionalSensitivity: s.Request.Type == domain.RequestPastoral || s.EmotionalDistress || s.Bereavement,
		RepetitionRisk:       s.MemoryExists || s.MessageCount > 1,
		IdentityConsistency:  !s.IsReply || s.Request.Type != domain.RequestTechnical,
		ResponseScopeControl: s.IsReply || s.Confidence < 0.7,
		SalutationControl:    s.SalutationMode == domain.SalutationContinuity || s.SalutationMode == domain.SalutationSoft,
	}

	switch {
	case f.DoctrinalRisk || f.EmotionalSensitivity:
		f.Profile = domain.ProfileHeavy
	case f.HallucinationRisk || f.FormattingRisk || f.TemporalRisk:
		f.Profile = domain.ProfileStandard
	default:
		f.Profile = domain.ProfileLite
	}
	return f
}

// SkippedSections lists the prompt template sections a profile drops.
// The heavy profile keeps everything; standard keeps the examples only
// when formatting is at risk.
func SkippedSections(f domain.PromptFocus) []string {
	switch f.Profile {
	case domain.ProfileLite:
		return []string{"Examples", "FormattingGuidelines", "HumanToneGuidelines", "SpecialCases"}
	case domain.ProfileStandard:
		if f.FormattingRisk {
			return nil
		}
		return []string{"Examples"}
	default:
		return nil
	}
}

// Signals assembles FocusSignals from the message text and the already
// computed pipeline results.
func Signals(text, kb string, lang string, langConf float64, cls domain.ClassificationResult,
	req domain.RequestTypeResult, isReply bool, territory domain.TerritoryVerification,
	memory *domain.ThreadMemory, salutation domain.SalutationMode) domain.FocusSignals {

	lower := strings.ToLower(text)
	s := domain.FocusSignals{
		Language:           lang,
		LanguageConfidence: langConf,
		Category:           cls.Category,
		Request:            req,
		IsReply:            isReply,
		Confidence:         cls.Confidence,
		KBLength:           len(kb),
		KBContainsDates:    MentionsDates(kb),
		MentionsDates:      MentionsDates(text),
		MentionsTimes:      MentionsTimes(text),
		AddressFound:       territory.AddressFound,
		ComplexityDetected: DetectComplexity(text),
		SalutationMode:     salutation,
		EmotionalDistress: strings.Contains(lower, "soffr") || strings.Contains(lower, "disperat") ||
			strings.Contains(lower, "angoscia"),
		Bereavement: strings.Contains(lower, "lutto") || strings.Contains(lower, "defunt") ||
			strings.Contains(lower, "funerale"),
	}
	if memory != nil {
		s.MemoryExists = true
		s.MessageCount = memory.MessageCount
	}
	return s
}
