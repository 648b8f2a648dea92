// Package validate scores generated replies before anything is sent. A
// reply leaves the system only with no hard errors and a score above the
// configured threshold.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"parish_server/config"
	"parish_server/core/domain"
)

var languageMarkers = map[string][]string{
	"it": {"grazie", "cordiali", "saluti", "gentile", "parrocchia", "messa", "vorrei", "quando"},
	"en": {"thank", "regards", "dear", "parish", "mass", "church", "would", "could"},
	"es": {"gracias", "saludos", "estimado", "parroquia", "misa", "iglesia", "querría"},
}

// forbiddenPhrases are hedges and refusals the secretary would never
// write.
var forbiddenPhrases = []string{
	"non ho abbastanza informazioni",
	"non posso rispondere",
	"mi dispiace ma non",
	"scusa ma non",
	"purtroppo non posso",
	"non sono sicuro",
	"non sono sicura",
	"potrebbe essere",
	"probabilmente",
	"forse",
	"suppongo",
	"immagino",
}

var placeholderTokens = []string{"XXX", "TODO", "<insert>", "placeholder", "tbd", "TBD"}

var (
	signatureRe = regexp.MustCompile(`(?i)segreteria\s+parrocchia\s+sant['’]?eugenio`)
	ellipsisRe  = regexp.MustCompile(`\[\.\.\.\]|\.\.\.\s*$`)
	timeRe      = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\b`)
	emailRe     = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe     = regexp.MustCompile(`\b(?:0\d|3\d{2})[-.\s]?\d{2,8}(?:[-.\s]?\d{2,4})*\b`)
	nonDigitRe  = regexp.MustCompile(`\D`)
)

type Validator struct {
	cfg config.ValidationConfig
}

func NewValidator(cfg config.ValidationConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate checks the generated reply against the expected language and
// the context it was generated from. Facts appearing in the reply but
// not in the context count as hallucinations.
func (v *Validator) Validate(reply, expectedLang, context string) domain.ValidationResult {
	res := domain.ValidationResult{
		Score:   1.0,
		Details: make(map[string]string),
	}
	clean := strings.TrimSpace(reply)
	runes := len([]rune(clean))

	// length
	switch {
	case runes < v.cfg.MinLength:
		res.AddError(fmt.Sprintf("response too short: %d characters", runes))
		res.Score = 0
	case runes < v.cfg.OptimalMinLength:
		res.AddWarning("response below optimal length")
		res.Score *= 0.85
	case runes > v.cfg.WarnMaxLength:
		res.AddWarning("response unusually long")
		res.Score *= 0.95
	}

	v.checkLanguage(clean, expectedLang, &res)

	if !signatureRe.MatchString(clean) {
		res.AddWarning("missing secretary signature")
		res.Score *= 0.95
	}

	lower := strings.ToLower(clean)
	for _, p := range forbiddenPhrases {
		if strings.Contains(lower, p) {
			res.AddError(fmt.Sprintf("forbidden phrase: %q", p))
			res.Score *= 0.50
			break
		}
	}

	if v.hasPlaceholder(clean) {
		res.AddError("placeholder left in response")
		res.Score = 0
	}

	if strings.Contains(clean, "NO_REPLY") && runes > 20 {
		res.AddError("NO_REPLY marker leaked into response text")
		res.Score = 0
	}

	v.checkHallucinations(clean, context, &res)

	threshold := v.cfg.MinValidScore
	if v.cfg.StrictMode {
		threshold = v.cfg.StrictScore
	}
	res.Details["threshold"] = fmt.Sprintf("%.2f", threshold)
	res.IsValid = len(res.Errors) == 0 && res.Score >= threshold
	return res
}

func (v *Validator) checkLanguage(reply, expected string, res *domain.ValidationResult) {
	lower := " " + strings.ToLower(reply) + " "
	scores := make(map[string]int)
	for lang, markers := range languageMarkers {
		for _, m := range markers {
			if strings.Contains(lower, m) {
				scores[lang]++
			}
		}
	}
	if expected == "" {
		expected = "it"
	}

	strong := 0
	for lang, score := range scores {
		if score >= 3 {
			strong++
			if lang != expected && scores[expected] < 2 {
				res.AddError(fmt.Sprintf("language mismatch: reply looks %s, expected %s", lang, expected))
				res.Score *= 0.30
				return
			}
			if lang != expected {
				res.AddWarning(fmt.Sprintf("foreign language traces: %s", lang))
				res.Score *= 0.85
			}
		}
	}
	if strong >= 2 {
		res.AddWarning("mixed languages in response")
		res.Score *= 0.85
	}
}

func (v *Validator) hasPlaceholder(reply string) bool {
	for _, tok := range placeholderTokens {
		if strings.Contains(reply, tok) {
			return true
		}
	}
	return ellipsisRe.MatchString(reply)
}

func (v *Validator) checkHallucinations(reply, context string, res *domain.ValidationResult) {
	known := extractTimes(context)
	for t := range extractTimes(reply) {
		if !known[t] {
			res.AddWarning(fmt.Sprintf("time %s not found in source material", t))
			res.Score *= 0.85
			break
		}
	}

	knownEmails := toSet(emailRe.FindAllString(strings.ToLower(context), -1))
	for _, e := range emailRe.FindAllString(strings.ToLower(reply), -1) {
		if !knownEmails[e] {
			res.AddError(fmt.Sprintf("email address %s not found in source material", e))
			res.Score *= 0.50
			break
		}
	}

	knownPhones := extractPhones(context)
	for p := range extractPhones(reply) {
		if !knownPhones[p] {
			res.AddError("phone number not found in source material")
			res.Score *= 0.50
			break
		}
	}
}

// extractTimes normalizes every clock time to HH:MM so "18.30" and
// "18:30" compare equal.
func extractTimes(text string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range timeRe.FindAllStringSubmatch(text, -1) {
		h, _ := strconv.Atoi(m[1])
		out[fmt.Sprintf("%02d:%s", h, m[2])] = true
	}
	return out
}

func extractPhones(text string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range phoneRe.FindAllString(text, -1) {
		digits := nonDigitRe.ReplaceAllString(m, "")
		if len(digits) >= 8 {
			out[digits] = true
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}
