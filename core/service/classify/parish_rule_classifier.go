// Package classify implements the deterministic message classifiers that
// run before any provider call.
package classify

import (
	"regexp"
	"strings"

	"parish_server/core/domain"
)

// quoteMarkers cut the body at the first sign of quoted history.
var quoteMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^>.*$`),
	regexp.MustCompile(`(?m)^On .* wrote:.*$`),
	regexp.MustCompile(`(?m)^Il giorno .* ha scritto:.*$`),
	regexp.MustCompile(`(?m)^-{3,}.*Original Message.*$`),
	regexp.MustCompile(`(?m)^_{3,}\s*$`),
}

// signatureMarkers cut the body at the first sign-off.
var signatureMarkers = []string{
	"cordiali saluti",
	"distinti saluti",
	"in fede",
	"best regards",
	"sincerely",
	"sent from my iphone",
	"inviato da",
}

var (
	normalizeStripRe = regexp.MustCompile(`[^\w\sàèéìòù?!]`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

// ackTokens are the words accepted in an ultra-simple acknowledgment.
// Apostrophes are stripped by normalization, hence "daccordo".
var ackTokens = map[string]bool{
	"grazie":    true,
	"ricevuto":  true,
	"ringrazio": true,
	"perfetto":  true,
	"ok":        true,
	"chiaro":    true,
	"daccordo":  true,
	"thanks":    true,
	"thank":     true,
}

var greetingPhrases = []string{
	"buongiorno", "buonasera", "buona sera", "buon giorno", "salve", "ciao",
	"cordiali saluti", "distinti saluti", "a presto", "ci vediamo",
	"saluti", "buona giornata", "buona serata",
}

// internalPatterns mark a message as staff-to-staff communication on
// their own.
var internalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bc\.?a\.\s`),
	regexp.MustCompile(`(?i)alla cortese attenzione`),
	regexp.MustCompile(`(?i)ordine del giorno`),
	regexp.MustCompile(`(?i)verbale (?:della )?riunione`),
	regexp.MustCompile(`(?i)memo interno|internal memo`),
	regexp.MustCompile(`(?i)\bconvocazione\b`),
}

// internalIndicators are weaker signals; three or more together also mark
// the message as internal.
var internalIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:don|padre|parroco|diacono)\s+\p{L}`),
	regexp.MustCompile(`(?i)\b(?:catechisti|animatori|volontari)\b`),
	regexp.MustCompile(`(?i)\bcoordinamento\b`),
	regexp.MustCompile(`(?i)\briunione\b`),
	regexp.MustCompile(`(?i)\bturn[io]\b`),
	regexp.MustCompile(`(?i)\bcalendario\b`),
	regexp.MustCompile(`(?i)\bsacrestia\b|\boratorio\b`),
	regexp.MustCompile(`(?i)\bin allegato\b`),
}

// legitimateRequestRe flags polite but unusual requests that must reach
// the model even without a direct question.
var legitimateRequestRe = regexp.MustCompile(`(?i)\b(?:vorremmo|gradiremmo|ci piacerebbe|se possibile|sarebbe possibile|potrebbe|potreste|contribuire|partecipare|would be honored|would appreciate|could you|if possible|would it be possible|we would like|contribute|participate)\b`)

// questionRe matches interrogative cues in both languages. A literal
// question mark is checked separately.
var questionRe = regexp.MustCompile(`(?i)\b(?:quando|come|dove|cosa|che|chi|perch|quale|quali|quanto|quanta|when|how|where|what|who|why|which|could|would)\b`)

var requestRe = regexp.MustCompile(`(?i)\b(?:vorrei|gradirei|chiedo|avrei bisogno|ho bisogno|potrebbe|potreste|puoi|posso|potrei|desidero|serve|servono|necessario|vorremmo|gradiremmo|ci piacerebbe|se possibile|sarebbe possibile|would like|would appreciate|need|could you|would you|can you|may i|please)\b`)

// implicitRe catches tentative language without an explicit ask.
var implicitRe = regexp.MustCompile(`(?i)(?:\b(?:interessato|interessata|possibile|informazioni|dettagli|partecipare|contribuire|offrire|interested|possible|possibility|information|details|participate|join|contribute|offer|honored|appreciate|project|exhibition|collecting|send)\b|\bpossibilit|\biscriver)`)

var confirmationWords = []string{
	"confermo", "confermiamo", "va bene", "ok", "d'accordo", "perfetto",
	"bene così", "confirm", "confirmed", "okay", "fine", "perfect",
}

// minSustainedLength is the content size past which a message with no
// question or request still deserves an answer.
const minSustainedLength = 40

var categoryKeywords = []struct {
	category domain.Category
	words    []string
}{
	{domain.CategoryAppointment, []string{
		"appuntamento", "fissare", "prenotare", "quando posso", "disponibilità",
		"orario", "incontro", "appointment", "schedule", "book", "availability", "meeting",
	}},
	{domain.CategoryInformation, []string{
		"informazioni", "informazione", "sapere", "orari", "costo", "info",
		"information", "know", "hours", "cost", "details", "dettagli",
	}},
	{domain.CategorySacrament, []string{
		"battesimo", "matrimonio", "cresima", "comunione", "confessione", "messa",
		"funerale", "baptism", "wedding", "marriage", "confirmation", "communion",
		"confession", "mass", "funeral",
	}},
	{domain.CategoryCollaboration, []string{
		"collaborazione", "progetto", "proposta", "contribuire", "partecipare",
		"volontariato", "collaboration", "project", "proposal", "contribute",
		"participate", "volunteer", "exhibition", "mostra",
	}},
	{domain.CategoryComplaint, []string{
		"lamentela", "reclamo", "problema", "disservizio", "complaint", "problem", "issue",
	}},
}

type Classifier struct {
	forceReplyKeywords []string
}

func NewClassifier(forceReplyKeywords []string) *Classifier {
	lowered := make([]string, len(forceReplyKeywords))
	for i, k := range forceReplyKeywords {
		lowered[i] = strings.ToLower(strings.TrimSpace(k))
	}
	return &Classifier{forceReplyKeywords: lowered}
}

// CleanBody strips quoted history and signatures, keeping only the text
// the sender actually wrote.
func CleanBody(body string) string {
	cut := len(body)
	for _, re := range quoteMarkers {
		if loc := re.FindStringIndex(body); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	body = body[:cut]

	lower := strings.ToLower(body)
	for _, marker := range signatureMarkers {
		if i := strings.Index(lower, marker); i >= 0 && i < len(body) {
			body = body[:i]
			lower = lower[:i]
		}
	}
	return strings.TrimSpace(body)
}

func normalize(text string) string {
	text = strings.ToLower(text)
	text = normalizeStripRe.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// Classify applies the rule pipeline in strict priority order:
// ultra-simple acknowledgment, greeting-only, internal communication,
// legitimate-request indicators, confirmation follow-up, then the
// question/request analysis with the model fallback last.
func (c *Classifier) Classify(msg *domain.EmailMessage) domain.ClassificationResult {
	clean := CleanBody(msg.Body)
	combined := msg.Subject + " " + clean

	if isUltraSimpleAck(clean) {
		return domain.ClassificationResult{
			ShouldReply: false,
			Reason:      domain.ReasonUltraSimpleAck,
			Confidence:  1.0,
		}
	}

	if isGreetingOnly(clean) {
		return domain.ClassificationResult{
			ShouldReply: false,
			Reason:      domain.ReasonGreetingOnly,
			Confidence:  0.95,
		}
	}

	if isInternalCommunication(combined) {
		return domain.ClassificationResult{
			ShouldReply: false,
			Reason:      domain.ReasonInternalCommunication,
			Confidence:  1.0,
		}
	}

	if legitimateRequestRe.MatchString(combined) {
		category := detectCategory(combined)
		if category == domain.CategoryNone {
			category = domain.CategoryCollaboration
		}
		return domain.ClassificationResult{
			ShouldReply: true,
			Reason:      domain.ReasonLegitimateRequest,
			Confidence:  0.9,
			Category:    category,
		}
	}

	hasQuestion := containsQuestion(clean)
	hasRequest := containsRequest(clean)

	// a follow-up that only confirms needs no answer
	if msg.IsReply() && !hasQuestion && !hasRequest && isConfirmation(clean) {
		return domain.ClassificationResult{
			ShouldReply: false,
			Reason:      domain.ReasonConfirmationOnly,
			Confidence:  0.85,
		}
	}

	if !hasQuestion && !hasRequest {
		if len(strings.TrimSpace(clean)) >= minSustainedLength {
			return domain.ClassificationResult{
				ShouldReply: true,
				Reason:      domain.ReasonSustainedMessage,
				Confidence:  0.7,
				Category:    domain.CategoryGeneralContact,
			}
		}
		if implicitRe.MatchString(clean) {
			return domain.ClassificationResult{
				ShouldReply: true,
				Reason:      domain.ReasonImplicitRequest,
				Confidence:  0.75,
				Category:    detectCategory(combined),
			}
		}
		return domain.ClassificationResult{
			ShouldReply: false,
			Reason:      domain.ReasonNoActionableContent,
			Confidence:  0.70,
		}
	}

	category := detectCategory(combined)
	confidence := 0.6
	if category != domain.CategoryNone {
		confidence = 0.8
	}
	return domain.ClassificationResult{
		ShouldReply: true,
		Reason:      domain.ReasonNeedsAIAnalysis,
		Confidence:  confidence,
		Category:    category,
	}
}

// ForceReply reports whether the message carries a correction keyword
// that overrides a no-reply decision.
func (c *Classifier) ForceReply(msg *domain.EmailMessage) bool {
	haystack := strings.ToLower(msg.Subject + " " + msg.Body)
	for _, k := range c.forceReplyKeywords {
		if k != "" && strings.Contains(haystack, k) {
			return true
		}
	}
	return false
}

func isInternalCommunication(text string) bool {
	for _, re := range internalPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	hits := 0
	for _, re := range internalIndicators {
		if re.MatchString(text) {
			hits++
		}
	}
	return hits >= 3
}

// isUltraSimpleAck accepts only very short thank-you notes: no question
// mark, at most three words, at least one acknowledgment token.
func isUltraSimpleAck(clean string) bool {
	n := normalize(clean)
	if n == "" || strings.Contains(n, "?") {
		return false
	}
	words := strings.Fields(n)
	if len(words) > 3 {
		return false
	}
	for _, w := range words {
		if ackTokens[strings.Trim(w, "!")] {
			return true
		}
	}
	// multi-word confirmations like "va bene" and "tutto chiaro"
	joined := strings.Trim(n, "!")
	return joined == "va bene" || joined == "tutto chiaro" || joined == "ok va bene"
}

// isGreetingOnly accepts messages that contain nothing beyond greeting
// phrases and an optional name.
func isGreetingOnly(clean string) bool {
	n := normalize(clean)
	if n == "" || strings.Contains(n, "?") {
		return false
	}
	return onlyGreetings(strings.TrimSpace(strings.ReplaceAll(n, "!", "")))
}

func onlyGreetings(n string) bool {
	found := false
	for _, g := range greetingPhrases {
		for {
			i := strings.Index(n, g)
			if i < 0 {
				break
			}
			found = true
			n = strings.TrimSpace(n[:i] + " " + n[i+len(g):])
		}
	}
	if !found {
		return false
	}
	// tolerate a short leftover such as the sender's name
	return len(strings.Fields(n)) <= 2
}

func containsQuestion(text string) bool {
	return strings.Contains(text, "?") || questionRe.MatchString(text)
}

func containsRequest(text string) bool {
	// "può" sits outside the regex because the accent breaks \b
	return requestRe.MatchString(text) || strings.Contains(strings.ToLower(text), "può")
}

func isConfirmation(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range confirmationWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func detectCategory(text string) domain.Category {
	lower := strings.ToLower(text)
	best := domain.CategoryNone
	bestHits := 0
	for _, ck := range categoryKeywords {
		hits := 0
		for _, w := range ck.words {
			if strings.Contains(lower, w) {
				hits++
			}
		}
		if hits > bestHits {
			best = ck.category
			bestHits = hits
		}
	}
	return best
}
