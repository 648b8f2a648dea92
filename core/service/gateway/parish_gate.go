package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"parish_server/core/domain"
	"parish_server/core/port/out"
)

// gatePrompt asks the model for a cheap reply/no-reply verdict plus the
// language, before the expensive full generation runs.
const gatePrompt = `Analizza questa email ricevuta dalla casella della segreteria parrocchiale.
Rispondi SOLO con un oggetto JSON, senza altro testo, nel formato:
{"respond": "yes" oppure "no", "language": "it" oppure "en" oppure "es"}

"respond" è "no" solo se la email chiaramente non richiede una risposta della segreteria
(newsletter, notifiche automatiche, comunicazioni interne, semplici ringraziamenti).
"language" è la lingua in cui l'utente si aspetta la risposta.

Oggetto: %s
Da: %s

%s`

type gateAnswer struct {
	Respond  string `json:"respond"`
	Language string `json:"language"`
}

// GateCheck runs the pre-generation screen. Any failure, malformed JSON
// included, degrades to the failsafe: respond yes in the default
// language, so a gate outage can suppress nothing.
func (g *Gateway) GateCheck(ctx context.Context, msg *domain.EmailMessage, cleanBody, defaultLang string) domain.GateDecision {
	failsafe := domain.GateDecision{ShouldRespond: true, Language: defaultLang, Failsafe: true}

	prompt := fmt.Sprintf(gatePrompt, msg.Subject, msg.From, cleanBody)
	raw, err := g.GenerateWith(ctx, prompt, out.GenerationOptions{Temperature: 0.0, MaxOutputTokens: 50}, 15*time.Second)
	if err != nil || raw == "" {
		g.log.WithError(err).Warn("gate check failed, using failsafe")
		return failsafe
	}

	var ans gateAnswer
	if err := json.Unmarshal([]byte(extractJSON(raw)), &ans); err != nil {
		g.log.WithError(err).Warn("gate returned malformed JSON, using failsafe")
		return failsafe
	}

	decision := domain.GateDecision{
		ShouldRespond: strings.EqualFold(strings.TrimSpace(ans.Respond), "yes"),
		Language:      strings.ToLower(strings.TrimSpace(ans.Language)),
	}
	switch decision.Language {
	case "it", "en", "es":
	default:
		decision.Language = defaultLang
	}
	return decision
}

// extractJSON cuts a JSON object out of a reply that may be wrapped in
// markdown fences or prose.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
