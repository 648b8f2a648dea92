// Package prompt assembles the generation prompt from ordered sections.
// A section that fails to build is logged and skipped so one bad input
// never takes down the whole prompt.
package prompt

import (
	"fmt"
	"strings"

	"parish_server/core/domain"
	"parish_server/core/service/focus"
	"parish_server/core/service/schedule"
	"parish_server/pkg/logger"
)

// Input carries everything the composer may render into the prompt.
type Input struct {
	Message      *domain.EmailMessage
	CleanBody    string
	Language     string
	Focus        domain.PromptFocus
	Request      domain.RequestTypeResult
	Knowledge    string
	Dynamic      string
	Conversation string
	Memory       *domain.ThreadMemory
	SenderInfo   string
	Territory    domain.TerritoryVerification
	Greeting     schedule.Greeting
	Salutation   domain.SalutationMode
}

type section struct {
	name  string
	build func(Input) (string, error)
}

type Composer struct {
	sections []section
	log      *logger.Logger
}

func NewComposer() *Composer {
	return &Composer{
		log: logger.WithField("component", "prompt"),
		sections: []section{
			{"Identity", buildIdentity},
			{"Language", buildLanguage},
			{"Focus", buildFocus},
			{"KnowledgeBase", buildKnowledge},
			{"Territory", buildTerritory},
			{"Memory", buildMemory},
			{"Conversation", buildConversation},
			{"NoReplyCategories", buildNoReplyCategories},
			{"DetailedInstructions", buildDetailedInstructions},
			{"Examples", buildExamples},
			{"FormattingGuidelines", buildFormatting},
			{"HumanToneGuidelines", buildHumanTone},
			{"SpecialCases", buildSpecialCases},
			{"Salutation", buildSalutation},
			{"UserMessage", buildUserMessage},
		},
	}
}

// Compose renders the active sections in order, drops the ones the focus
// profile skips, and always ends with the fixed closing instruction.
func (c *Composer) Compose(in Input) string {
	skipped := make(map[string]bool)
	for _, s := range focus.SkippedSections(in.Focus) {
		skipped[s] = true
	}

	var parts []string
	for _, s := range c.sections {
		if skipped[s.name] {
			continue
		}
		text, err := s.build(in)
		if err != nil {
			c.log.WithError(err).Warnf("skipping prompt section %s", s.name)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	parts = append(parts, closingInstruction)
	return strings.Join(parts, "\n\n")
}

func buildIdentity(Input) (string, error) {
	return identitySection, nil
}

func buildLanguage(in Input) (string, error) {
	if instr, ok := languageInstructions[in.Language]; ok {
		return instr, nil
	}
	return languageInstructions["it"], nil
}

func buildFocus(in Input) (string, error) {
	var lines []string
	for _, name := range in.Focus.ActiveConcerns() {
		if instr, ok := focusInstructions[name]; ok {
			lines = append(lines, instr)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func buildKnowledge(in Input) (string, error) {
	if in.Knowledge == "" {
		return "", fmt.Errorf("empty knowledge base")
	}
	var b strings.Builder
	if in.Dynamic != "" {
		b.WriteString(in.Dynamic)
		b.WriteString("\n\n")
	}
	b.WriteString("BASE DI CONOSCENZA (usa solo queste informazioni):\n")
	b.WriteString(in.Knowledge)
	return b.String(), nil
}

func buildTerritory(in Input) (string, error) {
	if !in.Territory.AddressFound {
		return "", nil
	}
	verdict := "NON appartiene al territorio parrocchiale"
	if in.Territory.InParish {
		verdict = "appartiene al territorio parrocchiale"
	}
	return fmt.Sprintf("VERIFICA TERRITORIO: l'indirizzo indicato (%s %d) %s.",
		in.Territory.Street, in.Territory.CivicNumber, verdict), nil
}

func buildMemory(in Input) (string, error) {
	if in.Memory == nil && in.SenderInfo == "" {
		return "", nil
	}
	var b strings.Builder
	if in.Memory != nil && len(in.Memory.ProvidedInfo) > 0 {
		b.WriteString("INFORMAZIONI GIÀ FORNITE in questa conversazione (non ripeterle):\n")
		for _, info := range in.Memory.ProvidedInfo {
			b.WriteString("- " + info + "\n")
		}
	}
	if in.Memory != nil && in.Memory.Tone != "" && in.Memory.Tone != "standard" {
		b.WriteString("Mantieni il tono " + in.Memory.Tone + " usato finora nella conversazione.\n")
	}
	if in.SenderInfo != "" {
		b.WriteString(in.SenderInfo)
	}
	return b.String(), nil
}

func buildConversation(in Input) (string, error) {
	if in.Conversation == "" {
		return "", nil
	}
	return "CONVERSAZIONE PRECEDENTE:\n" + in.Conversation, nil
}

func buildNoReplyCategories(Input) (string, error) {
	return noReplyCategories, nil
}

func buildDetailedInstructions(Input) (string, error) {
	return detailedInstructions, nil
}

func buildExamples(Input) (string, error) {
	return examplesSection, nil
}

func buildFormatting(Input) (string, error) {
	return formattingGuidelines, nil
}

func buildHumanTone(Input) (string, error) {
	return humanToneGuidelines, nil
}

func buildSpecialCases(Input) (string, error) {
	return specialCasesSection, nil
}

// buildSalutation passes the adaptive greeting through, except in
// continuity and soft modes where the opening is dropped on purpose.
func buildSalutation(in Input) (string, error) {
	opening := in.Greeting.Opening
	if in.Salutation == domain.SalutationContinuity || in.Salutation == domain.SalutationSoft {
		opening = ""
	}
	if opening == "" {
		return fmt.Sprintf("Chiudi con: %q seguito dalla firma. Non aprire con un saluto completo.", in.Greeting.Closing), nil
	}
	return fmt.Sprintf("Apri con: %q. Chiudi con: %q seguito dalla firma.", opening, in.Greeting.Closing), nil
}

func buildUserMessage(in Input) (string, error) {
	if in.Message == nil {
		return "", fmt.Errorf("missing message")
	}
	body := in.CleanBody
	if body == "" {
		body = in.Message.Body
	}
	return fmt.Sprintf("EMAIL DA %s <%s>\nOggetto: %s\n\n%s",
		in.Message.SenderName, in.Message.SenderEmail, in.Message.Subject, body), nil
}
