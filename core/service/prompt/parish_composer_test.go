package prompt

import (
	"strings"
	"testing"

	"parish_server/core/domain"
	"parish_server/core/service/schedule"
)

func baseInput() Input {
	msg := &domain.EmailMessage{
		Subject: "Battesimo",
		From:    "Mario Rossi <mario@example.com>",
		Body:    "Vorrei informazioni sul battesimo.",
	}
	msg.ParseSender()
	return Input{
		Message:   msg,
		CleanBody: msg.Body,
		Language:  "it",
		Focus:     domain.PromptFocus{Profile: domain.ProfileHeavy},
		Knowledge: "--- Informazione ---\nCategoria: Sacramenti\nArgomento: Battesimo\nDettagli: rivolgersi in segreteria.",
		Dynamic:   "--- Informazioni Dinamiche Contestuali ---\nOggi è 01/03/2026.",
		Greeting:  schedule.Greeting{Opening: "Buongiorno.", Closing: "Cordiali saluti,"},
	}
}

func TestComposeOrderAndClosing(t *testing.T) {
	c := NewComposer()
	got := c.Compose(baseInput())

	if !strings.HasSuffix(got, closingInstruction) {
		t.Error("prompt must end with the fixed closing instruction")
	}

	// identity before knowledge before the user message
	identity := strings.Index(got, "Sei la segreteria")
	kb := strings.Index(got, "BASE DI CONOSCENZA")
	user := strings.Index(got, "EMAIL DA Mario Rossi")
	if identity < 0 || kb < 0 || user < 0 {
		t.Fatalf("missing mandatory sections in:\n%s", got)
	}
	if !(identity < kb && kb < user) {
		t.Errorf("section order wrong: identity=%d kb=%d user=%d", identity, kb, user)
	}
	if !strings.Contains(got, "Informazioni Dinamiche") {
		t.Error("dynamic context must precede the knowledge entries")
	}
}

func TestComposeSkipsSectionsByProfile(t *testing.T) {
	c := NewComposer()

	in := baseInput()
	in.Focus = domain.PromptFocus{Profile: domain.ProfileLite}
	lite := c.Compose(in)
	for _, dropped := range []string{"ESEMPI DI STILE", "FORMATTAZIONE:", "TONO UMANO", "CASI PARTICOLARI"} {
		if strings.Contains(lite, dropped) {
			t.Errorf("lite profile must drop %q", dropped)
		}
	}

	in.Focus = domain.PromptFocus{Profile: domain.ProfileStandard}
	standard := c.Compose(in)
	if strings.Contains(standard, "ESEMPI DI STILE") {
		t.Error("standard profile without formatting risk must drop the examples")
	}
	if !strings.Contains(standard, "FORMATTAZIONE:") {
		t.Error("standard profile must keep the formatting guidelines")
	}

	in.Focus = domain.PromptFocus{Profile: domain.ProfileStandard, FormattingRisk: true}
	if got := c.Compose(in); !strings.Contains(got, "ESEMPI DI STILE") {
		t.Error("formatting risk must bring the examples back")
	}
}

func TestComposeFocusInstructions(t *testing.T) {
	c := NewComposer()

	in := baseInput()
	in.Focus = domain.PromptFocus{
		Profile:              domain.ProfileHeavy,
		DoctrinalRisk:        true,
		EmotionalSensitivity: true,
	}
	got := c.Compose(in)
	if !strings.Contains(got, "ATTENZIONE DOTTRINA") {
		t.Error("doctrinal risk instruction missing")
	}
	if !strings.Contains(got, "ATTENZIONE SENSIBILITÀ") {
		t.Error("emotional sensitivity instruction missing")
	}
	if strings.Contains(got, "ATTENZIONE RIPETIZIONI") {
		t.Error("inactive concern must not be rendered")
	}
}

func TestComposeSalutationModes(t *testing.T) {
	c := NewComposer()

	in := baseInput()
	in.Salutation = domain.SalutationFull
	if got := c.Compose(in); !strings.Contains(got, `Apri con: "Buongiorno."`) {
		t.Error("full mode must keep the opening")
	}

	in.Salutation = domain.SalutationContinuity
	got := c.Compose(in)
	if strings.Contains(got, "Apri con:") {
		t.Error("continuity mode must drop the opening")
	}
	if !strings.Contains(got, "Non aprire con un saluto completo") {
		t.Error("continuity mode must instruct against a full opening")
	}
}

func TestComposeMemoryTone(t *testing.T) {
	c := NewComposer()

	in := baseInput()
	in.Memory = &domain.ThreadMemory{
		Tone:         "empatico",
		ProvidedInfo: []string{"orari messe"},
	}
	got := c.Compose(in)
	if !strings.Contains(got, "Mantieni il tono empatico") {
		t.Error("non-standard tone must be carried into the prompt")
	}

	in.Memory.Tone = "standard"
	got = c.Compose(in)
	if strings.Contains(got, "Mantieni il tono") {
		t.Error("the standard tone needs no continuity instruction")
	}
}

func TestComposeSkipsFailingSection(t *testing.T) {
	c := NewComposer()

	in := baseInput()
	in.Knowledge = "" // knowledge section fails to build
	got := c.Compose(in)

	if strings.Contains(got, "BASE DI CONOSCENZA") {
		t.Error("failed section must be skipped")
	}
	if !strings.Contains(got, "EMAIL DA Mario Rossi") || !strings.HasSuffix(got, closingInstruction) {
		t.Error("remaining sections must still be rendered")
	}
}

func TestComposeTerritoryVerdict(t *testing.T) {
	c := NewComposer()

	in := baseInput()
	in.Territory = domain.TerritoryVerification{
		AddressFound: true, Street: "via flaminia", CivicNumber: 300, InParish: false,
	}
	got := c.Compose(in)
	if !strings.Contains(got, "NON appartiene al territorio parrocchiale") {
		t.Error("out-of-parish verdict missing")
	}

	in.Territory.InParish = true
	in.Territory.CivicNumber = 161
	got = c.Compose(in)
	if !strings.Contains(got, "(via flaminia 161) appartiene al territorio parrocchiale") {
		t.Error("in-parish verdict missing")
	}
}
