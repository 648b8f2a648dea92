package classify

import (
	"regexp"

	"parish_server/core/domain"
)

type weightedPattern struct {
	re     *regexp.Regexp
	weight int
}

func wp(expr string, weight int) weightedPattern {
	return weightedPattern{re: regexp.MustCompile(`(?i)` + expr), weight: weight}
}

// technicalPatterns match procedural questions about rules, documents and
// schedules.
var technicalPatterns = []weightedPattern{
	wp(`\bsi può`, 2),
	wp(`\bnon si può`, 2),
	wp(`è possibile\b`, 2),
	wp(`è obbligatorio\b`, 2),
	wp(`\bbisogna\b`, 2),
	wp(`\bdeve\b`, 1),
	wp(`\bdevono\b`, 1),
	wp(`\bquanti\b`, 2),
	wp(`\bquante\b`, 2),
	wp(`\bquanto costa\b`, 2),
	wp(`\bquando\b`, 1),
	wp(`\ba che ora\b`, 2),
	wp(`\borari\b`, 2),
	wp(`\bcome (?:si )?fa\b`, 2),
	wp(`\bcome funziona\b`, 2),
	wp(`\bqual è la procedura\b`, 2),
	wp(`\bche documenti?\b`, 2),
	wp(`\bpadrino\b`, 1),
	wp(`\bmadrina\b`, 1),
	wp(`\btestimone\b`, 1),
	wp(`\bcertificato\b`, 2),
	wp(`\bdocument\w+\b`, 1),
	wp(`\bmodulo\b`, 1),
	wp(`\biscrizione\b`, 1),
}

// pastoralPatterns match personal situations that need discernment rather
// than a procedural answer.
var pastoralPatterns = []weightedPattern{
	wp(`\bmi sento\b`, 3),
	wp(`\bmi pesa\b`, 3),
	wp(`\bmi sono sentit[oa]\b`, 3),
	wp(`\bnon mi sento\b`, 3),
	wp(`\bsoffr\w+`, 2),
	wp(`\bdifficolt[àa]`, 2),
	wp(`\bferit[oa]\b`, 2),
	wp(`\besclus[oa]\b`, 2),
	wp(`\bsol[oa]\b`, 2),
	wp(`\bpaura\b`, 2),
	wp(`\bansia\b`, 2),
	wp(`\btristezza\b`, 2),
	wp(`\bcolpa\b`, 2),
	wp(`\bvergogna\b`, 2),
	wp(`\bnon capisco\b`, 2),
	wp(`\bnon riesco a capire\b`, 2),
	wp(`\bdivorziat[oa]\b`, 2),
	wp(`\bseparat[oa]\b`, 2),
	wp(`\brisposat[oa]\b`, 2),
	wp(`\bconvivente\b`, 2),
	wp(`\blutto\b`, 2),
	wp(`\bdefunt[oa]\b`, 2),
	wp(`\bmalattia\b`, 2),
	wp(`\bperché la chiesa\b`, 3),
	wp(`\bperché dio\b`, 3),
	wp(`\bche senso ha\b`, 3),
	wp(`\bcome vivere\b`, 3),
	wp(`\bcome affrontare\b`, 2),
}

// doctrinePatterns match requests for the teaching behind a rule.
var doctrinePatterns = []weightedPattern{
	wp(`\bspiegazione\b`, 2),
	wp(`\bspiegami\b`, 2),
	wp(`\bperché la chiesa (?:insegna|dice|crede)\b`, 3),
	wp(`\bfondamento teologic\w+`, 3),
	wp(`\bdottrina\b`, 2),
	wp(`\bmagistero\b`, 3),
	wp(`\bcatechismo\b`, 2),
	wp(`\binsegnamento della chiesa\b`, 3),
}

func scorePatterns(text string, patterns []weightedPattern) int {
	total := 0
	for _, p := range patterns {
		if n := len(p.re.FindAllStringIndex(text, -1)); n > 0 {
			total += n * p.weight
		}
	}
	return total
}

// ScoreRequestType classifies a message as technical, pastoral or mixed
// by weighted pattern scores over subject and body.
func ScoreRequestType(subject, body string) domain.RequestTypeResult {
	text := subject + " " + body

	technical := scorePatterns(text, technicalPatterns)
	pastoral := scorePatterns(text, pastoralPatterns)
	doctrine := scorePatterns(text, doctrinePatterns)

	var kind domain.RequestType
	switch {
	case pastoral >= 3 && pastoral > technical:
		kind = domain.RequestPastoral
	case technical >= 2 && pastoral <= 1:
		kind = domain.RequestTechnical
	case pastoral >= 2 && technical >= 2:
		kind = domain.RequestMixed
	default:
		kind = domain.RequestTechnical
	}

	return domain.RequestTypeResult{
		Type:             kind,
		TechnicalScore:   technical,
		PastoralScore:    pastoral,
		DoctrineScore:    doctrine,
		NeedsDiscernment: pastoral >= 2 || kind != domain.RequestTechnical,
		NeedsDoctrine:    doctrine >= 2,
	}
}
