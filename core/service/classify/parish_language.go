package classify

import "strings"

// Stop-word lists for the heuristic language detector. The detector is
// the fallback path; when the pre-generation gate returns a language it
// wins over this heuristic.
var languageKeywords = map[string][]string{
	"en": {
		"the", "and", "would", "could", "please", "thank you", "dear", "we are",
		"project", "information", "your", "with", "from", "our", "have", "this",
		"that", "honored", "exhibition", "request", "contribute", "peace", "students",
	},
	"es": {
		"el", "la", "de", "que", "por favor", "gracias", "querido", "somos",
		"proyecto", "información", "con", "para", "su", "este", "esta",
	},
	"it": {
		"il", "la", "di", "che", "per favore", "grazie", "gentile", "siamo",
		"progetto", "informazioni", "con", "per", "vorrei", "quando", "come",
	},
}

// DetectLanguage guesses the language of the text by stop-word counting.
// Fewer than two hits for every language falls back to Italian with low
// confidence.
func DetectLanguage(text string) (lang string, confidence float64) {
	padded := " " + strings.ToLower(text) + " "

	best, bestScore := "it", 0
	for _, l := range []string{"it", "en", "es"} {
		score := 0
		for _, kw := range languageKeywords[l] {
			score += strings.Count(padded, " "+kw+" ")
		}
		if score > bestScore {
			best, bestScore = l, score
		}
	}

	if bestScore < 2 {
		return "it", 0.5
	}
	confidence = 0.6 + 0.05*float64(bestScore)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return best, confidence
}
