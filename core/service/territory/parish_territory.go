// Package territory verifies whether a street address falls inside the
// parish boundary.
package territory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"parish_server/core/domain"
)

// civicRange is an inclusive civic-number range. Max 0 means open-ended.
type civicRange struct {
	Min, Max int
}

func (r civicRange) contains(n int) bool {
	if n < r.Min {
		return false
	}
	return r.Max == 0 || n <= r.Max
}

func (r civicRange) label() string {
	if r.Max == 0 {
		return fmt.Sprintf("%d_up", r.Min)
	}
	return fmt.Sprintf("%d_%d", r.Min, r.Max)
}

// streetRule describes which civic numbers of a street belong to the
// parish. All takes precedence; Both applies to every parity; Odd and
// Even apply per parity.
type streetRule struct {
	All  bool
	Both *civicRange
	Odd  *civicRange
	Even *civicRange
}

func rng(min, max int) *civicRange { return &civicRange{Min: min, Max: max} }

// boundary is the registry of streets assigned to the parish, keyed by
// the lowercased street name.
var boundary = map[string]streetRule{
	"via adolfo cancani":               {All: true},
	"via antonio allegri da correggio": {All: true},
	"via antonio gramsci":              {All: true},
	"via armando spadini":              {All: true},
	"via bartolomeo ammannati":         {All: true},
	"piazzale delle belle arti":        {All: true},
	"viale delle belle arti":           {All: true},
	"viale bruno buozzi":               {Odd: rng(109, 0), Even: rng(90, 0)},
	"via cardinal de luca":             {All: true},
	"via carlo dolci":                  {All: true},
	"via cesare fracassini":            {Odd: rng(1, 0)},
	"via cimabue":                      {All: true},
	"via domenico alberto azuni":       {Even: rng(1, 0)},
	"piazzale don giovanni minzoni":    {All: true},
	"via enrico chiaradia":             {All: true},
	"via enrico pessina":               {All: true},
	"via filippo lippi":                {All: true},
	"via flaminia":                     {Odd: rng(109, 217), Even: rng(158, 162)},
	"lungotevere flaminio":             {Both: rng(16, 38)},
	"via francesco jacovacci":          {All: true},
	"via giovanni vincenzo gravina":    {All: true},
	"via giuseppe ceracchi":            {All: true},
	"via giuseppe de notaris":          {All: true},
	"via giuseppe mangili":             {Odd: rng(1, 0)},
	"via jacopo da ponte":              {All: true},
	"via luigi canina":                 {All: true},
	"piazzale manila":                  {All: true},
	"piazza marina":                    {Both: rng(24, 35)},
	"piazza della marina":              {Both: rng(24, 35)},
	"piazzale miguel cervantes":        {All: true},
	"largo dei monti parioli":          {All: true},
	"via monti parioli":                {Odd: rng(1, 33), Even: rng(4, 62)},
	"lungotevere delle navi":           {All: true},
	"via omero":                        {Odd: rng(1, 0)},
	"via paolo bartolini":              {All: true},
	"salita dei parioli":               {Even: rng(1, 0)},
	"via pietro da cortona":            {All: true},
	"via pietro paolo rubens":          {Even: rng(1, 0)},
	"via pomarancio":                   {All: true},
	"via sandro botticelli":            {All: true},
	"via sassoferrato":                 {All: true},
	"via sebastiano conca":             {All: true},
	"viale tiziano":                    {All: true},
	"via ulisse aldrovandi":            {Odd: rng(1, 9)},
	"via valmichi":                     {Odd: rng(1, 0)},
	"via di villa giulia":              {All: true},
	"piazzale di villa giulia":         {All: true},
}

const streetWord = `(?:via|viale|piazza|piazzale|largo|lungotevere|salita)`

var (
	directAddrRe = regexp.MustCompile(
		`(?i)\b(` + streetWord + `\s+[a-zàèéìòù']+(?:\s+[a-zàèéìòù']+)*)\s+(?:n\.?\s*|civico\s+)?(\d+)`)
	prefixedAddrRe = regexp.MustCompile(
		`(?i)\b(?:in|abito\s+in|abito\s+al|abito\s+a|al)\s+(` + streetWord + `\s+[a-zàèéìòù']+(?:\s+[a-zàèéìòù']+)*)\s+(?:n\.?\s*|civico\s+)?(\d+)`)
)

type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

// ExtractAddress pulls the first street and civic number out of the text.
func (v *Validator) ExtractAddress(text string) (street string, civic int, ok bool) {
	for _, re := range []*regexp.Regexp{prefixedAddrRe, directAddrRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			street = strings.ToLower(strings.TrimSpace(m[1]))
			street = strings.TrimSuffix(street, " civico")
			street = strings.Join(strings.Fields(street), " ")
			civic, _ = strconv.Atoi(m[2])
			return street, civic, true
		}
	}
	return "", 0, false
}

// Verify extracts an address from the text and checks it against the
// parish boundary.
func (v *Validator) Verify(text string) domain.TerritoryVerification {
	street, civic, ok := v.ExtractAddress(text)
	if !ok {
		return domain.TerritoryVerification{}
	}

	res := domain.TerritoryVerification{
		AddressFound: true,
		Street:       street,
		CivicNumber:  civic,
	}

	rule, found := boundary[street]
	if !found {
		res.Detail = "street_not_found"
		return res
	}

	switch {
	case rule.All:
		res.InParish = true
		res.Detail = "all_numbers"
	case rule.Both != nil:
		if rule.Both.contains(civic) {
			res.InParish = true
			res.Detail = "range_" + rule.Both.label()
		} else {
			res.Detail = "outside_range_" + rule.Both.label()
		}
	default:
		var r *civicRange
		var prefix string
		if civic%2 == 1 {
			r, prefix = rule.Odd, "odd_range_"
		} else {
			r, prefix = rule.Even, "even_range_"
		}
		if r != nil && r.contains(civic) {
			res.InParish = true
			res.Detail = prefix + r.label()
		} else {
			res.Detail = "civic_not_in_range"
		}
	}
	return res
}
