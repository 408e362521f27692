package voice

import (
	"regexp"
	"strings"
)

type rewrite struct {
	pattern *regexp.Regexp
	replace string
}

// applied in order; the three-group currency form must run before the two-group one
var speechRewrites = []rewrite{
	{regexp.MustCompile(`\$(\d+),(\d+),(\d+)`), "${1} million, ${2} thousand, ${3} dollars"},
	{regexp.MustCompile(`\$(\d+),(\d+)`), "${1} thousand, ${2} hundred dollars"},
	{regexp.MustCompile(`\$(\d+)M`), "${1} million dollars"},
	{regexp.MustCompile(`\bNSW\b`), "New South Wales"},
	{regexp.MustCompile(`\bCBD\b`), "Central Business District"},
	{regexp.MustCompile(`\bAI\b`), "A.I."},
	{regexp.MustCompile(`\bROI\b`), "R.O.I."},
	{regexp.MustCompile(`\bsqft\b`), "square feet"},
	{regexp.MustCompile(`\bsqm\b`), "square metres"},
	{regexp.MustCompile(`\bbeds?\b`), "bedrooms"},
	{regexp.MustCompile(`\bbaths?\b`), "bathrooms"},
}

var quoteReplacer = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")

// PrepareForSpeech rewrites display text into something a speech synthesizer
// reads naturally: currency, abbreviations and units are spelled out.
func PrepareForSpeech(text string) string {
	for _, r := range speechRewrites {
		text = r.pattern.ReplaceAllString(text, r.replace)
	}
	return strings.TrimSpace(quoteReplacer.Replace(text))
}
