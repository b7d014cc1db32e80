// README: Māori place-name macron correction for display text.
package locale

import "regexp"

type macronRule struct {
	re  *regexp.Regexp
	out string
}

// Only names whose correct spelling differs from the plain ASCII form are listed.
var macronRules = func() []macronRule {
	pairs := [][2]string{
		{"Wanaka", "Wānaka"},
		{"Taupo", "Taupō"},
		{"Kaikoura", "Kaikōura"},
		{"Ohakune", "Ōhakune"},
		{"Whakatane", "Whakatāne"},
		{"Oamaru", "Ōamaru"},
		{"Tekapo", "Tekapō"},
	}
	rules := make([]macronRule, 0, len(pairs))
	for _, p := range pairs {
		rules = append(rules, macronRule{re: regexp.MustCompile(`\b` + p[0] + `\b`), out: p[1]})
	}
	return rules
}()

// ApplyMacrons rewrites whole-word occurrences of known place names to their macronised spelling.
// Applying it twice is the same as applying it once.
func ApplyMacrons(text string) string {
	for _, r := range macronRules {
		text = r.re.ReplaceAllLiteralString(text, r.out)
	}
	return text
}
