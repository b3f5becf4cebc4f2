package analyzer

import (
	"regexp"
	"strings"
)

const (
	colorVocab = `red|blue|green|yellow|purple|orange|pink|black|white|gray|grey|teal|cyan|magenta|brown`
	appVocab   = `notes|calculator|terminal|browser|music|calendar|tasks|weather|games|editor|mail|chat|files|settings|photos`
)

type preferenceRule struct {
	re         *regexp.Regexp
	category   string
	key        string
	confidence float64
}

// Rules run over lower-cased user text; capture group 1 is the value.
var preferenceRules = []preferenceRule{
	{
		re:         regexp.MustCompile(`\bfavou?rite colou?r\s+(?:is\s+)?(` + colorVocab + `)\b`),
		category:   "appearance",
		key:        "favoriteColor",
		confidence: 0.8,
	},
	{
		re:         regexp.MustCompile(`\b(?:prefer|like|love|use|want|enable|switch to)\s+(?:the\s+)?(dark|light)\s+(?:mode|theme)\b`),
		category:   "appearance",
		key:        "theme",
		confidence: 0.8,
	},
	{
		re:         regexp.MustCompile(`\b(dark|light) mode\b`),
		category:   "appearance",
		key:        "theme",
		confidence: 0.6,
	},
	{
		re:         regexp.MustCompile(`\b(?:favou?rite app(?:lication)?\s+is|prefer using|love using|mostly use)\s+(?:the\s+|my\s+)?(` + appVocab + `)\b`),
		category:   "apps",
		key:        "favoriteApp",
		confidence: 0.7,
	},
}

// ExtractPreferences scans every user message against the trigger rules. Each
// match is an independent candidate.
func ExtractPreferences(userMessages []string) []PreferenceCandidate {
	out := []PreferenceCandidate{}
	for _, msg := range userMessages {
		lower := strings.ToLower(msg)
		for _, rule := range preferenceRules {
			for _, m := range rule.re.FindAllStringSubmatch(lower, -1) {
				if len(m) < 2 || m[1] == "" {
					continue
				}
				out = append(out, PreferenceCandidate{
					Category:   rule.category,
					Key:        rule.key,
					Value:      normalizeValue(m[1]),
					Confidence: rule.confidence,
				})
			}
		}
	}
	return out
}

func normalizeValue(v string) string {
	if v == "grey" {
		return "gray"
	}
	return v
}
