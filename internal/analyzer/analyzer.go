// Package analyzer derives topic, sentiment, keywords and preference
// candidates from a conversation. Everything here is pure and deterministic.
package analyzer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rcliao/desk-memory/internal/model"
)

const (
	keywordWindow = 5
	topicWindow   = 3
	maxKeywords   = 5
)

// PreferenceCandidate is a preference fact inferred from user text. Duplicates
// are expected; the memory store merges them on upsert.
type PreferenceCandidate struct {
	Category   string  `json:"category"`
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Insights is the analyzer output. Empty Topic and Sentiment mean unknown.
type Insights struct {
	Topic               string                `json:"topic,omitempty"`
	Sentiment           model.Sentiment       `json:"sentiment,omitempty"`
	Keywords            []string              `json:"keywords"`
	PossiblePreferences []PreferenceCandidate `json:"possible_preferences"`
}

var (
	punctRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

	stopWords = toSet(
		"the", "and", "for", "are", "but", "not", "you", "all", "any", "can",
		"had", "her", "was", "one", "our", "out", "has", "have", "this", "that",
		"with", "from", "they", "will", "would", "there", "their", "what", "about",
		"which", "when", "make", "like", "just", "into", "your", "some", "could",
		"them", "than", "then", "its", "also", "been", "how", "did", "does", "get",
		"want", "need", "please",
	)

	positiveWords = toSet(
		"love", "great", "wonderful", "good", "excellent", "amazing", "awesome",
		"happy", "thanks", "thank", "nice", "fantastic", "perfect", "enjoy",
		"glad", "best", "cool", "helpful", "beautiful", "like",
	)

	negativeWords = toSet(
		"hate", "terrible", "awful", "bad", "horrible", "sad", "angry", "annoying",
		"worst", "poor", "wrong", "broken", "frustrated", "frustrating",
		"disappointed", "ugly", "useless", "slow", "problem", "error",
	)
)

// Analyze inspects messages and returns derived insights.
func Analyze(messages []model.Message) Insights {
	out := Insights{
		Keywords:            []string{},
		PossiblePreferences: []PreferenceCandidate{},
	}

	var user []string
	for _, m := range messages {
		if m.Role == model.RoleUser {
			user = append(user, m.Content)
		}
	}
	if len(user) == 0 {
		return out
	}

	combined := strings.Join(lastN(user, keywordWindow), " ")
	out.Keywords = ExtractKeywords(combined, maxKeywords)
	out.Sentiment = Sentiment(combined)
	out.Topic = topicOf(lastN(user, topicWindow))
	out.PossiblePreferences = ExtractPreferences(user)
	return out
}

// ExtractKeywords returns up to n tokens ranked by descending frequency, ties
// in first-occurrence order.
func ExtractKeywords(text string, n int) []string {
	counts := map[string]int{}
	var order []string
	for _, tok := range tokenize(text) {
		if utf8.RuneCountInString(tok) <= 2 || isNumeric(tok) || stopWords[tok] {
			continue
		}
		if _, ok := counts[tok]; !ok {
			order = append(order, tok)
		}
		counts[tok]++
	}

	// insertion sort keeps first-occurrence order among equal counts
	ranked := make([]string, 0, len(order))
	for _, tok := range order {
		i := len(ranked)
		ranked = append(ranked, tok)
		for i > 0 && counts[ranked[i-1]] < counts[tok] {
			ranked[i] = ranked[i-1]
			i--
		}
		ranked[i] = tok
	}

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Sentiment scores text against the fixed lexicons. No stop-word filtering.
func Sentiment(text string) model.Sentiment {
	pos, neg := 0, 0
	for _, tok := range tokenize(text) {
		if positiveWords[tok] {
			pos++
		}
		if negativeWords[tok] {
			neg++
		}
	}
	switch {
	case pos > neg:
		return model.SentimentPositive
	case neg > pos:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

func topicOf(msgs []string) string {
	kw := ExtractKeywords(strings.Join(msgs, " "), 1)
	if len(kw) == 0 {
		return ""
	}
	r := []rune(kw[0])
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func tokenize(text string) []string {
	text = punctRegex.ReplaceAllString(strings.ToLower(text), "")
	return strings.Fields(text)
}

func isNumeric(tok string) bool {
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func lastN(s []string, n int) []string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
