package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/desk-memory/internal/model"
)

func userMsgs(texts ...string) []model.Message {
	out := make([]model.Message, 0, len(texts))
	for _, t := range texts {
		out = append(out, model.Message{Role: model.RoleUser, Content: t})
	}
	return out
}

func TestAnalyzeEmpty(t *testing.T) {
	got := Analyze(nil)
	assert.Equal(t, "", got.Topic)
	assert.Equal(t, model.Sentiment(""), got.Sentiment)
	assert.NotNil(t, got.Keywords)
	assert.Empty(t, got.Keywords)
	assert.NotNil(t, got.PossiblePreferences)
	assert.Empty(t, got.PossiblePreferences)
}

func TestAnalyzeNoUserMessages(t *testing.T) {
	got := Analyze([]model.Message{{Role: model.RoleAssistant, Content: "Great wonderful answer about weather"}})
	assert.Equal(t, "", got.Topic)
	assert.Equal(t, model.Sentiment(""), got.Sentiment)
	assert.Empty(t, got.Keywords)
}

func TestSentimentPositive(t *testing.T) {
	got := Analyze(userMsgs("I love this app", "it's great and wonderful"))
	assert.Equal(t, model.SentimentPositive, got.Sentiment)
}

func TestSentimentNegative(t *testing.T) {
	got := Analyze(userMsgs("I hate this, it's terrible and awful"))
	assert.Equal(t, model.SentimentNegative, got.Sentiment)
}

func TestSentimentNeutral(t *testing.T) {
	got := Analyze(userMsgs("open the calculator window"))
	assert.Equal(t, model.SentimentNeutral, got.Sentiment)

	got = Analyze(userMsgs("good but slow"))
	assert.Equal(t, model.SentimentNeutral, got.Sentiment)
}

func TestExtractKeywordsRanking(t *testing.T) {
	kw := ExtractKeywords("Weather today? The weather in Paris, weather and paris 2024 ok", 5)
	require.NotEmpty(t, kw)
	assert.Equal(t, []string{"weather", "paris", "today"}, kw)
}

func TestExtractKeywordsTiesKeepFirstOccurrence(t *testing.T) {
	kw := ExtractKeywords("zebra apple mango apple zebra kiwi", 5)
	assert.Equal(t, []string{"zebra", "apple", "mango", "kiwi"}, kw)
}

func TestExtractKeywordsCapsAtFive(t *testing.T) {
	kw := ExtractKeywords("alpha bravo charlie delta echo foxtrot golf", 5)
	assert.Len(t, kw, 5)
	assert.Equal(t, "alpha", kw[0])
}

func TestKeywordsUseLastFiveUserMessages(t *testing.T) {
	msgs := userMsgs("ancient", "second", "third", "fourth", "fifth", "sixth")
	got := Analyze(msgs)
	assert.NotContains(t, got.Keywords, "ancient")
	assert.Contains(t, got.Keywords, "second")
}

func TestTopicFromLastThreeUserMessages(t *testing.T) {
	msgs := userMsgs(
		"music music music",
		"tell me about weather",
		"is the weather nice",
		"weather tomorrow",
	)
	got := Analyze(msgs)
	assert.Equal(t, "Weather", got.Topic)
}

func TestTopicAbsentWithoutKeywords(t *testing.T) {
	got := Analyze(userMsgs("is it ok", "42"))
	assert.Equal(t, "", got.Topic)
}

func TestPreferenceExtraction(t *testing.T) {
	msgs := append(userMsgs(
		"My favorite color is blue.",
		"I prefer dark mode please",
		"My favorite app is the calculator",
	), model.Message{Role: model.RoleAssistant, Content: "I like light mode"})

	got := Analyze(msgs)
	assert.Contains(t, got.PossiblePreferences, PreferenceCandidate{Category: "appearance", Key: "favoriteColor", Value: "blue", Confidence: 0.8})
	assert.Contains(t, got.PossiblePreferences, PreferenceCandidate{Category: "appearance", Key: "theme", Value: "dark", Confidence: 0.8})
	assert.Contains(t, got.PossiblePreferences, PreferenceCandidate{Category: "apps", Key: "favoriteApp", Value: "calculator", Confidence: 0.7})
	for _, p := range got.PossiblePreferences {
		assert.NotEqual(t, "light", p.Value, "assistant messages must not yield preferences")
	}
}

func TestPreferenceCandidatesAreNotDeduplicated(t *testing.T) {
	got := Analyze(userMsgs("light mode is nice", "light mode again"))
	n := 0
	for _, p := range got.PossiblePreferences {
		if p.Key == "theme" && p.Value == "light" {
			n++
		}
	}
	assert.Equal(t, 2, n)
}

func TestAnalyzeDeterministic(t *testing.T) {
	msgs := userMsgs("notes notes music", "calendar music notes", "I prefer using terminal")
	assert.Equal(t, Analyze(msgs), Analyze(msgs))
}
