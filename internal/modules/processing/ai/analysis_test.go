package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		title    string
		mood     string
		emotions []string
	}{
		{
			name:     "plain",
			raw:      `{"title":"Quiet Walk","mood":"calm","emotions":["peaceful"],"imagePrompt":"a park path"}`,
			title:    "Quiet Walk",
			mood:     "calm",
			emotions: []string{"peaceful"},
		},
		{
			name:     "fenced",
			raw:      "```json\n{\"title\":\"Rainy Desk\",\"mood\":\"Tired.\",\"emotions\":[\"Weary\",\"weary\",\" hopeful \"]}\n```",
			title:    "Rainy Desk",
			mood:     "tired",
			emotions: []string{"weary", "hopeful"},
		},
		{
			name:     "chatter around object",
			raw:      `Sure! Here you go: {"title":"Small Wins","mood":"proud and happy","emotions":[]} Hope that helps.`,
			title:    "Small Wins",
			mood:     "proud",
			emotions: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parseAnalysis(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.title, a.Title)
			assert.Equal(t, tt.mood, a.Mood)
			assert.Equal(t, tt.emotions, a.Emotions)
		})
	}
}

func TestParseAnalysisRejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"I cannot help with that.",
		`{"title":"","mood":"calm"}`,
		`{"title":"Walk","mood":"  "}`,
		`{"title": "unterminated`,
	} {
		_, err := parseAnalysis(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseAnalysisCaps(t *testing.T) {
	raw := `{"title":"` + strings.Repeat("a", 300) + `","mood":"calm","emotions":["a","b","c","d","e","f","g"]}`
	a, err := parseAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", maxTitleRunes)+"...", a.Title)
	assert.Len(t, a.Emotions, maxEmotions)
}

func TestFallbackImageURL(t *testing.T) {
	endpoint := "https://images.example.com/search"

	got := FallbackImageURL(endpoint, "Calm", []string{"peaceful", "calm", "warm light"})
	assert.Equal(t, "https://images.example.com/search?calm,peaceful,warm+light,aesthetic,minimal,soft-light", got)
	assert.Equal(t, got, FallbackImageURL(endpoint, "Calm", []string{"peaceful", "calm", "warm light"}))

	withQuery := FallbackImageURL(endpoint+"?size=large", "calm", nil)
	assert.Equal(t, "https://images.example.com/search?size=large&calm,aesthetic,minimal,soft-light", withQuery)
}

func TestBuildEntryAnalysisPromptTruncates(t *testing.T) {
	prompt := buildEntryAnalysisPrompt(strings.Repeat("é", maxPromptContentRunes+50))
	assert.True(t, strings.HasPrefix(prompt, "<<<ENTRY\n"))
	assert.True(t, strings.HasSuffix(prompt, "\nENTRY"))
	assert.LessOrEqual(t, len([]rune(prompt)), maxPromptContentRunes+len("<<<ENTRY\n...\nENTRY"))
}
