package ai

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"
)

const (
	maxTitleRunes = 120
	maxEmotions   = 5
)

// Analysis is the structured result of the text stage.
type Analysis struct {
	Title       string   `json:"title"`
	Mood        string   `json:"mood"`
	Emotions    []string `json:"emotions"`
	ImagePrompt string   `json:"imagePrompt"`
}

var errEmptyAnalysis = errors.New("analysis is missing title or mood")

// parseAnalysis decodes a model reply, tolerating code fences and chatter
// around the JSON object, and normalizes the fields.
func parseAnalysis(raw string) (*Analysis, error) {
	var a Analysis
	if err := unmarshalAIJSON(raw, &a); err != nil {
		return nil, err
	}

	a.Title = truncateText(strings.TrimSpace(a.Title), maxTitleRunes)
	a.Mood = normalizeWord(a.Mood)
	a.ImagePrompt = strings.TrimSpace(a.ImagePrompt)
	if a.Title == "" || a.Mood == "" {
		return nil, errEmptyAnalysis
	}

	seen := make(map[string]struct{}, len(a.Emotions))
	emotions := make([]string, 0, len(a.Emotions))
	for _, e := range a.Emotions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		emotions = append(emotions, e)
		if len(emotions) == maxEmotions {
			break
		}
	}
	a.Emotions = emotions
	return &a, nil
}

// normalizeWord keeps the first word, lowercased and stripped of punctuation.
func normalizeWord(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimFunc(fields[0], func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
}

func unmarshalAIJSON(raw string, out interface{}) error {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), out); err == nil {
			return nil
		}
	}

	return errors.New("invalid JSON response from AI")
}
