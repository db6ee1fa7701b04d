package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	appcfg "github.com/daily-reflections/core/internal/config"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	"github.com/tidwall/gjson"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
)

const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-haiku-4-5-20251001"
	maxOutputTokens       = 400
)

// Generator produces a completion for a system and user prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// ProviderGenerator talks to the configured AI provider. OpenAI and Anthropic
// go through the jetify SDK; OpenAI-compatible endpoints (including
// OpenRouter) use a plain chat completions request.
type ProviderGenerator struct {
	provider appcfg.AIProvider
	model    jetapi.LanguageModel
	client   *http.Client
}

// NewGenerator validates provider and builds its client.
func NewGenerator(provider appcfg.AIProvider) (*ProviderGenerator, error) {
	if strings.TrimSpace(provider.APIKey) == "" {
		return nil, errors.New("AI provider api key is empty")
	}
	g := &ProviderGenerator{
		provider: provider,
		client:   &http.Client{Timeout: 90 * time.Second},
	}
	if usesChatCompletions(provider.Type) {
		return g, nil
	}
	model, err := buildLanguageModel(provider)
	if err != nil {
		return nil, err
	}
	g.model = model
	return g, nil
}

func (g *ProviderGenerator) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	if g.model == nil {
		return callChatCompletions(ctx, g.client, g.provider, systemPrompt, prompt)
	}
	resp, err := jetai.GenerateText(
		ctx,
		buildAIPromptMessages(systemPrompt, prompt),
		jetai.WithModel(g.model),
		jetai.WithMaxOutputTokens(maxOutputTokens),
	)
	if err != nil {
		return "", err
	}
	return extractTextFromAIResponse(resp)
}

func normalizeProviderType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "_", "-")
	t = strings.ReplaceAll(t, " ", "")
	return t
}

func usesChatCompletions(raw string) bool {
	switch normalizeProviderType(raw) {
	case "openai-compatible", "openaicompatible", "openrouter":
		return true
	}
	return false
}

func callChatCompletions(ctx context.Context, client *http.Client, provider appcfg.AIProvider, systemPrompt, prompt string) (string, error) {
	endpoint := normalizeChatCompletionsBase(provider.Endpoint, provider.Type)
	model := strings.TrimSpace(provider.DefaultModel)
	if model == "" {
		model = defaultOpenAIModel
	}

	messages := make([]map[string]string, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	body, err := json.Marshal(map[string]interface{}{
		"model":      model,
		"messages":   messages,
		"max_tokens": maxOutputTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(provider.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if msg := gjson.GetBytes(respBody, "error.message").String(); msg != "" {
		return "", fmt.Errorf("chat completions error: %s", msg)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("chat completions error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if !gjson.ValidBytes(respBody) {
		return "", errors.New("chat completions returned invalid JSON")
	}

	content := gjson.GetBytes(respBody, "choices.0.message.content").String()
	if strings.TrimSpace(content) == "" {
		if msg := gjson.GetBytes(respBody, "message").String(); msg != "" {
			return "", fmt.Errorf("chat completions error: %s", msg)
		}
		return "", errors.New("empty response from AI")
	}
	return content, nil
}

func buildAIPromptMessages(systemPrompt, prompt string) []jetapi.Message {
	messages := make([]jetapi.Message, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: systemPrompt})
	}
	messages = append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(prompt)})
	return messages
}

func extractTextFromAIResponse(resp *jetapi.Response) (string, error) {
	if resp == nil {
		return "", errors.New("empty response from AI")
	}

	var full strings.Builder
	for _, block := range resp.Content {
		textBlock, ok := block.(*jetapi.TextBlock)
		if !ok || textBlock.Text == "" {
			continue
		}
		full.WriteString(textBlock.Text)
	}

	text := full.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from AI")
	}
	return text, nil
}

func buildLanguageModel(provider appcfg.AIProvider) (jetapi.LanguageModel, error) {
	apiKey := strings.TrimSpace(provider.APIKey)
	modelID := strings.TrimSpace(provider.DefaultModel)
	endpoint := strings.TrimSpace(provider.Endpoint)

	switch normalizeProviderType(provider.Type) {
	case "anthropic":
		if modelID == "" {
			modelID = defaultAnthropicModel
		}
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
		}
		client := anthropicclient.NewClient(opts...)
		return jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client)), nil
	case "openai", "":
		if modelID == "" {
			modelID = defaultOpenAIModel
		}
		opts := []openaioption.RequestOption{
			openaioption.WithAPIKey(apiKey),
			openaioption.WithMaxRetries(0),
		}
		if normalized := normalizeOpenAIBaseURL(endpoint); normalized != "" {
			opts = append(opts, openaioption.WithBaseURL(normalized))
		}
		client := openaiclient.NewClient(opts...)
		return jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client)), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider type %q", provider.Type)
	}
}

func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}

	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}

// normalizeChatCompletionsBase returns the base URL without a trailing /v1.
func normalizeChatCompletionsBase(raw, providerType string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		if normalizeProviderType(providerType) == "openrouter" {
			return "https://openrouter.ai/api"
		}
		return "https://api.openai.com"
	}

	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimSuffix(strings.TrimRight(base, "/"), "/v1")
	}
	parsed.Path = strings.TrimSuffix(strings.TrimRight(parsed.Path, "/"), "/v1")
	return strings.TrimRight(parsed.String(), "/")
}
