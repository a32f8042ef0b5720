package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// openRouterFallbackModels is used when the /models endpoint is unreachable.
var openRouterFallbackModels = []Model{
	{ID: "anthropic/claude-sonnet-4.5", Name: "Claude Sonnet 4.5", Description: "Anthropic's beliebtestes Modell"},
	{ID: "anthropic/claude-opus-4.5", Name: "Claude Opus 4.5", Description: "Frontier Reasoning & Coding"},
	{ID: "anthropic/claude-3.5-haiku", Name: "Claude 3.5 Haiku", Description: "Schnell und günstig"},
	{ID: "google/gemini-2.5-flash-preview", Name: "Gemini 2.5 Flash", Description: "Google's schnellstes Modell"},
	{ID: "google/gemini-2.0-flash", Name: "Gemini 2.0 Flash", Description: "Google Budget-Option"},
}

// OpenRouter talks to the OpenRouter API, which fronts a large model catalog
// behind one OpenAI-compatible surface. Completions go through go-openai; the
// model listing is fetched directly because OpenRouter's /models payload
// carries context-length and pricing metadata the OpenAI schema does not.
type OpenRouter struct {
	apiKey  string
	baseURL string
	hc      *http.Client
	client  Client

	mu     sync.Mutex
	models []Model
}

// NewOpenRouter builds the provider. An empty baseURL selects the public
// endpoint; tests point it at a stub server.
func NewOpenRouter(apiKey, baseURL string) *OpenRouter {
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	hc := defaultHTTPClient()
	hc.Transport = &headerTransport{key: "X-Title", value: "SOMAS Prompt Generator"}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = hc

	return &OpenRouter{
		apiKey:  apiKey,
		baseURL: baseURL,
		hc:      hc,
		client:  openai.NewClientWithConfig(cfg),
	}
}

func (p *OpenRouter) ID() string   { return "openrouter" }
func (p *OpenRouter) Name() string { return "OpenRouter" }

// Models loads the catalog from /models, memoized per process, falling back
// to a small static table on any error.
func (p *OpenRouter) Models(ctx context.Context) ([]Model, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.models != nil {
		return p.models, nil
	}

	models, err := p.fetchModels(ctx)
	if err != nil || len(models) == 0 {
		log.Warn().Err(err).Msg("openrouter model list unavailable, using fallback")
		return openRouterFallbackModels, nil
	}
	log.Info().Int("count", len(models)).Msg("openrouter models loaded")
	p.models = models
	return models, nil
}

func (p *OpenRouter) fetchModels(ctx context.Context) ([]Model, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.hc.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{Status: resp.StatusCode}
	}

	var payload struct {
		Data []struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			ContextLength int    `json:"context_length"`
			Pricing       struct {
				Prompt string `json:"prompt"`
			} `json:"pricing"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	models := make([]Model, 0, len(payload.Data))
	for _, m := range payload.Data {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		models = append(models, Model{
			ID:          m.ID,
			Name:        name,
			Description: describeModel(m.ContextLength, m.Pricing.Prompt),
		})
	}
	return models, nil
}

// describeModel renders "128k ctx, $0.0030/tok" style descriptions from the
// catalog metadata; absent fields are omitted.
func describeModel(contextLength int, promptPrice string) string {
	var parts []string
	switch {
	case contextLength >= 1_000_000:
		parts = append(parts, fmt.Sprintf("%dM ctx", contextLength/1_000_000))
	case contextLength >= 1000:
		parts = append(parts, fmt.Sprintf("%dk ctx", contextLength/1000))
	}
	if promptPrice != "" {
		if price, err := strconv.ParseFloat(promptPrice, 64); err == nil {
			switch {
			case price == 0:
				parts = append(parts, "kostenlos")
			case price < 0.001:
				parts = append(parts, fmt.Sprintf("$%.6f/tok", price))
			default:
				parts = append(parts, fmt.Sprintf("$%.4f/tok", price))
			}
		}
	}
	return strings.Join(parts, ", ")
}

// Complete sends one prompt through the OpenAI-compatible chat endpoint.
func (p *OpenRouter) Complete(ctx context.Context, prompt, model string) (*Response, error) {
	log.Info().Str("model", model).Int("prompt_len", len(prompt)).Msg("openrouter call")

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &HTTPError{Status: apiErr.HTTPStatusCode, Snippet: snippet(apiErr.Message)}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return nil, &HTTPError{Status: reqErr.HTTPStatusCode, Snippet: snippet(reqErr.Error())}
		}
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrMalformedResponse
	}

	out := &Response{
		Content:    resp.Choices[0].Message.Content,
		Model:      model,
		Provider:   p.Name(),
		TokensUsed: resp.Usage.TotalTokens,
	}
	log.Info().Int("chars", len(out.Content)).Int("tokens", out.TokensUsed).Msg("openrouter response")
	return out, nil
}

// ValidateKey probes /models, which costs no credits.
func (p *OpenRouter) ValidateKey(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	resp, err := p.hc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
