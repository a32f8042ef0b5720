package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

const perplexityBaseURL = "https://api.perplexity.ai"

// Perplexity has no model listing endpoint; the Sonar family is static.
var perplexityModels = []Model{
	{ID: "sonar", Name: "Sonar", Description: "Balanced - Geschwindigkeit & Kosten"},
	{ID: "sonar-pro", Name: "Sonar Pro", Description: "Best für komplexe Queries (empfohlen für SOMAS)"},
	{ID: "sonar-reasoning", Name: "Sonar Reasoning", Description: "Spezialisiert für Reasoning-Tasks"},
}

// Perplexity talks to the Sonar chat completions API. The wire format is
// OpenAI-compatible plus a top-level citations array of source URLs, which
// go-openai drops on decode, so this client speaks the JSON directly.
type Perplexity struct {
	apiKey  string
	baseURL string
	hc      *http.Client
}

// NewPerplexity builds the provider. An empty baseURL selects the public
// endpoint; tests point it at a stub server.
func NewPerplexity(apiKey, baseURL string) *Perplexity {
	if baseURL == "" {
		baseURL = perplexityBaseURL
	}
	return &Perplexity{apiKey: apiKey, baseURL: baseURL, hc: defaultHTTPClient()}
}

func (p *Perplexity) ID() string   { return "perplexity" }
func (p *Perplexity) Name() string { return "Perplexity AI" }

func (p *Perplexity) Models(_ context.Context) ([]Model, error) {
	return perplexityModels, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Citations []string `json:"citations"`
}

// Complete sends one prompt and returns the answer together with the
// citation URLs the API reports for it.
func (p *Perplexity) Complete(ctx context.Context, prompt, model string) (*Response, error) {
	log.Info().Str("model", model).Int("prompt_len", len(prompt)).Msg("perplexity call")

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	cr, err := p.post(ctx, chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}
	if len(cr.Choices) == 0 {
		return nil, ErrMalformedResponse
	}

	out := &Response{
		Content:    cr.Choices[0].Message.Content,
		Model:      model,
		Provider:   p.Name(),
		TokensUsed: cr.Usage.TotalTokens,
		Citations:  cr.Citations,
	}
	log.Info().
		Int("chars", len(out.Content)).
		Int("tokens", out.TokensUsed).
		Int("citations", len(out.Citations)).
		Msg("perplexity response")
	return out, nil
}

func (p *Perplexity) post(ctx context.Context, body chatRequest) (*chatResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.hc.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, snippetLimit))
		return nil, &HTTPError{Status: resp.StatusCode, Snippet: string(raw)}
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &cr, nil
}

// ValidateKey sends a minimal request; Perplexity has no free probe endpoint.
func (p *Perplexity) ValidateKey(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cr, err := p.post(ctx, chatRequest{
		Model:    "sonar",
		Messages: []chatMessage{{Role: "user", Content: "Hi"}},
	})
	return err == nil && cr != nil
}
