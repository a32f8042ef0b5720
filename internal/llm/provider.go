package llm

import (
	"context"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface needed to call a chat model. It mirrors the
// CreateChatCompletion method so that any OpenAI-compatible backend can be
// adapted, including test stubs.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Model describes one selectable model of a provider.
type Model struct {
	ID          string
	Name        string
	Description string
}

// Response is the provider-independent result of one completion call.
// Citations is only populated by providers that return source URLs alongside
// the answer text (Perplexity); the text then already contains [N] markers.
type Response struct {
	Content    string
	Model      string
	Provider   string
	TokensUsed int
	Citations  []string
}

// Provider is a chat-completion backend the application can dispatch to.
type Provider interface {
	// ID is the stable identifier used in config and the ratings store.
	ID() string
	// Name is the human-readable provider name shown in exports.
	Name() string
	// Models lists the selectable models. Providers without a listing
	// endpoint return a static table.
	Models(ctx context.Context) ([]Model, error)
	// Complete sends one prompt and returns exactly one response or error.
	Complete(ctx context.Context, prompt, model string) (*Response, error)
	// ValidateKey reports whether the configured API key is accepted.
	ValidateKey(ctx context.Context) bool
}

// Completion calls are bounded by this timeout unless the caller's context is
// stricter; model listing and key validation use the short probe timeout.
const (
	completionTimeout = 120 * time.Second
	probeTimeout      = 15 * time.Second
)

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: completionTimeout}
}

// headerTransport adds a fixed header to every request, used to attach the
// application identity header OpenRouter asks integrators to send.
type headerTransport struct {
	base  http.RoundTripper
	key   string
	value string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set(t.key, t.value)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}
