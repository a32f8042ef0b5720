package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Failure kinds of the network layer. These never reach the text formatting
// pipeline; the caller maps them to log output and the exit code policy.
var (
	ErrTimeout           = errors.New("request timed out")
	ErrConnection        = errors.New("connection failed")
	ErrMalformedResponse = errors.New("malformed response")
)

// HTTPError reports a non-2xx provider answer with a bounded body snippet.
type HTTPError struct {
	Status  int
	Snippet string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Snippet)
}

const snippetLimit = 200

// snippet bounds an error body for logs and messages.
func snippet(s string) string {
	if len(s) > snippetLimit {
		return s[:snippetLimit]
	}
	return s
}

// classify maps a transport error onto the failure taxonomy, keeping the
// original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}
