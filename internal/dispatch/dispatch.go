// Package dispatch runs a provider call off the caller's goroutine and
// delivers exactly one outcome. A session holds at most one in-flight
// request; cancelling does not abort the network call but marks the handle so
// the eventual result is dropped on arrival.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/somas/internal/llm"
)

// ErrBusy is returned when a request is started while another is in flight.
var ErrBusy = errors.New("request already in flight")

// ErrCancelled is delivered when the handle was cancelled before the
// provider answered.
var ErrCancelled = errors.New("request cancelled")

// Result is the single outcome of one dispatched call: either Response is
// non-nil or Err is non-nil, never both.
type Result struct {
	Response *llm.Response
	Err      error
}

// Handle tracks one dispatched request.
type Handle struct {
	done      chan Result
	cancelled atomic.Bool
}

// Done yields exactly one Result and is then closed.
func (h *Handle) Done() <-chan Result { return h.done }

// Cancel marks the handle; the in-flight HTTP call keeps running but its
// result is discarded when it arrives, and ErrCancelled is delivered instead.
func (h *Handle) Cancel() {
	h.cancelled.Store(true)
	log.Info().Msg("dispatch cancelled, result will be discarded")
}

// Session serializes provider calls: one request at a time.
type Session struct {
	mu       sync.Mutex
	inFlight bool
}

// Dispatch starts the provider call on a new goroutine. It fails fast with
// ErrBusy while a previous call has not delivered its result yet.
func (s *Session) Dispatch(ctx context.Context, provider llm.Provider, prompt, model string) (*Handle, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.inFlight = true
	s.mu.Unlock()

	h := &Handle{done: make(chan Result, 1)}
	go func() {
		defer close(h.done)
		resp, err := provider.Complete(ctx, prompt, model)

		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()

		if h.cancelled.Load() {
			if err == nil {
				log.Info().Int("chars", len(resp.Content)).Msg("discarding response after cancel")
			}
			h.done <- Result{Err: ErrCancelled}
			return
		}
		if err != nil {
			h.done <- Result{Err: err}
			return
		}
		h.done <- Result{Response: resp}
	}()
	return h, nil
}
