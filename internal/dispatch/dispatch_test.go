package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperifyio/somas/internal/llm"
)

// stubProvider answers after an optional delay gated on release.
type stubProvider struct {
	release chan struct{}
	resp    *llm.Response
	err     error
}

func (s *stubProvider) ID() string   { return "stub" }
func (s *stubProvider) Name() string { return "Stub" }
func (s *stubProvider) Models(context.Context) ([]llm.Model, error) {
	return []llm.Model{{ID: "stub-model"}}, nil
}
func (s *stubProvider) ValidateKey(context.Context) bool { return true }

func (s *stubProvider) Complete(ctx context.Context, prompt, model string) (*llm.Response, error) {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func TestDispatchDeliversExactlyOneResult(t *testing.T) {
	p := &stubProvider{resp: &llm.Response{Content: "ok"}}
	var s Session
	h, err := s.Dispatch(context.Background(), p, "prompt", "m")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	res, ok := <-h.Done()
	if !ok {
		t.Fatal("channel closed before delivering a result")
	}
	if res.Err != nil || res.Response == nil || res.Response.Content != "ok" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, ok := <-h.Done(); ok {
		t.Fatal("more than one result delivered")
	}
}

func TestDispatchDeliversError(t *testing.T) {
	want := errors.New("provider broke")
	p := &stubProvider{err: want}
	var s Session
	h, _ := s.Dispatch(context.Background(), p, "prompt", "m")
	res := <-h.Done()
	if !errors.Is(res.Err, want) || res.Response != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSecondDispatchWhileInFlightIsRejected(t *testing.T) {
	release := make(chan struct{})
	p := &stubProvider{release: release, resp: &llm.Response{Content: "late"}}
	var s Session

	h, err := s.Dispatch(context.Background(), p, "prompt", "m")
	if err != nil {
		t.Fatalf("first Dispatch: %v", err)
	}
	if _, err := s.Dispatch(context.Background(), p, "prompt", "m"); !errors.Is(err, ErrBusy) {
		t.Fatalf("want ErrBusy, got %v", err)
	}

	close(release)
	<-h.Done()

	// After delivery the session accepts a new request.
	p2 := &stubProvider{resp: &llm.Response{Content: "next"}}
	h2, err := s.Dispatch(context.Background(), p2, "prompt", "m")
	if err != nil {
		t.Fatalf("Dispatch after completion: %v", err)
	}
	if res := <-h2.Done(); res.Response == nil || res.Response.Content != "next" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCancelDiscardsLateResult(t *testing.T) {
	release := make(chan struct{})
	p := &stubProvider{release: release, resp: &llm.Response{Content: "discarded"}}
	var s Session

	h, _ := s.Dispatch(context.Background(), p, "prompt", "m")
	h.Cancel()
	close(release) // provider finishes after the cancel

	select {
	case res := <-h.Done():
		if !errors.Is(res.Err, ErrCancelled) {
			t.Fatalf("want ErrCancelled, got %+v", res)
		}
		if res.Response != nil {
			t.Fatal("cancelled handle must not expose the response")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result delivered after cancel")
	}
}
