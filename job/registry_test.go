package job_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/job"
)

type reminderArgs struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := job.NewRegistry()

	var got reminderArgs
	def := job.NewDefinition(job.Kind("send-reminder"), func(_ context.Context, p reminderArgs) (tempo.Outcome, error) {
		got = p
		return tempo.OutcomeCompleted, nil
	})

	job.RegisterDefinition(r, def)

	h, ok := r.Get("send-reminder")
	if !ok {
		t.Fatal("expected handler to be registered")
	}

	payload, _ := json.Marshal(reminderArgs{UserID: "user_1", Title: "Hello"})
	outcome, err := h(context.Background(), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != tempo.OutcomeCompleted {
		t.Errorf("outcome = %q, want %q", outcome, tempo.OutcomeCompleted)
	}
	if got.UserID != "user_1" {
		t.Errorf("UserID = %q, want %q", got.UserID, "user_1")
	}
	if got.Title != "Hello" {
		t.Errorf("Title = %q, want %q", got.Title, "Hello")
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := job.NewRegistry()
	_, ok := r.Get("nonexistent")
	if ok {
		t.Fatal("expected no handler for unregistered kind")
	}
}

func TestRegistry_ResolveUnknownFailsFast(t *testing.T) {
	r := job.NewRegistry()
	_, err := r.Resolve("nonexistent")
	if !errors.Is(err, tempo.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestRegistry_Kinds(t *testing.T) {
	r := job.NewRegistry()

	noop := func(_ context.Context, _ struct{}) (tempo.Outcome, error) {
		return tempo.OutcomeCompleted, nil
	}
	job.RegisterDefinition(r, job.NewDefinition(job.Kind("kind-a"), noop))
	job.RegisterDefinition(r, job.NewDefinition(job.Kind("kind-b"), noop))
	job.RegisterDefinition(r, job.NewDefinition(job.Kind("kind-c"), noop))

	kinds := r.Kinds()
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	if len(kinds) != 3 {
		t.Fatalf("expected 3 kinds, got %d", len(kinds))
	}
	expected := []job.Kind{"kind-a", "kind-b", "kind-c"}
	for i, want := range expected {
		if kinds[i] != want {
			t.Errorf("kinds[%d] = %q, want %q", i, kinds[i], want)
		}
	}
}

func TestRegistry_InvalidJSON(t *testing.T) {
	r := job.NewRegistry()
	job.RegisterDefinition(r, job.NewDefinition(job.Kind("typed-job"), func(_ context.Context, _ reminderArgs) (tempo.Outcome, error) {
		t.Fatal("handler should not be called with invalid JSON")
		return tempo.OutcomeCompleted, nil
	}))

	h, _ := r.Get("typed-job")
	outcome, err := h(context.Background(), []byte(`{invalid json`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if outcome != tempo.OutcomeErrored {
		t.Errorf("outcome = %q, want %q", outcome, tempo.OutcomeErrored)
	}
}

func TestRegistry_EmptyPayload(t *testing.T) {
	r := job.NewRegistry()
	called := false
	job.RegisterDefinition(r, job.NewDefinition(job.Kind("no-payload"), func(_ context.Context, _ struct{}) (tempo.Outcome, error) {
		called = true
		return tempo.OutcomeCompleted, nil
	}))

	h, _ := r.Get("no-payload")
	if _, err := h(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called with empty payload")
	}
}

func TestRegistry_HandlerError(t *testing.T) {
	r := job.NewRegistry()
	want := errors.New("handler failed")
	job.RegisterDefinition(r, job.NewDefinition(job.Kind("failing"), func(_ context.Context, _ struct{}) (tempo.Outcome, error) {
		return tempo.OutcomeErrored, want
	}))

	h, _ := r.Get("failing")
	_, err := h(context.Background(), nil)
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
