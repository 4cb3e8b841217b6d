package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cohereplatform/tempo"
	"github.com/cohereplatform/tempo/engine"
	"github.com/cohereplatform/tempo/job"
	"github.com/cohereplatform/tempo/schedule"
	"github.com/cohereplatform/tempo/store/memory"
)

const kindWelcome job.Kind = "test.welcome"

type welcomeArgs struct {
	UserID string `json:"user_id"`
}

type countingHandler struct {
	mu    sync.Mutex
	calls int
}

func (h *countingHandler) handle(_ context.Context, _ welcomeArgs) (tempo.Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return tempo.OutcomeCompleted, nil
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func testConfig() tempo.Config {
	cfg := tempo.DefaultConfig()
	cfg.Concurrency = 2
	cfg.PollInterval = 10 * time.Millisecond
	cfg.CronTickInterval = 10 * time.Millisecond
	return cfg
}

func TestEngine_EndToEnd(t *testing.T) {
	mem := memory.New()
	handler := &countingHandler{}

	e := engine.New(testConfig(), mem,
		engine.WithLogger(slog.Default()),
		engine.WithNowFunc(mem.Now),
	)
	job.RegisterDefinition(e.Registry(), job.NewDefinition(kindWelcome, handler.handle))

	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop(ctx)

	if err := schedule.Enqueue(ctx, e.Scheduler(), kindWelcome, welcomeArgs{UserID: "u1"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return handler.count() == 1 })
}

func TestEngine_SchedulingUnknownKindFails(t *testing.T) {
	mem := memory.New()
	e := engine.New(testConfig(), mem, engine.WithNowFunc(mem.Now))

	_, err := e.Scheduler().Schedule(context.Background(), "test.unregistered", time.Minute, nil)
	if !errors.Is(err, tempo.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestEngine_RegistrarUpserts(t *testing.T) {
	mem := memory.New()
	handler := &countingHandler{}

	e := engine.New(testConfig(), mem, engine.WithNowFunc(mem.Now))
	job.RegisterDefinition(e.Registry(), job.NewDefinition(kindWelcome, handler.handle))

	ctx := context.Background()
	if err := e.Registrar().RegisterDaily(ctx, kindWelcome, 10, 0); err != nil {
		t.Fatalf("RegisterDaily: %v", err)
	}
	if err := e.Registrar().RegisterDaily(ctx, kindWelcome, 12, 30); err != nil {
		t.Fatalf("RegisterDaily (again): %v", err)
	}

	crons, err := mem.ListCrons(ctx)
	if err != nil {
		t.Fatalf("ListCrons: %v", err)
	}
	if len(crons) != 1 {
		t.Fatalf("expected one cron entry after re-registration, got %d", len(crons))
	}
	if crons[0].Schedule != "30 12 * * *" {
		t.Fatalf("expected the latest cadence, got %q", crons[0].Schedule)
	}
}
