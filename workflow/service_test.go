package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/contentflow/contentflow/llm"
)

func buildService(t *testing.T, provider llm.Provider, store Store, opts ...ServiceOption) *Service {
	t.Helper()
	p := buildPipeline(t, provider, okSearcher(fakeResults(3)), store)
	svc, err := NewService(p, store, opts...)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc
}

func successProvider() *scriptedProvider {
	return &scriptedProvider{
		responses: []llm.Response{
			{Text: "- one\n- two\n- three"},
			{Text: words(500)},
			{Text: "A Good Title"},
			{Text: words(160)},
		},
	}
}

func TestThreadID(t *testing.T) {
	got := ThreadID("quantum computing", "user@example.com")
	want := "newsletter_quantum_computing_user@example.com"
	if got != want {
		t.Fatalf("ThreadID = %q, want %q", got, want)
	}

	// Deterministic: same inputs always map to the same id.
	if again := ThreadID("quantum computing", "user@example.com"); again != got {
		t.Fatalf("ThreadID is not deterministic: %q != %q", again, got)
	}
}

func TestValidateInput(t *testing.T) {
	cases := []struct {
		name      string
		topic     string
		recipient string
		wantErr   bool
	}{
		{"valid", "quantum computing", "user@example.com", false},
		{"empty topic", "", "user@example.com", true},
		{"whitespace topic", "   ", "user@example.com", true},
		{"missing at sign", "ai", "userexample.com", true},
		{"at sign first", "ai", "@example.com", true},
		{"at sign last", "ai", "user@", true},
		{"empty recipient", "ai", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateInput(tc.topic, tc.recipient)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected validation error")
				}
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestService_Generate(t *testing.T) {
	store := newMemoryStore()
	svc := buildService(t, successProvider(), store)

	final, err := svc.Generate(context.Background(), "quantum computing", "user@example.com")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if final.Status != StatusNewsletterComplete {
		t.Fatalf("expected newsletter_complete, got %q", final.Status)
	}
	if final.ThreadID != ThreadID("quantum computing", "user@example.com") {
		t.Fatalf("unexpected thread id %q", final.ThreadID)
	}
	if final.RunID == "" {
		t.Fatalf("expected a run id to be assigned")
	}

	stored, err := svc.Fetch(context.Background(), final.ThreadID)
	if err != nil {
		t.Fatalf("fetch after generate failed: %v", err)
	}
	if stored.Status != StatusNewsletterComplete {
		t.Fatalf("stored state has status %q", stored.Status)
	}
}

func TestService_GenerateRejectsInvalidInput(t *testing.T) {
	svc := buildService(t, successProvider(), newMemoryStore())

	if _, err := svc.Generate(context.Background(), "", "user@example.com"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Generate(context.Background(), "ai", "not-an-email"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestService_GenerateReturnsFailedStateWithoutError(t *testing.T) {
	provider := &scriptedProvider{errs: []error{errors.New("model unavailable")}}
	svc := buildService(t, provider, newMemoryStore())

	final, err := svc.Generate(context.Background(), "ai", "user@example.com")
	if err != nil {
		t.Fatalf("pipeline failure must not surface as an error: %v", err)
	}
	if final.Status != StatusResearchFailed {
		t.Fatalf("expected research_failed, got %q", final.Status)
	}
	if final.Error == "" {
		t.Fatalf("expected failure cause to be recorded")
	}
}

func TestService_SubmitAndPoll(t *testing.T) {
	store := newMemoryStore()
	svc := buildService(t, successProvider(), store)

	threadID, err := svc.Submit(context.Background(), "quantum computing", "user@example.com")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if threadID != ThreadID("quantum computing", "user@example.com") {
		t.Fatalf("unexpected thread id %q", threadID)
	}

	// The initial checkpoint is written before Submit returns, so a fetch is
	// never a miss even if the run has not progressed yet.
	first, err := svc.Fetch(context.Background(), threadID)
	if err != nil {
		t.Fatalf("fetch right after submit failed: %v", err)
	}
	if first.Topic != "quantum computing" {
		t.Fatalf("unexpected topic in initial state: %q", first.Topic)
	}

	deadline := time.Now().Add(2 * time.Second)
	var final State
	for {
		final, err = svc.Fetch(context.Background(), threadID)
		if err != nil {
			t.Fatalf("poll failed: %v", err)
		}
		if final.Status.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run did not reach a terminal status, last seen %q", final.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if final.Status != StatusNewsletterComplete {
		t.Fatalf("expected newsletter_complete, got %q (error: %s)", final.Status, final.Error)
	}
}

func TestService_FetchUnknownThread(t *testing.T) {
	svc := buildService(t, successProvider(), newMemoryStore())

	if _, err := svc.Fetch(context.Background(), "newsletter_missing_user@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Fetch(context.Background(), "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank thread id, got %v", err)
	}
}

func TestService_RerunOverwritesCheckpoint(t *testing.T) {
	store := newMemoryStore()

	failing := &scriptedProvider{errs: []error{errors.New("model unavailable")}}
	svc := buildService(t, failing, store)
	if _, err := svc.Generate(context.Background(), "ai", "user@example.com"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	svc = buildService(t, successProvider(), store)
	final, err := svc.Generate(context.Background(), "ai", "user@example.com")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if final.Status != StatusNewsletterComplete {
		t.Fatalf("expected retry to succeed, got %q", final.Status)
	}

	stored, err := store.Get(context.Background(), final.ThreadID)
	if err != nil {
		t.Fatalf("fetch after retry failed: %v", err)
	}
	if stored.Status != StatusNewsletterComplete {
		t.Fatalf("expected last run to win the checkpoint, got %q", stored.Status)
	}
}

type recordingDeliverer struct {
	ch chan string
}

func (d *recordingDeliverer) Deliver(_ context.Context, recipient, subject, _ string) error {
	d.ch <- recipient + "|" + subject
	return nil
}

func TestService_DeliversOnSuccessOnly(t *testing.T) {
	deliverer := &recordingDeliverer{ch: make(chan string, 1)}
	svc := buildService(t, successProvider(), newMemoryStore(), WithDeliverer(deliverer))

	final, err := svc.Generate(context.Background(), "ai", "user@example.com")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	select {
	case got := <-deliverer.ch:
		if !strings.HasPrefix(got, "user@example.com|") || !strings.Contains(got, final.ArticleTitle) {
			t.Fatalf("unexpected delivery %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a delivery after success")
	}

	failing := &scriptedProvider{errs: []error{errors.New("model unavailable")}}
	svc = buildService(t, failing, newMemoryStore(), WithDeliverer(deliverer))
	if _, err := svc.Generate(context.Background(), "ai", "user@example.com"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	select {
	case got := <-deliverer.ch:
		t.Fatalf("unexpected delivery after failed run: %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMermaidDiagram(t *testing.T) {
	diagram := MermaidDiagram([]string{"research", "writer", "newsletter"})
	if !strings.HasPrefix(diagram, "graph TD;") {
		t.Fatalf("diagram missing header: %q", diagram)
	}
	for _, want := range []string{"__start__ --> research", "research --> writer", "writer --> newsletter", "newsletter --> __end__"} {
		if !strings.Contains(diagram, want) {
			t.Fatalf("diagram missing edge %q:\n%s", want, diagram)
		}
	}
}
