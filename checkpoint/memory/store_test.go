package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/contentflow/contentflow/workflow"
)

func sampleState(threadID string, status workflow.Status) workflow.State {
	s := workflow.NewState(threadID, "run-1", "ai", "user@example.com", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	s.Status = status
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	store := New()
	defer store.Close()

	want := sampleState("newsletter_ai_user@example.com", workflow.StatusResearchComplete)
	want.ResearchFindings = []string{"one", "two"}

	if err := store.Put(context.Background(), want.ThreadID, want); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := store.Get(context.Background(), want.ThreadID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestPutOverwrites(t *testing.T) {
	store := New()
	defer store.Close()

	threadID := "newsletter_ai_user@example.com"
	if err := store.Put(context.Background(), threadID, sampleState(threadID, workflow.StatusStarting)); err != nil {
		t.Fatalf("first put failed: %v", err)
	}
	if err := store.Put(context.Background(), threadID, sampleState(threadID, workflow.StatusNewsletterComplete)); err != nil {
		t.Fatalf("second put failed: %v", err)
	}

	got, err := store.Get(context.Background(), threadID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != workflow.StatusNewsletterComplete {
		t.Fatalf("expected latest write to win, got %q", got.Status)
	}
}

func TestGetMissing(t *testing.T) {
	store := New()
	defer store.Close()

	_, err := store.Get(context.Background(), "newsletter_missing_user@example.com")
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
