package memory

import (
	"context"
	"testing"
)

func TestScoreStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore()

	if err := store.UpsertName(ctx, "u1", "Alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if score, err := store.Score(ctx, "u1"); err != nil || score != 0 {
		t.Fatalf("expected 0 before any increment, got %d %v", score, err)
	}

	if score, err := store.IncrementScore(ctx, "u1", 1); err != nil || score != 1 {
		t.Fatalf("expected 1, got %d %v", score, err)
	}
	if score, err := store.IncrementScore(ctx, "u2", 3); err != nil || score != 3 {
		t.Fatalf("expected 3 for a record created by increment, got %d %v", score, err)
	}

	if err := store.UpsertName(ctx, "u1", "Alicia"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 records, got %+v", snapshot)
	}
	for _, rec := range snapshot {
		if rec.UserID == "u1" && (rec.DisplayName != "Alicia" || rec.Score != 1) {
			t.Fatalf("unexpected u1 record: %+v", rec)
		}
	}
}

func TestScoreOfUnknownUser(t *testing.T) {
	score, err := NewScoreStore().Score(context.Background(), "ghost")
	if err != nil || score != 0 {
		t.Fatalf("expected 0 for an unknown user, got %d %v", score, err)
	}
}
