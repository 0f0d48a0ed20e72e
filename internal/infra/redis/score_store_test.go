package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *ScoreStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewScoreStore(client)
}

func TestIncrementScore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if score, err := store.IncrementScore(ctx, "u1", 1); err != nil || score != 1 {
		t.Fatalf("expected 1, got %d %v", score, err)
	}
	if score, err := store.IncrementScore(ctx, "u1", 1); err != nil || score != 2 {
		t.Fatalf("expected 2, got %d %v", score, err)
	}
	if score, err := store.Score(ctx, "u1"); err != nil || score != 2 {
		t.Fatalf("expected 2 readback, got %d %v", score, err)
	}
}

func TestScoreOfUnknownUserIsZero(t *testing.T) {
	store := newTestStore(t)
	if score, err := store.Score(context.Background(), "ghost"); err != nil || score != 0 {
		t.Fatalf("expected 0 for an unknown user, got %d %v", score, err)
	}
}

func TestUpsertNameSeedsZeroScore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.UpsertName(ctx, "u1", "Alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot) != 1 || snapshot[0].DisplayName != "Alice" || snapshot[0].Score != 0 {
		t.Fatalf("expected Alice with score 0, got %+v", snapshot)
	}

	// A rename must not reset an earned score.
	if _, err := store.IncrementScore(ctx, "u1", 4); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := store.UpsertName(ctx, "u1", "Alicia"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if score, err := store.Score(ctx, "u1"); err != nil || score != 4 {
		t.Fatalf("expected 4 after rename, got %d %v", score, err)
	}
}

func TestSnapshotMergesNamesAndScores(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, u := range []struct {
		id, name string
		score    int
	}{
		{"u1", "Alice", 3},
		{"u2", "Bob", 1},
	} {
		if err := store.UpsertName(ctx, u.id, u.name); err != nil {
			t.Fatalf("upsert %s: %v", u.id, err)
		}
		if _, err := store.IncrementScore(ctx, u.id, u.score); err != nil {
			t.Fatalf("increment %s: %v", u.id, err)
		}
	}

	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 records, got %+v", snapshot)
	}
	byID := map[string]int{}
	for _, rec := range snapshot {
		byID[rec.UserID] = rec.Score
	}
	if byID["u1"] != 3 || byID["u2"] != 1 {
		t.Fatalf("unexpected scores: %+v", snapshot)
	}
}
