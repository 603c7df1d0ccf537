package storage

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestHistoryRepo_RetentionKeepsNewest(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	i := 0
	store.History.now = func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Second)
	}

	for n := 1; n <= 25; n++ {
		if _, err := store.History.Append(ctx, "note", "title", fmt.Sprintf("v%d", n)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if _, err := store.History.Append(ctx, "other", "title", "untouched"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, err := store.History.List(ctx, "note", 100)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 20 {
		t.Fatalf("List() returned %d entries, want 20", len(entries))
	}
	for idx, e := range entries {
		want := fmt.Sprintf("v%d", 25-idx)
		if e.Content != want {
			t.Errorf("entries[%d].Content = %s, want %s", idx, e.Content, want)
		}
	}

	other, err := store.History.List(ctx, "other", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(other) != 1 {
		t.Errorf("List(other) returned %d entries, want 1", len(other))
	}
}

func TestHistoryRepo_SameTickOrdering(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.History.now = func() time.Time { return fixed }

	for n := 1; n <= 3; n++ {
		if _, err := store.History.Append(ctx, "note", "t", fmt.Sprintf("v%d", n)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	entries, err := store.History.List(ctx, "note", 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Content != "v3" || entries[1].Content != "v2" {
		t.Errorf("List() = %+v, want v3, v2", entries)
	}
}

func TestHistoryRepo_DeleteAndCleanup(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	var firstID string
	for n := 0; n < 5; n++ {
		e, err := store.History.Append(ctx, "a", "t", fmt.Sprintf("a%d", n))
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if n == 0 {
			firstID = e.ID
		}
		if _, err := store.History.Append(ctx, "b", "t", fmt.Sprintf("b%d", n)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	if err := store.History.Delete(ctx, firstID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	entries, _ := store.History.List(ctx, "a", 0)
	if len(entries) != 4 {
		t.Errorf("after Delete, %d entries, want 4", len(entries))
	}

	removed, err := store.History.Cleanup(ctx, 2)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if removed != 5 {
		t.Errorf("Cleanup() removed %d, want 5", removed)
	}

	if err := store.History.DeleteByNote(ctx, "b"); err != nil {
		t.Fatalf("DeleteByNote() error = %v", err)
	}
	entries, _ = store.History.List(ctx, "b", 0)
	if len(entries) != 0 {
		t.Errorf("after DeleteByNote, %d entries, want 0", len(entries))
	}
	entries, _ = store.History.List(ctx, "a", 0)
	if len(entries) != 2 {
		t.Errorf("note a has %d entries, want 2", len(entries))
	}
}
