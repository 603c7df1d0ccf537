package storage

import (
	"context"
	"testing"
)

func TestSettingRepo(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	var enabled bool
	ok, err := store.Settings.Get(ctx, "fileSystemEnabled", &enabled)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() of unset key reported ok")
	}

	colors := map[string]string{"work": "#ff0000"}
	if err := store.Settings.Set(ctx, "tagColors", colors); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Settings.Set(ctx, "fileSystemEnabled", true); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var gotColors map[string]string
	ok, err = store.Settings.Get(ctx, "tagColors", &gotColors)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if gotColors["work"] != "#ff0000" {
		t.Errorf("Get() tagColors = %v", gotColors)
	}

	// nil clears
	if err := store.Settings.Set(ctx, "fileSystemEnabled", nil); err != nil {
		t.Fatalf("Set(nil) error = %v", err)
	}
	ok, err = store.Settings.Get(ctx, "fileSystemEnabled", &enabled)
	if err != nil || ok {
		t.Errorf("Get() after Set(nil) = %v, %v; want false, nil", ok, err)
	}

	all, err := store.Settings.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("All() returned %d settings, want 2", len(all))
	}
}
