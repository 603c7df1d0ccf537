package fsstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"offnote/internal/domain"
	"offnote/internal/metaindex"
	"offnote/internal/vault"
)

func writeTree(t *testing.T, root *vault.MemDir, files map[string]string) {
	t.Helper()
	ctx := context.Background()
	for p, content := range files {
		var dir vault.Dir = root
		name := p
		for i := 0; i < len(p); i++ {
			if p[i] == '/' {
				sub, err := root.Subdir(ctx, p[:i], true)
				if err != nil {
					t.Fatalf("Subdir(%s) error = %v", p[:i], err)
				}
				dir, name = sub, p[i+1:]
				break
			}
		}
		if err := dir.WriteFile(ctx, name, []byte(content)); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", p, err)
		}
	}
}

func TestListAll_DiscoversTree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	existing := f.folders.add("f-ideas", "My Ideas")

	writeTree(t, f.root, map[string]string{
		"loose.txt":            "root note",
		"My_Ideas/spark.txt":   "idea",
		"Recipes/curry.txt":    "spicy",
		"Recipes/photo.png":    "binary",
		".hidden.txt":          "skip",
		"Recipes/.draft.txt":   "skip",
		"Recipes/.x.meta.json": `{"id": "legacy"}`,
	})

	notes, err := f.store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("ListAll() returned %d notes, want 3: %+v", len(notes), notes)
	}

	byTitle := map[string]domain.Note{}
	for _, n := range notes {
		byTitle[n.Title] = n
	}
	if byTitle["loose"].FolderID != "" || byTitle["loose"].Content != "root note" {
		t.Errorf("loose = %+v", byTitle["loose"])
	}
	if byTitle["spark"].FolderID != existing.ID {
		t.Errorf("spark folder = %q, want existing folder matched by sanitized name", byTitle["spark"].FolderID)
	}

	recipes := byTitle["curry"].FolderID
	if recipes == "" {
		t.Fatal("curry has no folder")
	}
	folder, err := f.folders.Get(ctx, recipes)
	if err != nil || folder.Name != "Recipes" {
		t.Errorf("created folder = %+v, %v; want Recipes", folder, err)
	}

	// Identity is stable across listings
	again, err := f.store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	for _, n := range again {
		if byTitle[n.Title].ID != n.ID {
			t.Errorf("note %s changed id: %s -> %s", n.Title, byTitle[n.Title].ID, n.ID)
		}
	}
	folders, _ := f.folders.List(ctx)
	if len(folders) != 2 {
		t.Errorf("second listing created folders again: %d folders", len(folders))
	}
}

func TestListAll_DropsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// A stale entry whose own file is gone; both files recover it by title.
	if err := f.store.Index().Upsert(ctx, metaindex.Entry{ID: "stale", Title: "Note", Dir: "Gone", File: "Note", Tags: []string{"kept"}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	writeTree(t, f.root, map[string]string{
		"A/Note.txt": "from A",
		"B/Note.txt": "from B",
	})

	notes, err := f.store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}

	count := 0
	for _, n := range notes {
		if n.ID == "stale" {
			count++
			if n.Content != "from A" {
				t.Errorf("kept %q, want the first encountered file", n.Content)
			}
		}
	}
	if count != 1 {
		t.Errorf("id stale appears %d times, want 1", count)
	}
	if len(notes) != 1 {
		t.Errorf("ListAll() returned %d notes, want 1", len(notes))
	}
}

func TestListAll_SkipsUnreadableFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	writeTree(t, f.root, map[string]string{"ok.txt": "fine", "bad.txt": "broken"})

	f.root.SetFault(func(op vault.Op, p string) error {
		if op == vault.OpRead && p == "bad.txt" {
			return errors.New("io error")
		}
		return nil
	})

	notes, err := f.store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "ok" {
		t.Errorf("ListAll() = %+v, want only ok", notes)
	}
}

func TestListAll_FolderCatalogueFailure(t *testing.T) {
	f := newFixture(t)
	writeTree(t, f.root, map[string]string{"Sub/a.txt": "a"})
	f.folders.listErr = errors.New("db closed")

	if _, err := f.store.ListAll(context.Background()); err == nil {
		t.Error("ListAll() expected error, got nil")
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		n := domain.Note{ID: fmt.Sprintf("n%d", i), Title: fmt.Sprintf("note %d", i), Content: "x"}
		if _, err := f.store.Write(ctx, n); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	// Removed behind the store's back
	if err := f.root.Remove(ctx, "note_1.txt", false); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	removed, err := f.store.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune() = %d, want 1", removed)
	}
	if _, ok := f.store.Index().Get("n1"); ok {
		t.Error("n1 still indexed")
	}
}

func TestOpen_MigratesSidecars(t *testing.T) {
	ctx := context.Background()
	root := vault.NewMemDir("notes")
	writeTree(t, root, map[string]string{
		"Shopping.txt":        "milk",
		".Shopping.meta.json": `{"id": "s1", "title": "Shopping", "isFavorite": true, "tags": ["home"], "createdAt": "2023-05-01T10:00:00.000Z"}`,
	})

	store, migrated, err := Open(ctx, root, &fakeFolders{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if migrated != 1 {
		t.Errorf("Open() migrated = %d, want 1", migrated)
	}

	note, err := store.Read(ctx, "s1")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !note.IsFavorite || note.Content != "milk" || !note.HasTag("home") {
		t.Errorf("Read() = %+v", note)
	}
}

func TestFileNames(t *testing.T) {
	if got := FileNameFor("My note"); got != "My_note.txt" {
		t.Errorf("FileNameFor() = %q", got)
	}
	if got := TitleFromFileName("My_note.txt"); got != "My_note" {
		t.Errorf("TitleFromFileName() = %q", got)
	}
	if got := DirNameFor("a/b"); got != "a_b" {
		t.Errorf("DirNameFor() = %q", got)
	}
}
