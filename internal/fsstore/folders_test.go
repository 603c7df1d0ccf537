package fsstore

import (
	"context"
	"errors"
	"testing"

	"offnote/internal/domain"
	"offnote/internal/vault"
)

func TestCreateFolderDirectory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.store.CreateFolderDirectory(ctx, "Side Projects"); err != nil {
		t.Fatalf("CreateFolderDirectory() error = %v", err)
	}
	if _, err := f.root.Subdir(ctx, "Side_Projects", false); err != nil {
		t.Errorf("directory not created: %v", err)
	}
	// Idempotent
	if err := f.store.CreateFolderDirectory(ctx, "Side Projects"); err != nil {
		t.Errorf("second CreateFolderDirectory() error = %v", err)
	}
}

func TestRenameFolderDirectory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	folder := f.folders.add("f1", "Old")

	for _, n := range []domain.Note{
		{ID: "n1", Title: "one", Content: "1", FolderID: folder.ID},
		{ID: "n2", Title: "two", Content: "2", FolderID: folder.ID},
	} {
		if _, err := f.store.Write(ctx, n); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	if err := f.store.RenameFolderDirectory(ctx, "Old", "New"); err != nil {
		t.Fatalf("RenameFolderDirectory() error = %v", err)
	}

	if _, err := f.root.Subdir(ctx, "Old", false); !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("old directory still present: %v", err)
	}
	for name, want := range map[string]string{"one.txt": "1", "two.txt": "2"} {
		if content, ok := f.fileContent(t, "New", name); !ok || content != want {
			t.Errorf("New/%s = %q (exists %v), want %q", name, content, ok, want)
		}
	}
	e, _ := f.store.Index().Get("n1")
	if e.Dir != "New" {
		t.Errorf("entry dir = %q, want New", e.Dir)
	}

	// The folder record itself is renamed by the caller
	f.folders.folders[0].Name = "New"
	notes, err := f.store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	for _, n := range notes {
		if n.FolderID != folder.ID {
			t.Errorf("note %s folder = %q, want %q", n.ID, n.FolderID, folder.ID)
		}
	}
	if len(notes) != 2 {
		t.Errorf("ListAll() returned %d notes, want 2", len(notes))
	}
}

func TestRenameFolderDirectory_RollsBackOnCopyFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	writeTree(t, f.root, map[string]string{
		"Old/a.txt": "a",
		"Old/b.txt": "b",
		"Old/c.txt": "c",
	})

	injected := errors.New("quota exceeded")
	f.root.SetFault(func(op vault.Op, p string) error {
		if op == vault.OpWrite && p == "New/b.txt" {
			return injected
		}
		return nil
	})

	err := f.store.RenameFolderDirectory(ctx, "Old", "New")
	var pf *domain.PartialFailure
	if !errors.As(err, &pf) {
		t.Fatalf("RenameFolderDirectory() error = %v, want *PartialFailure", err)
	}
	if pf.Succeeded != 2 || pf.Failed != 1 {
		t.Errorf("PartialFailure = %d ok / %d failed, want 2 / 1", pf.Succeeded, pf.Failed)
	}
	if !errors.Is(err, injected) {
		t.Error("PartialFailure does not unwrap to the item error")
	}

	if _, err := f.root.Subdir(ctx, "New", false); !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("new directory left behind: %v", err)
	}
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if _, ok := f.fileContent(t, "Old", name); !ok {
			t.Errorf("Old/%s lost", name)
		}
	}
}

func TestRenameFolderDirectory_KeepsExistingTargetFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	writeTree(t, f.root, map[string]string{
		"Old/a.txt":    "a",
		"Old/b.txt":    "b",
		"New/b.txt":    "already here",
		"New/keep.txt": "k",
	})

	err := f.store.RenameFolderDirectory(ctx, "Old", "New")
	var pf *domain.PartialFailure
	if !errors.As(err, &pf) {
		t.Fatalf("RenameFolderDirectory() error = %v, want *PartialFailure", err)
	}
	if pf.Succeeded != 1 || pf.Failed != 1 {
		t.Errorf("PartialFailure = %d ok / %d failed, want 1 / 1", pf.Succeeded, pf.Failed)
	}
	if !errors.Is(err, ErrTargetExists) {
		t.Errorf("RenameFolderDirectory() error = %v, want ErrTargetExists", err)
	}

	for name, want := range map[string]string{"b.txt": "already here", "keep.txt": "k"} {
		if content, ok := f.fileContent(t, "New", name); !ok || content != want {
			t.Errorf("New/%s = %q (exists %v), want %q", name, content, ok, want)
		}
	}
	if _, ok := f.fileContent(t, "New", "a.txt"); ok {
		t.Error("copied file not rolled back")
	}
	for name, want := range map[string]string{"a.txt": "a", "b.txt": "b"} {
		if content, ok := f.fileContent(t, "Old", name); !ok || content != want {
			t.Errorf("Old/%s = %q (exists %v), want %q", name, content, ok, want)
		}
	}
}

func TestRenameFolderDirectory_FailedRollbackIsIntegrityError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	writeTree(t, f.root, map[string]string{"Old/a.txt": "a", "Old/b.txt": "b"})

	f.root.SetFault(func(op vault.Op, p string) error {
		switch {
		case op == vault.OpWrite && p == "New/b.txt":
			return errors.New("write failed")
		case op == vault.OpRemove && p == "New":
			return errors.New("remove failed")
		}
		return nil
	})

	err := f.store.RenameFolderDirectory(ctx, "Old", "New")
	var ie *domain.IntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("RenameFolderDirectory() error = %v, want *IntegrityError", err)
	}
	if ie.OldPath != "Old" || ie.NewPath != "New" {
		t.Errorf("IntegrityError paths = %s -> %s", ie.OldPath, ie.NewPath)
	}
}

func TestRenameFolderDirectory_MissingOldCreatesNew(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.store.RenameFolderDirectory(ctx, "Never", "Fresh"); err != nil {
		t.Fatalf("RenameFolderDirectory() error = %v", err)
	}
	if _, err := f.root.Subdir(ctx, "Fresh", false); err != nil {
		t.Errorf("new directory not created: %v", err)
	}
}

func TestDeleteFolderDirectory_MovesNotesToRoot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	folder := f.folders.add("f1", "Work")

	if _, err := f.store.Write(ctx, domain.Note{ID: "root-1234567890", Title: "Clash", Content: "root"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	for _, n := range []domain.Note{
		{ID: "w1", Title: "Plan", Content: "plan", FolderID: folder.ID, Tags: []string{"t"}},
		{ID: "w2-abcdefghij", Title: "Clash", Content: "in folder", FolderID: folder.ID},
	} {
		if _, err := f.store.Write(ctx, n); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	if err := f.store.DeleteFolderDirectory(ctx, "Work"); err != nil {
		t.Fatalf("DeleteFolderDirectory() error = %v", err)
	}
	if _, err := f.root.Subdir(ctx, "Work", false); !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("Work directory still present: %v", err)
	}

	notes, err := f.store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	byID := map[string]domain.Note{}
	for _, n := range notes {
		byID[n.ID] = n
	}
	if len(notes) != 3 {
		t.Fatalf("ListAll() returned %d notes, want 3", len(notes))
	}
	if n := byID["w1"]; n.FolderID != "" || n.Content != "plan" || !n.HasTag("t") {
		t.Errorf("w1 = %+v, want unfiled with metadata", n)
	}
	if n := byID["w2-abcdefghij"]; n.Content != "in folder" || n.Title != "Clash" {
		t.Errorf("w2 = %+v", n)
	}
	if content, _ := f.fileContent(t, "", "Clash.txt"); content != "root" {
		t.Errorf("root Clash.txt overwritten: %q", content)
	}
	if _, ok := f.fileContent(t, "", "Clash_w2-abcde.txt"); !ok {
		t.Error("clashing note not moved under a suffixed name")
	}
}

func TestDeleteFolderDirectory_KeepsDirectoryOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	writeTree(t, f.root, map[string]string{"Work/a.txt": "a", "Work/b.txt": "b"})

	f.root.SetFault(func(op vault.Op, p string) error {
		if op == vault.OpWrite && p == "b.txt" {
			return errors.New("denied")
		}
		return nil
	})

	err := f.store.DeleteFolderDirectory(ctx, "Work")
	var pf *domain.PartialFailure
	if !errors.As(err, &pf) || pf.Succeeded != 1 || pf.Failed != 1 {
		t.Fatalf("DeleteFolderDirectory() error = %v, want 1/1 PartialFailure", err)
	}
	if _, ok := f.fileContent(t, "Work", "b.txt"); !ok {
		t.Error("unmoved file lost")
	}
	if _, ok := f.fileContent(t, "Work", "a.txt"); ok {
		t.Error("moved file still in folder directory")
	}
	if _, ok := f.fileContent(t, "", "a.txt"); !ok {
		t.Error("moved file not in root")
	}
}

func TestDeleteFolderDirectory_Missing(t *testing.T) {
	f := newFixture(t)
	if err := f.store.DeleteFolderDirectory(context.Background(), "Nope"); err != nil {
		t.Errorf("DeleteFolderDirectory() error = %v", err)
	}
}
