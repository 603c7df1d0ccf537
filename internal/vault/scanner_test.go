package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestScan_OSDir(t *testing.T) {
	tmpDir := t.TempDir()

	// Create test tree
	testFiles := []string{
		"note1.txt",
		"Work/note2.txt",
		"Work/deep/too-deep.txt",
		"Ideas/idea.txt",
		"image.png",
		".hidden.txt",
		".offnote/metadata.json",
		".offnote/stray.txt",
	}
	for _, p := range testFiles {
		full := filepath.Join(tmpDir, p)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte("content"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}

	root, err := OpenDir(tmpDir)
	if err != nil {
		t.Fatalf("OpenDir() error = %v", err)
	}

	res, err := Scan(context.Background(), root, ".txt")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	found := make(map[string]bool)
	for _, f := range res.Files {
		found[filepath.Join(f.Folder, f.File.Name())] = true
	}

	expected := []string{"note1.txt", "Work/note2.txt", "Ideas/idea.txt"}
	if len(res.Files) != len(expected) {
		t.Errorf("Scan() found %d files (%v), want %d", len(res.Files), found, len(expected))
	}
	for _, p := range expected {
		if !found[filepath.FromSlash(p)] {
			t.Errorf("Scan() did not find expected path: %s", p)
		}
	}

	if len(res.Folders) != 2 || res.Folders[0] != "Ideas" || res.Folders[1] != "Work" {
		t.Errorf("Scan() folders = %v, want [Ideas Work]", res.Folders)
	}
	if res.Files[0].Folder != "" {
		t.Errorf("Scan() should list root files first, got folder %q", res.Files[0].Folder)
	}
}

func TestScan_SubdirFailureIsCollected(t *testing.T) {
	ctx := context.Background()
	root := NewMemDir("root")
	mustWrite(t, root, "", "a.txt", "a")
	mustWrite(t, root, "good", "b.txt", "b")
	mustWrite(t, root, "bad", "c.txt", "c")

	boom := errors.New("boom")
	root.SetFault(func(op Op, p string) error {
		if op == OpList && p == "bad" {
			return boom
		}
		return nil
	})

	res, err := Scan(ctx, root, ".txt")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(res.Files) != 2 {
		t.Errorf("Scan() found %d files, want 2", len(res.Files))
	}
	if len(res.Errs) != 1 || !errors.Is(res.Errs[0], boom) {
		t.Errorf("Scan() errs = %v, want one boom", res.Errs)
	}
}

func TestScan_RootFailure(t *testing.T) {
	root := NewMemDir("root")
	root.SetFault(func(op Op, p string) error {
		if op == OpList && p == "" {
			return errors.New("unreadable")
		}
		return nil
	})

	if _, err := Scan(context.Background(), root, ".txt"); err == nil {
		t.Error("Scan() expected error, got nil")
	}
}

func mustWrite(t *testing.T, root *MemDir, folder, name, content string) {
	t.Helper()
	ctx := context.Background()
	var dir Dir = root
	if folder != "" {
		var err error
		dir, err = root.Subdir(ctx, folder, true)
		if err != nil {
			t.Fatalf("Subdir(%s) error = %v", folder, err)
		}
	}
	if err := dir.WriteFile(ctx, name, []byte(content)); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
}
