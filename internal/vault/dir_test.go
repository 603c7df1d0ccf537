package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"offnote/internal/domain"
)

// dirContract exercises the behavior every Dir implementation shares.
func dirContract(t *testing.T, root Dir) {
	ctx := context.Background()

	t.Run("write and read", func(t *testing.T) {
		if err := root.WriteFile(ctx, "a.txt", []byte("hello")); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		data, mod, err := root.ReadFile(ctx, "a.txt")
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("ReadFile() = %q, want hello", data)
		}
		if mod.IsZero() {
			t.Error("ReadFile() returned zero modification time")
		}

		if err := root.WriteFile(ctx, "a.txt", []byte("replaced")); err != nil {
			t.Fatalf("WriteFile() overwrite error = %v", err)
		}
		data, _, _ = root.ReadFile(ctx, "a.txt")
		if string(data) != "replaced" {
			t.Errorf("ReadFile() after overwrite = %q", data)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := root.ReadFile(ctx, "missing.txt")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("ReadFile() error = %v, want ErrNotFound", err)
		}
		if err := root.Remove(ctx, "missing.txt", false); !errors.Is(err, ErrNotFound) {
			t.Errorf("Remove() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("invalid names", func(t *testing.T) {
		for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
			if err := root.WriteFile(ctx, name, nil); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("WriteFile(%q) error = %v, want ErrInvalidInput", name, err)
			}
		}
	})

	t.Run("subdirectories", func(t *testing.T) {
		if _, err := root.Subdir(ctx, "sub", false); !errors.Is(err, ErrNotFound) {
			t.Errorf("Subdir(create=false) error = %v, want ErrNotFound", err)
		}
		sub, err := root.Subdir(ctx, "sub", true)
		if err != nil {
			t.Fatalf("Subdir(create=true) error = %v", err)
		}
		if sub.Name() != "sub" {
			t.Errorf("Name() = %s, want sub", sub.Name())
		}
		if _, err := root.Subdir(ctx, "sub", true); err != nil {
			t.Errorf("Subdir() on existing dir error = %v", err)
		}
		if err := sub.WriteFile(ctx, "b.txt", []byte("b")); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		entries, err := root.Entries(ctx)
		if err != nil {
			t.Fatalf("Entries() error = %v", err)
		}
		var files, dirs int
		for _, e := range entries {
			switch e := e.(type) {
			case File:
				files++
			case Directory:
				dirs++
				d, err := e.Open(ctx)
				if err != nil {
					t.Fatalf("Open() error = %v", err)
				}
				children, _ := d.Entries(ctx)
				if len(children) != 1 {
					t.Errorf("subdirectory has %d entries, want 1", len(children))
				}
			}
		}
		if files != 1 || dirs != 1 {
			t.Errorf("Entries() = %d files, %d dirs; want 1, 1", files, dirs)
		}

		if err := root.Remove(ctx, "sub", false); err == nil {
			t.Error("Remove() of non-empty dir without recursive should fail")
		}
		if err := root.Remove(ctx, "sub", true); err != nil {
			t.Fatalf("Remove(recursive) error = %v", err)
		}
		if _, err := root.Subdir(ctx, "sub", false); !errors.Is(err, ErrNotFound) {
			t.Errorf("Subdir() after Remove error = %v, want ErrNotFound", err)
		}
	})
}

func TestOSDir(t *testing.T) {
	root, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir() error = %v", err)
	}
	dirContract(t, root)

	// Atomic writes leave no temp files behind
	entries, err := os.ReadDir(root.Path())
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if IsHidden(e.Name()) {
			t.Errorf("leftover hidden file %s", e.Name())
		}
	}
}

func TestOpenDir_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := OpenDir(filepath.Join(tmpDir, "missing")); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenDir(missing) error = %v, want ErrNotFound", err)
	}

	file := filepath.Join(tmpDir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if _, err := OpenDir(file); err == nil {
		t.Error("OpenDir(file) expected error, got nil")
	}
}

func TestMemDir(t *testing.T) {
	dirContract(t, NewMemDir("root"))
}

func TestMemDir_FaultAndClock(t *testing.T) {
	ctx := context.Background()
	root := NewMemDir("root")

	fixed := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	root.SetClock(func() time.Time { return fixed })

	sub, err := root.Subdir(ctx, "Work", true)
	if err != nil {
		t.Fatalf("Subdir() error = %v", err)
	}

	injected := errors.New("disk full")
	root.SetFault(func(op Op, p string) error {
		if op == OpWrite && p == "Work/b.txt" {
			return injected
		}
		return nil
	})

	if err := sub.WriteFile(ctx, "a.txt", []byte("a")); err != nil {
		t.Fatalf("WriteFile(a) error = %v", err)
	}
	if err := sub.WriteFile(ctx, "b.txt", []byte("b")); !errors.Is(err, injected) {
		t.Errorf("WriteFile(b) error = %v, want injected fault", err)
	}

	_, mod, err := sub.ReadFile(ctx, "a.txt")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !mod.Equal(fixed) {
		t.Errorf("ReadFile() mod time = %v, want %v", mod, fixed)
	}

	root.SetFault(nil)
	if err := root.Remove(ctx, "Work", true); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	// Handles to a removed directory stop working
	if _, _, err := sub.ReadFile(ctx, "a.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadFile() on removed dir error = %v, want ErrNotFound", err)
	}
}
