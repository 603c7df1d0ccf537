package vault

import (
	"context"
	"fmt"
	"strings"
)

// ScannedFile is a note file found during a scan.
type ScannedFile struct {
	Folder string // Subdirectory name, empty for root-level files
	File   File
}

// ScanResult is the outcome of one scan pass.
type ScanResult struct {
	Folders []string      // Non-hidden subdirectories in listing order
	Files   []ScannedFile // Root files first, then each subdirectory's files
	Errs    []error       // Subdirectories that could not be listed
}

// Scan walks root and, non-recursively, one level of subdirectories,
// collecting files with the given extension. Hidden entries are skipped.
// A subdirectory that cannot be listed is recorded in Errs and the scan
// continues; only a failure to list root is returned as an error.
func Scan(ctx context.Context, root Dir, ext string) (ScanResult, error) {
	var res ScanResult

	entries, err := root.Entries(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to scan %s: %w", root.Name(), err)
	}

	var subdirs []Directory
	for _, e := range entries {
		if IsHidden(e.Name()) {
			continue
		}
		switch e := e.(type) {
		case File:
			if strings.HasSuffix(e.Name(), ext) {
				res.Files = append(res.Files, ScannedFile{File: e})
			}
		case Directory:
			subdirs = append(subdirs, e)
		}
	}

	for _, sd := range subdirs {
		// Check for context cancellation
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Folders = append(res.Folders, sd.Name())

		dir, err := sd.Open(ctx)
		if err != nil {
			res.Errs = append(res.Errs, fmt.Errorf("failed to open %s: %w", sd.Name(), err))
			continue
		}
		children, err := dir.Entries(ctx)
		if err != nil {
			res.Errs = append(res.Errs, fmt.Errorf("failed to list %s: %w", sd.Name(), err))
			continue
		}
		for _, c := range children {
			f, ok := c.(File)
			if !ok || IsHidden(f.Name()) || !strings.HasSuffix(f.Name(), ext) {
				continue
			}
			res.Files = append(res.Files, ScannedFile{Folder: sd.Name(), File: f})
		}
	}

	return res, nil
}
