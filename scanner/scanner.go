// Package scanner walks a mods directory tree and classifies each manifest
// against the last known tracked state.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/lingokeeper/manifest"
)

// Mod is one scanned manifest with everything the versioning flows need.
type Mod struct {
	UniqueID     string
	Name         string
	Description  string
	UpdateKeys   []string
	NexusID      string
	Hash         string
	PreviousHash string // set only for changed mods
	RelativePath string
	RawText      string
}

// ItemError records a single manifest that could not be processed. The scan
// of the remaining tree is never aborted by one bad file.
type ItemError struct {
	Path string
	Err  string
}

// Result is the outcome of one full tree scan.
type Result struct {
	Changed   []Mod
	New       []Mod
	Unchanged int
	Errors    []ItemError
}

// Scan walks root looking for manifest.json files (case-insensitive),
// hashes each one, and classifies it as new, changed, or unchanged relative
// to known (unique id -> last content hash). Directory-level read failures
// of individual entries are recorded per item; only a failure to walk root
// itself is returned as an error.
func Scan(ctx context.Context, root string, known map[string]string) (*Result, error) {
	res := &Result{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			if path == root {
				return err
			}
			res.Errors = append(res.Errors, ItemError{Path: path, Err: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(d.Name(), "manifest.json") {
			return nil
		}

		mod, perr := loadManifest(root, path)
		if perr != nil {
			res.Errors = append(res.Errors, ItemError{Path: path, Err: perr.Error()})
			return nil
		}
		if mod == nil {
			return nil // empty file
		}

		prev, tracked := known[mod.UniqueID]
		switch {
		case !tracked:
			res.New = append(res.New, *mod)
		case prev != mod.Hash:
			mod.PreviousHash = prev
			res.Changed = append(res.Changed, *mod)
		default:
			res.Unchanged++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanner: walk %s: %w", root, err)
	}
	return res, nil
}

// HashContent returns the hex SHA-256 of manifest text. Exported so the
// rollback flow can recompute hashes for restored content the same way.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func loadManifest(root, path string) (*Mod, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	text := manifest.StripBOM(string(data))
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	f := manifest.Parse(text)
	if f.UniqueID == "" {
		// Some manifests in the wild omit UniqueID; the folder name is the
		// stable fallback identity the reference tooling uses.
		f.UniqueID = filepath.Base(filepath.Dir(path))
	}

	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		rel = filepath.Dir(path)
	}

	return &Mod{
		UniqueID:     f.UniqueID,
		Name:         f.Name,
		Description:  f.Description,
		UpdateKeys:   f.UpdateKeys,
		NexusID:      manifest.NexusID(f.UpdateKeys),
		Hash:         HashContent(text),
		RelativePath: filepath.ToSlash(rel),
		RawText:      text,
	}, nil
}
