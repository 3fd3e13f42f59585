// Package diff produces unified diffs for changed manifest field content
// and defines the serialized diff-list blob cached per commit.
package diff

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// FormatVersion tags the serialized List blob. Bump it whenever Entry or
// List changes shape; cache rows stamped with an older version then read as
// misses instead of failing to decode.
const FormatVersion = 2

// Entry is one mod's diff between two versions of its tracked content.
type Entry struct {
	ModUniqueID string `json:"mod_unique_id"`
	Path        string `json:"path,omitempty"`
	Patch       string `json:"patch"`
	Oversize    bool   `json:"oversize,omitempty"`
}

// List is the cacheable set of diffs computed for one commit.
type List struct {
	Entries []Entry `json:"entries"`
}

// Options controls patch generation.
type Options struct {
	// MaxBytes guards against pathological inputs: when old+new exceeds it,
	// a placeholder patch is returned and Oversize is set. 0 means no limit.
	MaxBytes int

	// Context is the number of context lines per hunk. Default 3.
	Context int
}

// Unified produces a classic unified patch for old -> new, labelled with the
// mod's path on both sides.
func Unified(path, old, new string, opt Options) (body string, oversize bool) {
	if opt.MaxBytes > 0 && len(old)+len(new) > opt.MaxBytes {
		return omitted(path), true
	}
	ctx := opt.Context
	if ctx <= 0 {
		ctx = 3
	}

	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(old),
		B:        splitLinesKeepNL(new),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  ctx,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil || s == "" {
		return omitted(path), false
	}
	return s, false
}

// Encode serializes a List for the diff cache.
func Encode(l List) (string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("diff: encode: %w", err)
	}
	return string(data), nil
}

// Decode parses a cached payload. Callers only reach here after the store
// has already checked FormatVersion, so a decode failure is a real error.
func Decode(payload string) (List, error) {
	var l List
	if err := json.Unmarshal([]byte(payload), &l); err != nil {
		return List{}, fmt.Errorf("diff: decode: %w", err)
	}
	return l, nil
}

// splitLinesKeepNL splits into lines keeping the newline on each element,
// which produces cleaner unified hunks.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}

func omitted(path string) string {
	return fmt.Sprintf("--- a/%s\n+++ b/%s\n", path, path)
}
