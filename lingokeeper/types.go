package lingokeeper

import (
	"context"
	"errors"
)

// ErrSyncInProgress rejects a sync requested while one is already running.
// The rejection is immediate: the second caller is never queued.
var ErrSyncInProgress = errors.New("lingokeeper: sync already in progress")

// CommitProvider is the external version-control collaborator. It supplies
// an opaque commit identity and historical file content; lingokeeper never
// commits, pushes, or pulls itself.
type CommitProvider interface {
	// Head returns the current commit identifier.
	Head(ctx context.Context) (string, error)
	// FileAt returns the content of relPath as of commit.
	FileAt(ctx context.Context, commit, relPath string) (string, error)
}

// Translator is the external machine-translation collaborator. lingokeeper
// only stores and versions what it returns.
type Translator interface {
	Translate(ctx context.Context, text, lang string) (string, error)
}

// Result is the aggregate outcome of an orchestrated flow. Flows never
// surface per-item failures as errors: they collect them in Details and
// report a success flag. Only storage-layer I/O failures abort a flow.
type Result struct {
	OK      bool     `json:"ok"`
	Count   int      `json:"count"`
	Failed  int      `json:"failed,omitempty"`
	Skipped int      `json:"skipped,omitempty"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// RecordContent is the serialized field state stored in each history
// record's content blob. Rollback re-derives tracked fields from it.
type RecordContent struct {
	UniqueID              string `json:"unique_id"`
	Name                  string `json:"name,omitempty"`
	Description           string `json:"description,omitempty"`
	TranslatedName        string `json:"translated_name,omitempty"`
	TranslatedDescription string `json:"translated_description,omitempty"`
	NexusID               string `json:"nexus_id,omitempty"`
	Hash                  string `json:"hash"`
	RelativePath          string `json:"relative_path,omitempty"`
}
