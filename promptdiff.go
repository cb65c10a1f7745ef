// Package promptdiff provides git-style version control for LLM prompts:
// a content-addressed version store, a line and semantic diff engine, tag
// management, changelog generation, and test-case evaluation.
//
// Quick start:
//
//	st := promptdiff.NewFileStore(".")
//	if err := st.Init(ctx); err != nil {
//		return err
//	}
//	v, err := st.Add(ctx, "summarizer", "Summarize: {{.text}}", "initial", nil)
//
//	engine := promptdiff.NewDiffEngine()
//	old, _ := st.GetVersion(ctx, "summarizer", 1)
//	latest, _ := st.GetVersion(ctx, "summarizer", promptdiff.Latest)
//	result := engine.FullDiff(old.Content, latest.Content, old.Version, latest.Version)
package promptdiff

import (
	"github.com/promptdiff/promptdiff/core"
	"github.com/promptdiff/promptdiff/diff"
	"github.com/promptdiff/promptdiff/registry"
	"github.com/promptdiff/promptdiff/store"
)

// Latest selects the newest version in store lookups.
const Latest = store.Latest

// Re-export core types for convenience.
type (
	// PromptVersion is one stored version of a prompt.
	PromptVersion = core.PromptVersion
	// PromptMeta is the full metadata record of a prompt.
	PromptMeta = core.PromptMeta
	// Store is the persistence interface all backends implement.
	Store = store.Store
	// DiffResult is the outcome of comparing two versions.
	DiffResult = diff.DiffResult
	// Registry is the high-level prompt management facade.
	Registry = registry.Registry
	// Summary describes one prompt in a registry listing.
	Summary = registry.Summary
)

// Sentinel errors (re-export from core).
var (
	ErrNotInitialized     = core.ErrNotInitialized
	ErrPromptNotFound     = core.ErrPromptNotFound
	ErrVersionNotFound    = core.ErrVersionNotFound
	ErrDataInconsistency  = core.ErrDataInconsistency
	ErrFeatureUnavailable = core.ErrFeatureUnavailable
)

// NewFileStore creates a filesystem-backed store rooted at dir.
func NewFileStore(dir string) *store.FileStore {
	return store.NewFileStore(dir)
}

// NewMemoryStore creates an in-memory store, useful for tests.
func NewMemoryStore() *store.MemoryStore {
	return store.NewMemoryStore()
}

// NewDiffEngine creates a diff engine.
func NewDiffEngine(opts ...diff.Option) *diff.Engine {
	return diff.NewEngine(opts...)
}

// NewRegistry creates the high-level prompt registry over a store.
func NewRegistry(s store.Store) *registry.Registry {
	return registry.New(s)
}
