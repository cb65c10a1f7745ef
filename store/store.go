// Package store provides durable, append-only prompt version storage backends.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/promptdiff/promptdiff/core"
)

// SchemaVersion is written into the store's root marker at init time.
const SchemaVersion = "0.1.0"

// Latest selects the most recent version in GetVersion.
const Latest = 0

// Store is a durable, per-name, append-only history of prompt content with
// content dedup and tag metadata. Implementations assume a single writer at
// a time; they do not guard against concurrent external mutation.
type Store interface {
	// Init idempotently creates the store's root layout. Calling it on an
	// already initialized store is not an error.
	Init(ctx context.Context) error
	// Initialized reports whether the store root exists.
	Initialized(ctx context.Context) bool
	// Add appends a new version of a prompt, creating the history on first
	// use. Re-adding content byte-identical to the current latest version
	// returns the existing latest record unchanged.
	Add(ctx context.Context, name, content, message string, metadata map[string]any) (*core.PromptVersion, error)
	// GetVersion returns one version of a prompt. Pass Latest (0) for the
	// most recent version.
	GetVersion(ctx context.Context, name string, version int) (*core.PromptVersion, error)
	// ListVersions returns all versions of a prompt, ascending by version.
	ListVersions(ctx context.Context, name string) ([]*core.PromptVersion, error)
	// ListPrompts returns all tracked prompt names, lexicographically sorted.
	// An empty store yields an empty slice, not an error.
	ListPrompts(ctx context.Context) ([]string, error)
	// DeletePrompt irreversibly removes a prompt's entire history.
	DeletePrompt(ctx context.Context, name string) error
	// SetTags replaces the tag set for a prompt (sorted, deduplicated).
	SetTags(ctx context.Context, name string, tags []string) error
	// GetTags returns the tag set for a prompt.
	GetTags(ctx context.Context, name string) ([]string, error)
}

// rootMeta is the store's root marker document.
type rootMeta struct {
	Created string `json:"created"`
	Version string `json:"version"`
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrPromptNotFound)
}

// normalizeTags sorts and deduplicates a tag list. Never returns nil.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
