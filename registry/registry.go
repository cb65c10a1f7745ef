// Package registry is the high-level facade for managing named prompts with
// tags and metadata over any store backend.
package registry

import (
	"context"
	"fmt"

	"github.com/promptdiff/promptdiff/store"
)

// Summary describes one prompt in a listing.
type Summary struct {
	Name          string   `json:"name"`
	LatestVersion int      `json:"latest_version"`
	Tags          []string `json:"tags"`
	TotalVersions int      `json:"total_versions"`
}

// Registry wraps a Store with tag management and listing helpers.
type Registry struct {
	store store.Store
}

// New creates a registry over the given store.
func New(s store.Store) *Registry {
	return &Registry{store: s}
}

// Store exposes the underlying store.
func (r *Registry) Store() store.Store {
	return r.store
}

// Register adds a new prompt version, optionally tagging the prompt, and
// returns the version number. Re-registering identical content returns the
// existing version.
func (r *Registry) Register(ctx context.Context, name, content, message string, tags []string, metadata map[string]any) (int, error) {
	v, err := r.store.Add(ctx, name, content, message, metadata)
	if err != nil {
		return 0, fmt.Errorf("register %q: %w", name, err)
	}
	if len(tags) > 0 {
		if err := r.store.SetTags(ctx, name, tags); err != nil {
			return 0, fmt.Errorf("tag %q: %w", name, err)
		}
	}
	return v.Version, nil
}

// Get returns prompt content. Pass store.Latest for the newest version.
func (r *Registry) Get(ctx context.Context, name string, version int) (string, error) {
	v, err := r.store.GetVersion(ctx, name, version)
	if err != nil {
		return "", err
	}
	return v.Content, nil
}

// SetTags replaces the prompt's tags with the sorted, deduplicated set.
func (r *Registry) SetTags(ctx context.Context, name string, tags []string) error {
	return r.store.SetTags(ctx, name, tags)
}

// GetTags returns the prompt's tags.
func (r *Registry) GetTags(ctx context.Context, name string) ([]string, error) {
	return r.store.GetTags(ctx, name)
}

// AddTags merges tags into the prompt's existing set.
func (r *Registry) AddTags(ctx context.Context, name string, tags []string) error {
	existing, err := r.store.GetTags(ctx, name)
	if err != nil {
		return err
	}
	return r.store.SetTags(ctx, name, append(existing, tags...))
}

// FindByTag returns the names of all prompts carrying the tag, in listing
// order.
func (r *Registry) FindByTag(ctx context.Context, tag string) ([]string, error) {
	names, err := r.store.ListPrompts(ctx)
	if err != nil {
		return nil, err
	}
	results := []string{}
	for _, name := range names {
		tags, err := r.store.GetTags(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, t := range tags {
			if t == tag {
				results = append(results, name)
				break
			}
		}
	}
	return results, nil
}

// ListAll returns a summary for every tracked prompt.
func (r *Registry) ListAll(ctx context.Context) ([]Summary, error) {
	names, err := r.store.ListPrompts(ctx)
	if err != nil {
		return nil, err
	}
	results := []Summary{}
	for _, name := range names {
		versions, err := r.store.ListVersions(ctx, name)
		if err != nil {
			return nil, err
		}
		tags, err := r.store.GetTags(ctx, name)
		if err != nil {
			return nil, err
		}
		latest := 0
		if n := len(versions); n > 0 {
			latest = versions[n-1].Version
		}
		results = append(results, Summary{
			Name:          name,
			LatestVersion: latest,
			Tags:          tags,
			TotalVersions: len(versions),
		})
	}
	return results, nil
}
