package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/promptdiff/promptdiff/core"
)

// MemoryStore is an in-memory store for tests and single-process embedding.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	metas       map[string]*core.PromptMeta
	contents    map[string]map[int]string // name -> version -> content
}

// NewMemoryStore creates an empty in-memory store (call Init before use).
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		metas:    make(map[string]*core.PromptMeta),
		contents: make(map[string]map[int]string),
	}
}

// Init implements Store.
func (m *MemoryStore) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = true
	return nil
}

// Initialized implements Store.
func (m *MemoryStore) Initialized(ctx context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

func (m *MemoryStore) ensureInit() error {
	if !m.initialized {
		return core.ErrNotInitialized
	}
	return nil
}

// Add implements Store.
func (m *MemoryStore) Add(ctx context.Context, name, content, message string, metadata map[string]any) (*core.PromptVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureInit(); err != nil {
		return nil, err
	}
	meta, ok := m.metas[name]
	next := 1
	if ok {
		latest, blobOK := m.contents[name][meta.LatestVersion]
		if !blobOK {
			return nil, fmt.Errorf("%w: %q v%d blob missing", core.ErrDataInconsistency, name, meta.LatestVersion)
		}
		if latest == content {
			return m.versionLocked(name, meta.LatestVersion)
		}
		next = meta.LatestVersion + 1
	} else {
		meta = core.NewPromptMeta(name)
		m.metas[name] = meta
		m.contents[name] = make(map[int]string)
	}
	info := core.NewPromptVersion(next, content, message, metadata)
	m.contents[name][next] = content
	meta.LatestVersion = next
	meta.Versions = append(meta.Versions, info)
	return info.Copy(), nil
}

// versionLocked returns one version with content; callers hold the lock.
func (m *MemoryStore) versionLocked(name string, version int) (*core.PromptVersion, error) {
	meta, ok := m.metas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrPromptNotFound, name)
	}
	if version == Latest {
		version = meta.LatestVersion
	}
	info := meta.FindVersion(version)
	if info == nil {
		return nil, fmt.Errorf("%w: %q v%d", core.ErrVersionNotFound, name, version)
	}
	content, ok := m.contents[name][version]
	if !ok {
		return nil, fmt.Errorf("%w: %q v%d blob missing", core.ErrDataInconsistency, name, version)
	}
	out := info.Copy()
	out.Content = content
	return out, nil
}

// GetVersion implements Store.
func (m *MemoryStore) GetVersion(ctx context.Context, name string, version int) (*core.PromptVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.ensureInit(); err != nil {
		return nil, err
	}
	return m.versionLocked(name, version)
}

// ListVersions implements Store.
func (m *MemoryStore) ListVersions(ctx context.Context, name string) ([]*core.PromptVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.ensureInit(); err != nil {
		return nil, err
	}
	meta, ok := m.metas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrPromptNotFound, name)
	}
	out := make([]*core.PromptVersion, 0, len(meta.Versions))
	for _, info := range meta.Versions {
		v, err := m.versionLocked(name, info.Version)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ListPrompts implements Store.
func (m *MemoryStore) ListPrompts(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.ensureInit(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(m.metas))
	for name := range m.metas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeletePrompt implements Store.
func (m *MemoryStore) DeletePrompt(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureInit(); err != nil {
		return err
	}
	if _, ok := m.metas[name]; !ok {
		return fmt.Errorf("%w: %q", core.ErrPromptNotFound, name)
	}
	delete(m.metas, name)
	delete(m.contents, name)
	return nil
}

// SetTags implements Store.
func (m *MemoryStore) SetTags(ctx context.Context, name string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureInit(); err != nil {
		return err
	}
	meta, ok := m.metas[name]
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrPromptNotFound, name)
	}
	meta.Tags = normalizeTags(tags)
	return nil
}

// GetTags implements Store.
func (m *MemoryStore) GetTags(ctx context.Context, name string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.ensureInit(); err != nil {
		return nil, err
	}
	meta, ok := m.metas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrPromptNotFound, name)
	}
	return append([]string(nil), meta.Tags...), nil
}

var _ Store = (*MemoryStore)(nil)
