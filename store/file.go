// Package store file-based storage implementation (the reference layout).
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/promptdiff/promptdiff/core"
)

const (
	storeDirName = ".promptdiff"
	promptsDir   = "prompts"
	rootMetaFile = "promptdiff.json"
	metaFile     = "meta.json"
)

// FileStore keeps prompt history on the local filesystem.
//
// Layout:
//
//	<root>/.promptdiff/promptdiff.json        root marker
//	<root>/.promptdiff/prompts/<name>/meta.json
//	<root>/.promptdiff/prompts/<name>/v<N>.txt
//
// meta.json holds the version list without content; content lives only in
// the vN.txt blobs.
type FileStore struct {
	root        string
	storePath   string
	promptsPath string
}

// NewFileStore creates a store rooted at dir (the store itself lives in
// dir/.promptdiff).
func NewFileStore(dir string) *FileStore {
	storePath := filepath.Join(dir, storeDirName)
	return &FileStore{
		root:        dir,
		storePath:   storePath,
		promptsPath: filepath.Join(storePath, promptsDir),
	}
}

// Root returns the store directory (<dir>/.promptdiff).
func (f *FileStore) Root() string {
	return f.storePath
}

func (f *FileStore) promptDir(name string) string {
	return filepath.Join(f.promptsPath, name)
}

func (f *FileStore) metaPath(name string) string {
	return filepath.Join(f.promptDir(name), metaFile)
}

func (f *FileStore) versionPath(name string, version int) string {
	return filepath.Join(f.promptDir(name), fmt.Sprintf("v%d.txt", version))
}

// Init implements Store.
func (f *FileStore) Init(ctx context.Context) error {
	if err := os.MkdirAll(f.promptsPath, 0o755); err != nil {
		return fmt.Errorf("file store init: %w", err)
	}
	marker := filepath.Join(f.storePath, rootMetaFile)
	if _, err := os.Stat(marker); err == nil {
		return nil
	}
	data, err := json.MarshalIndent(rootMeta{Created: core.NowISO(), Version: SchemaVersion}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(marker, data, 0o644)
}

// Initialized implements Store.
func (f *FileStore) Initialized(ctx context.Context) bool {
	_, err := os.Stat(filepath.Join(f.storePath, rootMetaFile))
	return err == nil
}

func (f *FileStore) ensureInit(ctx context.Context) error {
	if !f.Initialized(ctx) {
		return core.ErrNotInitialized
	}
	return nil
}

func (f *FileStore) readMeta(name string) (*core.PromptMeta, error) {
	data, err := os.ReadFile(f.metaPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", core.ErrPromptNotFound, name)
		}
		return nil, err
	}
	var meta core.PromptMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("file store decode %q: %w", name, err)
	}
	return &meta, nil
}

func (f *FileStore) writeMeta(name string, meta *core.PromptMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.metaPath(name), data, 0o644)
}

// Add implements Store.
func (f *FileStore) Add(ctx context.Context, name, content, message string, metadata map[string]any) (*core.PromptVersion, error) {
	if err := f.ensureInit(ctx); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(f.promptDir(name), 0o755); err != nil {
		return nil, fmt.Errorf("file store add: %w", err)
	}

	meta, err := f.readMeta(name)
	next := 1
	switch {
	case err == nil:
		latest, err := os.ReadFile(f.versionPath(name, meta.LatestVersion))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %q v%d blob missing", core.ErrDataInconsistency, name, meta.LatestVersion)
			}
			return nil, err
		}
		if string(latest) == content {
			return f.GetVersion(ctx, name, meta.LatestVersion)
		}
		next = meta.LatestVersion + 1
	case isNotFound(err):
		meta = core.NewPromptMeta(name)
	default:
		return nil, err
	}

	info := core.NewPromptVersion(next, content, message, metadata)

	// Content blob first, then metadata; a crash in between leaves an
	// unreferenced blob rather than dangling metadata.
	if err := os.WriteFile(f.versionPath(name, next), []byte(content), 0o644); err != nil {
		return nil, err
	}
	meta.LatestVersion = next
	meta.Versions = append(meta.Versions, info)
	if err := f.writeMeta(name, meta); err != nil {
		return nil, err
	}
	return info.Copy(), nil
}

// GetVersion implements Store.
func (f *FileStore) GetVersion(ctx context.Context, name string, version int) (*core.PromptVersion, error) {
	if err := f.ensureInit(ctx); err != nil {
		return nil, err
	}
	meta, err := f.readMeta(name)
	if err != nil {
		return nil, err
	}
	if version == Latest {
		version = meta.LatestVersion
	}
	info := meta.FindVersion(version)
	if info == nil {
		return nil, fmt.Errorf("%w: %q v%d", core.ErrVersionNotFound, name, version)
	}
	content, err := os.ReadFile(f.versionPath(name, version))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q v%d blob missing", core.ErrDataInconsistency, name, version)
		}
		return nil, err
	}
	out := info.Copy()
	out.Content = string(content)
	return out, nil
}

// ListVersions implements Store.
func (f *FileStore) ListVersions(ctx context.Context, name string) ([]*core.PromptVersion, error) {
	if err := f.ensureInit(ctx); err != nil {
		return nil, err
	}
	meta, err := f.readMeta(name)
	if err != nil {
		return nil, err
	}
	out := make([]*core.PromptVersion, 0, len(meta.Versions))
	for _, info := range meta.Versions {
		content, err := os.ReadFile(f.versionPath(name, info.Version))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %q v%d blob missing", core.ErrDataInconsistency, name, info.Version)
			}
			return nil, err
		}
		v := info.Copy()
		v.Content = string(content)
		out = append(out, v)
	}
	return out, nil
}

// ListPrompts implements Store.
func (f *FileStore) ListPrompts(ctx context.Context) ([]string, error) {
	if err := f.ensureInit(ctx); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.promptsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(f.metaPath(e.Name())); err != nil {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// DeletePrompt implements Store.
func (f *FileStore) DeletePrompt(ctx context.Context, name string) error {
	if err := f.ensureInit(ctx); err != nil {
		return err
	}
	dir := f.promptDir(name)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", core.ErrPromptNotFound, name)
		}
		return err
	}
	return os.RemoveAll(dir)
}

// SetTags implements Store.
func (f *FileStore) SetTags(ctx context.Context, name string, tags []string) error {
	if err := f.ensureInit(ctx); err != nil {
		return err
	}
	meta, err := f.readMeta(name)
	if err != nil {
		return err
	}
	meta.Tags = normalizeTags(tags)
	return f.writeMeta(name, meta)
}

// GetTags implements Store.
func (f *FileStore) GetTags(ctx context.Context, name string) ([]string, error) {
	if err := f.ensureInit(ctx); err != nil {
		return nil, err
	}
	meta, err := f.readMeta(name)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), meta.Tags...), nil
}

// Ensure FileStore implements Store at compile time.
var _ Store = (*FileStore)(nil)
