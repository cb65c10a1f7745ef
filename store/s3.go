// Package store S3-compatible storage via the BlobStore interface.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/promptdiff/promptdiff/core"
)

// BlobStore is a minimal key-value store for S3-compatible backends
// (e.g. AWS S3, MinIO). See store/s3blob for the aws-sdk-go-v2 implementation.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// S3Store keeps prompt history in a BlobStore. Keys mirror the file layout:
// prompts/<name>/meta.json, prompts/<name>/v<N>.txt, promptdiff.json (root).
type S3Store struct {
	store  BlobStore
	prefix string
}

// NewS3Store creates a store over the given BlobStore and key prefix.
func NewS3Store(store BlobStore, prefix string) *S3Store {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Store{store: store, prefix: prefix}
}

func (s *S3Store) rootKey() string {
	return s.prefix + rootMetaFile
}

func (s *S3Store) metaKey(name string) string {
	return s.prefix + "prompts/" + name + "/" + metaFile
}

func (s *S3Store) contentKey(name string, version int) string {
	return fmt.Sprintf("%sprompts/%s/v%d.txt", s.prefix, name, version)
}

// Init implements Store.
func (s *S3Store) Init(ctx context.Context) error {
	ok, err := s.store.Exists(ctx, s.rootKey())
	if err != nil {
		return fmt.Errorf("s3 store init: %w", err)
	}
	if ok {
		return nil
	}
	data, err := json.MarshalIndent(rootMeta{Created: core.NowISO(), Version: SchemaVersion}, "", "  ")
	if err != nil {
		return err
	}
	return s.store.Put(ctx, s.rootKey(), data)
}

// Initialized implements Store.
func (s *S3Store) Initialized(ctx context.Context) bool {
	ok, err := s.store.Exists(ctx, s.rootKey())
	return err == nil && ok
}

func (s *S3Store) ensureInit(ctx context.Context) error {
	if !s.Initialized(ctx) {
		return core.ErrNotInitialized
	}
	return nil
}

func (s *S3Store) readMeta(ctx context.Context, name string) (*core.PromptMeta, error) {
	ok, err := s.store.Exists(ctx, s.metaKey(name))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrPromptNotFound, name)
	}
	data, err := s.store.Get(ctx, s.metaKey(name))
	if err != nil {
		return nil, err
	}
	var meta core.PromptMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("s3 store decode %q: %w", name, err)
	}
	return &meta, nil
}

func (s *S3Store) writeMeta(ctx context.Context, name string, meta *core.PromptMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return s.store.Put(ctx, s.metaKey(name), data)
}

func (s *S3Store) readContent(ctx context.Context, name string, version int) (string, bool, error) {
	key := s.contentKey(name, version)
	ok, err := s.store.Exists(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Add implements Store.
func (s *S3Store) Add(ctx context.Context, name, content, message string, metadata map[string]any) (*core.PromptVersion, error) {
	if err := s.ensureInit(ctx); err != nil {
		return nil, err
	}
	meta, err := s.readMeta(ctx, name)
	next := 1
	switch {
	case err == nil:
		latest, ok, err := s.readContent(ctx, name, meta.LatestVersion)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q v%d blob missing", core.ErrDataInconsistency, name, meta.LatestVersion)
		}
		if latest == content {
			return s.GetVersion(ctx, name, meta.LatestVersion)
		}
		next = meta.LatestVersion + 1
	case isNotFound(err):
		meta = core.NewPromptMeta(name)
	default:
		return nil, err
	}

	info := core.NewPromptVersion(next, content, message, metadata)
	if err := s.store.Put(ctx, s.contentKey(name, next), []byte(content)); err != nil {
		return nil, err
	}
	meta.LatestVersion = next
	meta.Versions = append(meta.Versions, info)
	if err := s.writeMeta(ctx, name, meta); err != nil {
		return nil, err
	}
	return info.Copy(), nil
}

// GetVersion implements Store.
func (s *S3Store) GetVersion(ctx context.Context, name string, version int) (*core.PromptVersion, error) {
	if err := s.ensureInit(ctx); err != nil {
		return nil, err
	}
	meta, err := s.readMeta(ctx, name)
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
	content, ok, err := s.readContent(ctx, name, version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q v%d blob missing", core.ErrDataInconsistency, name, version)
	}
	out := info.Copy()
	out.Content = content
	return out, nil
}

// ListVersions implements Store.
func (s *S3Store) ListVersions(ctx context.Context, name string) ([]*core.PromptVersion, error) {
	if err := s.ensureInit(ctx); err != nil {
		return nil, err
	}
	meta, err := s.readMeta(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]*core.PromptVersion, 0, len(meta.Versions))
	for _, info := range meta.Versions {
		v, err := s.GetVersion(ctx, name, info.Version)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ListPrompts implements Store.
func (s *S3Store) ListPrompts(ctx context.Context) ([]string, error) {
	if err := s.ensureInit(ctx); err != nil {
		return nil, err
	}
	keys, err := s.store.List(ctx, s.prefix+"prompts/")
	if err != nil {
		return nil, err
	}
	names := []string{}
	seen := make(map[string]bool)
	for _, key := range keys {
		if !strings.HasSuffix(key, "/"+metaFile) {
			continue
		}
		trim := strings.TrimPrefix(key, s.prefix+"prompts/")
		name := strings.TrimSuffix(trim, "/"+metaFile)
		if name == "" || strings.Contains(name, "/") || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeletePrompt implements Store.
func (s *S3Store) DeletePrompt(ctx context.Context, name string) error {
	if err := s.ensureInit(ctx); err != nil {
		return err
	}
	meta, err := s.readMeta(ctx, name)
	if err != nil {
		return err
	}
	for _, info := range meta.Versions {
		if err := s.store.Delete(ctx, s.contentKey(name, info.Version)); err != nil {
			return err
		}
	}
	return s.store.Delete(ctx, s.metaKey(name))
}

// SetTags implements Store.
func (s *S3Store) SetTags(ctx context.Context, name string, tags []string) error {
	if err := s.ensureInit(ctx); err != nil {
		return err
	}
	meta, err := s.readMeta(ctx, name)
	if err != nil {
		return err
	}
	meta.Tags = normalizeTags(tags)
	return s.writeMeta(ctx, name, meta)
}

// GetTags implements Store.
func (s *S3Store) GetTags(ctx context.Context, name string) ([]string, error) {
	if err := s.ensureInit(ctx); err != nil {
		return nil, err
	}
	meta, err := s.readMeta(ctx, name)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), meta.Tags...), nil
}

var _ Store = (*S3Store)(nil)
