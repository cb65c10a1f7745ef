// Package store Redis storage implementation. Use: go get github.com/redis/go-redis/v9
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/promptdiff/promptdiff/core"
)

const (
	redisKeyRoot    = "promptdiff:meta"
	redisKeyMeta    = "meta:%s"
	redisKeyContent = "prompt:%s:v%d"
	redisKeyIndex   = "index:prompts"
)

// RedisStore keeps prompt history in Redis. Keys: meta:<name> (JSON history
// metadata), prompt:<name>:v<N> (raw content), index:prompts (SET of names),
// promptdiff:meta (root marker).
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store using the given Redis client and an optional
// key prefix (e.g. "promptdiff:").
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(format string, a ...any) string {
	return r.prefix + fmt.Sprintf(format, a...)
}

// Init implements Store.
func (r *RedisStore) Init(ctx context.Context) error {
	data, err := json.Marshal(rootMeta{Created: core.NowISO(), Version: SchemaVersion})
	if err != nil {
		return err
	}
	return r.client.SetNX(ctx, r.key(redisKeyRoot), data, 0).Err()
}

// Initialized implements Store.
func (r *RedisStore) Initialized(ctx context.Context) bool {
	n, err := r.client.Exists(ctx, r.key(redisKeyRoot)).Result()
	return err == nil && n > 0
}

func (r *RedisStore) ensureInit(ctx context.Context) error {
	if !r.Initialized(ctx) {
		return core.ErrNotInitialized
	}
	return nil
}

func (r *RedisStore) readMeta(ctx context.Context, name string) (*core.PromptMeta, error) {
	data, err := r.client.Get(ctx, r.key(redisKeyMeta, name)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %q", core.ErrPromptNotFound, name)
		}
		return nil, err
	}
	var meta core.PromptMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("redis store decode %q: %w", name, err)
	}
	return &meta, nil
}

func (r *RedisStore) writeMeta(ctx context.Context, name string, meta *core.PromptMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(redisKeyMeta, name), data, 0).Err()
}

func (r *RedisStore) readContent(ctx context.Context, name string, version int) (string, bool, error) {
	content, err := r.client.Get(ctx, r.key(redisKeyContent, name, version)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return content, true, nil
}

// Add implements Store.
func (r *RedisStore) Add(ctx context.Context, name, content, message string, metadata map[string]any) (*core.PromptVersion, error) {
	if err := r.ensureInit(ctx); err != nil {
		return nil, err
	}
	meta, err := r.readMeta(ctx, name)
	next := 1
	switch {
	case err == nil:
		latest, ok, err := r.readContent(ctx, name, meta.LatestVersion)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q v%d blob missing", core.ErrDataInconsistency, name, meta.LatestVersion)
		}
		if latest == content {
			return r.GetVersion(ctx, name, meta.LatestVersion)
		}
		next = meta.LatestVersion + 1
	case isNotFound(err):
		meta = core.NewPromptMeta(name)
	default:
		return nil, err
	}

	info := core.NewPromptVersion(next, content, message, metadata)
	if err := r.client.Set(ctx, r.key(redisKeyContent, name, next), content, 0).Err(); err != nil {
		return nil, err
	}
	meta.LatestVersion = next
	meta.Versions = append(meta.Versions, info)
	if err := r.writeMeta(ctx, name, meta); err != nil {
		return nil, err
	}
	if err := r.client.SAdd(ctx, r.key(redisKeyIndex), name).Err(); err != nil {
		return nil, err
	}
	return info.Copy(), nil
}

// GetVersion implements Store.
func (r *RedisStore) GetVersion(ctx context.Context, name string, version int) (*core.PromptVersion, error) {
	if err := r.ensureInit(ctx); err != nil {
		return nil, err
	}
	meta, err := r.readMeta(ctx, name)
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
	content, ok, err := r.readContent(ctx, name, version)
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
func (r *RedisStore) ListVersions(ctx context.Context, name string) ([]*core.PromptVersion, error) {
	if err := r.ensureInit(ctx); err != nil {
		return nil, err
	}
	meta, err := r.readMeta(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]*core.PromptVersion, 0, len(meta.Versions))
	for _, info := range meta.Versions {
		v, err := r.GetVersion(ctx, name, info.Version)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ListPrompts implements Store.
func (r *RedisStore) ListPrompts(ctx context.Context) ([]string, error) {
	if err := r.ensureInit(ctx); err != nil {
		return nil, err
	}
	names, err := r.client.SMembers(ctx, r.key(redisKeyIndex)).Result()
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	sort.Strings(names)
	return names, nil
}

// DeletePrompt implements Store.
func (r *RedisStore) DeletePrompt(ctx context.Context, name string) error {
	if err := r.ensureInit(ctx); err != nil {
		return err
	}
	meta, err := r.readMeta(ctx, name)
	if err != nil {
		return err
	}
	keys := []string{r.key(redisKeyMeta, name)}
	for _, info := range meta.Versions {
		keys = append(keys, r.key(redisKeyContent, name, info.Version))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	return r.client.SRem(ctx, r.key(redisKeyIndex), name).Err()
}

// SetTags implements Store.
func (r *RedisStore) SetTags(ctx context.Context, name string, tags []string) error {
	if err := r.ensureInit(ctx); err != nil {
		return err
	}
	meta, err := r.readMeta(ctx, name)
	if err != nil {
		return err
	}
	meta.Tags = normalizeTags(tags)
	return r.writeMeta(ctx, name, meta)
}

// GetTags implements Store.
func (r *RedisStore) GetTags(ctx context.Context, name string) ([]string, error) {
	if err := r.ensureInit(ctx); err != nil {
		return nil, err
	}
	meta, err := r.readMeta(ctx, name)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), meta.Tags...), nil
}

var _ Store = (*RedisStore)(nil)
