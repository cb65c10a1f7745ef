package store

import (
	"context"
	"sync"
	"testing"

	"github.com/promptdiff/promptdiff/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	st := NewMemoryStore()
	require.NoError(t, st.Init(context.Background()))
	return st
}

func TestMemoryStore_RequiresInit(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	assert.False(t, st.Initialized(ctx))
	_, err := st.Add(ctx, "p", "content", "", nil)
	assert.ErrorIs(t, err, core.ErrNotInitialized)
}

func TestMemoryStore_AddAndGet(t *testing.T) {
	ctx := context.Background()
	st := newTestMemoryStore(t)

	v1, err := st.Add(ctx, "greeter", "hello", "first", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)

	v2, err := st.Add(ctx, "greeter", "hello there", "second", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	latest, err := st.GetVersion(ctx, "greeter", Latest)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, "hello there", latest.Content)
}

func TestMemoryStore_MetadataNotAliased(t *testing.T) {
	ctx := context.Background()
	st := newTestMemoryStore(t)

	md := map[string]any{"model": "gpt-4"}
	_, err := st.Add(ctx, "greeter", "hello", "", md)
	require.NoError(t, err)

	// Mutating the caller's map after Add must not touch the stored record.
	md["model"] = "changed"
	v, err := st.GetVersion(ctx, "greeter", 1)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", v.Metadata["model"])
}

func TestMemoryStore_AddDedupesLatestContent(t *testing.T) {
	ctx := context.Background()
	st := newTestMemoryStore(t)

	v1, err := st.Add(ctx, "greeter", "hello", "first", nil)
	require.NoError(t, err)
	again, err := st.Add(ctx, "greeter", "hello", "retry", nil)
	require.NoError(t, err)
	assert.Equal(t, v1.Version, again.Version)
	assert.Equal(t, "first", again.Message)
}

func TestMemoryStore_NotFoundErrors(t *testing.T) {
	ctx := context.Background()
	st := newTestMemoryStore(t)

	_, err := st.GetVersion(ctx, "missing", 1)
	assert.ErrorIs(t, err, core.ErrPromptNotFound)
	_, err = st.ListVersions(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrPromptNotFound)
	assert.ErrorIs(t, st.DeletePrompt(ctx, "missing"), core.ErrPromptNotFound)

	_, err = st.Add(ctx, "greeter", "hello", "", nil)
	require.NoError(t, err)
	_, err = st.GetVersion(ctx, "greeter", 7)
	assert.ErrorIs(t, err, core.ErrVersionNotFound)
}

func TestMemoryStore_Tags(t *testing.T) {
	ctx := context.Background()
	st := newTestMemoryStore(t)

	_, err := st.Add(ctx, "greeter", "hello", "", nil)
	require.NoError(t, err)
	require.NoError(t, st.SetTags(ctx, "greeter", []string{"b", "a", "b"}))

	tags, err := st.GetTags(ctx, "greeter")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)
}

func TestMemoryStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	st := newTestMemoryStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := st.Add(ctx, "greeter", string(rune('a'+n)), "", nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	versions, err := st.ListVersions(ctx, "greeter")
	require.NoError(t, err)
	seen := make(map[int]bool)
	for _, v := range versions {
		assert.False(t, seen[v.Version], "version numbers must be unique")
		seen[v.Version] = true
	}
}
