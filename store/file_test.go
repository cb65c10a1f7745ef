package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/promptdiff/promptdiff/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	st := NewFileStore(t.TempDir())
	require.NoError(t, st.Init(context.Background()))
	return st
}

func TestFileStore_InitIdempotent(t *testing.T) {
	ctx := context.Background()
	st := NewFileStore(t.TempDir())
	assert.False(t, st.Initialized(ctx))
	require.NoError(t, st.Init(ctx))
	assert.True(t, st.Initialized(ctx))

	marker := filepath.Join(st.Root(), "promptdiff.json")
	before, err := os.ReadFile(marker)
	require.NoError(t, err)

	require.NoError(t, st.Init(ctx))
	after, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, before, after, "re-init must not rewrite the root marker")
}

func TestFileStore_NotInitialized(t *testing.T) {
	ctx := context.Background()
	st := NewFileStore(t.TempDir())
	_, err := st.Add(ctx, "p", "content", "", nil)
	assert.ErrorIs(t, err, core.ErrNotInitialized)
	_, err = st.GetVersion(ctx, "p", 1)
	assert.ErrorIs(t, err, core.ErrNotInitialized)
	_, err = st.ListPrompts(ctx)
	assert.ErrorIs(t, err, core.ErrNotInitialized)
}

func TestFileStore_AddSequentialVersions(t *testing.T) {
	ctx := context.Background()
	st := newTestFileStore(t)

	v1, err := st.Add(ctx, "greeter", "hello", "first", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)
	assert.Len(t, v1.ContentHash, core.HashLength)

	v2, err := st.Add(ctx, "greeter", "hello there", "second", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	versions, err := st.ListVersions(ctx, "greeter")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, "hello", versions[0].Content)
	assert.Equal(t, 2, versions[1].Version)
	assert.Equal(t, "hello there", versions[1].Content)
}

func TestFileStore_AddDedupesLatestContent(t *testing.T) {
	ctx := context.Background()
	st := newTestFileStore(t)

	v1, err := st.Add(ctx, "greeter", "hello", "first", nil)
	require.NoError(t, err)

	again, err := st.Add(ctx, "greeter", "hello", "retry", nil)
	require.NoError(t, err)
	assert.Equal(t, v1.Version, again.Version)
	assert.Equal(t, "first", again.Message, "dedup returns the existing version untouched")

	versions, err := st.ListVersions(ctx, "greeter")
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestFileStore_AddDedupesOnlyAgainstLatest(t *testing.T) {
	ctx := context.Background()
	st := newTestFileStore(t)

	_, err := st.Add(ctx, "greeter", "hello", "", nil)
	require.NoError(t, err)
	_, err = st.Add(ctx, "greeter", "goodbye", "", nil)
	require.NoError(t, err)

	// Same content as v1, but v2 is the latest, so a new version is cut.
	v3, err := st.Add(ctx, "greeter", "hello", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, v3.Version)
}

func TestFileStore_ContentHashDeterministic(t *testing.T) {
	ctx := context.Background()
	st := newTestFileStore(t)

	a, err := st.Add(ctx, "a", "same content", "", nil)
	require.NoError(t, err)
	b, err := st.Add(ctx, "b", "same content", "", nil)
	require.NoError(t, err)
	assert.Equal(t, a.ContentHash, b.ContentHash)
	assert.Equal(t, core.ContentHash("same content"), a.ContentHash)
}

func TestFileStore_GetVersionLatest(t *testing.T) {
	ctx := context.Background()
	st := newTestFileStore(t)

	_, err := st.Add(ctx, "greeter", "v1 content", "", nil)
	require.NoError(t, err)
	_, err = st.Add(ctx, "greeter", "v2 content", "", nil)
	require.NoError(t, err)

	latest, err := st.GetVersion(ctx, "greeter", Latest)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, "v2 content", latest.Content)

	explicit, err := st.GetVersion(ctx, "greeter", 1)
	require.NoError(t, err)
	assert.Equal(t, "v1 content", explicit.Content)
}

func TestFileStore_GetVersionErrors(t *testing.T) {
	ctx := context.Background()
	st := newTestFileStore(t)

	_, err := st.GetVersion(ctx, "missing", 1)
	assert.ErrorIs(t, err, core.ErrPromptNotFound)

	_, err = st.Add(ctx, "greeter", "hello", "", nil)
	require.NoError(t, err)
	_, err = st.GetVersion(ctx, "greeter", 9)
	assert.ErrorIs(t, err, core.ErrVersionNotFound)
}

func TestFileStore_GetVersionMissingBlob(t *testing.T) {
	ctx := context.Background()
	st := newTestFileStore(t)

	_, err := st.Add(ctx, "greeter", "hello", "", nil)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(st.Root(), "prompts", "greeter", "v1.txt")))

	_, err = st.GetVersion(ctx, "greeter", 1)
	assert.ErrorIs(t, err, core.ErrDataInconsistency)
}

func TestFileStore_ListPromptsSorted(t *testing.T) {
	ctx := context.Background()
	st := newTestFileStore(t)

	names, err := st.ListPrompts(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := st.Add(ctx, name, "content of "+name, "", nil)
		require.NoError(t, err)
	}
	names, err = st.ListPrompts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestFileStore_DeletePrompt(t *testing.T) {
	ctx := context.Background()
	st := newTestFileStore(t)

	_, err := st.Add(ctx, "greeter", "hello", "", nil)
	require.NoError(t, err)
	require.NoError(t, st.DeletePrompt(ctx, "greeter"))

	names, err := st.ListPrompts(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = st.GetVersion(ctx, "greeter", 1)
	assert.ErrorIs(t, err, core.ErrPromptNotFound)
	assert.ErrorIs(t, st.DeletePrompt(ctx, "greeter"), core.ErrPromptNotFound)
}

func TestFileStore_Tags(t *testing.T) {
	ctx := context.Background()
	st := newTestFileStore(t)

	_, err := st.Add(ctx, "greeter", "hello", "", nil)
	require.NoError(t, err)

	tags, err := st.GetTags(ctx, "greeter")
	require.NoError(t, err)
	assert.Empty(t, tags)

	require.NoError(t, st.SetTags(ctx, "greeter", []string{"prod", "beta", "prod"}))
	tags, err = st.GetTags(ctx, "greeter")
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "prod"}, tags, "tags are sorted and deduplicated")

	assert.ErrorIs(t, st.SetTags(ctx, "missing", []string{"x"}), core.ErrPromptNotFound)
}

func TestFileStore_MetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestFileStore(t)

	_, err := st.Add(ctx, "greeter", "hello", "msg", map[string]any{"model": "gpt-4"})
	require.NoError(t, err)

	v, err := st.GetVersion(ctx, "greeter", 1)
	require.NoError(t, err)
	assert.Equal(t, "msg", v.Message)
	assert.Equal(t, "gpt-4", v.Metadata["model"])
	assert.NotEmpty(t, v.Timestamp)
}
