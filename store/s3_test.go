package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/promptdiff/promptdiff/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBlobStore is an in-memory BlobStore for exercising S3Store without AWS.
type fakeBlobStore struct {
	objects map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %q", key)
	}
	return data, nil
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, data []byte) error {
	f.objects[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeBlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

func newTestS3Store(t *testing.T) *S3Store {
	t.Helper()
	st := NewS3Store(newFakeBlobStore(), "")
	require.NoError(t, st.Init(context.Background()))
	return st
}

func TestS3Store_RequiresInit(t *testing.T) {
	ctx := context.Background()
	st := NewS3Store(newFakeBlobStore(), "")
	assert.False(t, st.Initialized(ctx))
	_, err := st.Add(ctx, "p", "content", "", nil)
	assert.ErrorIs(t, err, core.ErrNotInitialized)
}

func TestS3Store_AddGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestS3Store(t)

	v1, err := st.Add(ctx, "greeter", "hello", "first", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)

	again, err := st.Add(ctx, "greeter", "hello", "retry", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Version, "identical latest content is deduplicated")

	_, err = st.Add(ctx, "greeter", "goodbye", "second", nil)
	require.NoError(t, err)

	latest, err := st.GetVersion(ctx, "greeter", Latest)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, "goodbye", latest.Content)
}

func TestS3Store_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	st := newTestS3Store(t)

	for _, name := range []string{"zeta", "alpha"} {
		_, err := st.Add(ctx, name, "content of "+name, "", nil)
		require.NoError(t, err)
	}

	names, err := st.ListPrompts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)

	require.NoError(t, st.DeletePrompt(ctx, "zeta"))
	names, err = st.ListPrompts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, names)

	assert.ErrorIs(t, st.DeletePrompt(ctx, "zeta"), core.ErrPromptNotFound)
}

func TestS3Store_Tags(t *testing.T) {
	ctx := context.Background()
	st := newTestS3Store(t)

	_, err := st.Add(ctx, "greeter", "hello", "", nil)
	require.NoError(t, err)
	require.NoError(t, st.SetTags(ctx, "greeter", []string{"y", "x", "y"}))

	tags, err := st.GetTags(ctx, "greeter")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, tags)
}
