package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHash(t *testing.T) {
	h := ContentHash("hello world")
	assert.Len(t, h, HashLength)
	assert.Equal(t, h, ContentHash("hello world"))
	assert.NotEqual(t, h, ContentHash("hello worlds"))

	sum := sha256.Sum256([]byte("hello world"))
	assert.Equal(t, hex.EncodeToString(sum[:])[:HashLength], h)
}

func TestNewPromptVersion(t *testing.T) {
	v := NewPromptVersion(3, "content", "msg", nil)
	assert.Equal(t, 3, v.Version)
	assert.Equal(t, "content", v.Content)
	assert.Equal(t, "msg", v.Message)
	assert.Equal(t, ContentHash("content"), v.ContentHash)
	assert.NotNil(t, v.Metadata)

	_, err := time.Parse(time.RFC3339, v.Timestamp)
	assert.NoError(t, err)
}

func TestNewPromptVersion_CopiesMetadata(t *testing.T) {
	md := map[string]any{"model": "gpt-4"}
	v := NewPromptVersion(1, "content", "", md)

	md["model"] = "changed"
	md["extra"] = true
	assert.Equal(t, "gpt-4", v.Metadata["model"])
	assert.NotContains(t, v.Metadata, "extra")
}

func TestPromptVersion_ContentNotSerialized(t *testing.T) {
	v := NewPromptVersion(1, "secret content", "", nil)
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret content")
	assert.Contains(t, string(data), v.ContentHash)
}

func TestPromptVersion_Copy(t *testing.T) {
	v := NewPromptVersion(1, "content", "", map[string]any{"k": "v"})
	c := v.Copy()
	c.Metadata["k"] = "changed"
	c.Message = "changed"
	assert.Equal(t, "v", v.Metadata["k"])
	assert.Equal(t, "", v.Message)
}

func TestPromptMeta_FindVersion(t *testing.T) {
	m := NewPromptMeta("p")
	assert.Nil(t, m.FindVersion(1))

	m.Versions = append(m.Versions, NewPromptVersion(1, "a", "", nil), NewPromptVersion(2, "b", "", nil))
	require.NotNil(t, m.FindVersion(2))
	assert.Equal(t, 2, m.FindVersion(2).Version)
	assert.Nil(t, m.FindVersion(3))
}

func TestNewPromptMeta_JSONShape(t *testing.T) {
	m := NewPromptMeta("p")
	data, err := json.Marshal(m)
	require.NoError(t, err)
	// Empty collections serialize as [] rather than null.
	assert.Contains(t, string(data), `"tags":[]`)
	assert.Contains(t, string(data), `"versions":[]`)
}
