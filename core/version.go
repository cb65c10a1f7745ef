package core

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// HashLength is the number of hex characters kept from the SHA-256 digest.
const HashLength = 12

// PromptVersion is one immutable snapshot of a prompt's content.
// Version numbers are assigned by the store: contiguous from 1, per name.
type PromptVersion struct {
	Version     int            `json:"version"`
	Content     string         `json:"-"`
	Message     string         `json:"message"`
	Timestamp   string         `json:"timestamp"`
	ContentHash string         `json:"content_hash"`
	Metadata    map[string]any `json:"metadata"`
}

// NewPromptVersion builds a version record for content, stamping the current
// time and the content hash. The store decides the version number.
func NewPromptVersion(version int, content, message string, metadata map[string]any) *PromptVersion {
	// Copy the map so the record does not alias caller state.
	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return &PromptVersion{
		Version:     version,
		Content:     content,
		Message:     message,
		Timestamp:   NowISO(),
		ContentHash: ContentHash(content),
		Metadata:    md,
	}
}

// Copy returns a deep copy of the version record.
func (v *PromptVersion) Copy() *PromptVersion {
	w := *v
	w.Metadata = make(map[string]any, len(v.Metadata))
	for k, val := range v.Metadata {
		w.Metadata[k] = val
	}
	return &w
}

// PromptMeta is the per-name history metadata: tags plus the ordered,
// append-only version list. Content itself lives outside of it.
type PromptMeta struct {
	Name          string           `json:"name"`
	Created       string           `json:"created"`
	Tags          []string         `json:"tags"`
	LatestVersion int              `json:"latest_version"`
	Versions      []*PromptVersion `json:"versions"`
}

// NewPromptMeta creates empty history metadata for a name.
func NewPromptMeta(name string) *PromptMeta {
	return &PromptMeta{
		Name:     name,
		Created:  NowISO(),
		Tags:     []string{},
		Versions: []*PromptVersion{},
	}
}

// FindVersion returns the metadata entry for a version number, or nil.
func (m *PromptMeta) FindVersion(version int) *PromptVersion {
	for _, v := range m.Versions {
		if v.Version == version {
			return v
		}
	}
	return nil
}

// ContentHash returns the first HashLength hex characters of the SHA-256
// digest of content. It is a pure function of content.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:HashLength]
}

// NowISO returns the current UTC time as an ISO-8601 (RFC 3339) string.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
