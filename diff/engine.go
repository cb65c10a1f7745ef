// Package diff computes line diffs and similarity scores between prompt versions.
package diff

import (
	"fmt"
	"strings"
)

// Tag classifies a single diff line. Replace opcodes are always lowered into
// delete+insert pairs and never appear in output.
type Tag string

// Diff line tags.
const (
	TagEqual  Tag = "equal"
	TagInsert Tag = "insert"
	TagDelete Tag = "delete"
)

// DiffLine is a single line of a diff. OldLine is set for equal and delete
// lines, NewLine for equal and insert lines.
type DiffLine struct {
	Tag     Tag    `json:"tag"`
	OldLine string `json:"old_line,omitempty"`
	NewLine string `json:"new_line,omitempty"`
}

// Stats counts changed lines after replace-lowering: a replace of 2 old
// lines by 3 new lines contributes 2 deletions, 3 additions, and a single
// modification.
type Stats struct {
	Additions     int `json:"additions"`
	Deletions     int `json:"deletions"`
	Modifications int `json:"modifications"`
}

// DiffResult is the outcome of comparing two text blobs. The version numbers
// are caller-supplied labels and are not validated against any store.
type DiffResult struct {
	OldVersion         int        `json:"old_version"`
	NewVersion         int        `json:"new_version"`
	Lines              []DiffLine `json:"lines"`
	SimilarityRatio    float64    `json:"similarity_ratio"`
	SemanticSimilarity *float64   `json:"semantic_similarity,omitempty"`
	Stats              Stats      `json:"stats"`
}

// HasChanges reports whether any line is not an equal line.
func (r *DiffResult) HasChanges() bool {
	for _, line := range r.Lines {
		if line.Tag != TagEqual {
			return true
		}
	}
	return false
}

// Engine computes text diffs and similarity between prompt versions.
// It is stateless per call and safe for concurrent use.
type Engine struct {
	embedder Embedder
}

// Option configures an Engine.
type Option func(*Engine)

// WithEmbedder attaches an embedding provider, enabling EmbeddingSimilarity.
func WithEmbedder(e Embedder) Option {
	return func(eng *Engine) {
		eng.embedder = e
	}
}

// NewEngine creates a diff engine.
func NewEngine(opts ...Option) *Engine {
	eng := &Engine{}
	for _, o := range opts {
		o(eng)
	}
	return eng
}

// TextDiff computes a line-level diff between two text blobs. Lines keep
// their terminators, so concatenating the old (or new) sides of the result
// reproduces the input exactly.
func (e *Engine) TextDiff(oldText, newText string) *DiffResult {
	return e.textDiff(oldText, newText, 0, 0)
}

func (e *Engine) textDiff(oldText, newText string, oldVersion, newVersion int) *DiffResult {
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)
	m := newMatcher(oldLines, newLines)

	result := &DiffResult{
		OldVersion:      oldVersion,
		NewVersion:      newVersion,
		SimilarityRatio: m.ratio(),
	}
	for _, op := range m.opcodes() {
		switch op.Tag {
		case opEqual:
			for i := op.I1; i < op.I2; i++ {
				result.Lines = append(result.Lines, DiffLine{Tag: TagEqual, OldLine: oldLines[i], NewLine: oldLines[i]})
			}
		case opDelete:
			for i := op.I1; i < op.I2; i++ {
				result.Lines = append(result.Lines, DiffLine{Tag: TagDelete, OldLine: oldLines[i]})
				result.Stats.Deletions++
			}
		case opInsert:
			for j := op.J1; j < op.J2; j++ {
				result.Lines = append(result.Lines, DiffLine{Tag: TagInsert, NewLine: newLines[j]})
				result.Stats.Additions++
			}
		case opReplace:
			// All deletions of the replaced range precede its insertions;
			// changelog output depends on this ordering.
			for i := op.I1; i < op.I2; i++ {
				result.Lines = append(result.Lines, DiffLine{Tag: TagDelete, OldLine: oldLines[i]})
				result.Stats.Deletions++
			}
			for j := op.J1; j < op.J2; j++ {
				result.Lines = append(result.Lines, DiffLine{Tag: TagInsert, NewLine: newLines[j]})
				result.Stats.Additions++
			}
			result.Stats.Modifications++
		}
	}
	return result
}

// FullDiff computes a text diff and attaches the word-overlap semantic
// similarity. The version numbers label the result only.
func (e *Engine) FullDiff(oldText, newText string, oldVersion, newVersion int) *DiffResult {
	result := e.textDiff(oldText, newText, oldVersion, newVersion)
	sim := e.SemanticSimilarity(oldText, newText)
	result.SemanticSimilarity = &sim
	return result
}

// UnifiedDiff renders the alignment as a unified-diff text block: header
// lines for both labels and a single hunk covering the full inputs.
func (e *Engine) UnifiedDiff(oldText, newText, oldLabel, newLabel string) string {
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)
	m := newMatcher(oldLines, newLines)

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", oldLabel)
	fmt.Fprintf(&b, "+++ %s\n", newLabel)
	fmt.Fprintf(&b, "@@ -%s +%s @@\n", hunkRange(len(oldLines)), hunkRange(len(newLines)))
	for _, op := range m.opcodes() {
		switch op.Tag {
		case opEqual:
			for i := op.I1; i < op.I2; i++ {
				writeDiffLine(&b, ' ', oldLines[i])
			}
		case opDelete:
			for i := op.I1; i < op.I2; i++ {
				writeDiffLine(&b, '-', oldLines[i])
			}
		case opInsert:
			for j := op.J1; j < op.J2; j++ {
				writeDiffLine(&b, '+', newLines[j])
			}
		case opReplace:
			for i := op.I1; i < op.I2; i++ {
				writeDiffLine(&b, '-', oldLines[i])
			}
			for j := op.J1; j < op.J2; j++ {
				writeDiffLine(&b, '+', newLines[j])
			}
		}
	}
	return b.String()
}

func hunkRange(n int) string {
	if n == 0 {
		return "0,0"
	}
	return fmt.Sprintf("1,%d", n)
}

func writeDiffLine(b *strings.Builder, prefix byte, line string) {
	b.WriteByte(prefix)
	b.WriteString(line)
	if !strings.HasSuffix(line, "\n") {
		b.WriteByte('\n')
	}
}
