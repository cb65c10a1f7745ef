package diff

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/promptdiff/promptdiff/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_TextDiffIdentical(t *testing.T) {
	e := NewEngine()
	text := "line one\nline two\nline three\n"
	result := e.TextDiff(text, text)

	assert.Equal(t, 1.0, result.SimilarityRatio)
	assert.False(t, result.HasChanges())
	assert.Equal(t, Stats{}, result.Stats)
	for _, line := range result.Lines {
		assert.Equal(t, TagEqual, line.Tag)
	}
}

func TestEngine_TextDiffBothEmpty(t *testing.T) {
	e := NewEngine()
	result := e.TextDiff("", "")
	assert.Equal(t, 1.0, result.SimilarityRatio)
	assert.Empty(t, result.Lines)
}

func TestEngine_TextDiffDisjoint(t *testing.T) {
	e := NewEngine()
	result := e.TextDiff("aaa\nbbb\n", "ccc\nddd\n")
	assert.Equal(t, 0.0, result.SimilarityRatio)
	assert.True(t, result.HasChanges())
	assert.Equal(t, 2, result.Stats.Additions)
	assert.Equal(t, 2, result.Stats.Deletions)
}

func TestEngine_TextDiffReplacedLine(t *testing.T) {
	e := NewEngine()
	before := "line one\nline two\nline three\n"
	after := "line one\nline 2\nline three\n"
	result := e.TextDiff(before, after)

	require.Len(t, result.Lines, 4)
	assert.Equal(t, TagEqual, result.Lines[0].Tag)
	assert.Equal(t, TagDelete, result.Lines[1].Tag)
	assert.Equal(t, "line two\n", result.Lines[1].OldLine)
	assert.Equal(t, TagInsert, result.Lines[2].Tag)
	assert.Equal(t, "line 2\n", result.Lines[2].NewLine)
	assert.Equal(t, TagEqual, result.Lines[3].Tag)

	assert.Equal(t, 1, result.Stats.Additions)
	assert.Equal(t, 1, result.Stats.Deletions)
	assert.Equal(t, 1, result.Stats.Modifications)

	// 2 matched lines of 3+3 total.
	assert.InDelta(t, 2.0*2.0/6.0, result.SimilarityRatio, 1e-9)
}

func TestEngine_TextDiffReplaceOrdering(t *testing.T) {
	e := NewEngine()
	result := e.TextDiff("keep\nold a\nold b\n", "keep\nnew a\nnew b\nnew c\n")

	// All deletions of a replaced block come before its insertions.
	var tags []Tag
	for _, line := range result.Lines {
		tags = append(tags, line.Tag)
	}
	assert.Equal(t, []Tag{TagEqual, TagDelete, TagDelete, TagInsert, TagInsert, TagInsert}, tags)
	assert.Equal(t, 3, result.Stats.Additions)
	assert.Equal(t, 2, result.Stats.Deletions)
	assert.Equal(t, 1, result.Stats.Modifications)
}

func TestEngine_TextDiffRoundTrip(t *testing.T) {
	e := NewEngine()
	before := "alpha\nbeta\ngamma"
	after := "alpha\ndelta\ngamma\nomega"
	result := e.TextDiff(before, after)

	var oldSide, newSide strings.Builder
	for _, line := range result.Lines {
		switch line.Tag {
		case TagEqual:
			oldSide.WriteString(line.OldLine)
			newSide.WriteString(line.NewLine)
		case TagDelete:
			oldSide.WriteString(line.OldLine)
		case TagInsert:
			newSide.WriteString(line.NewLine)
		}
	}
	assert.Equal(t, before, oldSide.String())
	assert.Equal(t, after, newSide.String())
}

func TestEngine_FullDiffAttachesSemantic(t *testing.T) {
	e := NewEngine()
	result := e.FullDiff("the quick brown fox", "the quick red fox", 1, 2)

	assert.Equal(t, 1, result.OldVersion)
	assert.Equal(t, 2, result.NewVersion)
	require.NotNil(t, result.SemanticSimilarity)
	// 3 shared words of 5 in the union.
	assert.InDelta(t, 3.0/5.0, *result.SemanticSimilarity, 1e-9)
}

func TestEngine_UnifiedDiff(t *testing.T) {
	e := NewEngine()
	out := e.UnifiedDiff("a\nb\nc\n", "a\nx\nc\n", "v1", "v2")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "--- v1", lines[0])
	assert.Equal(t, "+++ v2", lines[1])
	assert.Equal(t, "@@ -1,3 +1,3 @@", lines[2])
	assert.Equal(t, " a", lines[3])
	assert.Equal(t, "-b", lines[4])
	assert.Equal(t, "+x", lines[5])
	assert.Equal(t, " c", lines[6])
}

func TestEngine_SemanticSimilarityEdges(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, 1.0, e.SemanticSimilarity("", ""))
	assert.Equal(t, 0.0, e.SemanticSimilarity("something", ""))
	assert.Equal(t, 0.0, e.SemanticSimilarity("", "something"))
	assert.Equal(t, 1.0, e.SemanticSimilarity("Hello World", "world hello"))
	assert.Equal(t, 0.0, e.SemanticSimilarity("aaa bbb", "ccc ddd"))

	sim := e.SemanticSimilarity("one two three", "two three four")
	assert.GreaterOrEqual(t, sim, 0.0)
	assert.LessOrEqual(t, sim, 1.0)
	assert.InDelta(t, 2.0/4.0, sim, 1e-9)
}

// stubEmbedder returns canned vectors per text, or a fixed error.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[text], nil
}

func TestEngine_EmbeddingSimilarityNoEmbedder(t *testing.T) {
	ctx := context.Background()
	_, err := NewEngine().EmbeddingSimilarity(ctx, "a", "b")
	assert.ErrorIs(t, err, core.ErrFeatureUnavailable)
}

func TestEngine_EmbeddingSimilarity(t *testing.T) {
	ctx := context.Background()
	emb := &stubEmbedder{vectors: map[string][]float32{
		"same":       {1, 0},
		"also same":  {2, 0},
		"orthogonal": {0, 1},
	}}
	e := NewEngine(WithEmbedder(emb))

	sim, err := e.EmbeddingSimilarity(ctx, "same", "also same")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)

	sim, err = e.EmbeddingSimilarity(ctx, "same", "orthogonal")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)
}

func TestEngine_EmbeddingSimilarityEmbedError(t *testing.T) {
	ctx := context.Background()
	embedErr := errors.New("embedding backend down")
	e := NewEngine(WithEmbedder(&stubEmbedder{err: embedErr}))

	_, err := e.EmbeddingSimilarity(ctx, "a", "b")
	assert.ErrorIs(t, err, embedErr)
	assert.NotErrorIs(t, err, core.ErrFeatureUnavailable)
}

func TestMatcher_RatioSymmetricScenarios(t *testing.T) {
	a := splitLines("x\ny\nz\n")
	b := splitLines("x\nz\n")
	m := newMatcher(a, b)
	// 2 matched of 5 total lines.
	assert.InDelta(t, 2.0*2.0/5.0, m.ratio(), 1e-9)
}

func TestMatcher_BlocksComputedOnce(t *testing.T) {
	m := newMatcher(splitLines("a\nb\nc\n"), splitLines("a\nc\n"))
	first := m.matchingBlocks()
	assert.NotEmpty(t, m.opcodes())
	// Later calls return the cached alignment.
	assert.Equal(t, first, m.matchingBlocks())
	assert.InDelta(t, 2.0*2.0/5.0, m.ratio(), 1e-9)
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"abc"}, splitLines("abc"))
	assert.Equal(t, []string{"a\n", "b\n"}, splitLines("a\nb\n"))
	assert.Equal(t, []string{"a\n", "b"}, splitLines("a\nb"))
	assert.Equal(t, []string{"\n", "\n"}, splitLines("\n\n"))
}
