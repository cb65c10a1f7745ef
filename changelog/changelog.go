// Package changelog generates markdown changelogs from prompt version history.
package changelog

import (
	"context"
	"fmt"
	"strings"

	"github.com/promptdiff/promptdiff/diff"
	"github.com/promptdiff/promptdiff/store"
)

// Generator builds markdown changelogs from a store's version history.
type Generator struct {
	store  store.Store
	differ *diff.Engine
}

// NewGenerator creates a changelog generator over the given store.
func NewGenerator(s store.Store) *Generator {
	return &Generator{store: s, differ: diff.NewEngine()}
}

// Generate builds a markdown changelog for one prompt, newest version first.
// With lastN > 0 only the newest lastN versions are covered. Each entry after
// the oldest carries similarity and change counts against its predecessor;
// the oldest covered entry is marked as the initial version.
func (g *Generator) Generate(ctx context.Context, name string, lastN int) (string, error) {
	versions, err := g.store.ListVersions(ctx, name)
	if err != nil {
		return "", fmt.Errorf("changelog for %q: %w", name, err)
	}
	if lastN > 0 && lastN < len(versions) {
		versions = versions[len(versions)-lastN:]
	}

	lines := []string{fmt.Sprintf("# Changelog: %s", name), ""}

	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		ts := "unknown"
		if len(v.Timestamp) >= 10 {
			ts = v.Timestamp[:10]
		}
		msg := v.Message
		if msg == "" {
			msg = "No description"
		}
		lines = append(lines,
			fmt.Sprintf("## v%d (%s)", v.Version, ts),
			"",
			fmt.Sprintf("**%s**", msg),
			"",
		)

		if i > 0 {
			prev := versions[i-1]
			d := g.differ.FullDiff(prev.Content, v.Content, prev.Version, v.Version)
			lines = append(lines, fmt.Sprintf("- Text similarity: %.1f%%", d.SimilarityRatio*100))
			if d.SemanticSimilarity != nil {
				lines = append(lines, fmt.Sprintf("- Semantic similarity: %.1f%%", *d.SemanticSimilarity*100))
			}
			lines = append(lines, fmt.Sprintf("- Changes: +%d -%d", d.Stats.Additions, d.Stats.Deletions))
		} else {
			lines = append(lines, "- Initial version")
		}

		lines = append(lines, "")
	}

	return strings.Join(lines, "\n"), nil
}

// GenerateAll builds one combined changelog covering every tracked prompt, in
// listing order, sections separated by horizontal rules.
func (g *Generator) GenerateAll(ctx context.Context) (string, error) {
	prompts, err := g.store.ListPrompts(ctx)
	if err != nil {
		return "", err
	}
	if len(prompts) == 0 {
		return "# Changelog\n\nNo prompts tracked yet.\n", nil
	}

	sections := []string{"# Prompt Changelog", ""}
	for _, name := range prompts {
		section, err := g.Generate(ctx, name, 0)
		if err != nil {
			return "", err
		}
		sections = append(sections, section, "---", "")
	}
	return strings.Join(sections, "\n"), nil
}
