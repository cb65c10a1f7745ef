package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/promptdiff/promptdiff/core"
	"github.com/promptdiff/promptdiff/diff"
	"github.com/promptdiff/promptdiff/registry"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	deleteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	insertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// renderDiff prints a colorized line diff followed by similarity and change
// counts.
func renderDiff(w io.Writer, name string, result *diff.DiffResult) {
	fmt.Fprintf(w, "\n%s\n\n", titleStyle.Render(fmt.Sprintf("Diff: %s v%d -> v%d", name, result.OldVersion, result.NewVersion)))

	for _, line := range result.Lines {
		switch line.Tag {
		case diff.TagEqual:
			fmt.Fprintf(w, "  %s\n", strings.TrimRight(line.OldLine, "\n"))
		case diff.TagDelete:
			fmt.Fprintln(w, deleteStyle.Render("- "+strings.TrimRight(line.OldLine, "\n")))
		case diff.TagInsert:
			fmt.Fprintln(w, insertStyle.Render("+ "+strings.TrimRight(line.NewLine, "\n")))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s  %.1f%%\n", titleStyle.Render("Text similarity:"), result.SimilarityRatio*100)
	if result.SemanticSimilarity != nil {
		fmt.Fprintf(w, "%s %.1f%%\n", titleStyle.Render("Semantic similarity:"), *result.SemanticSimilarity*100)
	}
	fmt.Fprintf(w, "%s %s %s\n",
		titleStyle.Render("Changes:"),
		insertStyle.Render(fmt.Sprintf("+%d", result.Stats.Additions)),
		deleteStyle.Render(fmt.Sprintf("-%d", result.Stats.Deletions)),
	)
}

// renderLog prints the version history table, newest first.
func renderLog(w io.Writer, name string, versions []*core.PromptVersion) {
	var rows [][]string
	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		date := ""
		if len(v.Timestamp) >= 10 {
			date = v.Timestamp[:10]
		}
		msg := v.Message
		if msg == "" {
			msg = "-"
		}
		rows = append(rows, []string{fmt.Sprintf("v%d", v.Version), v.ContentHash, date, msg})
	}

	fmt.Fprintln(w, titleStyle.Render("Prompt: "+name))
	fmt.Fprintln(w, newTable().Headers("Version", "Hash", "Date", "Message").Rows(rows...))
}

// renderList prints the tracked-prompt summary table.
func renderList(w io.Writer, summaries []registry.Summary) {
	var rows [][]string
	for _, s := range summaries {
		rows = append(rows, []string{s.Name, strconv.Itoa(s.TotalVersions), fmt.Sprintf("v%d", s.LatestVersion)})
	}

	fmt.Fprintln(w, titleStyle.Render("Tracked Prompts"))
	fmt.Fprintln(w, newTable().Headers("Name", "Versions", "Latest").Rows(rows...))
}

func newTable() *table.Table {
	return table.New().
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
