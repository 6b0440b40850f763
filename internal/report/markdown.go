// Package report renders the current classification state as Markdown
// for sharing or archiving a session's result.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"soilkey/internal/engine"
	"soilkey/internal/nav"
	"soilkey/internal/taxonomy"
)

// MarkdownGenerator produces classification reports in Markdown format.
type MarkdownGenerator struct {
	eng *engine.Engine
	nav *nav.Navigator
	ds  *taxonomy.Dataset
}

func NewMarkdownGenerator(eng *engine.Engine, n *nav.Navigator, ds *taxonomy.Dataset) *MarkdownGenerator {
	return &MarkdownGenerator{eng: eng, nav: n, ds: ds}
}

// Render builds the report: the classification path, the outcome
// description when one exists at the deepest satisfied code, and the
// checked criteria that prove the path.
func (g *MarkdownGenerator) Render() string {
	var sb strings.Builder

	sb.WriteString("# Soil Classification Report\n\n")
	fmt.Fprintf(&sb, "Generated: %s  \n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&sb, "Source: %s\n\n", g.ds.Source)

	if name := g.nav.CurrentClassificationName(); name != "" {
		fmt.Fprintf(&sb, "**Classification: %s**\n\n", g.nav.Breadcrumb())
	} else {
		sb.WriteString("**Classification: none** — no key criteria are satisfied yet.\n\n")
	}

	sb.WriteString("## Path\n\n")
	sb.WriteString("| Level | Code | Taxon | Satisfied |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, entry := range g.nav.ClassificationPath() {
		mark := "yes"
		if !entry.Satisfied {
			mark = "no"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
			entry.LevelLabel, orDash(entry.Code), orDash(entry.DisplayName), mark)
	}
	sb.WriteString("\n")

	deepest := g.nav.DeepestSatisfiedCode()
	if outcome, ok := g.ds.Outcomes[deepest]; ok {
		sb.WriteString("## Outcome\n\n")
		fmt.Fprintf(&sb, "%s\n\n", strings.TrimSpace(outcome.Content))
	}

	checked := g.eng.CheckedIDs()
	if len(checked) > 0 {
		sb.WriteString("## Checked criteria\n\n")
		for _, id := range checked {
			c, ok := g.eng.Index().Lookup(id)
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "- **%s** (clause %d): %s\n", c.Code, c.Clause, firstLine(c.Content))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// Write renders the report to a file.
func (g *MarkdownGenerator) Write(path string) error {
	if err := os.WriteFile(path, []byte(g.Render()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
