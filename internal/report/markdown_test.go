package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soilkey/internal/engine"
	"soilkey/internal/index"
	"soilkey/internal/nav"
	"soilkey/internal/taxonomy"
)

func reportFixture() (*taxonomy.Dataset, *engine.Engine, *nav.Navigator) {
	leaf := func(code, content string) taxonomy.Criterion {
		return taxonomy.Criterion{
			ClauseID: code,
			Code:     code,
			Clause:   1,
			Content:  content,
			Logic:    taxonomy.LogicOr,
		}
	}
	ds := &taxonomy.Dataset{
		Source: "USDA Keys to Soil Taxonomy (2022)",
		Navigation: taxonomy.Navigation{
			Criteria: []taxonomy.Criterion{
				leaf("A", "Soils that have permafrost.\nSecond line."),
				leaf("AA", "Gelisols with organic materials."),
			},
		},
		Outcomes: map[string]taxonomy.Criterion{
			"AA": {ClauseID: "AA", Code: "AA", Clause: 2, Content: "Histels, the Gelisols of organic materials.", Depth: -1},
		},
		CodeNames: map[string]string{"A": "Gelisols", "AA": "Histels"},
	}
	eng := engine.New(index.Build(ds))
	return ds, eng, nav.New(eng, ds)
}

func TestMarkdownGenerator_Render(t *testing.T) {
	t.Run("empty session", func(t *testing.T) {
		ds, eng, n := reportFixture()
		out := NewMarkdownGenerator(eng, n, ds).Render()

		assert.Contains(t, out, "# Soil Classification Report")
		assert.Contains(t, out, "USDA Keys to Soil Taxonomy (2022)")
		assert.Contains(t, out, "**Classification: none**")
		assert.Contains(t, out, "| Order | — | — | no |")
		assert.NotContains(t, out, "## Checked criteria")
		assert.NotContains(t, out, "## Outcome")
	})

	t.Run("classified session", func(t *testing.T) {
		ds, eng, n := reportFixture()
		eng.MarkChecked(taxonomy.CriterionID{Code: "A", Clause: 1})
		eng.MarkChecked(taxonomy.CriterionID{Code: "AA", Clause: 1})

		out := NewMarkdownGenerator(eng, n, ds).Render()

		assert.Contains(t, out, "**Classification: Gelisols > Histels**")
		assert.Contains(t, out, "| Order | A | Gelisols | yes |")
		assert.Contains(t, out, "| Suborder | AA | Histels | yes |")
		assert.Contains(t, out, "| Great Group | — | — | no |")

		assert.Contains(t, out, "## Outcome")
		assert.Contains(t, out, "Histels, the Gelisols of organic materials.")

		assert.Contains(t, out, "## Checked criteria")
		assert.Contains(t, out, "- **A** (clause 1): Soils that have permafrost.")
		assert.NotContains(t, out, "Second line.", "checked criteria list only the first content line")
	})
}

func TestMarkdownGenerator_Write(t *testing.T) {
	ds, eng, n := reportFixture()
	path := filepath.Join(t.TempDir(), "report.md")

	require.NoError(t, NewMarkdownGenerator(eng, n, ds).Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Soil Classification Report")
}
