package glossary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soilkey/internal/taxonomy"
)

func testTerms() map[string]taxonomy.GlossaryTerm {
	return map[string]taxonomy.GlossaryTerm{
		"densic_contact": {
			ID:         "densic_contact",
			Term:       "densic contact",
			Definition: "Contact with densic materials.",
		},
		"lithic_contact": {
			ID:         "lithic_contact",
			Term:       "lithic contact",
			Definition: "Contact with coherent bedrock.",
		},
		"paralithic_contact": {
			ID:         "paralithic_contact",
			Term:       "paralithic contact",
			Definition: "Contact with paralithic materials.",
		},
		"permafrost": {
			ID:         "permafrost",
			Term:       "permafrost",
			Definition: "A layer at or below 0 C for two or more years.",
		},
		"andic_soil_properties": {
			ID:         "andic_soil_properties",
			Term:       "andic soil properties",
			Definition: "Properties from weathering of volcanic ejecta.",
		},
	}
}

func TestLinkify_PlainTerms(t *testing.T) {
	l := New(testTerms())

	t.Run("single term wraps in a span", func(t *testing.T) {
		out := l.Linkify("Soils that have permafrost within 100 cm.", nil)
		assert.Equal(t,
			`Soils that have <span class="glossary-term" data-id="permafrost">permafrost</span> within 100 cm.`,
			out)
	})

	t.Run("matching is case-insensitive and keeps source casing", func(t *testing.T) {
		out := l.Linkify("Permafrost within 100 cm.", nil)
		assert.Contains(t, out, `data-id="permafrost">Permafrost</span>`)
	})

	t.Run("longer terms win over their substrings", func(t *testing.T) {
		out := l.Linkify("Soils with andic soil properties throughout.", nil)
		assert.Contains(t, out, `data-id="andic_soil_properties">andic soil properties</span>`)
		assert.Equal(t, 1, strings.Count(out, "<span"), "no nested spans")
	})

	t.Run("unmatched text is untouched", func(t *testing.T) {
		in := "Soils with an umbric epipedon."
		assert.Equal(t, in, l.Linkify(in, nil))
	})
}

func TestLinkify_SharedSuffixLists(t *testing.T) {
	l := New(testTerms())

	t.Run("comma list with one trailing suffix", func(t *testing.T) {
		var stats Stats
		out := l.Linkify("a densic, lithic, or paralithic contact; or", &stats)

		assert.Contains(t, out, `data-id="densic_contact">densic</span>`)
		assert.Contains(t, out, `data-id="lithic_contact">lithic</span>`)
		assert.Contains(t, out, `data-id="paralithic_contact">paralithic contact</span>`)
		assert.Equal(t, 1, stats.Lists)
		assert.Equal(t, 3, stats.PrefixLinks)
	})

	t.Run("pair without commas falls back to the term pass", func(t *testing.T) {
		var stats Stats
		out := l.Linkify("a densic or lithic contact", &stats)
		assert.Equal(t, 0, stats.Lists)
		assert.Contains(t, out, `data-id="lithic_contact">lithic contact</span>`)
		assert.NotContains(t, out, `>densic</span>`)
	})

	t.Run("list with fewer than two known prefixes stays literal", func(t *testing.T) {
		var stats Stats
		out := l.Linkify("a densic, sandy, or rocky texture", &stats)
		assert.Equal(t, 0, stats.Lists)
		assert.NotContains(t, out, "glossary-term")
	})
}

func TestLinkifyDataset(t *testing.T) {
	ds := &taxonomy.Dataset{
		Glossary: testTerms(),
		Navigation: taxonomy.Navigation{
			Criteria: []taxonomy.Criterion{
				{Code: "A", Clause: 1, Content: "Soils that have permafrost."},
				{Code: "A", Clause: 2, Content: ""},
				{Code: "A", Clause: 3, Content: "No linked words here."},
			},
		},
	}
	stats := LinkifyDataset(ds)

	assert.Equal(t, 2, stats.Criteria, "empty content is skipped")
	require.Contains(t, ds.Navigation.Criteria[0].ContentHTML, "glossary-term")
	assert.Empty(t, ds.Navigation.Criteria[1].ContentHTML)
	assert.Equal(t, "No linked words here.", ds.Navigation.Criteria[2].ContentHTML)
}
