package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"soilkey/internal/taxonomy"
)

func TestGlossaryID(t *testing.T) {
	assert.Equal(t, "permafrost", glossaryID("permafrost"))
	assert.Equal(t, "andic_soil_properties", glossaryID("Andic Soil Properties"))
	assert.Equal(t, "n_value", glossaryID("n-value"))
	assert.Equal(t, "horizons_layers", glossaryID("Horizons, Layers"))

	long := glossaryID("a glossary term whose name runs well past the fifty character identifier budget")
	assert.Len(t, long, 50)
}

func TestExtractParentName(t *testing.T) {
	cases := []struct {
		content string
		want    string
	}{
		{"AAA. Histels that have a folistic epipedon.", "Histels"},
		{"AB. Other Gelisols that have organic materials.", "Gelisols"},
		{"IFFZ. Endoaqualfs that have a glossic horizon.", "Endoaqualfs"},
		{"1. A cryic temperature regime", ""},
		{"AB. wet soils", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, extractParentName(tc.content), "content %q", tc.content)
	}
}

func TestPopulateCodeNames(t *testing.T) {
	ds := &taxonomy.Dataset{
		Navigation: taxonomy.Navigation{
			Criteria: []taxonomy.Criterion{
				{Code: "AA", Clause: 1, Content: "AA. Gelisols that have organic materials."},
				{Code: "AAA", Clause: 1, Content: "AAA. Histels that have a folistic epipedon."},
			},
		},
		Outcomes: map[string]taxonomy.Criterion{
			"AAAB": {Content: "AAAB. Folistels that are never saturated."},
		},
		OrderNames: map[string]string{"A": "Gelisols"},
		CodeNames:  map[string]string{},
	}
	added := PopulateCodeNames(ds)

	assert.Equal(t, 2, added)
	assert.Equal(t, "Gelisols", ds.CodeNames["A"], "order names merge in")
	assert.Equal(t, "Histels", ds.CodeNames["AA"], "named from AAA's leading clause")
	assert.Equal(t, "Folistels", ds.CodeNames["AAA"], "named from the subgroup outcome")

	t.Run("existing names are never overwritten", func(t *testing.T) {
		ds.CodeNames["AA"] = "Custom"
		PopulateCodeNames(ds)
		assert.Equal(t, "Custom", ds.CodeNames["AA"])
	})
}
