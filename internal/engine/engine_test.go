package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soilkey/internal/index"
	"soilkey/internal/taxonomy"
)

// testDataset builds code groups exercising the combination rule:
//
//	A — root A:1 (OR) over a mixed child list [AND, AND, OR, OR]
//	B — root B:1 (AND) over a mixed child list [AND, OR]
//	C — root C:1 (AND) over a uniform all-AND child list
//	D — root D:1 (AND) over a mixed child list [AND, AND, OR, OR]
//	R — root R:1 (FIRST) over an AND-tagged branch and an OR-tagged
//	    branch, two leaves each
func testDataset() *taxonomy.Dataset {
	crit := func(code string, clause int, parent int, logic taxonomy.Logic) taxonomy.Criterion {
		return taxonomy.Criterion{
			ClauseID:     code,
			Code:         code,
			Clause:       clause,
			ParentClause: taxonomy.ClauseRef(parent),
			Content:      "clause",
			Logic:        logic,
		}
	}
	return &taxonomy.Dataset{
		Version: "3.1.0",
		Navigation: taxonomy.Navigation{
			Criteria: []taxonomy.Criterion{
				crit("A", 1, 0, taxonomy.LogicOr),
				crit("A", 2, 1, taxonomy.LogicAnd),
				crit("A", 3, 1, taxonomy.LogicAnd),
				crit("A", 4, 1, taxonomy.LogicOr),
				crit("A", 5, 1, taxonomy.LogicOr),
				crit("B", 1, 0, taxonomy.LogicAnd),
				crit("B", 2, 1, taxonomy.LogicAnd),
				crit("B", 3, 1, taxonomy.LogicOr),
				crit("C", 1, 0, taxonomy.LogicAnd),
				crit("C", 2, 1, taxonomy.LogicAnd),
				crit("C", 3, 1, taxonomy.LogicAnd),
				crit("D", 1, 0, taxonomy.LogicAnd),
				crit("D", 2, 1, taxonomy.LogicAnd),
				crit("D", 3, 1, taxonomy.LogicAnd),
				crit("D", 4, 1, taxonomy.LogicOr),
				crit("D", 5, 1, taxonomy.LogicOr),
				crit("R", 1, 0, taxonomy.LogicFirst),
				crit("R", 2, 1, taxonomy.LogicAnd),
				crit("R", 3, 1, taxonomy.LogicOr),
				crit("R", 4, 2, taxonomy.LogicAnd),
				crit("R", 5, 2, taxonomy.LogicAnd),
				crit("R", 6, 3, taxonomy.LogicOr),
				crit("R", 7, 3, taxonomy.LogicOr),
			},
		},
		Outcomes: map[string]taxonomy.Criterion{},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(index.Build(testDataset()))
}

func id(code string, clause int) taxonomy.CriterionID {
	return taxonomy.CriterionID{Code: code, Clause: clause}
}

func TestEngine_LeafSatisfaction(t *testing.T) {
	eng := newTestEngine(t)

	t.Run("unchecked leaf is unsatisfied", func(t *testing.T) {
		assert.False(t, eng.IsSatisfied(id("A", 2)))
	})

	t.Run("checked leaf is satisfied", func(t *testing.T) {
		eng.MarkChecked(id("A", 2))
		assert.True(t, eng.IsSatisfied(id("A", 2)))
		eng.MarkUnchecked(id("A", 2))
		assert.False(t, eng.IsSatisfied(id("A", 2)))
	})

	t.Run("unknown identity is never satisfied", func(t *testing.T) {
		assert.False(t, eng.IsSatisfied(id("ZZ", 99)))
		eng.MarkChecked(id("ZZ", 99))
		assert.False(t, eng.IsSatisfied(id("ZZ", 99)))
	})
}

func TestEngine_IsLeaf(t *testing.T) {
	eng := newTestEngine(t)

	assert.True(t, eng.IsLeaf(id("A", 2)))
	assert.False(t, eng.IsLeaf(id("A", 1)), "a node with children is not a leaf")
	assert.False(t, eng.IsLeaf(id("ZZ", 99)), "unknown identities are not leaves")

	// Leaf status is structural and survives selection mutations.
	eng.MarkChecked(id("A", 2))
	assert.True(t, eng.IsLeaf(id("A", 2)))
}

func TestEngine_UniformSiblings(t *testing.T) {
	eng := newTestEngine(t)

	// All-AND children: every one must be checked.
	eng.MarkChecked(id("C", 2))
	assert.False(t, eng.IsSatisfied(id("C", 1)))
	eng.MarkChecked(id("C", 3))
	assert.True(t, eng.IsSatisfied(id("C", 1)))
	assert.True(t, eng.IsGroupSatisfied("C"))
}

func TestEngine_MixedRuns(t *testing.T) {
	// A:1 has children [AND, AND, OR, OR]: two runs. The parent is OR,
	// so either "both of 2,3" or "one of 4,5" satisfies it.
	t.Run("conjunctive run alone", func(t *testing.T) {
		eng := newTestEngine(t)
		eng.MarkChecked(id("A", 2))
		assert.False(t, eng.IsSatisfied(id("A", 1)), "half a conjunctive run is not enough")
		eng.MarkChecked(id("A", 3))
		assert.True(t, eng.IsSatisfied(id("A", 1)))
	})

	t.Run("disjunctive run alone", func(t *testing.T) {
		eng := newTestEngine(t)
		eng.MarkChecked(id("A", 5))
		assert.True(t, eng.IsSatisfied(id("A", 1)))
	})

	t.Run("conjunctive parent requires every run", func(t *testing.T) {
		// B:1 is AND over runs [B:2] and [B:3].
		eng := newTestEngine(t)
		eng.MarkChecked(id("B", 2))
		assert.False(t, eng.IsSatisfied(id("B", 1)))
		eng.MarkChecked(id("B", 3))
		assert.True(t, eng.IsSatisfied(id("B", 1)))
	})

	t.Run("conjunctive parent over AND AND OR OR", func(t *testing.T) {
		eng := newTestEngine(t)
		eng.MarkChecked(id("D", 2))
		eng.MarkChecked(id("D", 3))
		assert.False(t, eng.IsSatisfied(id("D", 1)), "the AND pair alone leaves the OR run empty")

		eng.MarkChecked(id("D", 4))
		assert.True(t, eng.IsSatisfied(id("D", 1)), "AND pair plus one OR child")

		eng.ResetAll()
		eng.MarkChecked(id("D", 4))
		eng.MarkChecked(id("D", 5))
		assert.False(t, eng.IsSatisfied(id("D", 1)), "the OR pair alone leaves the AND run unmet")
	})
}

func TestEngine_BranchScenario(t *testing.T) {
	// R:1 combines an AND-tagged branch R:2 (two leaves, both required)
	// with an OR-tagged branch R:3 (two leaves, either suffices) under a
	// disjunctive legacy-alias root.
	eng := newTestEngine(t)

	eng.MarkChecked(id("R", 4))
	assert.False(t, eng.IsSatisfied(id("R", 2)), "half the conjunctive branch")
	assert.False(t, eng.IsSatisfied(id("R", 1)))

	eng.MarkChecked(id("R", 5))
	assert.True(t, eng.IsSatisfied(id("R", 2)))
	assert.True(t, eng.IsSatisfied(id("R", 1)))
	assert.True(t, eng.IsGroupSatisfied("R"))

	eng.ResetAll()
	eng.MarkChecked(id("R", 7))
	assert.True(t, eng.IsSatisfied(id("R", 3)), "one leaf satisfies the disjunctive branch")
	assert.False(t, eng.IsSatisfied(id("R", 2)))
	assert.True(t, eng.IsSatisfied(id("R", 1)))
}

func TestEngine_GroupSatisfaction(t *testing.T) {
	eng := newTestEngine(t)

	assert.False(t, eng.IsGroupSatisfied("A"))
	assert.False(t, eng.IsGroupSatisfied("NOPE"), "unknown codes are never satisfied")

	eng.MarkChecked(id("A", 4))
	assert.True(t, eng.IsGroupSatisfied("A"))
}

func TestEngine_ToggleAndReset(t *testing.T) {
	eng := newTestEngine(t)

	t.Run("repeated marks are idempotent", func(t *testing.T) {
		eng.MarkChecked(id("A", 2))
		eng.MarkChecked(id("A", 2))
		assert.Equal(t, []taxonomy.CriterionID{id("A", 2)}, eng.CheckedIDs())
		eng.MarkUnchecked(id("A", 2))
	})

	t.Run("toggle twice restores the original state", func(t *testing.T) {
		eng.Toggle(id("A", 2))
		assert.True(t, eng.Checked(id("A", 2)))
		eng.Toggle(id("A", 2))
		assert.False(t, eng.Checked(id("A", 2)))
		assert.Empty(t, eng.CheckedIDs())
	})

	t.Run("reset is indistinguishable from a fresh engine", func(t *testing.T) {
		eng.MarkChecked(id("A", 4))
		eng.MarkChecked(id("C", 2))
		require.True(t, eng.IsGroupSatisfied("A"))

		eng.ResetAll()
		fresh := newTestEngine(t)
		assert.Equal(t, fresh.CheckedIDs(), eng.CheckedIDs())
		assert.Equal(t, fresh.IsGroupSatisfied("A"), eng.IsGroupSatisfied("A"))
		assert.Equal(t, fresh.IsSatisfied(id("C", 1)), eng.IsSatisfied(id("C", 1)))
	})
}

func TestEngine_CheckedIDsOrder(t *testing.T) {
	eng := newTestEngine(t)
	eng.MarkChecked(id("C", 3))
	eng.MarkChecked(id("A", 5))
	eng.MarkChecked(id("A", 2))
	eng.MarkChecked(id("B", 3))

	assert.Equal(t, []taxonomy.CriterionID{
		id("A", 2), id("A", 5), id("B", 3), id("C", 3),
	}, eng.CheckedIDs())
}

func TestEngine_CacheInvalidation(t *testing.T) {
	eng := newTestEngine(t)

	// Prime the memo tables, then mutate: results must track the new
	// selection, not the cached one.
	require.False(t, eng.IsSatisfied(id("A", 1)))
	require.False(t, eng.IsGroupSatisfied("A"))

	eng.MarkChecked(id("A", 4))
	assert.True(t, eng.IsSatisfied(id("A", 1)))
	assert.True(t, eng.IsGroupSatisfied("A"))

	eng.MarkUnchecked(id("A", 4))
	assert.False(t, eng.IsSatisfied(id("A", 1)))
	assert.False(t, eng.IsGroupSatisfied("A"))
}

func TestEngine_Subscribe(t *testing.T) {
	eng := newTestEngine(t)

	var order []string
	unsubA := eng.Subscribe(func() { order = append(order, "a") })
	unsubB := eng.Subscribe(func() { order = append(order, "b") })

	eng.MarkChecked(id("A", 2))
	assert.Equal(t, []string{"a", "b"}, order, "listeners run in registration order")

	t.Run("listener observes the updated selection", func(t *testing.T) {
		var sawChecked bool
		unsub := eng.Subscribe(func() { sawChecked = eng.Checked(id("B", 2)) })
		defer unsub()
		eng.MarkChecked(id("B", 2))
		assert.True(t, sawChecked)
	})

	t.Run("unsubscribed listeners stop firing", func(t *testing.T) {
		order = nil
		unsubA()
		eng.Toggle(id("A", 2))
		assert.Equal(t, []string{"b"}, order)

		unsubB()
		unsubB() // second call is a no-op
		order = nil
		eng.ResetAll()
		assert.Empty(t, order)
	})
}
