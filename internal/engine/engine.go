package engine

import (
	"sort"

	"soilkey/internal/index"
	"soilkey/internal/taxonomy"
)

// Listener is notified after every selection mutation. The engine has
// no payload to offer: listeners re-pull whatever they render.
type Listener func()

type registration struct {
	id int
	fn Listener
}

// Engine evaluates criterion satisfaction against the user's current
// selections. The index is shared and read-only; the selection set and
// the memo tables are owned exclusively by the engine.
//
// Not safe for concurrent use. The engine is driven by a single
// interaction loop and performs no I/O.
type Engine struct {
	idx *index.Index

	selection  map[taxonomy.CriterionID]bool
	satCache   map[taxonomy.CriterionID]bool
	groupCache map[string]bool
	leafCache  map[taxonomy.CriterionID]bool

	listeners  []registration
	nextListen int
}

// New creates an engine over a built index with an empty selection.
func New(idx *index.Index) *Engine {
	return &Engine{
		idx:        idx,
		selection:  make(map[taxonomy.CriterionID]bool),
		satCache:   make(map[taxonomy.CriterionID]bool),
		groupCache: make(map[string]bool),
		leafCache:  make(map[taxonomy.CriterionID]bool),
	}
}

// Index exposes the underlying read-only index.
func (e *Engine) Index() *index.Index {
	return e.idx
}

// IsLeaf reports whether a criterion has no children in the adjacency.
// Leaf status depends only on structure, so its memo table survives
// selection mutations.
func (e *Engine) IsLeaf(id taxonomy.CriterionID) bool {
	if leaf, ok := e.leafCache[id]; ok {
		return leaf
	}
	_, exists := e.idx.Lookup(id)
	leaf := exists && len(e.idx.Children(id)) == 0
	e.leafCache[id] = leaf
	return leaf
}

// IsSatisfied reports whether a criterion is currently satisfied. A
// leaf is satisfied iff it is checked; an internal node is satisfied
// according to its children's combinators and its own (see
// combineSiblings). Unknown identities are never satisfied.
func (e *Engine) IsSatisfied(id taxonomy.CriterionID) bool {
	if sat, ok := e.satCache[id]; ok {
		return sat
	}

	c, exists := e.idx.Lookup(id)
	if !exists {
		return false
	}

	var sat bool
	if children := e.idx.Children(id); len(children) == 0 {
		sat = e.selection[id]
	} else {
		sat = e.combineSiblings(children, c.Logic)
	}
	e.satCache[id] = sat
	return sat
}

// IsGroupSatisfied reports whether the root of a code's group is
// satisfied. Unknown codes are never satisfied.
func (e *Engine) IsGroupSatisfied(code string) bool {
	if sat, ok := e.groupCache[code]; ok {
		return sat
	}
	root, ok := e.idx.GroupRoot(code)
	if !ok {
		return false
	}
	sat := e.IsSatisfied(root.ID())
	e.groupCache[code] = sat
	return sat
}

// combineSiblings evaluates an ordered sibling list. When every sibling
// carries the identical logic tag the rule is flat: AND requires all,
// anything else requires at least one. Mixed siblings are partitioned
// into maximal runs of consecutive equal tags; each run is evaluated by
// its own tag and the per-run results combine under the parent's logic.
// This lets a parent express "all of these, plus one of those" with
// nothing but per-child tags and position.
func (e *Engine) combineSiblings(siblings []taxonomy.Criterion, parent taxonomy.Logic) bool {
	if len(siblings) == 0 {
		return false
	}

	var runResults []bool
	start := 0
	for i := 1; i <= len(siblings); i++ {
		if i < len(siblings) && siblings[i].Logic == siblings[start].Logic {
			continue
		}
		runResults = append(runResults, e.evaluateRun(siblings[start:i], siblings[start].Logic))
		start = i
	}

	if len(runResults) == 1 {
		return runResults[0]
	}
	if parent.Conjunctive() {
		for _, r := range runResults {
			if !r {
				return false
			}
		}
		return true
	}
	for _, r := range runResults {
		if r {
			return true
		}
	}
	return false
}

func (e *Engine) evaluateRun(run []taxonomy.Criterion, logic taxonomy.Logic) bool {
	if logic.Conjunctive() {
		for _, c := range run {
			if !e.IsSatisfied(c.ID()) {
				return false
			}
		}
		return true
	}
	for _, c := range run {
		if e.IsSatisfied(c.ID()) {
			return true
		}
	}
	return false
}

// Checked reports whether an identity is currently checked.
func (e *Engine) Checked(id taxonomy.CriterionID) bool {
	return e.selection[id]
}

// CheckedIDs returns the checked identities in deterministic order.
func (e *Engine) CheckedIDs() []taxonomy.CriterionID {
	out := make([]taxonomy.CriterionID, 0, len(e.selection))
	for id := range e.selection {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Clause < out[j].Clause
	})
	return out
}

// MarkChecked adds an identity to the selection. Unknown identities are
// accepted: they never match a leaf lookup and have no satisfaction
// effect.
func (e *Engine) MarkChecked(id taxonomy.CriterionID) {
	e.selection[id] = true
	e.mutated()
}

// MarkUnchecked removes an identity from the selection.
func (e *Engine) MarkUnchecked(id taxonomy.CriterionID) {
	delete(e.selection, id)
	e.mutated()
}

// Toggle flips an identity's checked state.
func (e *Engine) Toggle(id taxonomy.CriterionID) {
	if e.selection[id] {
		delete(e.selection, id)
	} else {
		e.selection[id] = true
	}
	e.mutated()
}

// ResetAll clears the selection entirely.
func (e *Engine) ResetAll() {
	e.selection = make(map[taxonomy.CriterionID]bool)
	e.mutated()
}

// mutated invalidates the satisfaction memo tables in bulk and notifies
// listeners in registration order. The leaf table is structural and
// survives. Full invalidation is deliberate: the hierarchy is small and
// mutations arrive at user pace, so recomputing beats dependency
// tracking.
func (e *Engine) mutated() {
	e.satCache = make(map[taxonomy.CriterionID]bool)
	e.groupCache = make(map[string]bool)
	for _, reg := range e.listeners {
		reg.fn()
	}
}

// Subscribe registers a change listener and returns its unsubscribe
// function. Listeners run synchronously after every mutation and
// observe the fully updated selection.
func (e *Engine) Subscribe(fn Listener) func() {
	id := e.nextListen
	e.nextListen++
	e.listeners = append(e.listeners, registration{id: id, fn: fn})
	return func() {
		for i, reg := range e.listeners {
			if reg.id == id {
				e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}
