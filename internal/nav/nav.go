package nav

import (
	"strings"

	"soilkey/internal/engine"
	"soilkey/internal/taxonomy"
)

// levelLabels is the fixed four-level taxonomy: code length n maps to
// levelLabels[n-1].
var levelLabels = [4]string{"Order", "Suborder", "Great Group", "Subgroup"}

// LevelLabel returns the taxonomic rank name for a code length.
func LevelLabel(depth int) string {
	if depth < 1 || depth > len(levelLabels) {
		return ""
	}
	return levelLabels[depth-1]
}

// PathEntry is one level of the current classification path.
type PathEntry struct {
	Code        string
	DisplayName string
	LevelLabel  string
	Satisfied   bool
}

// Navigator derives the current classification path and the visible
// option set from satisfaction state. It is pull-based: every call
// recomputes from the engine's current state.
type Navigator struct {
	eng *engine.Engine
	ds  *taxonomy.Dataset
}

// New creates a navigator over an engine and its source dataset.
func New(eng *engine.Engine, ds *taxonomy.Dataset) *Navigator {
	return &Navigator{eng: eng, ds: ds}
}

// DeepestSatisfiedCode returns the longest code whose group is
// currently satisfied. Equal-length candidates tie-break to the
// lexicographically smallest code; the scan iterates codes in sorted
// order, so the result is deterministic. Empty when nothing is
// satisfied.
func (n *Navigator) DeepestSatisfiedCode() string {
	deepest := ""
	for _, code := range n.eng.Index().Codes() {
		if len(code) <= len(deepest) {
			continue
		}
		if n.eng.IsGroupSatisfied(code) {
			deepest = code
		}
	}
	return deepest
}

// VisibleCodes returns the codes to show: with nothing satisfied, all
// top-level codes; otherwise the satisfied ancestor chain (every prefix
// of the deepest satisfied code) plus that code's direct child codes.
// Proven path plus the next decision, nothing else.
func (n *Navigator) VisibleCodes() []string {
	deepest := n.DeepestSatisfiedCode()
	if deepest == "" {
		return n.eng.Index().TopLevelCodes()
	}

	var out []string
	for i := 1; i <= len(deepest); i++ {
		out = append(out, deepest[:i])
	}
	out = append(out, n.eng.Index().ChildCodes(deepest)...)
	return out
}

// ClassificationPath reports one entry per satisfied level of the
// deepest satisfied code, capped at the four taxonomic ranks, plus a
// single unsatisfied placeholder for the next rank when one remains.
func (n *Navigator) ClassificationPath() []PathEntry {
	deepest := n.DeepestSatisfiedCode()

	var path []PathEntry
	levels := len(deepest)
	if levels > len(levelLabels) {
		levels = len(levelLabels)
	}
	for i := 1; i <= levels; i++ {
		code := deepest[:i]
		path = append(path, PathEntry{
			Code:        code,
			DisplayName: n.ds.DisplayName(code),
			LevelLabel:  LevelLabel(i),
			Satisfied:   true,
		})
	}
	if levels < len(levelLabels) {
		path = append(path, PathEntry{
			LevelLabel: LevelLabel(levels + 1),
			Satisfied:  false,
		})
	}
	return path
}

// CurrentClassificationName returns the display name of the deepest
// satisfied code, or empty when nothing is satisfied.
func (n *Navigator) CurrentClassificationName() string {
	deepest := n.DeepestSatisfiedCode()
	if deepest == "" {
		return ""
	}
	return n.ds.DisplayName(deepest)
}

// Breadcrumb renders the satisfied path as a single line.
func (n *Navigator) Breadcrumb() string {
	var names []string
	for _, entry := range n.ClassificationPath() {
		if !entry.Satisfied {
			continue
		}
		names = append(names, entry.DisplayName)
	}
	return strings.Join(names, " > ")
}
