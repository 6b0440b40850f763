package index

import (
	"sort"
	"strings"

	"soilkey/internal/taxonomy"
)

const displayLabelMax = 70

// Group is all criteria sharing one taxonomic code, rooted at exactly
// one criterion. The root is synthetic when no member carries an empty
// parent clause.
type Group struct {
	Code          string
	Members       []taxonomy.Criterion
	Root          taxonomy.Criterion
	SyntheticRoot bool
	// Injected marks a one-member group synthesized from an outcome
	// whose code had no criteria of its own.
	Injected bool
}

// DisplayGroup is the presentation-facing view of a group: a label plus
// the member identities, used by collaborators that render option lists.
type DisplayGroup struct {
	Code    string
	Label   string
	Members []taxonomy.CriterionID
}

// Index is the navigable view of a flat dataset. It is built once at
// construction and read-only afterwards.
type Index struct {
	groups       map[string]*Group
	byID         map[taxonomy.CriterionID]taxonomy.Criterion
	children     map[taxonomy.CriterionID][]taxonomy.CriterionID
	parent       map[taxonomy.CriterionID]taxonomy.CriterionID
	codeChildren map[string][]string
	codes        []string
	display      []DisplayGroup
}

// Build indexes a dataset: groups criteria by code, links in-group
// parent/child clauses, injects one-member groups for outcome codes
// with no criteria, determines each group's root (synthesizing one when
// needed) and derives the cross-group nearest-ancestor map.
//
// A criterion whose parent clause does not resolve inside its own group
// is treated as a root-level member. The input is never repaired.
func Build(ds *taxonomy.Dataset) *Index {
	idx := &Index{
		groups:       make(map[string]*Group),
		byID:         make(map[taxonomy.CriterionID]taxonomy.Criterion),
		children:     make(map[taxonomy.CriterionID][]taxonomy.CriterionID),
		parent:       make(map[taxonomy.CriterionID]taxonomy.CriterionID),
		codeChildren: make(map[string][]string),
	}

	// 1. Group criteria by code, preserving input order.
	for _, c := range ds.Navigation.Criteria {
		g, ok := idx.groups[c.Code]
		if !ok {
			g = &Group{Code: c.Code}
			idx.groups[c.Code] = g
		}
		g.Members = append(g.Members, c)
		idx.byID[c.ID()] = c
	}

	// 2. Inject outcome-only codes as one-member leaf groups.
	for code, outcome := range ds.Outcomes {
		if _, ok := idx.groups[code]; ok {
			continue
		}
		injected := outcome
		injected.Code = code
		if injected.Logic == "" {
			injected.Logic = taxonomy.LogicFirst
		}
		idx.groups[code] = &Group{
			Code:     code,
			Members:  []taxonomy.Criterion{injected},
			Injected: true,
		}
		idx.byID[injected.ID()] = injected
	}

	// 3. Per-group clause linking and root determination.
	for _, g := range idx.groups {
		idx.linkGroup(g)
	}

	// 4. Sorted code list and nearest-ancestor map.
	idx.codes = make([]string, 0, len(idx.groups))
	for code := range idx.groups {
		idx.codes = append(idx.codes, code)
	}
	sort.Strings(idx.codes)

	for _, code := range idx.codes {
		if len(code) <= 1 {
			continue
		}
		ancestor := code[:len(code)-1]
		for ancestor != "" {
			if _, ok := idx.groups[ancestor]; ok {
				break
			}
			ancestor = ancestor[:len(ancestor)-1]
		}
		if ancestor == "" {
			// No existing ancestor group: navigates as top-level.
			continue
		}
		idx.codeChildren[ancestor] = append(idx.codeChildren[ancestor], code)
	}

	idx.buildDisplayGroups(ds)
	return idx
}

// linkGroup resolves in-group parent references, picks or synthesizes
// the group root and fills the parent/children adjacency.
func (idx *Index) linkGroup(g *Group) {
	clauses := make(map[int]taxonomy.CriterionID, len(g.Members))
	for _, m := range g.Members {
		clauses[m.Clause] = m.ID()
	}

	var root *taxonomy.Criterion
	for i := range g.Members {
		if g.Members[i].Root() {
			root = &g.Members[i]
			break
		}
	}

	if root == nil {
		// Synthesize a root over the members whose parent clause does
		// not resolve in-group. Its logic mirrors the first such member
		// so the sibling combination rule stays faithful.
		rootLogic := taxonomy.LogicOr
		for _, m := range g.Members {
			if _, ok := clauses[int(m.ParentClause)]; !ok {
				rootLogic = m.Logic
				break
			}
		}
		g.Root = taxonomy.Criterion{
			ClauseID: g.Code,
			Code:     g.Code,
			Clause:   syntheticClause(clauses),
			Logic:    rootLogic,
		}
		g.SyntheticRoot = true
		idx.byID[g.Root.ID()] = g.Root
	} else {
		g.Root = *root
	}

	rootID := g.Root.ID()
	for _, m := range g.Members {
		id := m.ID()
		if id == rootID {
			continue
		}
		parentID, ok := clauses[int(m.ParentClause)]
		if !ok || m.Root() {
			// Dangling or absent parent reference: root-level member.
			parentID = rootID
		}
		idx.parent[id] = parentID
		idx.children[parentID] = append(idx.children[parentID], id)
	}
}

// syntheticClause picks a clause number that cannot collide with any
// real member. Source clause numbers start at 1, so 0 is normally free.
func syntheticClause(clauses map[int]taxonomy.CriterionID) int {
	n := 0
	for {
		if _, taken := clauses[n]; !taken {
			return n
		}
		n--
	}
}

func (idx *Index) buildDisplayGroups(ds *taxonomy.Dataset) {
	idx.display = make([]DisplayGroup, 0, len(idx.codes))
	for _, code := range idx.codes {
		g := idx.groups[code]
		dg := DisplayGroup{Code: code, Label: displayLabel(ds, g)}
		for _, m := range g.Members {
			dg.Members = append(dg.Members, m.ID())
		}
		idx.display = append(idx.display, dg)
	}
	sort.SliceStable(idx.display, func(i, j int) bool {
		if len(idx.display[i].Code) != len(idx.display[j].Code) {
			return len(idx.display[i].Code) < len(idx.display[j].Code)
		}
		return idx.display[i].Code < idx.display[j].Code
	})
}

func displayLabel(ds *taxonomy.Dataset, g *Group) string {
	if name := ds.DisplayName(g.Code); name != g.Code {
		return name
	}
	if len(g.Members) == 0 {
		return g.Code
	}
	line := g.Members[0].Content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if runes := []rune(line); len(runes) > displayLabelMax {
		line = string(runes[:displayLabelMax]) + "…"
	}
	if line == "" {
		return g.Code
	}
	return line
}

// Lookup returns the criterion with the given identity.
func (idx *Index) Lookup(id taxonomy.CriterionID) (taxonomy.Criterion, bool) {
	c, ok := idx.byID[id]
	return c, ok
}

// Children returns the direct children of a criterion, in member order.
func (idx *Index) Children(id taxonomy.CriterionID) []taxonomy.Criterion {
	ids := idx.children[id]
	if len(ids) == 0 {
		return nil
	}
	out := make([]taxonomy.Criterion, 0, len(ids))
	for _, childID := range ids {
		out = append(out, idx.byID[childID])
	}
	return out
}

// Parent returns the in-group parent of a criterion.
func (idx *Index) Parent(id taxonomy.CriterionID) (taxonomy.Criterion, bool) {
	parentID, ok := idx.parent[id]
	if !ok {
		return taxonomy.Criterion{}, false
	}
	return idx.byID[parentID], true
}

// Group returns the group for a taxonomic code.
func (idx *Index) Group(code string) (*Group, bool) {
	g, ok := idx.groups[code]
	return g, ok
}

// GroupRoot returns the root criterion of a code's group.
func (idx *Index) GroupRoot(code string) (taxonomy.Criterion, bool) {
	g, ok := idx.groups[code]
	if !ok {
		return taxonomy.Criterion{}, false
	}
	return g.Root, true
}

// Codes returns all group codes in lexicographic order.
func (idx *Index) Codes() []string {
	return idx.codes
}

// TopLevelCodes returns the length-1 codes in lexicographic order.
func (idx *Index) TopLevelCodes() []string {
	var out []string
	for _, code := range idx.codes {
		if len(code) == 1 {
			out = append(out, code)
		}
	}
	return out
}

// ChildCodes returns the direct child codes of a code from the
// nearest-ancestor map. Codes whose literal parent code has no group
// attach to their nearest existing ancestor instead.
func (idx *Index) ChildCodes(code string) []string {
	return idx.codeChildren[code]
}

// DisplayGroups returns the presentation grouping, sorted by code
// length then lexicographically.
func (idx *Index) DisplayGroups() []DisplayGroup {
	return idx.display
}
