// Package resolver replaces positional logic markers (END, INFER) left
// by clause parsing with concrete AND/OR tags. Resolution runs as a
// staged chain so the build pipeline can report per-stage stats.
package resolver

import "soilkey/internal/taxonomy"

type Stats struct {
	Examined int
	Resolved int
}

// LogicResolver rewrites marker logic values on a criteria slice in
// place.
type LogicResolver interface {
	Name() string
	Resolve(criteria []taxonomy.Criterion) (Stats, error)
}

// StageResult captures one resolver's effect on the marker population.
type StageResult struct {
	Resolver         string
	Stats            Stats
	MarkersBefore    int
	MarkersRemaining int
	Err              error
}

type Chain struct {
	resolvers []LogicResolver
}

func NewChain(resolvers ...LogicResolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// NewDefaultChain resolves END markers from siblings first, then INFER
// markers from children. Order matters: sibling resolution gives
// children concrete tags for the second stage to read.
func NewDefaultChain() *Chain {
	return NewChain(NewSiblingResolver(), NewChildrenResolver())
}

func (c *Chain) Run(criteria []taxonomy.Criterion) []StageResult {
	var out []StageResult
	for _, r := range c.resolvers {
		before := countMarkers(criteria)
		stats, err := r.Resolve(criteria)
		out = append(out, StageResult{
			Resolver:         r.Name(),
			Stats:            stats,
			MarkersBefore:    before,
			MarkersRemaining: countMarkers(criteria),
			Err:              err,
		})
		if err != nil {
			break
		}
	}
	return out
}

func countMarkers(criteria []taxonomy.Criterion) int {
	n := 0
	for _, c := range criteria {
		if c.Logic == taxonomy.LogicEnd || c.Logic == taxonomy.LogicInfer {
			n++
		}
	}
	return n
}

func concrete(l taxonomy.Logic) bool {
	return l != taxonomy.LogicEnd && l != taxonomy.LogicInfer
}

type siblingKey struct {
	code   string
	parent int
}

// SiblingResolver rewrites END markers to the dominant logic of their
// sibling group: the first concrete tag among siblings, OR if none.
type SiblingResolver struct{}

func NewSiblingResolver() *SiblingResolver {
	return &SiblingResolver{}
}

func (r *SiblingResolver) Name() string {
	return "siblings"
}

func (r *SiblingResolver) Resolve(criteria []taxonomy.Criterion) (Stats, error) {
	stats := Stats{Examined: len(criteria)}

	groups := make(map[siblingKey][]int)
	for i, c := range criteria {
		key := siblingKey{code: c.Code, parent: int(c.ParentClause)}
		groups[key] = append(groups[key], i)
	}

	for _, members := range groups {
		dominant := taxonomy.LogicOr
		for _, i := range members {
			if concrete(criteria[i].Logic) {
				dominant = criteria[i].Logic
				break
			}
		}
		for _, i := range members {
			if criteria[i].Logic == taxonomy.LogicEnd {
				criteria[i].Logic = dominant
				stats.Resolved++
			}
		}
	}
	return stats, nil
}

// ChildrenResolver rewrites INFER markers from the node's children: the
// first concrete child logic, OR when children exist but carry no
// concrete tag, AND for leaves.
type ChildrenResolver struct{}

func NewChildrenResolver() *ChildrenResolver {
	return &ChildrenResolver{}
}

func (r *ChildrenResolver) Name() string {
	return "children"
}

func (r *ChildrenResolver) Resolve(criteria []taxonomy.Criterion) (Stats, error) {
	stats := Stats{Examined: len(criteria)}

	children := make(map[siblingKey][]int)
	for i, c := range criteria {
		key := siblingKey{code: c.Code, parent: int(c.ParentClause)}
		children[key] = append(children[key], i)
	}

	for i := range criteria {
		if criteria[i].Logic != taxonomy.LogicInfer {
			continue
		}
		key := siblingKey{code: criteria[i].Code, parent: criteria[i].Clause}
		kids := children[key]
		if len(kids) == 0 {
			criteria[i].Logic = taxonomy.LogicAnd
			stats.Resolved++
			continue
		}
		resolved := taxonomy.LogicOr
		for _, k := range kids {
			if concrete(criteria[k].Logic) {
				resolved = criteria[k].Logic
				break
			}
		}
		criteria[i].Logic = resolved
		stats.Resolved++
	}
	return stats, nil
}
