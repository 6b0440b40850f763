package pipeline

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"soilkey/internal/resolver"
	"soilkey/internal/taxonomy"
)

const (
	schemaVersion  = "3.1.0"
	datasetSource  = "USDA Keys to Soil Taxonomy (2022)"
	outcomeMinCode = 3
)

// depthLabels maps clause depth to the printed key it belongs to.
var depthLabels = map[string]string{
	"0": "Key to Soil Orders",
	"1": "Key to Suborders",
	"2": "Key to Great Groups",
	"3": "Key to Subgroups",
	"4": "Key to Subgroups",
}

// CodeEntry maps a taxonomic code to its taxon name.
type CodeEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Feature is one glossary source entry.
type Feature struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Sources bundles the three asset files the build consumes.
type Sources struct {
	Codes    []CodeEntry
	Criteria map[string][]RawClause
	Features []Feature
}

// Build compiles the raw assets into a dataset: clause hierarchy
// detection per code group, outcome separation, positional logic
// resolution, glossary and name tables.
func Build(src *Sources) (*taxonomy.Dataset, error) {
	if len(src.Criteria) == 0 {
		return nil, fmt.Errorf("no criteria groups in source")
	}

	codes := make([]string, 0, len(src.Criteria))
	for code := range src.Criteria {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var nav []taxonomy.Criterion
	outcomes := make(map[string]taxonomy.Criterion)
	for _, code := range codes {
		groupNav, outcome := processCodeGroup(code, src.Criteria[code])
		nav = append(nav, groupNav...)
		if outcome != nil {
			outcomes[code] = *outcome
		}
	}

	for _, stage := range resolver.NewDefaultChain().Run(nav) {
		if stage.Err != nil {
			return nil, fmt.Errorf("logic resolution stage %s: %w", stage.Resolver, stage.Err)
		}
		log.Printf("logic resolution %s: %d resolved, %d markers remaining",
			stage.Resolver, stage.Stats.Resolved, stage.MarkersRemaining)
	}

	dedupeClauseIDs(nav, outcomes)

	orderNames, codeNames := buildNames(src.Codes)
	ds := &taxonomy.Dataset{
		Version:     schemaVersion,
		Generated:   time.Now().Format("2006-01-02"),
		Source:      datasetSource,
		Description: "Hierarchical classification criteria with separated navigation and outcomes",
		Metadata: taxonomy.Metadata{
			SchemaVersion: schemaVersion,
			DepthLabels:   depthLabels,
		},
		Navigation: taxonomy.Navigation{
			Criteria: nav,
			Indices:  buildIndices(nav),
		},
		Outcomes:   outcomes,
		Glossary:   buildGlossary(src.Features),
		OrderNames: orderNames,
		CodeNames:  codeNames,
	}
	PopulateCodeNames(ds)
	return ds, nil
}

type stackEntry struct {
	clause   int
	clauseID string
}

// processCodeGroup turns one code's raw clauses into navigation
// criteria and, for 3+ letter codes, the terminal outcome derived from
// the group header.
func processCodeGroup(code string, items []RawClause) ([]taxonomy.Criterion, *taxonomy.Criterion) {
	items = mergeContinuationFragments(items)
	items = splitMergedSubclauses(code, items)

	headerIsOutcome := len(code) >= outcomeMinCode

	var nav []taxonomy.Criterion
	var outcome *taxonomy.Criterion

	// stack tracks the most recent (clause, clause id) at each nesting
	// level so children attach to the right parent.
	stack := make(map[int]stackEntry)

	for _, item := range items {
		if outcomeMarker(item.Logic) {
			continue
		}

		content, display := normalizeContent(item.Content)
		level := detectLevel(content)
		label := extractLabel(content)

		var clauseID string
		var parentClause int
		switch {
		case level == 0:
			clauseID = code
			parentClause = 0
		case level > 0 && label != "":
			if parent, ok := stack[level-1]; ok {
				parentClause = parent.clause
				clauseID = parent.clauseID + "." + label
			} else if header, ok := stack[0]; ok {
				// No parent at the expected level: attach to header.
				parentClause = header.clause
				clauseID = code + "." + label
			} else {
				parentClause = 0
				clauseID = code + "." + label
			}
		default:
			// Unknown prefix: attach to the most recent known level.
			attached := false
			for tryLevel := 4; tryLevel >= 0; tryLevel-- {
				if parent, ok := stack[tryLevel]; ok {
					parentClause = parent.clause
					clauseID = parent.clauseID + ".x" + strconv.Itoa(item.Clause)
					attached = true
					break
				}
			}
			if !attached {
				parentClause = 0
				clauseID = code + ".x" + strconv.Itoa(item.Clause)
			}
			if level < 0 {
				level = 0
			}
		}

		stack[level] = stackEntry{clause: item.Clause, clauseID: clauseID}
		for l := range stack {
			if l > level {
				delete(stack, l)
			}
		}

		record := taxonomy.Criterion{
			ClauseID:     clauseID,
			Code:         code,
			Clause:       item.Clause,
			ParentClause: taxonomy.ClauseRef(parentClause),
			Content:      display,
			Logic:        mapLogic(item.Logic),
			Depth:        level,
		}

		if level == 0 && headerIsOutcome {
			// The header of a 3+ letter code describes the terminal
			// taxon, not a navigation decision. It stays on the stack
			// so children still parent to it.
			record.Depth = -1
			outcome = &record
			continue
		}
		nav = append(nav, record)
	}

	return nav, outcome
}

// dedupeClauseIDs appends the clause number to colliding clause ids.
// Identity remains (code, clause); clause ids are display handles.
func dedupeClauseIDs(nav []taxonomy.Criterion, outcomes map[string]taxonomy.Criterion) {
	seen := make(map[string]bool, len(nav)+len(outcomes))
	dupes := 0
	for i := range nav {
		if seen[nav[i].ClauseID] {
			nav[i].ClauseID = nav[i].ClauseID + "_" + strconv.Itoa(nav[i].Clause)
			dupes++
		}
		seen[nav[i].ClauseID] = true
	}
	codes := make([]string, 0, len(outcomes))
	for code := range outcomes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		oc := outcomes[code]
		if seen[oc.ClauseID] {
			oc.ClauseID = oc.ClauseID + "_" + strconv.Itoa(oc.Clause)
			outcomes[code] = oc
			dupes++
		}
		seen[oc.ClauseID] = true
	}
	if dupes > 0 {
		log.Printf("resolved %d duplicate clause ids", dupes)
	}
}

// buildIndices precomputes the navigation lookups shipped with the
// dataset. The "root" key of children_by_parent lists the header-level
// codes.
func buildIndices(nav []taxonomy.Criterion) taxonomy.Indices {
	idx := taxonomy.Indices{
		ByCode:           make(map[string]taxonomy.Criterion),
		ChildrenByParent: make(map[string][]string),
		ParentByCode:     make(map[string]string),
		DepthByCode:      make(map[string]int),
	}

	codeSet := make(map[string]bool)
	for _, c := range nav {
		idx.ByCode[c.Code] = c
		idx.DepthByCode[c.Code] = c.Depth
		codeSet[c.Code] = true
		if len(c.Code) > 1 {
			idx.ParentByCode[c.Code] = c.Code[:len(c.Code)-1]
		}
	}

	codes := make([]string, 0, len(codeSet))
	for code := range codeSet {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, c := range nav {
		if c.Depth == 0 {
			idx.ChildrenByParent["root"] = appendUnique(idx.ChildrenByParent["root"], c.Code)
		}
	}
	for _, code := range codes {
		var children []string
		for _, candidate := range codes {
			if len(candidate) == len(code)+1 && candidate[:len(code)] == code {
				children = append(children, candidate)
			}
		}
		if len(children) > 0 {
			idx.ChildrenByParent[code] = children
		}
	}
	return idx
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// buildGlossary converts the feature list into keyed glossary terms.
func buildGlossary(features []Feature) map[string]taxonomy.GlossaryTerm {
	glossary := make(map[string]taxonomy.GlossaryTerm, len(features))
	for _, f := range features {
		term := strings.TrimSpace(f.Name)
		if term == "" {
			continue
		}
		id := glossaryID(term)
		glossary[id] = taxonomy.GlossaryTerm{
			ID:         id,
			Term:       term,
			Definition: f.Description,
		}
	}
	return glossary
}

// buildNames splits the codes asset into the order table (one-letter
// codes) and the full code table.
func buildNames(codes []CodeEntry) (orderNames, codeNames map[string]string) {
	orderNames = make(map[string]string)
	codeNames = make(map[string]string, len(codes))
	for _, entry := range codes {
		codeNames[entry.Code] = entry.Name
		if len(entry.Code) == 1 {
			orderNames[entry.Code] = entry.Name
		}
	}
	return orderNames, codeNames
}
