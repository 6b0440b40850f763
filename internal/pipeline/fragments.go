package pipeline

import (
	"log"
	"regexp"
	"strings"

	"soilkey/internal/taxonomy"
)

// RawClause is one source clause as shipped in the criteria asset,
// before hierarchy detection.
type RawClause struct {
	Clause  int    `json:"clause"`
	Content string `json:"content"`
	Logic   string `json:"logic,omitempty"`
}

var (
	reHasPrefix  = regexp.MustCompile(`^(?:[A-Z][A-Za-z]*\.|[a-z]\.\s|\d+\.?\s|\(\d+\)|\([a-z]+\))`)
	reEmbedded   = regexp.MustCompile(`^.+?\s+\d+\.\s`)
	reMergedPair = regexp.MustCompile(`(?s)^(\(\d+\)\s*[^(]+?),?\s+(\([a-z]\)\s+.+)$`)
)

func outcomeMarker(logic string) bool {
	return taxonomy.Logic(logic).OutcomeMarker()
}

// mergeContinuationFragments folds clauses with no recognizable prefix
// (text split across source page boundaries) into the preceding
// non-outcome clause.
func mergeContinuationFragments(items []RawClause) []RawClause {
	var merged []RawClause
	for _, item := range items {
		if outcomeMarker(item.Logic) {
			merged = append(merged, item)
			continue
		}
		content := strings.TrimSpace(item.Content)
		cleaned := reConnector.ReplaceAllString(content, "")
		if !reHasPrefix.MatchString(cleaned) && !reEmbedded.MatchString(content) && len(merged) > 0 {
			for i := len(merged) - 1; i >= 0; i-- {
				if !outcomeMarker(merged[i].Logic) {
					merged[i].Content = strings.TrimRight(merged[i].Content, " \t\n") + " " + content
					break
				}
			}
			continue
		}
		merged = append(merged, item)
	}
	return merged
}

// splitMergedSubclauses separates "(n) parent, (a) child" content that
// the source parser fused into one clause. The child gets a fresh
// clause number past the group's current maximum and inherits the
// parent's logic.
func splitMergedSubclauses(code string, items []RawClause) []RawClause {
	maxClause := 0
	for _, it := range items {
		if it.Clause > maxClause {
			maxClause = it.Clause
		}
	}
	nextClause := maxClause + 1

	var result []RawClause
	for _, item := range items {
		if outcomeMarker(item.Logic) {
			result = append(result, item)
			continue
		}
		m := reMergedPair.FindStringSubmatch(strings.TrimSpace(item.Content))
		if m == nil {
			result = append(result, item)
			continue
		}

		parent := item
		parent.Content = strings.TrimRight(strings.TrimSuffix(strings.TrimRight(m[1], " \t"), ","), " \t")
		result = append(result, parent)

		child := item
		child.Content = m[2]
		child.Clause = nextClause
		nextClause++
		result = append(result, child)

		log.Printf("split merged sub-clause in %s clause %d", code, item.Clause)
	}
	return result
}
