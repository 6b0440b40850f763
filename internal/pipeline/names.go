package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"soilkey/internal/taxonomy"
)

const glossaryIDMax = 50

var (
	reLeadingCode = regexp.MustCompile(`^[A-Z]+[.:]\s*`)
	reOtherPrefix = regexp.MustCompile(`^Other\s+`)
)

// glossaryID derives a stable key from a glossary term.
func glossaryID(term string) string {
	id := strings.ToLower(term)
	id = strings.ReplaceAll(id, " ", "_")
	id = strings.ReplaceAll(id, ",", "")
	id = strings.ReplaceAll(id, "-", "_")
	if len(id) > glossaryIDMax {
		id = id[:glossaryIDMax]
	}
	return id
}

// extractParentName derives a taxon name from clause content. The
// printed keys open each clause with the parent taxon: "AAA. Histels
// that..." names AA, "AABA. Glacistels that..." names AAB. The "Other"
// qualifier is noise.
func extractParentName(content string) string {
	text := strings.TrimSpace(reLeadingCode.ReplaceAllString(content, ""))
	text = strings.TrimSpace(reOtherPrefix.ReplaceAllString(text, ""))
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	first := strings.TrimRight(fields[0], ".,;:")
	if len(first) > 3 && first[0] >= 'A' && first[0] <= 'Z' {
		return first
	}
	return ""
}

// PopulateCodeNames fills gaps in the code name table with taxon names
// derived from content patterns, outcomes first and then the leading
// navigation clause of each code. Existing names are never overwritten.
func PopulateCodeNames(ds *taxonomy.Dataset) int {
	if ds.CodeNames == nil {
		ds.CodeNames = make(map[string]string)
	}
	for code, name := range ds.OrderNames {
		ds.CodeNames[code] = name
	}

	added := 0
	record := func(code, content string) {
		name := extractParentName(content)
		if name == "" || len(code) <= 1 {
			return
		}
		parent := code[:len(code)-1]
		if _, ok := ds.CodeNames[parent]; !ok {
			ds.CodeNames[parent] = name
			added++
		}
	}

	outcomeCodes := make([]string, 0, len(ds.Outcomes))
	for code := range ds.Outcomes {
		outcomeCodes = append(outcomeCodes, code)
	}
	sort.Strings(outcomeCodes)
	for _, code := range outcomeCodes {
		record(code, ds.Outcomes[code].Content)
	}

	seen := make(map[string]bool)
	for _, c := range ds.Navigation.Criteria {
		if seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		record(c.Code, c.Content)
	}
	return added
}
