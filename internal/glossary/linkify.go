// Package glossary wraps glossary terms found in criterion content
// with span markup so the presentation layer can attach definitions
// without scanning text at render time.
package glossary

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"soilkey/internal/taxonomy"
)

// Stats counts what linkification produced.
type Stats struct {
	Criteria    int
	Lists       int
	PrefixLinks int
}

type suffixGroup struct {
	suffix   string
	prefixes map[string]string // lowercase prefix word -> glossary id
	pattern  *regexp.Regexp
}

// Linkifier rewrites criterion content into linked HTML. Two passes:
// shared-suffix lists ("densic, lithic, or paralithic contact" links
// each prefix to its full two-word term), then plain longest-first term
// matches.
type Linkifier struct {
	terms    []taxonomy.GlossaryTerm // sorted longest term first
	patterns []*regexp.Regexp        // parallel to terms
	suffixes []suffixGroup
}

var reSpan = regexp.MustCompile(`<span class="glossary-term"[^>]*>[^<]*</span>`)

// New builds a linkifier from the dataset glossary.
func New(terms map[string]taxonomy.GlossaryTerm) *Linkifier {
	l := &Linkifier{}

	for _, t := range terms {
		if strings.TrimSpace(t.Term) == "" {
			continue
		}
		l.terms = append(l.terms, t)
	}
	sort.Slice(l.terms, func(i, j int) bool {
		if len(l.terms[i].Term) != len(l.terms[j].Term) {
			return len(l.terms[i].Term) > len(l.terms[j].Term)
		}
		return l.terms[i].Term < l.terms[j].Term
	})
	for _, t := range l.terms {
		l.patterns = append(l.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(t.Term)+`\b`))
	}

	l.buildSuffixGroups(terms)
	return l
}

// buildSuffixGroups indexes two-word terms by their second word. A
// suffix shared by at least two terms can appear in source text as one
// comma list with the suffix written once at the end.
func (l *Linkifier) buildSuffixGroups(terms map[string]taxonomy.GlossaryTerm) {
	bySuffix := make(map[string]map[string]string)
	for id, t := range terms {
		words := strings.Fields(strings.TrimSpace(t.Term))
		if len(words) != 2 {
			continue
		}
		suffix := strings.ToLower(words[1])
		if bySuffix[suffix] == nil {
			bySuffix[suffix] = make(map[string]string)
		}
		bySuffix[suffix][strings.ToLower(words[0])] = id
	}

	suffixes := make([]string, 0, len(bySuffix))
	for s := range bySuffix {
		suffixes = append(suffixes, s)
	}
	sort.Strings(suffixes)

	for _, suffix := range suffixes {
		prefixes := bySuffix[suffix]
		if len(prefixes) < 2 {
			continue
		}
		alts := make([]string, 0, len(prefixes))
		for p := range prefixes {
			alts = append(alts, regexp.QuoteMeta(p))
		}
		sort.Strings(alts)
		// Lazy middle-item quantifier keeps the conjunction out of the
		// list body; the replacer re-validates every item anyway.
		pattern := regexp.MustCompile(
			`(?i)\b((?:` + strings.Join(alts, "|") + `)` +
				`(?:,\s+[\w-]+)*?` +
				`,?\s+(?:and|or)\s+[\w-]+)` +
				`\s+(` + regexp.QuoteMeta(suffix) + `)\b`)
		l.suffixes = append(l.suffixes, suffixGroup{
			suffix:   suffix,
			prefixes: prefixes,
			pattern:  pattern,
		})
	}
}

func span(id, text string) string {
	return fmt.Sprintf(`<span class="glossary-term" data-id="%s">%s</span>`, id, text)
}

// Linkify rewrites one content string.
func (l *Linkifier) Linkify(text string, stats *Stats) string {
	html := l.expandSharedSuffixLists(text, stats)

	// Protect existing spans so the term pass cannot nest inside them.
	placeholders := make(map[string]string)
	protect := func(match string) string {
		key := fmt.Sprintf("\x00GLOSS%d\x00", len(placeholders))
		placeholders[key] = match
		return key
	}
	html = reSpan.ReplaceAllStringFunc(html, protect)

	for i, t := range l.terms {
		id := strings.ToLower(strings.ReplaceAll(t.ID, " ", "_"))
		if id == "" {
			id = glossaryIDFromTerm(t.Term)
		}
		html = l.patterns[i].ReplaceAllStringFunc(html, func(m string) string {
			return span(id, m)
		})
		html = reSpan.ReplaceAllStringFunc(html, protect)
	}

	for key, val := range placeholders {
		html = strings.ReplaceAll(html, key, val)
	}
	return html
}

func glossaryIDFromTerm(term string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(term), " ", "_"))
}

var (
	reListSplit = regexp.MustCompile(`,\s*`)
	reConj      = regexp.MustCompile(`^(?i:and|or)\s+`)
)

func (l *Linkifier) expandSharedSuffixLists(text string, stats *Stats) string {
	html := text
	for _, group := range l.suffixes {
		g := group
		html = g.pattern.ReplaceAllStringFunc(html, func(full string) string {
			m := g.pattern.FindStringSubmatch(full)
			if m == nil {
				return full
			}
			listPart, suffixText := m[1], m[2]
			items := reListSplit.Split(listPart, -1)

			rebuilt := make([]string, 0, len(items))
			linked := 0
			for i, item := range items {
				item = strings.TrimSpace(item)
				conj := ""
				if loc := reConj.FindStringIndex(item); loc != nil {
					conj = item[:loc[1]]
					item = item[loc[1]:]
				}
				last := i == len(items)-1

				if id, ok := g.prefixes[strings.ToLower(item)]; ok {
					linked++
					if last {
						rebuilt = append(rebuilt, conj+span(id, item+" "+suffixText))
					} else {
						rebuilt = append(rebuilt, conj+span(id, item))
					}
				} else if last {
					rebuilt = append(rebuilt, conj+item+" "+suffixText)
				} else {
					rebuilt = append(rebuilt, conj+item)
				}
			}

			if linked < 2 {
				return full
			}
			if stats != nil {
				stats.Lists++
				stats.PrefixLinks += linked
			}
			return strings.Join(rebuilt, ", ")
		})
	}
	return html
}

// LinkifyDataset fills ContentHTML for every navigation criterion.
func LinkifyDataset(ds *taxonomy.Dataset) Stats {
	l := New(ds.Glossary)
	var stats Stats
	for i := range ds.Navigation.Criteria {
		c := &ds.Navigation.Criteria[i]
		if c.Content == "" {
			continue
		}
		c.ContentHTML = l.Linkify(c.Content, &stats)
		stats.Criteria++
	}
	return stats
}
