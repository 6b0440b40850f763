package pipeline

import (
	"regexp"
	"strings"

	"soilkey/internal/taxonomy"
)

// The printed keys encode clause nesting in content prefixes:
// "A."/"IFFZa." headers, "1." numbered, "a." lettered, "(1)" and "(a)"
// parenthesized. Level detection and label extraction both key off
// these prefixes after stripping textual and/or connectors.
var (
	reConnector     = regexp.MustCompile(`^(?i:and|or)\s+`)
	reClausePrefix  = regexp.MustCompile(`^(?:[a-z]\.\s|\d+\.\s|\(\d+\)|\([a-z]+\))`)
	reHeader        = regexp.MustCompile(`^[A-Z][A-Za-z]*\.`)
	reMixedHeader   = regexp.MustCompile(`^[A-Z]+[a-z]+\.`)
	reEmbeddedNum   = regexp.MustCompile(`^(.+?)\s+(\d+\.)\s`)
	reMissingDot    = regexp.MustCompile(`^(\d+)\s+[A-Z]`)
	reNumbered      = regexp.MustCompile(`^\d+\.`)
	reLettered      = regexp.MustCompile(`^[a-z]\.`)
	reParenNumber   = regexp.MustCompile(`^\(\d+\)`)
	reParenLetter   = regexp.MustCompile(`^\([a-z]+\)`)
	reHeaderLabel   = regexp.MustCompile(`^([A-Z][A-Za-z]*)\.`)
	reNumberedLabel = regexp.MustCompile(`^(\d+)\.`)
	reLetteredLabel = regexp.MustCompile(`^([a-z])\.`)
	reParenNumLabel = regexp.MustCompile(`^\((\d+)\)`)
	reParenLetLabel = regexp.MustCompile(`^\(([a-z]+)\)`)
)

// normalizeContent fixes known source formatting issues. It returns the
// text to run level/label detection on and the text to display.
func normalizeContent(content string) (detect, display string) {
	text := strings.TrimSpace(content)

	// Leading "and "/"or " before a recognizable clause prefix is a
	// textual connector from the printed keys; the logic tag already
	// carries that meaning.
	if loc := reConnector.FindStringIndex(text); loc != nil {
		rest := text[loc[1]:]
		if reClausePrefix.MatchString(rest) {
			text = rest
		}
	}

	// Mixed-case headers (IFFZa., IGGZb.) are already well formed.
	if reMixedHeader.MatchString(text) {
		return text, text
	}

	// Descriptive subheading before an embedded numbered prefix:
	// "Elevated sodium 1. An exchangeable..." -> "1. An exchangeable...".
	if m := reEmbeddedNum.FindStringSubmatchIndex(text); m != nil {
		prefix := text[m[2]:m[3]]
		if !reConnector.MatchString(prefix + " ") {
			return text[m[4]:], text
		}
	}

	// Missing dot after a bare number: "1 Do not..." -> "1. Do not...".
	if m := reMissingDot.FindStringSubmatch(text); m != nil {
		return m[1] + ". " + strings.TrimLeft(text[len(m[1]):], " \t"), text
	}

	return text, text
}

// detectLevel determines clause nesting level from the content prefix,
// or -1 when no prefix is recognized.
func detectLevel(content string) int {
	text := reConnector.ReplaceAllString(strings.TrimSpace(content), "")
	switch {
	case reHeader.MatchString(text):
		return 0
	case reNumbered.MatchString(text):
		return 1
	case reLettered.MatchString(text):
		return 2
	case reParenNumber.MatchString(text):
		return 3
	case reParenLetter.MatchString(text):
		return 4
	}
	return -1
}

// extractLabel pulls the prefix identifier used to build clause ids.
func extractLabel(content string) string {
	text := reConnector.ReplaceAllString(strings.TrimSpace(content), "")
	for _, re := range []*regexp.Regexp{
		reHeaderLabel, reNumberedLabel, reLetteredLabel, reParenNumLabel, reParenLetLabel,
	} {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// mapLogic normalizes source logic values to OR, AND, END or INFER.
// FIRST folds into OR; absent or unknown values defer to inference.
// LAST and NEW never reach this point (outcome handling).
func mapLogic(value string) taxonomy.Logic {
	switch taxonomy.Logic(value) {
	case taxonomy.LogicFirst:
		return taxonomy.LogicOr
	case taxonomy.LogicOr, taxonomy.LogicAnd, taxonomy.LogicEnd:
		return taxonomy.Logic(value)
	}
	return taxonomy.LogicInfer
}
