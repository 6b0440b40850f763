package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"soilkey/internal/engine"
	"soilkey/internal/nav"
	"soilkey/internal/report"
	"soilkey/internal/taxonomy"
)

func parseCriterionID(s string) (taxonomy.CriterionID, error) {
	code, clauseStr, ok := strings.Cut(s, ":")
	if !ok || code == "" {
		return taxonomy.CriterionID{}, fmt.Errorf("expected CODE:CLAUSE")
	}
	clause, err := strconv.Atoi(clauseStr)
	if err != nil {
		return taxonomy.CriterionID{}, fmt.Errorf("clause must be a number: %w", err)
	}
	return taxonomy.CriterionID{Code: strings.ToUpper(code), Clause: clause}, nil
}

// runInteractive drives a terminal classification session. The engine
// notifies on every mutation; the loop re-pulls the path and the
// visible codes after each command.
func runInteractive(ds *taxonomy.Dataset, eng *engine.Engine, n *nav.Navigator) {
	fmt.Println("Digital Keys to Soil Taxonomy — interactive session")
	fmt.Println("Commands: show CODE, check CODE:CLAUSE, uncheck CODE:CLAUSE, toggle CODE:CLAUSE,")
	fmt.Println("          path, reset, report FILE, quit")
	fmt.Println()

	dirty := true
	unsubscribe := eng.Subscribe(func() { dirty = true })
	defer unsubscribe()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if dirty {
			printState(ds, n)
			dirty = false
		}
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch strings.ToLower(cmd) {
		case "quit", "exit", "q":
			return
		case "path":
			printState(ds, n)
		case "reset":
			eng.ResetAll()
		case "show":
			showGroup(eng, strings.ToUpper(rest))
		case "check", "uncheck", "toggle":
			id, err := parseCriterionID(rest)
			if err != nil {
				fmt.Printf("  %v\n", err)
				continue
			}
			switch strings.ToLower(cmd) {
			case "check":
				eng.MarkChecked(id)
			case "uncheck":
				eng.MarkUnchecked(id)
			case "toggle":
				eng.Toggle(id)
			}
		case "report":
			if rest == "" {
				fmt.Println("  usage: report FILE")
				continue
			}
			gen := report.NewMarkdownGenerator(eng, n, ds)
			if err := gen.Write(rest); err != nil {
				fmt.Printf("  %v\n", err)
				continue
			}
			fmt.Printf("  report written to %s\n", rest)
		default:
			fmt.Printf("  unknown command %q\n", cmd)
		}
	}
}

func printState(ds *taxonomy.Dataset, n *nav.Navigator) {
	fmt.Println()
	for _, entry := range n.ClassificationPath() {
		if entry.Satisfied {
			fmt.Printf("  %-12s %-6s %s\n", entry.LevelLabel, entry.Code, entry.DisplayName)
		} else {
			fmt.Printf("  %-12s %-6s ?\n", entry.LevelLabel, "")
		}
	}
	fmt.Println()
	fmt.Println("  Visible keys:")
	for _, code := range n.VisibleCodes() {
		fmt.Printf("    %-6s %s\n", code, ds.DisplayName(code))
	}
	fmt.Println()
}

func showGroup(eng *engine.Engine, code string) {
	g, ok := eng.Index().Group(code)
	if !ok {
		fmt.Printf("  no key for code %q\n", code)
		return
	}
	fmt.Printf("  %s (%d clauses)\n", code, len(g.Members))
	for _, m := range g.Members {
		mark := " "
		if eng.Checked(m.ID()) {
			mark = "x"
		}
		leaf := ""
		if eng.IsLeaf(m.ID()) {
			leaf = "*"
		}
		fmt.Printf("  [%s] %s:%d%s (%s) %s\n", mark, m.Code, m.Clause, leaf, m.Logic, truncate(m.Content, 90))
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n]) + "…"
	}
	return s
}
