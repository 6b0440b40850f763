package taxonomy

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Logic describes how a criterion's children combine when evaluating
// satisfaction. Only AND is conjunctive; every other value combines
// disjunctively. FIRST is a legacy alias for OR kept for provenance.
// LAST, NEW and INFER are build-pipeline markers and never appear in a
// compiled dataset.
type Logic string

const (
	LogicAnd   Logic = "AND"
	LogicOr    Logic = "OR"
	LogicFirst Logic = "FIRST"
	LogicEnd   Logic = "END"

	// Pipeline-only markers.
	LogicLast  Logic = "LAST"
	LogicNew   Logic = "NEW"
	LogicInfer Logic = "INFER"
)

// Conjunctive reports whether children under this logic must all be
// satisfied. Anything that is not AND requires at least one.
func (l Logic) Conjunctive() bool {
	return l == LogicAnd
}

// OutcomeMarker reports whether the logic tags an outcome reference
// rather than a navigable clause.
func (l Logic) OutcomeMarker() bool {
	return l == LogicLast || l == LogicNew
}

// ClauseRef is a reference to a clause number within the same code group.
// The source data encodes "no parent" as an empty string, null or 0, so
// it needs a tolerant decoder. Zero means "no in-group parent".
type ClauseRef int

func (r *ClauseRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*r = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*r = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*r = ClauseRef(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = ClauseRef(n)
	return nil
}

func (r ClauseRef) MarshalJSON() ([]byte, error) {
	if r == 0 {
		return []byte(`""`), nil
	}
	return []byte(strconv.Itoa(int(r))), nil
}

// Criterion is one decision node of the classification key. The code
// length encodes taxonomic depth: one letter for an order key, two for a
// suborder key, and so on. Clause numbers are unique within a code group
// and carry the in-group parent/child structure.
type Criterion struct {
	ClauseID     string    `json:"clause_id"`
	Code         string    `json:"crit"`
	Clause       int       `json:"clause"`
	ParentClause ClauseRef `json:"parent_clause"`
	Content      string    `json:"content"`
	ContentHTML  string    `json:"content_html,omitempty"`
	Logic        Logic     `json:"logic"`
	Depth        int       `json:"depth"`
}

// ID returns the criterion's globally unique identity.
func (c *Criterion) ID() CriterionID {
	return CriterionID{Code: c.Code, Clause: c.Clause}
}

// Root reports whether the criterion has no in-group parent.
func (c *Criterion) Root() bool {
	return c.ParentClause == 0
}

// CriterionID identifies a criterion by its (code, clause) pair.
type CriterionID struct {
	Code   string
	Clause int
}

func (id CriterionID) String() string {
	return id.Code + ":" + strconv.Itoa(id.Clause)
}

// GlossaryTerm is a linked definition referenced from criterion content.
type GlossaryTerm struct {
	ID         string `json:"id"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Indices are the precomputed navigation lookups shipped inside the
// dataset. They are advisory: the engine rebuilds its own index at load
// time and does not trust these beyond schema validation.
type Indices struct {
	ByCode           map[string]Criterion `json:"by_code,omitempty"`
	ChildrenByParent map[string][]string  `json:"children_by_parent,omitempty"`
	ParentByCode     map[string]string    `json:"parent_by_code,omitempty"`
	DepthByCode      map[string]int       `json:"depth_by_code,omitempty"`
}

// Navigation holds the navigable criteria and their shipped indices.
type Navigation struct {
	Criteria []Criterion `json:"criteria"`
	Indices  Indices     `json:"indices"`
}

// Metadata carries dataset provenance and the per-depth key labels.
type Metadata struct {
	SchemaVersion string            `json:"schema_version"`
	DepthLabels   map[string]string `json:"depth_labels,omitempty"`
}

// Dataset is the compiled keys file: navigation criteria, terminal
// outcomes keyed by code, the glossary and the taxon name tables.
// It is immutable after load.
type Dataset struct {
	Version     string                  `json:"version"`
	Generated   string                  `json:"generated"`
	Source      string                  `json:"source"`
	Description string                  `json:"description,omitempty"`
	Metadata    Metadata                `json:"metadata"`
	Navigation  Navigation              `json:"navigation"`
	Outcomes    map[string]Criterion    `json:"outcomes"`
	Glossary    map[string]GlossaryTerm `json:"glossary,omitempty"`
	OrderNames  map[string]string       `json:"order_names,omitempty"`
	CodeNames   map[string]string       `json:"code_names,omitempty"`
}

// DisplayName resolves the best human name for a taxonomic code:
// code_names first, then order_names, then the code itself.
func (d *Dataset) DisplayName(code string) string {
	if name, ok := d.CodeNames[code]; ok && name != "" {
		return name
	}
	if name, ok := d.OrderNames[code]; ok && name != "" {
		return name
	}
	return code
}
