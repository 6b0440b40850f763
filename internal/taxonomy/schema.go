package taxonomy

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// datasetSchema is the JSON Schema for compiled keys files. Structural
// integrity checks that need cross-record lookups (unique identities,
// resolvable parent clauses) live in CheckIntegrity, not here.
const datasetSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "navigation", "outcomes", "metadata"],
  "properties": {
    "version": {"type": "string", "pattern": "^3\\."},
    "generated": {"type": "string"},
    "source": {"type": "string"},
    "metadata": {
      "type": "object",
      "properties": {
        "schema_version": {"type": "string"},
        "depth_labels": {
          "type": "object",
          "additionalProperties": {"type": "string"}
        }
      }
    },
    "navigation": {
      "type": "object",
      "required": ["criteria"],
      "properties": {
        "criteria": {
          "type": "array",
          "minItems": 1,
          "items": {"$ref": "#/$defs/criterion"}
        },
        "indices": {"type": "object"}
      }
    },
    "outcomes": {
      "type": "object",
      "additionalProperties": {"$ref": "#/$defs/criterion"}
    },
    "glossary": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["term", "definition"],
        "properties": {
          "id": {"type": "string"},
          "term": {"type": "string"},
          "definition": {"type": "string"}
        }
      }
    },
    "order_names": {"type": "object", "additionalProperties": {"type": "string"}},
    "code_names": {"type": "object", "additionalProperties": {"type": "string"}}
  },
  "$defs": {
    "criterion": {
      "type": "object",
      "required": ["clause_id", "crit", "clause", "content", "logic", "depth"],
      "properties": {
        "clause_id": {"type": "string"},
        "crit": {"type": "string", "minLength": 1},
        "clause": {"type": "integer"},
        "parent_clause": {
          "anyOf": [
            {"type": "integer"},
            {"type": "string"},
            {"type": "null"}
          ]
        },
        "content": {"type": "string"},
        "content_html": {"type": "string"},
        "logic": {"enum": ["AND", "OR", "FIRST", "END"]},
        "depth": {"type": "integer", "minimum": -1, "maximum": 4}
      }
    }
  }
}`

var compiledDatasetSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("keys.schema.json", strings.NewReader(datasetSchema)); err != nil {
		panic(fmt.Sprintf("taxonomy: bad embedded schema: %v", err))
	}
	schema, err := compiler.Compile("keys.schema.json")
	if err != nil {
		panic(fmt.Sprintf("taxonomy: embedded schema does not compile: %v", err))
	}
	return schema
}

// ValidateBytes checks raw dataset JSON against the embedded schema.
func ValidateBytes(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := compiledDatasetSchema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// IntegrityReport collects tolerated anomalies found in a dataset.
// Anomalies are reported, never repaired: the engine falls back to a
// root-level interpretation for dangling parent references at index time.
type IntegrityReport struct {
	DuplicateIDs     []string
	DanglingParents  []string
	MissingAncestors []string
}

// Clean reports whether no anomalies were found.
func (r *IntegrityReport) Clean() bool {
	return len(r.DuplicateIDs) == 0 && len(r.DanglingParents) == 0 && len(r.MissingAncestors) == 0
}

// CheckIntegrity runs the cross-record checks the schema cannot express:
// unique (code, clause) identities, in-group parent resolvability, and
// code-prefix ancestry gaps of more than one level.
func CheckIntegrity(d *Dataset) *IntegrityReport {
	report := &IntegrityReport{}

	seen := make(map[CriterionID]bool, len(d.Navigation.Criteria))
	byCode := make(map[string][]Criterion)
	for _, c := range d.Navigation.Criteria {
		id := c.ID()
		if seen[id] {
			report.DuplicateIDs = append(report.DuplicateIDs, id.String())
		}
		seen[id] = true
		byCode[c.Code] = append(byCode[c.Code], c)
	}

	for code, members := range byCode {
		clauses := make(map[int]bool, len(members))
		for _, m := range members {
			clauses[m.Clause] = true
		}
		for _, m := range members {
			if m.ParentClause != 0 && !clauses[int(m.ParentClause)] {
				report.DanglingParents = append(report.DanglingParents,
					fmt.Sprintf("%s: clause %d references missing parent %d", code, m.Clause, int(m.ParentClause)))
			}
		}
	}

	// A missing direct parent code is fine (outcome injection fills it);
	// a gap of two or more levels is not.
	for code := range byCode {
		if len(code) <= 1 {
			continue
		}
		parent := code[:len(code)-1]
		if _, ok := byCode[parent]; ok {
			continue
		}
		ancestor := parent
		for ancestor != "" {
			if _, ok := byCode[ancestor]; ok {
				break
			}
			ancestor = ancestor[:len(ancestor)-1]
		}
		if ancestor != "" && len(ancestor) < len(parent)-1 {
			report.MissingAncestors = append(report.MissingAncestors,
				fmt.Sprintf("%s: parent %s missing, nearest ancestor %s", code, parent, ancestor))
		}
	}

	return report
}
