package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"soilkey/internal/taxonomy"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite dataset database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS criteria (
			crit TEXT,
			clause INTEGER,
			clause_id TEXT,
			parent_clause INTEGER,
			content TEXT,
			content_html TEXT,
			logic TEXT,
			depth INTEGER,
			is_outcome INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (crit, clause, is_outcome)
		);`,
		`CREATE TABLE IF NOT EXISTS glossary (
			id TEXT PRIMARY KEY,
			term TEXT,
			definition TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS code_names (
			code TEXT PRIMARY KEY,
			name TEXT,
			is_order INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_criteria_code ON criteria(crit);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveDataset replaces the stored snapshot wholesale inside one
// transaction. Datasets are small enough that delete-and-reinsert beats
// diffing.
func (s *SQLiteStore) SaveDataset(ctx context.Context, ds *taxonomy.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"meta", "criteria", "glossary", "code_names"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	depthLabels, err := json.Marshal(ds.Metadata.DepthLabels)
	if err != nil {
		return fmt.Errorf("failed to encode depth labels: %w", err)
	}
	metaRows := [][2]string{
		{"version", ds.Version},
		{"generated", ds.Generated},
		{"source", ds.Source},
		{"description", ds.Description},
		{"schema_version", ds.Metadata.SchemaVersion},
		{"depth_labels", string(depthLabels)},
	}
	for _, row := range metaRows {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", row[0], row[1]); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO criteria (crit, clause, clause_id, parent_clause, content, content_html, logic, depth, is_outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range ds.Navigation.Criteria {
		if _, err := stmt.ExecContext(ctx, c.Code, c.Clause, c.ClauseID, int(c.ParentClause), c.Content, c.ContentHTML, string(c.Logic), c.Depth, 0); err != nil {
			return err
		}
	}
	for _, oc := range ds.Outcomes {
		if _, err := stmt.ExecContext(ctx, oc.Code, oc.Clause, oc.ClauseID, int(oc.ParentClause), oc.Content, oc.ContentHTML, string(oc.Logic), oc.Depth, 1); err != nil {
			return err
		}
	}

	glossStmt, err := tx.PrepareContext(ctx, "INSERT INTO glossary (id, term, definition) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer glossStmt.Close()
	for _, term := range ds.Glossary {
		if _, err := glossStmt.ExecContext(ctx, term.ID, term.Term, term.Definition); err != nil {
			return err
		}
	}

	nameStmt, err := tx.PrepareContext(ctx, "INSERT INTO code_names (code, name, is_order) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer nameStmt.Close()
	for code, name := range ds.CodeNames {
		isOrder := 0
		if _, ok := ds.OrderNames[code]; ok {
			isOrder = 1
		}
		if _, err := nameStmt.ExecContext(ctx, code, name, isOrder); err != nil {
			return err
		}
	}
	// Order names missing from the code table still need a row.
	for code, name := range ds.OrderNames {
		if _, ok := ds.CodeNames[code]; ok {
			continue
		}
		if _, err := nameStmt.ExecContext(ctx, code, name, 1); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadDataset reconstructs the stored snapshot.
func (s *SQLiteStore) LoadDataset(ctx context.Context) (*taxonomy.Dataset, error) {
	ds := &taxonomy.Dataset{
		Outcomes:   make(map[string]taxonomy.Criterion),
		Glossary:   make(map[string]taxonomy.GlossaryTerm),
		OrderNames: make(map[string]string),
		CodeNames:  make(map[string]string),
	}

	metaRows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("failed to query meta: %w", err)
	}
	defer metaRows.Close()
	for metaRows.Next() {
		var key, value string
		if err := metaRows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan meta: %w", err)
		}
		switch key {
		case "version":
			ds.Version = value
		case "generated":
			ds.Generated = value
		case "source":
			ds.Source = value
		case "description":
			ds.Description = value
		case "schema_version":
			ds.Metadata.SchemaVersion = value
		case "depth_labels":
			if value != "" {
				if err := json.Unmarshal([]byte(value), &ds.Metadata.DepthLabels); err != nil {
					return nil, fmt.Errorf("failed to decode depth labels: %w", err)
				}
			}
		}
	}
	if err := metaRows.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT crit, clause, clause_id, parent_clause, content, content_html, logic, depth, is_outcome
		FROM criteria ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query criteria: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c taxonomy.Criterion
		var parentClause, isOutcome int
		var logic string
		if err := rows.Scan(&c.Code, &c.Clause, &c.ClauseID, &parentClause, &c.Content, &c.ContentHTML, &logic, &c.Depth, &isOutcome); err != nil {
			return nil, fmt.Errorf("failed to scan criterion: %w", err)
		}
		c.ParentClause = taxonomy.ClauseRef(parentClause)
		c.Logic = taxonomy.Logic(logic)
		if isOutcome == 1 {
			ds.Outcomes[c.Code] = c
		} else {
			ds.Navigation.Criteria = append(ds.Navigation.Criteria, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	glossRows, err := s.db.QueryContext(ctx, "SELECT id, term, definition FROM glossary")
	if err != nil {
		return nil, fmt.Errorf("failed to query glossary: %w", err)
	}
	defer glossRows.Close()
	for glossRows.Next() {
		var term taxonomy.GlossaryTerm
		if err := glossRows.Scan(&term.ID, &term.Term, &term.Definition); err != nil {
			return nil, fmt.Errorf("failed to scan glossary term: %w", err)
		}
		ds.Glossary[term.ID] = term
	}
	if err := glossRows.Err(); err != nil {
		return nil, err
	}

	nameRows, err := s.db.QueryContext(ctx, "SELECT code, name, is_order FROM code_names")
	if err != nil {
		return nil, fmt.Errorf("failed to query code names: %w", err)
	}
	defer nameRows.Close()
	for nameRows.Next() {
		var code, name string
		var isOrder int
		if err := nameRows.Scan(&code, &name, &isOrder); err != nil {
			return nil, fmt.Errorf("failed to scan code name: %w", err)
		}
		ds.CodeNames[code] = name
		if isOrder == 1 {
			ds.OrderNames[code] = name
		}
	}
	if err := nameRows.Err(); err != nil {
		return nil, err
	}

	return ds, nil
}
