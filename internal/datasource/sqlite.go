package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// SQLite datasets keep one row per node and edge. The data column holds the
// node's full JSON object; the id, type and label columns win over it so
// the table stays editable by hand. Cluster tables are optional.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	id    TEXT NOT NULL,
	type  TEXT NOT NULL,
	label TEXT NOT NULL DEFAULT '',
	data  TEXT
);
CREATE TABLE IF NOT EXISTS edges (
	id          TEXT,
	source      TEXT NOT NULL,
	target      TEXT NOT NULL,
	relation    TEXT NOT NULL DEFAULT '',
	directional INTEGER
);
CREATE TABLE IF NOT EXISTS clusters (data TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS area_clusters (data TEXT NOT NULL);
`

func openSQLite(path string, readOnly bool) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	if readOnly {
		dsn += "&mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	return db, nil
}

// ReadSQLite assembles the JSON dataset document stored in the database at
// path.
func ReadSQLite(ctx context.Context, path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	db, err := openSQLite(path, true)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	doc := map[string]any{}
	nodes, err := readNodes(ctx, db)
	if err != nil {
		return nil, err
	}
	doc["nodes"] = nodes
	edges, err := readEdges(ctx, db)
	if err != nil {
		return nil, err
	}
	doc["edges"] = edges
	for table, key := range map[string]string{"clusters": "clusters", "area_clusters": "areaClusters"} {
		rows, err := readJSONColumn(ctx, db, table)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			doc[key] = rows
		}
	}
	return json.Marshal(doc)
}

func readNodes(ctx context.Context, db *sql.DB) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, type, label, data FROM nodes ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var id, typ, label string
		var data sql.NullString
		if err := rows.Scan(&id, &typ, &label, &data); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		node := map[string]any{}
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &node); err != nil {
				return nil, fmt.Errorf("node %q: bad data column: %w", id, err)
			}
		}
		node["id"], node["type"] = id, typ
		if label != "" {
			node["label"] = label
		}
		out = append(out, node)
	}
	return out, rows.Err()
}

func readEdges(ctx context.Context, db *sql.DB) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, source, target, relation, directional FROM edges ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var id sql.NullString
		var source, target, relation string
		var directional sql.NullBool
		if err := rows.Scan(&id, &source, &target, &relation, &directional); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		edge := map[string]any{"source": source, "target": target}
		if id.Valid && id.String != "" {
			edge["id"] = id.String
		}
		if relation != "" {
			edge["type"] = relation
		}
		if directional.Valid {
			edge["directional"] = directional.Bool
		}
		out = append(out, edge)
	}
	return out, rows.Err()
}

// readJSONColumn returns the decoded data column of an optional table.
func readJSONColumn(ctx context.Context, db *sql.DB, table string) ([]json.RawMessage, error) {
	rows, err := db.QueryContext(ctx, `SELECT data FROM `+table+` ORDER BY rowid`)
	if err != nil {
		var exists int
		if qerr := db.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&exists); qerr == nil && exists == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		out = append(out, json.RawMessage(data))
	}
	return out, rows.Err()
}

// WriteSQLite stores ds in a new database at path. An existing file is
// refused rather than merged into.
func WriteSQLite(ctx context.Context, path string, ds *model.Dataset) (err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return statErr
	}
	db, err := openSQLite(path, false)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	for _, n := range ds.Nodes {
		if n == nil {
			continue
		}
		var data []byte
		if data, err = json.Marshal(n); err != nil {
			return fmt.Errorf("encoding node %q: %w", n.ID, err)
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO nodes (id, type, label, data) VALUES (?, ?, ?, ?)`,
			n.ID, string(n.Type), n.Label, string(data)); err != nil {
			return fmt.Errorf("inserting node %q: %w", n.ID, err)
		}
	}
	for _, e := range ds.Edges {
		if e == nil {
			continue
		}
		var directional any
		if e.Directional != nil {
			directional = *e.Directional
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO edges (id, source, target, relation, directional) VALUES (?, ?, ?, ?, ?)`,
			e.ID, e.Source, e.Target, string(e.Relation), directional); err != nil {
			return fmt.Errorf("inserting edge %q: %w", e.ID, err)
		}
	}
	for _, c := range ds.Clusters {
		if err = insertJSON(ctx, tx, "clusters", c); err != nil {
			return err
		}
	}
	for _, g := range ds.AreaClusters {
		if err = insertJSON(ctx, tx, "area_clusters", g); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertJSON(ctx context.Context, tx *sql.Tx, table string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s row: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (data) VALUES (?)`, string(data)); err != nil {
		return fmt.Errorf("inserting into %s: %w", table, err)
	}
	return nil
}
