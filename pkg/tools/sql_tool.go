// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tools

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/salmasaleem01/SQL-Agent/gollm"
)

// maxResultRows caps how many rows a single query returns to the model.
// Large result sets blow out the context window without helping the answer.
const maxResultRows = 200

// SQLToolkit provides database access tools over a single SQLite file.
type SQLToolkit struct {
	db *sql.DB
}

// NewSQLToolkit opens the SQLite database at path. The file must exist;
// we do not want a typo in the path to silently create an empty database.
//
// When readOnly is set the connection itself refuses writes: the file is
// opened with mode=ro and every pooled connection gets query_only, so
// the guard holds no matter how a statement is phrased. Keyword
// classification (sqlModifies) is only used for upfront error messages,
// never for enforcement.
func NewSQLToolkit(path string, readOnly bool) (*SQLToolkit, error) {
	dsn := fmt.Sprintf("file:%s?mode=rw", path)
	if readOnly {
		dsn = fmt.Sprintf("file:%s?mode=ro&_pragma=query_only(1)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}
	return &SQLToolkit{db: db}, nil
}

func (t *SQLToolkit) Close() error {
	return t.db.Close()
}

// Tools returns the toolkit's tools for registration.
func (t *SQLToolkit) Tools() []Tool {
	return []Tool{
		&sqlQueryTool{db: t.db},
		&listTablesTool{db: t.db},
		&describeTableTool{db: t.db},
	}
}

// readOnlyPrefixes are SQL statement keywords that cannot mutate the
// database. Anything else is treated as a write. Note a WITH statement
// can still end in DELETE/UPDATE/INSERT; this classification is a hint
// for error messages, the read-only connection is the enforcement.
var readOnlyPrefixes = []string{"select", "with", "explain", "pragma"}

func sqlModifies(query string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	for _, prefix := range readOnlyPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return false
		}
	}
	return true
}

// quoteIdentifier quotes a SQL identifier, doubling embedded quotes.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// skipQuoted returns the index just past the quoted region starting at
// start (a ', " or ` quote). Doubled quotes are escapes.
func skipQuoted(s string, start int) int {
	q := s[start]
	i := start + 1
	for i < len(s) {
		if s[i] == q {
			if i+1 < len(s) && s[i+1] == q {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(s)
}

// hasMoreContent reports whether s contains anything besides
// whitespace, comments and empty statements.
func hasMoreContent(s string) bool {
	i, n := 0, len(s)
	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ';':
			i++
		case c == '-' && i+1 < n && s[i+1] == '-':
			j := strings.IndexByte(s[i:], '\n')
			if j < 0 {
				return false
			}
			i += j + 1
		case c == '/' && i+1 < n && s[i+1] == '*':
			j := strings.Index(s[i+2:], "*/")
			if j < 0 {
				return false
			}
			i += j + 4
		default:
			return true
		}
	}
	return false
}

// singleStatement reports whether query holds at most one SQL
// statement. A trailing semicolon (followed only by whitespace or
// comments) is fine; a second statement after the semicolon is not.
// Semicolons inside string literals, quoted identifiers and comments
// are ignored. Unterminated constructs pass through for the engine to
// reject.
func singleStatement(query string) bool {
	i, n := 0, len(query)
	for i < n {
		switch c := query[i]; c {
		case '\'', '"', '`':
			i = skipQuoted(query, i)
		case '[':
			j := strings.IndexByte(query[i+1:], ']')
			if j < 0 {
				return true
			}
			i += j + 2
		case '-':
			if i+1 < n && query[i+1] == '-' {
				j := strings.IndexByte(query[i:], '\n')
				if j < 0 {
					return true
				}
				i += j + 1
			} else {
				i++
			}
		case '/':
			if i+1 < n && query[i+1] == '*' {
				j := strings.Index(query[i+2:], "*/")
				if j < 0 {
					return true
				}
				i += j + 4
			} else {
				i++
			}
		case ';':
			return !hasMoreContent(query[i+1:])
		default:
			i++
		}
	}
	return true
}

// collectRows renders a result set as a slice of column-name keyed
// maps, capped at maxResultRows.
func collectRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]any
	for rows.Next() {
		if len(results) >= maxResultRows {
			break
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			v := values[i]
			// The driver hands back []byte for TEXT columns; strings
			// serialize better in model-facing output.
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// runRows executes a query and collects its rows.
func runRows(ctx context.Context, db *sql.DB, query string, args ...any) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRows(rows)
}

type sqlQueryTool struct {
	db *sql.DB
}

func (t *sqlQueryTool) Name() string {
	return "sql_query"
}

func (t *sqlQueryTool) Description() string {
	return `Executes a SQL statement against the SQLite database and returns the result rows. Use this for SELECT queries and, when allowed, for data modifications. Prefer querying the schema first (list_tables, describe_table) so your SQL references real tables and columns.`
}

func (t *sqlQueryTool) FunctionDefinition() *gollm.FunctionDefinition {
	return &gollm.FunctionDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &gollm.Schema{
			Type: gollm.TypeObject,
			Properties: map[string]*gollm.Schema{
				"query": {
					Type: gollm.TypeString,
					Description: `The SQL statement to execute. Must be a single statement.`,
				},
			},
			Required: []string{"query"},
		},
	}
}

// Run executes the statement on a dedicated connection. Routing between
// row output and a change count follows the statement's actual result
// shape, not its leading keyword, so CTE-prefixed writes report
// rows_affected like any other write.
func (t *sqlQueryTool) Run(ctx context.Context, args map[string]any) (any, error) {
	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, &ValidationError{Tool: t.Name(), Reason: "expected a non-empty string argument \"query\""}
	}
	if !singleStatement(query) {
		return nil, &ValidationError{Tool: t.Name(), Reason: "multiple SQL statements are not allowed; submit a single statement"}
	}

	// A dedicated connection keeps changes() attributed to this
	// statement rather than whatever the pool ran last.
	conn, err := t.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}

	if len(columns) == 0 {
		// No result set: a write. Step it to completion, then read the
		// change count off the same connection.
		rows.Next()
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		var affected int64
		if err := conn.QueryRowContext(ctx, "SELECT changes()").Scan(&affected); err != nil {
			return nil, err
		}
		return map[string]any{"rows_affected": affected}, nil
	}

	results, err := collectRows(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return "query returned no rows", nil
	}
	return results, nil
}

func (t *sqlQueryTool) Modifies(args map[string]any) bool {
	query, ok := args["query"].(string)
	if !ok {
		// Malformed arguments never reach the database, so they cannot
		// modify it.
		return false
	}
	return sqlModifies(query)
}

type listTablesTool struct {
	db *sql.DB
}

func (t *listTablesTool) Name() string {
	return "list_tables"
}

func (t *listTablesTool) Description() string {
	return `Lists the tables in the SQLite database. Use this first to discover what data is available.`
}

func (t *listTablesTool) FunctionDefinition() *gollm.FunctionDefinition {
	return &gollm.FunctionDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &gollm.Schema{
			Type:       gollm.TypeObject,
			Properties: map[string]*gollm.Schema{},
		},
	}
}

func (t *listTablesTool) Run(ctx context.Context, args map[string]any) (any, error) {
	rows, err := runRows(ctx, t.db,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["name"].(string); ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "the database contains no tables", nil
	}
	return names, nil
}

func (t *listTablesTool) Modifies(args map[string]any) bool {
	return false
}

type describeTableTool struct {
	db *sql.DB
}

func (t *describeTableTool) Name() string {
	return "describe_table"
}

func (t *describeTableTool) Description() string {
	return `Describes the columns of a table: name, type, whether NULL is allowed, default value, and primary key membership. Use this before writing queries against a table.`
}

func (t *describeTableTool) FunctionDefinition() *gollm.FunctionDefinition {
	return &gollm.FunctionDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &gollm.Schema{
			Type: gollm.TypeObject,
			Properties: map[string]*gollm.Schema{
				"table": {
					Type:        gollm.TypeString,
					Description: `The name of the table to describe.`,
				},
			},
			Required: []string{"table"},
		},
	}
}

func (t *describeTableTool) Run(ctx context.Context, args map[string]any) (any, error) {
	table, ok := args["table"].(string)
	if !ok || strings.TrimSpace(table) == "" {
		return nil, &ValidationError{Tool: t.Name(), Reason: "expected a non-empty string argument \"table\""}
	}

	// table_info takes an identifier, not a bindable parameter. Verify
	// the table exists via a parameterized lookup before interpolating.
	existing, err := runRows(ctx, t.db,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, &ValidationError{Tool: t.Name(), Reason: fmt.Sprintf("table %q does not exist", table)}
	}

	rows, err := runRows(ctx, t.db, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdentifier(table)))
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *describeTableTool) Modifies(args map[string]any) bool {
	return false
}
