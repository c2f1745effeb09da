package db

import "fmt"

// dialect holds the statements that differ between Postgres and SQLite.
// Everything else is written with ? placeholders and passed through Rebind.
type dialect struct {
	name      string
	schema    []string
	taskFacts string
}

var postgresDialect = dialect{
	name: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS boards (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  is_starred BOOLEAN NOT NULL DEFAULT FALSE,
  doc JSONB NOT NULL,
  version BIGINT NOT NULL DEFAULT 1,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_boards_owner_id ON boards(owner_id)`,
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  fullname TEXT NOT NULL,
  img_url TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
)`,
	},
	taskFacts: `SELECT t.value->'status'->>'id' AS status_id,
       t.value->'status'->>'txt' AS status_txt,
       t.value->'status'->>'cssVar' AS status_css,
       COALESCE(t.value->'memberIds', '[]'::jsonb)::text AS member_ids
FROM boards b
CROSS JOIN LATERAL jsonb_array_elements(COALESCE(b.doc->'groups', '[]'::jsonb)) AS g(value)
CROSS JOIN LATERAL jsonb_array_elements(COALESCE(g.value->'tasks', '[]'::jsonb)) AS t(value)`,
}

var sqliteDialect = dialect{
	name: "sqlite3",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS boards (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  is_starred BOOLEAN NOT NULL DEFAULT 0,
  doc TEXT NOT NULL,
  version INTEGER NOT NULL DEFAULT 1,
  created_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_boards_owner_id ON boards(owner_id)`,
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  fullname TEXT NOT NULL,
  img_url TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP NOT NULL
)`,
	},
	taskFacts: `SELECT json_extract(t.value, '$.status.id') AS status_id,
       json_extract(t.value, '$.status.txt') AS status_txt,
       json_extract(t.value, '$.status.cssVar') AS status_css,
       COALESCE(json_extract(t.value, '$.memberIds'), '[]') AS member_ids
FROM boards b, json_each(b.doc, '$.groups') g, json_each(g.value, '$.tasks') t`,
}

func dialectFor(driverName string) (dialect, error) {
	switch driverName {
	case "postgres":
		return postgresDialect, nil
	case "sqlite3":
		return sqliteDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driverName)
	}
}
