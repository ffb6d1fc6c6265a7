package draft

// sqliteSchema creates the key/value table.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS draft_kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const (
	sqliteGet    = `SELECT value FROM draft_kv WHERE key = ?`
	sqliteDelete = `DELETE FROM draft_kv WHERE key = ?`
	// Prefixes are compared as bytes; the bound length is len(prefix) in Go.
	sqliteKeys = `SELECT key FROM draft_kv WHERE substr(CAST(key AS BLOB), 1, ?) = CAST(? AS BLOB) ORDER BY key`
	sqliteUsed = `SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0) FROM draft_kv`
	sqlitePut  = `
INSERT INTO draft_kv (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)
