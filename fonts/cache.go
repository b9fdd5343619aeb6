package fonts

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"dxp/docx"
)

// Cache is a persistent font index keyed by file path and modification
// time. It lets repeated conversions skip re-parsing unchanged font files.
// Failures inside the cache only cost speed, never correctness, so they are
// logged and swallowed.
type Cache struct {
	mu   sync.Mutex
	conn *sqlite.Conn
	log  *zap.Logger
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS faces (
	path   TEXT    NOT NULL,
	mtime  INTEGER NOT NULL,
	face   INTEGER NOT NULL,
	family TEXT    NOT NULL,
	bold   INTEGER NOT NULL,
	italic INTEGER NOT NULL,
	PRIMARY KEY (path, face)
);`

// OpenCache opens or creates the index database at path.
func OpenCache(path string, log *zap.Logger) (*Cache, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("opening font cache: %w", err)
	}
	if err := sqlitex.ExecuteTransient(conn, cacheSchema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("preparing font cache schema: %w", err)
	}
	return &Cache{conn: conn, log: log}, nil
}

func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// Lookup returns the cached face list for a file when its recorded mtime
// still matches.
func (c *Cache) Lookup(path string, mtime int64) ([]docx.FontKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var faces []docx.FontKey
	stale := false
	err := sqlitex.Execute(c.conn,
		`SELECT mtime, family, bold, italic FROM faces WHERE path = ? ORDER BY face`,
		&sqlitex.ExecOptions{
			Args: []any{path},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				if stmt.ColumnInt64(0) != mtime {
					stale = true
					return nil
				}
				faces = append(faces, docx.FontKey{
					Family: stmt.ColumnText(1),
					Bold:   stmt.ColumnInt64(2) != 0,
					Italic: stmt.ColumnInt64(3) != 0,
				})
				return nil
			},
		})
	if err != nil {
		c.log.Debug("Font cache lookup failed", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	if stale || len(faces) == 0 {
		return nil, false
	}
	return faces, true
}

// Store replaces the cached face list for a file.
func (c *Cache) Store(path string, mtime int64, faces []docx.FontKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := sqlitex.Execute(c.conn, `DELETE FROM faces WHERE path = ?`,
		&sqlitex.ExecOptions{Args: []any{path}})
	if err != nil {
		c.log.Debug("Font cache delete failed", zap.String("path", path), zap.Error(err))
		return
	}
	for i, key := range faces {
		err := sqlitex.Execute(c.conn,
			`INSERT INTO faces (path, mtime, face, family, bold, italic) VALUES (?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{path, mtime, i, key.Family, boolInt(key.Bold), boolInt(key.Italic)}})
		if err != nil {
			c.log.Debug("Font cache insert failed", zap.String("path", path), zap.Error(err))
			return
		}
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
