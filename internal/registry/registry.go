package registry

import (
	"database/sql"
	"fmt"
	"strings"

	"photofind/internal/logging"
	"photofind/internal/mediatypes"
	"photofind/internal/metrics"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Registry is the SQLite-backed metadata index built from XMP sidecars.
type Registry struct {
	db   *sql.DB
	path string
}

// KeyValue is one metadata entry attached to a file.
type KeyValue struct {
	Key   string
	Value string
}

// SearchResult is one row of a metadata search: the media path (sidecar
// suffix already stripped) and the value that matched.
type SearchResult struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// Open opens (creating if needed) the registry database at dbPath.
func Open(dbPath string) (*Registry, error) {
	// WAL keeps importer writes from blocking search reads.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to registry database: %w", err)
	}

	r := &Registry{db: db, path: dbPath}
	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Info("Registry database ready at %s", dbPath)
	return r, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}

func (r *Registry) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS file (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		hash INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS key_value (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id INTEGER NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		FOREIGN KEY (file_id) REFERENCES file(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_key_value_file_id ON key_value(file_id);
	CREATE INDEX IF NOT EXISTS idx_key_value_value ON key_value(value);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("initializing registry schema: %w", err)
	}
	return nil
}

// ListPaths returns every indexed sidecar path, ordered for stable
// background passes.
func (r *Registry) ListPaths() ([]string, error) {
	rows, err := r.db.Query(`SELECT path FROM file ORDER BY path ASC`)
	if err != nil {
		metrics.RegistryQueries.WithLabelValues("list_paths", "error").Inc()
		return nil, fmt.Errorf("listing registry paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			metrics.RegistryQueries.WithLabelValues("list_paths", "error").Inc()
			return nil, fmt.Errorf("scanning registry path: %w", err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		metrics.RegistryQueries.WithLabelValues("list_paths", "error").Inc()
		return nil, fmt.Errorf("iterating registry paths: %w", err)
	}

	metrics.RegistryQueries.WithLabelValues("list_paths", "success").Inc()
	return paths, nil
}

// LookupFile returns the id and content hash recorded for a path.
func (r *Registry) LookupFile(path string) (id int64, hash uint64, found bool, err error) {
	var stored int64
	row := r.db.QueryRow(`SELECT id, hash FROM file WHERE path = ?`, path)
	switch err := row.Scan(&id, &stored); err {
	case nil:
		metrics.RegistryQueries.WithLabelValues("lookup_file", "success").Inc()
		return id, uint64(stored), true, nil
	case sql.ErrNoRows:
		metrics.RegistryQueries.WithLabelValues("lookup_file", "success").Inc()
		return 0, 0, false, nil
	default:
		metrics.RegistryQueries.WithLabelValues("lookup_file", "error").Inc()
		return 0, 0, false, fmt.Errorf("looking up %s: %w", path, err)
	}
}

// UpsertFile records a path with its content hash and returns the file id.
// The hash is stored as a signed 64-bit integer; the bit pattern survives
// the round trip.
func (r *Registry) UpsertFile(path string, hash uint64) (int64, error) {
	_, err := r.db.Exec(`
		INSERT INTO file (path, hash) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET hash = excluded.hash`,
		path, int64(hash))
	if err != nil {
		return 0, fmt.Errorf("upserting %s: %w", path, err)
	}

	var id int64
	if err := r.db.QueryRow(`SELECT id FROM file WHERE path = ?`, path).Scan(&id); err != nil {
		return 0, fmt.Errorf("reading back id for %s: %w", path, err)
	}
	return id, nil
}

// ReplaceKeyValues atomically swaps a file's metadata rows.
func (r *Registry) ReplaceKeyValues(fileID int64, kvs []KeyValue) error {
	tx, err := r.db.Begin()
	if err != nil {
		metrics.RegistryQueries.WithLabelValues("replace_key_values", "error").Inc()
		return fmt.Errorf("beginning metadata transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM key_value WHERE file_id = ?`, fileID); err != nil {
		metrics.RegistryQueries.WithLabelValues("replace_key_values", "error").Inc()
		return fmt.Errorf("clearing metadata for file %d: %w", fileID, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO key_value (file_id, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		metrics.RegistryQueries.WithLabelValues("replace_key_values", "error").Inc()
		return fmt.Errorf("preparing metadata insert: %w", err)
	}
	defer stmt.Close()

	for _, kv := range kvs {
		if _, err := stmt.Exec(fileID, kv.Key, kv.Value); err != nil {
			metrics.RegistryQueries.WithLabelValues("replace_key_values", "error").Inc()
			return fmt.Errorf("inserting metadata %q for file %d: %w", kv.Key, fileID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.RegistryQueries.WithLabelValues("replace_key_values", "error").Inc()
		return fmt.Errorf("committing metadata for file %d: %w", fileID, err)
	}
	metrics.RegistryQueries.WithLabelValues("replace_key_values", "success").Inc()
	return nil
}

// KeyValuesFor returns a file's metadata rows, for tests and debugging.
func (r *Registry) KeyValuesFor(fileID int64) ([]KeyValue, error) {
	rows, err := r.db.Query(`SELECT key, value FROM key_value WHERE file_id = ? ORDER BY id`, fileID)
	if err != nil {
		return nil, fmt.Errorf("reading metadata for file %d: %w", fileID, err)
	}
	defer rows.Close()

	var kvs []KeyValue
	for rows.Next() {
		var kv KeyValue
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, err
		}
		kvs = append(kvs, kv)
	}
	return kvs, rows.Err()
}

// Search finds files whose metadata matches the term. The term splits on
// " AND " into parts that must all match the same metadata value as
// substrings. Result paths have the sidecar suffix stripped so they name
// the media file directly.
func (r *Registry) Search(term string) ([]SearchResult, error) {
	whereClause, params := buildSearchClause(term)

	query := fmt.Sprintf(`
		SELECT file.path, key_value.value
		FROM key_value
		JOIN file ON key_value.file_id = file.id
		%s
		ORDER BY file.path ASC`, whereClause)

	rows, err := r.db.Query(query, params...)
	if err != nil {
		metrics.RegistryQueries.WithLabelValues("search", "error").Inc()
		return nil, fmt.Errorf("searching registry: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var res SearchResult
		if err := rows.Scan(&res.Path, &res.Value); err != nil {
			metrics.RegistryQueries.WithLabelValues("search", "error").Inc()
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		res.Path = mediatypes.StripSidecar(res.Path)
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		metrics.RegistryQueries.WithLabelValues("search", "error").Inc()
		return nil, fmt.Errorf("iterating search rows: %w", err)
	}

	metrics.RegistryQueries.WithLabelValues("search", "success").Inc()
	return results, nil
}

// buildSearchClause turns a search term into a WHERE clause with one LIKE
// per " AND "-separated part.
func buildSearchClause(term string) (string, []interface{}) {
	var parts []string
	for _, p := range strings.Split(term, " AND ") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) <= 1 {
		return "WHERE key_value.value LIKE ?", []interface{}{"%" + term + "%"}
	}

	clauses := make([]string, len(parts))
	params := make([]interface{}, len(parts))
	for i, p := range parts {
		clauses[i] = "key_value.value LIKE ?"
		params[i] = "%" + p + "%"
	}
	return "WHERE " + strings.Join(clauses, " AND "), params
}
