package blob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // registers the postgres driver
)

const schema = `CREATE TABLE IF NOT EXISTS triage_blobs (
	path       TEXT PRIMARY KEY,
	data       BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres implements Backend on a single table keyed by path.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects, pings and makes sure the table exists.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	p := NewPostgres(db)
	if err = p.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the blob table if it is missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create blob table: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) Read(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT data FROM triage_blobs WHERE path = $1`, path).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (p *Postgres) Write(ctx context.Context, path string, data []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO triage_blobs (path, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		path, data)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (p *Postgres) Create(ctx context.Context, path string, data []byte) error {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO triage_blobs (path, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (path) DO NOTHING`,
		path, data)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, path string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM triage_blobs WHERE path = $1`, path)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, prefix string) ([]string, error) {
	dir := listDir(prefix)
	rows, err := p.db.QueryContext(ctx, `
		SELECT path FROM triage_blobs
		WHERE left(path, length($1)) = $1
		ORDER BY path`, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err = rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		if directlyUnder(dir, path) {
			paths = append(paths, path)
		}
	}
	return paths, rows.Err()
}

// listDir normalizes a List prefix to "" or "dir/".
func listDir(prefix string) string {
	dir := strings.Trim(prefix, "/")
	if dir != "" {
		dir += "/"
	}
	return dir
}

// directlyUnder reports whether path sits in dir itself rather than in one of
// its subdirectories.
func directlyUnder(dir, path string) bool {
	rest, ok := strings.CutPrefix(path, dir)
	return ok && rest != "" && !strings.Contains(rest, "/")
}

func (p *Postgres) Exists(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM triage_blobs WHERE path = $1)`, path).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence of %s: %w", path, err)
	}
	return exists, nil
}
