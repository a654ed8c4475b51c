// Package history keeps a persistent record of build sessions in a DuckDB
// database file.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/shadercreator/backend/internal/models"
)

// ErrNotFound is returned when no build has the requested id.
var ErrNotFound = errors.New("build not found")

// ErrInvalidMemoryLimit is returned by Open for a limit DuckDB would not
// accept as a size, such as "512MB" or "1.5GiB".
var ErrInvalidMemoryLimit = errors.New("invalid memory limit")

var reMemoryLimit = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?\s*(?i:b|kb|mb|gb|tb|kib|mib|gib|tib)$`)

// Entry is one recorded build.
type Entry struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	ShaderType   string             `json:"shaderType"`
	Status       models.BuildStatus `json:"status"`
	Material     string             `json:"material,omitempty"`
	ShadingGroup string             `json:"shadingGroup,omitempty"`
	Nodes        []string           `json:"nodes"`
	Assigned     []string           `json:"assigned"`
	Diagnostic   string             `json:"diagnostic,omitempty"`
	Error        string             `json:"error,omitempty"`
	StartedAt    time.Time          `json:"startedAt"`
	DurationMs   int64              `json:"durationMs"`
}

// Recorder persists finished builds.
type Recorder interface {
	Record(ctx context.Context, b *models.BuildSession) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
	Close() error
}

// Options tune the DuckDB connection.
type Options struct {
	Threads     int
	MemoryLimit string
}

// Store is a Recorder backed by a DuckDB file.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

var _ Recorder = (*Store)(nil)

// Open opens or creates the history database at dbPath.
func Open(dbPath string, opts Options) (*Store, error) {
	if opts.Threads <= 0 {
		opts.Threads = 2
	}
	if opts.MemoryLimit == "" {
		opts.MemoryLimit = "256MB"
	}
	if !reMemoryLimit.MatchString(opts.MemoryLimit) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMemoryLimit, opts.MemoryLimit)
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit),
			fmt.Sprintf("PRAGMA threads=%d", opts.Threads),
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS builds (
			id            VARCHAR PRIMARY KEY,
			name          VARCHAR NOT NULL,
			shader_type   VARCHAR NOT NULL,
			status        VARCHAR NOT NULL,
			material      VARCHAR,
			shading_group VARCHAR,
			nodes         VARCHAR,
			assigned      VARCHAR,
			diagnostic    VARCHAR,
			error         VARCHAR,
			started_at    TIMESTAMP NOT NULL,
			duration_ms   BIGINT
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Record inserts or replaces the row for b.
func (s *Store) Record(ctx context.Context, b *models.BuildSession) error {
	nodes, err := json.Marshal(nonNil(b.Nodes))
	if err != nil {
		return err
	}
	assigned, err := json.Marshal(nonNil(b.Assigned))
	if err != nil {
		return err
	}
	var material, sg string
	if b.Network != nil {
		material, sg = b.Network.Material, b.Network.ShadingGroup
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO builds
			(id, name, shader_type, status, material, shading_group, nodes, assigned, diagnostic, error, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Spec.Name, b.Spec.ShaderType, string(b.Status), material, sg,
		string(nodes), string(assigned), b.Diagnostic, b.Error, b.StartedAt.UTC(), b.DurationMs)
	if err != nil {
		return fmt.Errorf("recording build %s: %w", b.ID, err)
	}
	return nil
}

const selectColumns = `id, name, shader_type, status, material, shading_group, nodes, assigned, diagnostic, error, started_at, duration_ms`

// Recent returns up to limit builds, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM builds ORDER BY started_at DESC, id LIMIT %d", selectColumns, limit))
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns one build by id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM builds WHERE id = ?", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Count returns the number of recorded builds.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM builds").Scan(&n)
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e                             Entry
		status                        string
		material, sg, nodes, assigned sql.NullString
		diagnostic, errText           sql.NullString
		duration                      sql.NullInt64
	)
	if err := row.Scan(&e.ID, &e.Name, &e.ShaderType, &status, &material, &sg,
		&nodes, &assigned, &diagnostic, &errText, &e.StartedAt, &duration); err != nil {
		return Entry{}, err
	}
	e.Status = models.BuildStatus(status)
	e.Material = material.String
	e.ShadingGroup = sg.String
	e.Diagnostic = diagnostic.String
	e.Error = errText.String
	e.DurationMs = duration.Int64
	e.Nodes = decodeList(nodes)
	e.Assigned = decodeList(assigned)
	return e, nil
}

func decodeList(s sql.NullString) []string {
	out := []string{}
	if s.Valid && s.String != "" {
		_ = json.Unmarshal([]byte(s.String), &out)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Nop is a Recorder that keeps nothing, used when history is disabled.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) Record(context.Context, *models.BuildSession) error { return nil }
func (Nop) Recent(context.Context, int) ([]Entry, error)       { return []Entry{}, nil }
func (Nop) Close() error                                       { return nil }

func (Nop) Get(_ context.Context, id string) (*Entry, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}
