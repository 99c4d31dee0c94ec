// Package archive provides the durable SQLite index of produced campaign
// packages. The JSON package files on disk are the source of truth; the
// archive exists so `hype list` and `hype show` can query campaigns without
// walking the output directory.
package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/dyluth/hype/pkg/campaign"
)

// DB wraps a SQLite connection for the campaign archive.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates the archive database at the given path.
// The connection runs in WAL mode with a 5s busy timeout so a `hype list`
// can read while a pipeline run is writing.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		title TEXT NOT NULL,
		city TEXT NOT NULL,
		score INTEGER NOT NULL,
		package_path TEXT NOT NULL,
		image_status TEXT NOT NULL,
		image_path TEXT,
		created_at_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_campaigns_created ON campaigns(created_at_ms);
	CREATE INDEX IF NOT EXISTS idx_campaigns_run ON campaigns(run_id);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Row is one archived campaign.
type Row struct {
	ID          string `db:"id" json:"id"`
	RunID       string `db:"run_id" json:"run_id"`
	Title       string `db:"title" json:"title"`
	City        string `db:"city" json:"city"`
	Score       int    `db:"score" json:"score"`
	PackagePath string `db:"package_path" json:"package_path"`
	ImageStatus string `db:"image_status" json:"image_status"`
	ImagePath   string `db:"image_path" json:"image_path,omitempty"`
	CreatedAtMs int64  `db:"created_at_ms" json:"created_at_ms"`
}

// ErrNotFound is returned by Get when no campaign matches the ID.
var ErrNotFound = errors.New("campaign not found")

// Insert records one produced campaign package and the path its JSON file
// was written to.
func (db *DB) Insert(pkg *campaign.CampaignPackage, packagePath string) error {
	_, err := db.conn.Exec(`
		INSERT INTO campaigns (id, run_id, title, city, score, package_path, image_status, image_path, created_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pkg.ID,
		pkg.RunID,
		pkg.SourceEvent.Event.Title,
		pkg.SourceEvent.Event.Location,
		pkg.SourceEvent.Score,
		packagePath,
		string(pkg.Visual.Status),
		pkg.Visual.Path,
		pkg.CreatedAtMs,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// Criteria defines filtering options for listing archived campaigns.
// All filters are ANDed together; zero values mean "no filter".
type Criteria struct {
	SinceTimestampMs int64  // Campaigns created at or after this time
	UntilTimestampMs int64  // Campaigns created at or before this time
	City             string // Exact match on city
	MinScore         int    // Minimum marketing potential score
}

// List returns archived campaigns matching the criteria, oldest first.
func (db *DB) List(c Criteria) ([]Row, error) {
	query := `SELECT id, run_id, title, city, score, package_path, image_status, COALESCE(image_path, '') AS image_path, created_at_ms
		FROM campaigns WHERE 1=1`
	args := []any{}

	if c.SinceTimestampMs > 0 {
		query += " AND created_at_ms >= ?"
		args = append(args, c.SinceTimestampMs)
	}
	if c.UntilTimestampMs > 0 {
		query += " AND created_at_ms <= ?"
		args = append(args, c.UntilTimestampMs)
	}
	if c.City != "" {
		query += " AND city = ?"
		args = append(args, c.City)
	}
	if c.MinScore > 0 {
		query += " AND score >= ?"
		args = append(args, c.MinScore)
	}
	query += " ORDER BY created_at_ms ASC"

	var rows []Row
	if err := db.conn.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return rows, nil
}

// Get returns one archived campaign by ID, or ErrNotFound.
func (db *DB) Get(id string) (*Row, error) {
	var row Row
	err := db.conn.Get(&row, `
		SELECT id, run_id, title, city, score, package_path, image_status, COALESCE(image_path, '') AS image_path, created_at_ms
		FROM campaigns WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return &row, nil
}

// Age returns a human-readable age for a created_at_ms timestamp.
func Age(createdAtMs int64, now time.Time) string {
	created := time.UnixMilli(createdAtMs)
	d := now.Sub(created)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
