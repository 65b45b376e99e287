package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/webscraper/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "webscraper.db"

// timestampLayout is the layout used for stored timestamps.
const timestampLayout = "2006-01-02 15:04:05"

// HistoryDB provides SQLite-based storage for past runs.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a scan first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	// Concurrent processes wait for the lock instead of failing at once.
	dsn += "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Pages keep the latest fetch metadata per URL and target
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		target_url TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		status_code INTEGER,
		content_type TEXT,
		hash TEXT,
		size INTEGER,
		headers TEXT,
		UNIQUE(url, target_url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_target ON pages(target_url);

	-- Runs store complete reports as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target_url TEXT NOT NULL,
		link_text TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		policy_url TEXT,
		policy_found INTEGER NOT NULL DEFAULT 0,
		target_hash TEXT,
		policy_hash TEXT,
		report_json TEXT NOT NULL,
		summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target_url);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// PageRecord is the stored metadata of one fetched page.
type PageRecord struct {
	ID          int64
	URL         string
	TargetURL   string
	Timestamp   time.Time
	StatusCode  int
	ContentType string
	Hash        string
	Size        int
	Headers     map[string][]string
}

// UpsertPage inserts or updates the metadata of a page fetched for targetURL.
func (hdb *HistoryDB) UpsertPage(ctx context.Context, targetURL string, page *model.Page) error {
	return upsertPage(ctx, hdb.db, targetURL, page)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertPage(ctx context.Context, ex execer, targetURL string, page *model.Page) error {
	headersJSON, err := json.Marshal(page.Headers)
	if err != nil {
		return fmt.Errorf("failed to serialize headers: %w", err)
	}

	query := `
	INSERT INTO pages (url, target_url, status_code, content_type, hash, size, headers)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url, target_url) DO UPDATE SET
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		hash = excluded.hash,
		size = excluded.size,
		headers = excluded.headers,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err = ex.ExecContext(ctx, query,
		page.URL,
		targetURL,
		page.StatusCode,
		page.ContentType,
		page.Hash,
		page.Size,
		string(headersJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}
	return nil
}

// GetPage returns the stored metadata for url under targetURL,
// or nil when the page was never stored.
func (hdb *HistoryDB) GetPage(ctx context.Context, url, targetURL string) (*PageRecord, error) {
	query := `
	SELECT id, url, target_url, timestamp, status_code, content_type, hash, size, headers
	FROM pages
	WHERE url = ? AND target_url = ?
	`

	var (
		record      PageRecord
		timestamp   string
		headersJSON sql.NullString
	)
	err := hdb.db.QueryRowContext(ctx, query, url, targetURL).Scan(
		&record.ID,
		&record.URL,
		&record.TargetURL,
		&timestamp,
		&record.StatusCode,
		&record.ContentType,
		&record.Hash,
		&record.Size,
		&headersJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	record.Timestamp = parseTimestamp(timestamp)
	if headersJSON.Valid && headersJSON.String != "" {
		if err := json.Unmarshal([]byte(headersJSON.String), &record.Headers); err != nil {
			return nil, fmt.Errorf("failed to parse headers: %w", err)
		}
	}
	return &record, nil
}

// RunSummary holds the counts stored next to each run.
type RunSummary struct {
	ExternalResources int `json:"external_resources"`
	Hyperlinks        int `json:"hyperlinks"`
	DistinctWords     int `json:"distinct_words"`
	TotalWords        int `json:"total_words"`
}

// summarize computes the RunSummary of a report.
func summarize(report *model.Report) RunSummary {
	s := RunSummary{
		ExternalResources: len(report.ExternalResources),
		Hyperlinks:        len(report.Hyperlinks),
	}
	if report.WordFrequency != nil {
		s.DistinctWords = report.WordFrequency.Len()
		s.TotalWords = report.WordFrequency.Total()
	}
	return s
}

// SaveRun stores a report and the metadata of its pages.
// It returns the ID of the new run.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.Report) (int64, error) {
	if report.Error != nil && report.ErrorMessage == "" {
		report.ErrorMessage = report.Error.Error()
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}
	summaryJSON, _ := json.Marshal(summarize(report)) //nolint:errcheck,errchkjson // plain struct of ints

	var targetHash, policyHash string
	if report.Target != nil {
		targetHash = report.Target.Hash
	}
	if report.Policy != nil {
		policyHash = report.Policy.Hash
	}

	query := `
	INSERT INTO runs (target_url, link_text, timestamp, policy_url, policy_found, target_hash, policy_hash, report_json, summary)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	result, err := tx.ExecContext(ctx, query,
		report.TargetURL,
		report.LinkText,
		report.DateScanned.UTC().Format(timestampLayout),
		report.PolicyURL,
		report.PolicyFound,
		targetHash,
		policyHash,
		string(reportJSON),
		string(summaryJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	for _, page := range []*model.Page{report.Target, report.Policy} {
		if page == nil {
			continue
		}
		if err := upsertPage(ctx, tx, report.TargetURL, page); err != nil {
			return 0, err
		}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// GetLatestRun returns the most recent report for targetURL,
// or nil when the target has never been scanned.
func (hdb *HistoryDB) GetLatestRun(ctx context.Context, targetURL string) (*model.Report, error) {
	query := `
	SELECT report_json FROM runs
	WHERE target_url = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`
	return hdb.queryReport(ctx, query, targetURL)
}

// GetRunByID returns the report stored under id, or nil when there is none.
func (hdb *HistoryDB) GetRunByID(ctx context.Context, id int64) (*model.Report, error) {
	query := `
	SELECT report_json FROM runs
	WHERE id = ?
	`
	return hdb.queryReport(ctx, query, id)
}

// queryReport runs a single-row query returning report_json.
func (hdb *HistoryDB) queryReport(ctx context.Context, query string, arg any) (*model.Report, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, arg).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// ListTargets returns every scanned target URL in alphabetical order.
func (hdb *HistoryDB) ListTargets(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT target_url FROM runs
	ORDER BY target_url
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	targets := make([]string, 0)
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying history without loading the full report.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64 `json:"id"`

	// TargetURL is the scanned target.
	TargetURL string `json:"target_url"`

	// LinkText is the link text searched in that run.
	LinkText string `json:"link_text"`

	// Timestamp is when the run started, in UTC.
	Timestamp time.Time `json:"timestamp"`

	// PolicyURL is the resolved URL of the linked page, if found.
	PolicyURL string `json:"policy_url,omitempty"`

	// PolicyFound reports whether the link text was found.
	PolicyFound bool `json:"policy_found"`

	// TargetHash and PolicyHash are the page content hashes.
	TargetHash string `json:"target_hash,omitempty"`
	PolicyHash string `json:"policy_hash,omitempty"`

	// Summary contains the stored counts.
	Summary RunSummary `json:"summary"`
}

// GetRunHistory returns the metadata of every run for targetURL, newest first.
func (hdb *HistoryDB) GetRunHistory(ctx context.Context, targetURL string) ([]RunMetadata, error) {
	query := `
	SELECT id, target_url, link_text, timestamp, policy_url, policy_found, target_hash, policy_hash, summary
	FROM runs
	WHERE target_url = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, targetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	results := make([]RunMetadata, 0)
	for rows.Next() {
		var (
			meta        RunMetadata
			timestamp   string
			policyURL   sql.NullString
			targetHash  sql.NullString
			policyHash  sql.NullString
			summaryJSON sql.NullString
		)
		if err := rows.Scan(
			&meta.ID,
			&meta.TargetURL,
			&meta.LinkText,
			&timestamp,
			&policyURL,
			&meta.PolicyFound,
			&targetHash,
			&policyHash,
			&summaryJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.PolicyURL = policyURL.String
		meta.TargetHash = targetHash.String
		meta.PolicyHash = policyHash.String
		if summaryJSON.Valid && summaryJSON.String != "" {
			// A damaged summary leaves the counts at zero.
			_ = json.Unmarshal([]byte(summaryJSON.String), &meta.Summary)
		}

		results = append(results, meta)
	}
	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,           // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
