package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgunning/filingnotes/internal/filing"
	_ "modernc.org/sqlite"
)

// Schema for the filing index. Applied on Open.
const schema = `
CREATE TABLE IF NOT EXISTS filings (
	accession_number TEXT PRIMARY KEY,
	ticker TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	filing_type TEXT NOT NULL,
	filing_date TEXT NOT NULL DEFAULT '',
	artifact_path TEXT NOT NULL,
	content_hash TEXT NOT NULL DEFAULT '',
	sections INTEGER NOT NULL DEFAULT 0,
	tables INTEGER NOT NULL DEFAULT 0,
	parse_failures INTEGER NOT NULL DEFAULT 0,
	unmatched_headings INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_filings_ticker ON filings(ticker);

CREATE TABLE IF NOT EXISTS diagnostics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	accession_number TEXT NOT NULL,
	kind TEXT NOT NULL,
	section TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_diagnostics_accession ON diagnostics(accession_number);
`

// ErrNotFound is returned when no filing exists for an accession number.
var ErrNotFound = errors.New("filing not found")

// RetryableError indicates a transient store failure that can be retried.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// Record is one row of the filing index.
type Record struct {
	AccessionNumber string    `json:"accession_number"`
	Ticker          string    `json:"ticker"`
	Company         string    `json:"company"`
	FilingType      string    `json:"filing_type"`
	FilingDate      string    `json:"filing_date"`
	ArtifactPath    string    `json:"artifact_path"`
	ContentHash     string    `json:"content_hash"`
	Sections        int       `json:"sections"`
	Tables          int       `json:"tables"`
	ParseFailures   int       `json:"parse_failures"`
	Unmatched       int       `json:"unmatched_headings"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store persists rendered artifacts on the filesystem and indexes them in
// SQLite.
type Store struct {
	dir string
	db  *sql.DB
	log *slog.Logger
}

// Open prepares the artifact directory and the index database.
func Open(dir, dbPath string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Single connection: modernc sqlite is single-writer, and pragmas plus
	// :memory: databases are per-connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{dir: dir, db: db, log: log}, nil
}

// Close closes the index database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ArtifactFilename builds the artifact file name for a filing:
// "<ticker>_<filing_type>_notes.md", falling back to the accession number
// when no ticker is known.
func ArtifactFilename(ticker, filingType, accession string) string {
	base := ticker
	if base == "" {
		base = accession
	}
	return sanitizeName(strings.ToLower(base + "_" + filingType + "_notes.md"))
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

const upsertFiling = `
INSERT INTO filings (accession_number, ticker, company, filing_type, filing_date,
	artifact_path, content_hash, sections, tables, parse_failures,
	unmatched_headings, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(accession_number) DO UPDATE SET
	ticker = excluded.ticker,
	company = excluded.company,
	filing_type = excluded.filing_type,
	filing_date = excluded.filing_date,
	artifact_path = excluded.artifact_path,
	content_hash = excluded.content_hash,
	sections = excluded.sections,
	tables = excluded.tables,
	parse_failures = excluded.parse_failures,
	unmatched_headings = excluded.unmatched_headings,
	status = excluded.status`

// Save writes the artifact file and upserts the index row plus its
// diagnostics. All failures are transient from the caller's perspective and
// wrapped in RetryableError.
func (s *Store) Save(ctx context.Context, rec Record, artifact []byte, diags filing.Diagnostics) (Record, error) {
	name := ArtifactFilename(rec.Ticker, rec.FilingType, rec.AccessionNumber)
	path, err := s.writeArtifact(name, artifact)
	if err != nil {
		return rec, &RetryableError{Op: "write artifact", Err: err}
	}
	rec.ArtifactPath = path
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rec, &RetryableError{Op: "begin tx", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, upsertFiling,
		rec.AccessionNumber, rec.Ticker, rec.Company, rec.FilingType, rec.FilingDate,
		rec.ArtifactPath, rec.ContentHash, rec.Sections, rec.Tables, rec.ParseFailures,
		rec.Unmatched, rec.Status, rec.CreatedAt.Unix())
	if err != nil {
		return rec, &RetryableError{Op: "upsert filing", Err: err}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM diagnostics WHERE accession_number = ?`, rec.AccessionNumber); err != nil {
		return rec, &RetryableError{Op: "clear diagnostics", Err: err}
	}
	for _, d := range diags {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO diagnostics (accession_number, kind, section, detail) VALUES (?, ?, ?, ?)`,
			rec.AccessionNumber, string(d.Kind), d.Section, d.Detail)
		if err != nil {
			return rec, &RetryableError{Op: "insert diagnostic", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return rec, &RetryableError{Op: "commit", Err: err}
	}
	return rec, nil
}

// writeArtifact writes atomically: temp file in the same directory, then
// rename.
func (s *Store) writeArtifact(name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, ".artifact-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	return path, nil
}

const selectFiling = `
SELECT accession_number, ticker, company, filing_type, filing_date,
	artifact_path, content_hash, sections, tables, parse_failures,
	unmatched_headings, status, created_at
FROM filings`

// List returns index records, newest first. An empty ticker returns all
// filings.
func (s *Store) List(ctx context.Context, ticker string) ([]Record, error) {
	query := selectFiling + " ORDER BY created_at DESC, accession_number"
	args := []any{}
	if ticker != "" {
		query = selectFiling + " WHERE ticker = ? ORDER BY created_at DESC, accession_number"
		args = append(args, ticker)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list filings: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Get returns the index record for one accession number.
func (s *Store) Get(ctx context.Context, accession string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectFiling+" WHERE accession_number = ?", accession)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var createdAt int64
	err := row.Scan(&rec.AccessionNumber, &rec.Ticker, &rec.Company, &rec.FilingType,
		&rec.FilingDate, &rec.ArtifactPath, &rec.ContentHash, &rec.Sections, &rec.Tables,
		&rec.ParseFailures, &rec.Unmatched, &rec.Status, &createdAt)
	if err != nil {
		return rec, err
	}
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return rec, nil
}

// Artifact reads back the stored artifact for one accession number.
func (s *Store) Artifact(ctx context.Context, accession string) ([]byte, error) {
	rec, err := s.Get(ctx, accession)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(rec.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// Diagnostics returns the stored diagnostics for one accession number.
func (s *Store) Diagnostics(ctx context.Context, accession string) (filing.Diagnostics, error) {
	if _, err := s.Get(ctx, accession); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, section, detail FROM diagnostics WHERE accession_number = ? ORDER BY id`,
		accession)
	if err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	defer rows.Close()

	diags := filing.Diagnostics{}
	for rows.Next() {
		var d filing.Diagnostic
		var kind string
		if err := rows.Scan(&kind, &d.Section, &d.Detail); err != nil {
			return nil, err
		}
		d.Kind = filing.DiagKind(kind)
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

// Delete removes the index row, its diagnostics and the artifact file.
func (s *Store) Delete(ctx context.Context, accession string) error {
	rec, err := s.Get(ctx, accession)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM diagnostics WHERE accession_number = ?`, accession); err != nil {
		return fmt.Errorf("delete diagnostics: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM filings WHERE accession_number = ?`, accession); err != nil {
		return fmt.Errorf("delete filing: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if err := os.Remove(rec.ArtifactPath); err != nil && !os.IsNotExist(err) {
		s.log.Warn("artifact file removal failed", "path", rec.ArtifactPath, "error", err)
	}
	return nil
}
