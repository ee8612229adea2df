package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	schema := `
	-- Projects. seq preserves submission order for leaderboard
	-- tie-breaks.
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL,
		symbol TEXT,
		logo_url TEXT,
		contract_or_wallet TEXT,
		description TEXT,
		chain TEXT NOT NULL DEFAULT 'NONE',
		submitted_by TEXT,
		submitted_at TEXT NOT NULL,
		payment_verified INTEGER NOT NULL DEFAULT 0,
		listed INTEGER NOT NULL DEFAULT 0,
		extra TEXT
	);

	-- Vote sets. The unique constraint is what makes AppendVoter
	-- idempotent.
	CREATE TABLE IF NOT EXISTS votes (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		voter_id TEXT NOT NULL,
		created_at TEXT DEFAULT (datetime('now')),
		UNIQUE(project_id, voter_id)
	);

	-- API keys
	CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		key_hash TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TEXT DEFAULT (datetime('now')),
		last_used_at TEXT,
		revoked_at TEXT
	);

	-- Indexes
	CREATE INDEX IF NOT EXISTS idx_projects_seq ON projects(seq);
	CREATE INDEX IF NOT EXISTS idx_votes_project ON votes(project_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Info("database migrations complete")
	return nil
}

func nextSeq(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}) (int64, error) {
	var seq int64
	err := q.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) + 1 FROM projects").Scan(&seq)
	return seq, err
}

// CreateProject creates a new pending project
func (s *SQLiteStore) CreateProject(ctx context.Context, p *Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects WHERE id = ?", p.ID).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrExists
	}

	seq, err := nextSeq(ctx, tx)
	if err != nil {
		return err
	}
	if err := insertProject(ctx, tx, p, seq); err != nil {
		return err
	}
	return tx.Commit()
}

func insertProject(ctx context.Context, tx *sql.Tx, p *Project, seq int64) error {
	extra, err := encodeExtra(p.Extra)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, seq, name, symbol, logo_url, contract_or_wallet, description, chain, submitted_by, submitted_at, payment_verified, listed, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, seq, p.Name, p.Symbol, p.LogoURL, p.ContractOrWallet, p.Description, p.Chain, p.SubmittedBy,
		p.SubmittedAt.UTC().Format(time.RFC3339Nano), p.PaymentVerified, p.Listed, extra)
	return err
}

const projectColumns = `id, name, symbol, logo_url, contract_or_wallet, description, chain, submitted_by, submitted_at, payment_verified, listed, extra`

func scanProject(row interface{ Scan(dest ...any) error }) (*Project, error) {
	var p Project
	var symbol, logo, contract, desc, submittedBy, extra sql.NullString
	var submittedAt string
	err := row.Scan(&p.ID, &p.Name, &symbol, &logo, &contract, &desc, &p.Chain, &submittedBy, &submittedAt, &p.PaymentVerified, &p.Listed, &extra)
	if err != nil {
		return nil, err
	}
	p.Symbol = symbol.String
	p.LogoURL = logo.String
	p.ContractOrWallet = contract.String
	p.Description = desc.String
	p.SubmittedBy = submittedBy.String
	if t, err := time.Parse(time.RFC3339Nano, submittedAt); err == nil {
		p.SubmittedAt = t
	}
	if extra.Valid && extra.String != "" {
		if err := json.Unmarshal([]byte(extra.String), &p.Extra); err != nil {
			return nil, fmt.Errorf("decoding extra fields: %w", err)
		}
	}
	return &p, nil
}

func encodeExtra(extra map[string]json.RawMessage) (sql.NullString, error) {
	if len(extra) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding extra fields: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

// GetProject retrieves a project by id
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// ListProjects returns all projects in submission order
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY seq, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpsertProject inserts or overwrites a project record
func (s *SQLiteStore) UpsertProject(ctx context.Context, p *Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	extra, err := encodeExtra(p.Extra)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE projects SET name = ?, symbol = ?, logo_url = ?, contract_or_wallet = ?, description = ?, chain = ?, submitted_by = ?, submitted_at = ?, payment_verified = ?, listed = ?, extra = ?
		WHERE id = ?
	`, p.Name, p.Symbol, p.LogoURL, p.ContractOrWallet, p.Description, p.Chain, p.SubmittedBy,
		p.SubmittedAt.UTC().Format(time.RFC3339Nano), p.PaymentVerified, p.Listed, extra, p.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		seq, err := nextSeq(ctx, tx)
		if err != nil {
			return err
		}
		if err := insertProject(ctx, tx, p, seq); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// MarkListed sets payment_verified and listed in a single statement
func (s *SQLiteStore) MarkListed(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE projects SET payment_verified = 1, listed = 1 WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendVoter adds a voter to a project's vote set
func (s *SQLiteStore) AppendVoter(ctx context.Context, projectID, voterID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO votes (project_id, voter_id) VALUES (?, ?)", projectID, voterID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountVotes returns the size of a project's vote set
func (s *SQLiteStore) CountVotes(ctx context.Context, projectID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM votes WHERE project_id = ?", projectID).Scan(&count)
	return count, err
}

// ListVoters returns a project's voters in vote order
func (s *SQLiteStore) ListVoters(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT voter_id FROM votes WHERE project_id = ? ORDER BY rowid", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var voters []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		voters = append(voters, v)
	}
	return voters, rows.Err()
}

// Snapshot reads all projects and votes in one transaction
func (s *SQLiteStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	snap := &Snapshot{Votes: map[string][]string{}}

	rows, err := tx.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY seq, rowid`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		snap.Projects = append(snap.Projects, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	voteRows, err := tx.QueryContext(ctx, "SELECT project_id, voter_id FROM votes ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer voteRows.Close()
	for voteRows.Next() {
		var pid, voter string
		if err := voteRows.Scan(&pid, &voter); err != nil {
			return nil, err
		}
		snap.Votes[pid] = append(snap.Votes[pid], voter)
	}
	return snap, voteRows.Err()
}

// ImportSnapshot replaces all stored state atomically
func (s *SQLiteStore) ImportSnapshot(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM votes"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM projects"); err != nil {
		return err
	}

	for i, p := range snap.Projects {
		if err := insertProject(ctx, tx, p, int64(i+1)); err != nil {
			return fmt.Errorf("importing project %s: %w", p.ID, err)
		}
	}
	for pid, voters := range snap.Votes {
		for _, voter := range voters {
			if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO votes (project_id, voter_id) VALUES (?, ?)", pid, voter); err != nil {
				return fmt.Errorf("importing votes for %s: %w", pid, err)
			}
		}
	}
	return tx.Commit()
}

// CreateAPIKey creates a new API key
func (s *SQLiteStore) CreateAPIKey(ctx context.Context, name string) (string, error) {
	key := generateAPIKey()
	hash := hashAPIKey(key)
	id := generateID()
	_, err := s.db.ExecContext(ctx, "INSERT INTO api_keys (id, key_hash, name, created_at) VALUES (?, ?, ?, datetime('now'))", id, hash, name)
	if err != nil {
		return "", err
	}
	return key, nil
}

// ValidateAPIKey validates an API key
func (s *SQLiteStore) ValidateAPIKey(ctx context.Context, key string) (*APIKey, error) {
	hash := hashAPIKey(key)
	var ak APIKey
	err := s.db.QueryRowContext(ctx, "SELECT id, key_hash, name, created_at FROM api_keys WHERE key_hash = ? AND revoked_at IS NULL", hash).Scan(
		&ak.ID, &ak.KeyHash, &ak.Name, &ak.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	_, _ = s.db.ExecContext(ctx, "UPDATE api_keys SET last_used_at = datetime('now') WHERE id = ?", ak.ID)
	return &ak, nil
}

// ListAPIKeys lists all API keys
func (s *SQLiteStore) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, created_at, last_used_at FROM api_keys WHERE revoked_at IS NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		var lastUsed sql.NullString
		if err := rows.Scan(&k.ID, &k.Name, &k.CreatedAt, &lastUsed); err != nil {
			return nil, err
		}
		if lastUsed.Valid {
			k.LastUsedAt = lastUsed.String
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RevokeAPIKey revokes an API key
func (s *SQLiteStore) RevokeAPIKey(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE api_keys SET revoked_at = datetime('now') WHERE id = ?", id)
	return err
}
