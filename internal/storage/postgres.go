package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres store
func NewPostgresStore(url string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	-- Projects
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		seq BIGSERIAL,
		name TEXT NOT NULL,
		symbol TEXT,
		logo_url TEXT,
		contract_or_wallet TEXT,
		description TEXT,
		chain TEXT NOT NULL DEFAULT 'NONE',
		submitted_by TEXT,
		submitted_at TIMESTAMPTZ NOT NULL,
		payment_verified BOOLEAN NOT NULL DEFAULT FALSE,
		listed BOOLEAN NOT NULL DEFAULT FALSE,
		extra JSONB
	);

	-- Vote sets
	CREATE TABLE IF NOT EXISTS votes (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		voter_id TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		UNIQUE(project_id, voter_id)
	);

	-- API keys
	CREATE TABLE IF NOT EXISTS api_keys (
		id UUID PRIMARY KEY,
		key_hash TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		last_used_at TIMESTAMPTZ,
		revoked_at TIMESTAMPTZ
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

// CreateProject creates a new pending project
func (s *PostgresStore) CreateProject(ctx context.Context, p *Project) error {
	extra, err := encodePgExtra(p.Extra)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, symbol, logo_url, contract_or_wallet, description, chain, submitted_by, submitted_at, payment_verified, listed, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`, p.ID, p.Name, p.Symbol, p.LogoURL, p.ContractOrWallet, p.Description, p.Chain, p.SubmittedBy,
		p.SubmittedAt.UTC(), p.PaymentVerified, p.Listed, extra)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExists
	}
	return nil
}

const pgProjectColumns = `id, name, symbol, logo_url, contract_or_wallet, description, chain, submitted_by, submitted_at, payment_verified, listed, extra`

func scanPgProject(row interface{ Scan(dest ...any) error }) (*Project, error) {
	var p Project
	var symbol, logo, contract, desc, submittedBy, extra sql.NullString
	var submittedAt time.Time
	err := row.Scan(&p.ID, &p.Name, &symbol, &logo, &contract, &desc, &p.Chain, &submittedBy, &submittedAt, &p.PaymentVerified, &p.Listed, &extra)
	if err != nil {
		return nil, err
	}
	p.Symbol = symbol.String
	p.LogoURL = logo.String
	p.ContractOrWallet = contract.String
	p.Description = desc.String
	p.SubmittedBy = submittedBy.String
	p.SubmittedAt = submittedAt
	if extra.Valid && extra.String != "" {
		if err := json.Unmarshal([]byte(extra.String), &p.Extra); err != nil {
			return nil, fmt.Errorf("decoding extra fields: %w", err)
		}
	}
	return &p, nil
}

func encodePgExtra(extra map[string]json.RawMessage) (any, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("encoding extra fields: %w", err)
	}
	return string(raw), nil
}

// GetProject retrieves a project by id
func (s *PostgresStore) GetProject(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pgProjectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanPgProject(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// ListProjects returns all projects in submission order
func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pgProjectColumns+` FROM projects ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanPgProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpsertProject inserts or overwrites a project record
func (s *PostgresStore) UpsertProject(ctx context.Context, p *Project) error {
	extra, err := encodePgExtra(p.Extra)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, symbol, logo_url, contract_or_wallet, description, chain, submitted_by, submitted_at, payment_verified, listed, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, symbol = EXCLUDED.symbol, logo_url = EXCLUDED.logo_url,
			contract_or_wallet = EXCLUDED.contract_or_wallet, description = EXCLUDED.description,
			chain = EXCLUDED.chain, submitted_by = EXCLUDED.submitted_by, submitted_at = EXCLUDED.submitted_at,
			payment_verified = EXCLUDED.payment_verified, listed = EXCLUDED.listed, extra = EXCLUDED.extra
	`, p.ID, p.Name, p.Symbol, p.LogoURL, p.ContractOrWallet, p.Description, p.Chain, p.SubmittedBy,
		p.SubmittedAt.UTC(), p.PaymentVerified, p.Listed, extra)
	return err
}

// MarkListed sets payment_verified and listed in a single statement
func (s *PostgresStore) MarkListed(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE projects SET payment_verified = TRUE, listed = TRUE WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendVoter adds a voter to a project's vote set
func (s *PostgresStore) AppendVoter(ctx context.Context, projectID, voterID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO votes (project_id, voter_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", projectID, voterID)
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
func (s *PostgresStore) CountVotes(ctx context.Context, projectID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM votes WHERE project_id = $1", projectID).Scan(&count)
	return count, err
}

// ListVoters returns a project's voters in vote order
func (s *PostgresStore) ListVoters(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT voter_id FROM votes WHERE project_id = $1 ORDER BY created_at", projectID)
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
func (s *PostgresStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	snap := &Snapshot{Votes: map[string][]string{}}

	rows, err := tx.QueryContext(ctx, `SELECT `+pgProjectColumns+` FROM projects ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		p, err := scanPgProject(rows)
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

	voteRows, err := tx.QueryContext(ctx, "SELECT project_id, voter_id FROM votes ORDER BY created_at")
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
func (s *PostgresStore) ImportSnapshot(ctx context.Context, snap *Snapshot) error {
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

	for _, p := range snap.Projects {
		extra, err := encodePgExtra(p.Extra)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, name, symbol, logo_url, contract_or_wallet, description, chain, submitted_by, submitted_at, payment_verified, listed, extra)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, p.ID, p.Name, p.Symbol, p.LogoURL, p.ContractOrWallet, p.Description, p.Chain, p.SubmittedBy,
			p.SubmittedAt.UTC(), p.PaymentVerified, p.Listed, extra); err != nil {
			return fmt.Errorf("importing project %s: %w", p.ID, err)
		}
	}
	for pid, voters := range snap.Votes {
		for _, voter := range voters {
			if _, err := tx.ExecContext(ctx, "INSERT INTO votes (project_id, voter_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", pid, voter); err != nil {
				return fmt.Errorf("importing votes for %s: %w", pid, err)
			}
		}
	}
	return tx.Commit()
}

// CreateAPIKey creates a new API key
func (s *PostgresStore) CreateAPIKey(ctx context.Context, name string) (string, error) {
	key := generateAPIKey()
	hash := hashAPIKey(key)
	id := generateID()
	_, err := s.db.ExecContext(ctx, "INSERT INTO api_keys (id, key_hash, name) VALUES ($1, $2, $3)", id, hash, name)
	if err != nil {
		return "", err
	}
	return key, nil
}

// ValidateAPIKey validates an API key
func (s *PostgresStore) ValidateAPIKey(ctx context.Context, key string) (*APIKey, error) {
	hash := hashAPIKey(key)
	var ak APIKey
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, "SELECT id, key_hash, name, created_at FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL", hash).Scan(
		&ak.ID, &ak.KeyHash, &ak.Name, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ak.CreatedAt = createdAt.Format(time.RFC3339)
	_, _ = s.db.ExecContext(ctx, "UPDATE api_keys SET last_used_at = NOW() WHERE id = $1", ak.ID)
	return &ak, nil
}

// ListAPIKeys lists all API keys
func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, created_at, last_used_at FROM api_keys WHERE revoked_at IS NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		var createdAt time.Time
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.ID, &k.Name, &createdAt, &lastUsed); err != nil {
			return nil, err
		}
		k.CreatedAt = createdAt.Format(time.RFC3339)
		if lastUsed.Valid {
			k.LastUsedAt = lastUsed.Time.Format(time.RFC3339)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RevokeAPIKey revokes an API key
func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE api_keys SET revoked_at = NOW() WHERE id = $1", id)
	return err
}
