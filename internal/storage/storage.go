package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/trenddesk/trenddesk/internal/config"
)

// ProjectStore handles project record operations
type ProjectStore interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	// ListProjects returns all projects in submission order.
	ListProjects(ctx context.Context) ([]Project, error)
	UpsertProject(ctx context.Context, p *Project) error
	// MarkListed flips payment_verified and listed to true in one
	// statement. Both fields are monotonic; there is no reverse
	// operation.
	MarkListed(ctx context.Context, id string) error
}

// VoteStore handles vote set operations
type VoteStore interface {
	// AppendVoter adds voterID to the project's vote set. It returns
	// false when the voter is already present; the set is never
	// double-counted.
	AppendVoter(ctx context.Context, projectID, voterID string) (bool, error)
	CountVotes(ctx context.Context, projectID string) (int, error)
	ListVoters(ctx context.Context, projectID string) ([]string, error)
}

// SnapshotStore handles whole-state export and import
type SnapshotStore interface {
	// Snapshot reads all projects and vote sets in a single
	// transaction.
	Snapshot(ctx context.Context) (*Snapshot, error)
	// ImportSnapshot replaces the stored state with the snapshot
	// atomically. A reader never observes a partial import.
	ImportSnapshot(ctx context.Context, snap *Snapshot) error
}

// APIKeyStore handles API key operations
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, name string) (key string, err error)
	ValidateAPIKey(ctx context.Context, key string) (*APIKey, error)
	ListAPIKeys(ctx context.Context) ([]APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error
}

// Store combines all storage interfaces with lifecycle methods.
// Domain services define their own minimal interfaces based on their actual usage.
type Store interface {
	ProjectStore
	VoteStore
	SnapshotStore
	APIKeyStore

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// Project represents a submitted project
type Project struct {
	ID               string
	Name             string
	Symbol           string
	LogoURL          string
	ContractOrWallet string
	Description      string
	Chain            string // SOL, ETH, BNB or NONE
	SubmittedBy      string
	SubmittedAt      time.Time
	PaymentVerified  bool
	Listed           bool
	// Extra carries fields from imported snapshots that this version
	// does not model. They round-trip opaquely through export.
	Extra map[string]json.RawMessage
}

// Snapshot is the full persisted state: projects in submission order
// plus the vote set of each project.
type Snapshot struct {
	Projects []*Project
	Votes    map[string][]string
}

// APIKey represents an API key
type APIKey struct {
	ID         string
	Name       string
	KeyHash    string
	CreatedAt  string
	LastUsedAt string
	RevokedAt  string
}

// New creates a new store based on configuration
func New(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite.Path, logger)
	case "postgres":
		return NewPostgresStore(cfg.Postgres.URL, logger)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
