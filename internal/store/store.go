// Package store defines the document store the bankroll services persist to.
// Every call is an independent write or read; there are no transactions
// spanning calls.
package store

import (
	"context"
	"errors"

	"bankroll/internal/models"
)

// ErrNotFound is returned when an addressed document does not exist.
var ErrNotFound = errors.New("store: document not found")

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("store: document already exists")

// Fields is a partial update keyed by column (and document field) name.
type Fields map[string]any

// BalanceQuery selects balances of one group.
type BalanceQuery struct {
	GroupID        int64
	PlayerUID      string
	IncludeDeleted bool
}

// Store is implemented by every persistence backend.
type Store interface {
	CreateGroup(ctx context.Context, g *models.Group) error
	GetGroup(ctx context.Context, groupID int64) (*models.Group, error)
	PatchGroup(ctx context.Context, groupID int64, f Fields) error

	CreatePlayer(ctx context.Context, p *models.Player) error
	GetPlayer(ctx context.Context, groupID int64, uid string) (*models.Player, error)
	ListPlayers(ctx context.Context, groupID int64) ([]models.Player, error)
	PatchPlayer(ctx context.Context, handle string, f Fields) error

	// CreateBalance assigns the document handle before returning.
	CreateBalance(ctx context.Context, b *models.Balance) error
	GetBalance(ctx context.Context, groupID int64, handle string) (*models.Balance, error)
	PatchBalance(ctx context.Context, handle string, f Fields) error
	// ListBalances returns balances newest session first.
	ListBalances(ctx context.Context, q BalanceQuery) ([]models.Balance, error)

	// AppendHistory stamps ChangedAt with the store clock when it is zero.
	AppendHistory(ctx context.Context, h *models.HistoryRecord) error
	// ListHistory returns a group's records, most recent change first.
	ListHistory(ctx context.Context, groupID int64) ([]models.HistoryRecord, error)

	Ping(ctx context.Context) error
	Close() error
}
