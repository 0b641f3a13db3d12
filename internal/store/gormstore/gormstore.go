// Package gormstore implements store.Store over GORM for PostgreSQL and
// SQLite.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bankroll/internal/models"
	"bankroll/internal/store"

	"gorm.io/gorm"
)

// Models lists every table the store reads or writes.
var Models = []interface{}{
	&models.Group{},
	&models.Player{},
	&models.Balance{},
	&models.HistoryRecord{},
}

// Store is a GORM-backed store.Store.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New wraps an open GORM connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// AutoMigrate creates or updates the schema from the models. Used for SQLite;
// PostgreSQL deployments run the SQL migrations instead.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(Models...)
}

// DB returns the underlying GORM handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	return err
}

func (s *Store) patch(ctx context.Context, model interface{}, where string, arg interface{}, f store.Fields) error {
	if len(f) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(model).Where(where, arg).Updates(map[string]interface{}(f))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateGroup inserts a group.
func (s *Store) CreateGroup(ctx context.Context, g *models.Group) error {
	return translate(s.db.WithContext(ctx).Create(g).Error)
}

// GetGroup loads a group by its numeric id.
func (s *Store) GetGroup(ctx context.Context, groupID int64) (*models.Group, error) {
	var g models.Group
	if err := s.db.WithContext(ctx).Where("group_id = ?", groupID).First(&g).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// PatchGroup updates the given group fields.
func (s *Store) PatchGroup(ctx context.Context, groupID int64, f store.Fields) error {
	return s.patch(ctx, &models.Group{}, "group_id = ?", groupID, f)
}

// CreatePlayer inserts a player. A second player with the same uid in the
// same group yields store.ErrConflict.
func (s *Store) CreatePlayer(ctx context.Context, p *models.Player) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

// GetPlayer loads the player a user holds in a group.
func (s *Store) GetPlayer(ctx context.Context, groupID int64, uid string) (*models.Player, error) {
	var p models.Player
	err := s.db.WithContext(ctx).
		Where("group_id = ? AND player_uid = ?", groupID, uid).
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ListPlayers returns a group's players ordered by join time.
func (s *Store) ListPlayers(ctx context.Context, groupID int64) ([]models.Player, error) {
	var players []models.Player
	err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&players).Error
	if err != nil {
		return nil, translate(err)
	}
	return players, nil
}

// PatchPlayer updates the given player fields.
func (s *Store) PatchPlayer(ctx context.Context, handle string, f store.Fields) error {
	return s.patch(ctx, &models.Player{}, "id = ?", handle, f)
}

// CreateBalance inserts a balance.
func (s *Store) CreateBalance(ctx context.Context, b *models.Balance) error {
	return translate(s.db.WithContext(ctx).Create(b).Error)
}

// GetBalance loads a balance by handle within a group. Deleted balances are
// returned too.
func (s *Store) GetBalance(ctx context.Context, groupID int64, handle string) (*models.Balance, error) {
	var b models.Balance
	err := s.db.WithContext(ctx).
		Where("id = ? AND group_id = ?", handle, groupID).
		First(&b).Error
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// PatchBalance updates the given balance fields.
func (s *Store) PatchBalance(ctx context.Context, handle string, f store.Fields) error {
	return s.patch(ctx, &models.Balance{}, "id = ?", handle, f)
}

// ListBalances returns the balances selected by q.
func (s *Store) ListBalances(ctx context.Context, q store.BalanceQuery) ([]models.Balance, error) {
	tx := s.db.WithContext(ctx).Where("group_id = ?", q.GroupID)
	if q.PlayerUID != "" {
		tx = tx.Where("player_uid = ?", q.PlayerUID)
	}
	if !q.IncludeDeleted {
		tx = tx.Where("is_deleted = ?", false)
	}

	var balances []models.Balance
	if err := tx.Order("date_ts DESC").Order("created_at DESC").Find(&balances).Error; err != nil {
		return nil, translate(err)
	}
	return balances, nil
}

// AppendHistory inserts a history record.
func (s *Store) AppendHistory(ctx context.Context, h *models.HistoryRecord) error {
	if h.ChangedAt.IsZero() {
		h.ChangedAt = s.now().UTC()
	}
	return translate(s.db.WithContext(ctx).Create(h).Error)
}

// ListHistory returns a group's history records.
func (s *Store) ListHistory(ctx context.Context, groupID int64) ([]models.HistoryRecord, error) {
	var records []models.HistoryRecord
	err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("changed_at DESC").
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, translate(err)
	}
	return records, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ store.Store = (*Store)(nil)
