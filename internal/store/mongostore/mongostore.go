// Package mongostore implements store.Store over MongoDB collections.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bankroll/internal/idgen"
	"bankroll/internal/models"
	"bankroll/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	GroupsCollection    = "groups"
	PlayersCollection   = "players"
	BalancesCollection  = "balances"
	HistoriesCollection = "balance_histories"
)

// Store is a MongoDB-backed store.Store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// Connect dials uri and pings the server. The database name is the path of
// the URI.
func Connect(ctx context.Context, uri string) (*Store, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MongoDB URI: %w", err)
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		dbName = "bankroll"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return New(client.Database(dbName)), nil
}

// New wraps an already connected database.
func New(db *mongo.Database) *Store {
	return &Store{client: db.Client(), db: db, now: time.Now}
}

// EnsureIndexes creates the lookup and uniqueness indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		GroupsCollection: {
			{Keys: bson.D{{Key: "group_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		PlayersCollection: {
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "player_uid", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		BalancesCollection: {
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "date_ts", Value: -1}}},
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "player_uid", Value: 1}}},
		},
		HistoriesCollection: {
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "changed_at", Value: -1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	return err
}

func (s *Store) stamp(b *models.Base) {
	if b.ID == "" {
		b.ID = idgen.Handle()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now().UTC()
	}
}

func (s *Store) patch(ctx context.Context, coll string, filter bson.M, f store.Fields) error {
	if len(f) == 0 {
		return nil
	}
	res, err := s.db.Collection(coll).UpdateOne(ctx, filter, bson.M{"$set": bson.M(f)})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateGroup inserts a group document.
func (s *Store) CreateGroup(ctx context.Context, g *models.Group) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now().UTC()
	}
	_, err := s.db.Collection(GroupsCollection).InsertOne(ctx, g)
	return translate(err)
}

// GetGroup loads a group by its numeric id.
func (s *Store) GetGroup(ctx context.Context, groupID int64) (*models.Group, error) {
	var g models.Group
	err := s.db.Collection(GroupsCollection).FindOne(ctx, bson.M{"group_id": groupID}).Decode(&g)
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// PatchGroup sets the given group fields.
func (s *Store) PatchGroup(ctx context.Context, groupID int64, f store.Fields) error {
	return s.patch(ctx, GroupsCollection, bson.M{"group_id": groupID}, f)
}

// CreatePlayer inserts a player document.
func (s *Store) CreatePlayer(ctx context.Context, p *models.Player) error {
	s.stamp(&p.Base)
	_, err := s.db.Collection(PlayersCollection).InsertOne(ctx, p)
	return translate(err)
}

// GetPlayer loads the player a user holds in a group.
func (s *Store) GetPlayer(ctx context.Context, groupID int64, uid string) (*models.Player, error) {
	var p models.Player
	err := s.db.Collection(PlayersCollection).
		FindOne(ctx, bson.M{"group_id": groupID, "player_uid": uid}).
		Decode(&p)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ListPlayers returns a group's players ordered by join time.
func (s *Store) ListPlayers(ctx context.Context, groupID int64) ([]models.Player, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.db.Collection(PlayersCollection).Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, translate(err)
	}
	var players []models.Player
	if err := cur.All(ctx, &players); err != nil {
		return nil, err
	}
	return players, nil
}

// PatchPlayer sets the given player fields.
func (s *Store) PatchPlayer(ctx context.Context, handle string, f store.Fields) error {
	return s.patch(ctx, PlayersCollection, bson.M{"_id": handle}, f)
}

// CreateBalance inserts a balance document.
func (s *Store) CreateBalance(ctx context.Context, b *models.Balance) error {
	s.stamp(&b.Base)
	_, err := s.db.Collection(BalancesCollection).InsertOne(ctx, b)
	return translate(err)
}

// GetBalance loads a balance by handle within a group.
func (s *Store) GetBalance(ctx context.Context, groupID int64, handle string) (*models.Balance, error) {
	var b models.Balance
	err := s.db.Collection(BalancesCollection).
		FindOne(ctx, bson.M{"_id": handle, "group_id": groupID}).
		Decode(&b)
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// PatchBalance sets the given balance fields.
func (s *Store) PatchBalance(ctx context.Context, handle string, f store.Fields) error {
	return s.patch(ctx, BalancesCollection, bson.M{"_id": handle}, f)
}

// ListBalances returns the balances selected by q.
func (s *Store) ListBalances(ctx context.Context, q store.BalanceQuery) ([]models.Balance, error) {
	filter := bson.M{"group_id": q.GroupID}
	if q.PlayerUID != "" {
		filter["player_uid"] = q.PlayerUID
	}
	if !q.IncludeDeleted {
		filter["is_deleted"] = false
	}

	opts := options.Find().SetSort(bson.D{{Key: "date_ts", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := s.db.Collection(BalancesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	var balances []models.Balance
	if err := cur.All(ctx, &balances); err != nil {
		return nil, err
	}
	return balances, nil
}

// AppendHistory inserts a history document.
func (s *Store) AppendHistory(ctx context.Context, h *models.HistoryRecord) error {
	s.stamp(&h.Base)
	if h.ChangedAt.IsZero() {
		h.ChangedAt = s.now().UTC()
	}
	_, err := s.db.Collection(HistoriesCollection).InsertOne(ctx, h)
	return translate(err)
}

// ListHistory returns a group's history records.
func (s *Store) ListHistory(ctx context.Context, groupID int64) ([]models.HistoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "changed_at", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := s.db.Collection(HistoriesCollection).Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, translate(err)
	}
	var records []models.HistoryRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Ping checks the server connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ store.Store = (*Store)(nil)
