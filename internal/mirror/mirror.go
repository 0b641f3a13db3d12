// Package mirror keeps an in-process projection of each group's live balances
// and players. Mutations apply their local patch first and undo it when the
// remote write chain fails; a view that may have diverged from the store is
// marked stale and reloaded on its next read.
package mirror

import (
	"context"
	"sort"
	"sync"

	"bankroll/internal/logger"
	"bankroll/internal/metrics"
	"bankroll/internal/models"
	"bankroll/internal/store"

	"go.uber.org/zap"
)

// Patch is a local change to one view.
type Patch struct {
	// Upsert inserts the balance or replaces the one with the same handle.
	Upsert *models.Balance
	// Remove drops the balance with this handle.
	Remove string
	// PlayerUID and TotalDelta adjust a cached player total.
	PlayerUID  string
	TotalDelta float64
}

// GroupView is the projection of one group. Balances exclude soft-deleted
// records.
type GroupView struct {
	mu       sync.RWMutex
	groupID  int64
	balances []models.Balance
	players  map[string]models.Player
	stale    bool
}

// NewGroupView builds a view from store contents.
func NewGroupView(groupID int64, balances []models.Balance, players []models.Player) *GroupView {
	v := &GroupView{groupID: groupID}
	v.reset(balances, players)
	return v
}

func (v *GroupView) reset(balances []models.Balance, players []models.Player) {
	v.balances = make([]models.Balance, 0, len(balances))
	for _, b := range balances {
		if !b.IsDeleted {
			v.balances = append(v.balances, b)
		}
	}
	sort.SliceStable(v.balances, func(i, j int) bool {
		return sessionBefore(&v.balances[i], &v.balances[j])
	})
	v.players = make(map[string]models.Player, len(players))
	for _, p := range players {
		v.players[p.PlayerUID] = p
	}
	v.stale = false
}

// GroupID returns the group the view projects.
func (v *GroupView) GroupID() int64 {
	return v.groupID
}

// sessionBefore orders balances newest session first: by DateTS, then by
// CreatedAt, both descending. A zero CreatedAt is a pending insert and counts
// as newest.
func sessionBefore(a, b *models.Balance) bool {
	if !a.DateTS.Equal(b.DateTS) {
		return a.DateTS.After(b.DateTS)
	}
	switch {
	case a.CreatedAt.IsZero():
		return !b.CreatedAt.IsZero()
	case b.CreatedAt.IsZero():
		return false
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// insertSorted places b ahead of every balance it does not sort after.
func (v *GroupView) insertSorted(b models.Balance) {
	at := sort.Search(len(v.balances), func(i int) bool {
		return !sessionBefore(&v.balances[i], &b)
	})
	v.insertAt(at, b)
}

func (v *GroupView) insertAt(at int, b models.Balance) {
	if at > len(v.balances) {
		at = len(v.balances)
	}
	v.balances = append(v.balances, models.Balance{})
	copy(v.balances[at+1:], v.balances[at:])
	v.balances[at] = b
}

func (v *GroupView) removeAt(i int) {
	v.balances = append(v.balances[:i], v.balances[i+1:]...)
}

func (v *GroupView) indexOf(handle string) int {
	for i := range v.balances {
		if v.balances[i].ID == handle {
			return i
		}
	}
	return -1
}

// Apply changes the view and returns a function that reverts exactly this
// change.
func (v *GroupView) Apply(p Patch) (undo func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	handle := p.Remove
	if p.Upsert != nil {
		handle = p.Upsert.ID
	}

	prevIdx := v.indexOf(handle)
	var prev models.Balance
	if prevIdx >= 0 {
		prev = v.balances[prevIdx]
	}

	switch {
	case p.Upsert != nil && p.Upsert.IsDeleted:
		if prevIdx >= 0 {
			v.removeAt(prevIdx)
		}
	case p.Upsert != nil && prevIdx >= 0 && sameSlot(&prev, p.Upsert):
		v.balances[prevIdx] = *p.Upsert
	case p.Upsert != nil && prevIdx >= 0:
		v.removeAt(prevIdx)
		v.insertSorted(*p.Upsert)
	case p.Upsert != nil:
		v.insertSorted(*p.Upsert)
	case p.Remove != "" && prevIdx >= 0:
		v.removeAt(prevIdx)
	}

	if pl, ok := v.players[p.PlayerUID]; ok && p.TotalDelta != 0 {
		pl.TotalBalance = models.AddBB(pl.TotalBalance, p.TotalDelta)
		v.players[p.PlayerUID] = pl
	}

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()

		if cur := v.indexOf(handle); cur >= 0 {
			v.removeAt(cur)
		}
		if prevIdx >= 0 {
			v.insertAt(prevIdx, prev)
		}

		if pl, ok := v.players[p.PlayerUID]; ok && p.TotalDelta != 0 {
			pl.TotalBalance = models.AddBB(pl.TotalBalance, -p.TotalDelta)
			v.players[p.PlayerUID] = pl
		}
	}
}

// sameSlot reports whether a replacement keeps the sort keys of the original.
func sameSlot(a, b *models.Balance) bool {
	return a.DateTS.Equal(b.DateTS) && a.CreatedAt.Equal(b.CreatedAt)
}

// Balances returns a copy of the live balances, optionally only those of one
// player.
func (v *GroupView) Balances(playerUID string) []models.Balance {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]models.Balance, 0, len(v.balances))
	for _, b := range v.balances {
		if playerUID == "" || b.PlayerUID == playerUID {
			out = append(out, b)
		}
	}
	return out
}

// Balance returns one live balance by handle.
func (v *GroupView) Balance(handle string) (models.Balance, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if i := v.indexOf(handle); i >= 0 {
		return v.balances[i], true
	}
	return models.Balance{}, false
}

// Players returns a copy of the player directory.
func (v *GroupView) Players() map[string]models.Player {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make(map[string]models.Player, len(v.players))
	for k, p := range v.players {
		out[k] = p
	}
	return out
}

// Player returns one cached player.
func (v *GroupView) Player(uid string) (models.Player, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	p, ok := v.players[uid]
	return p, ok
}

// PutPlayer adds or replaces a cached player.
func (v *GroupView) PutPlayer(p models.Player) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.players[p.PlayerUID] = p
}

// MarkStale flags the view for reload.
func (v *GroupView) MarkStale() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stale = true
}

// Stale reports whether the view must be reloaded before use.
func (v *GroupView) Stale() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stale
}

// Source is the part of the store a Registry loads views from.
type Source interface {
	ListBalances(ctx context.Context, q store.BalanceQuery) ([]models.Balance, error)
	ListPlayers(ctx context.Context, groupID int64) ([]models.Player, error)
}

// Registry holds one view per group.
type Registry struct {
	src     Source
	metrics *metrics.Metrics
	log     *zap.SugaredLogger

	mu    sync.Mutex
	views map[int64]*GroupView
}

// NewRegistry creates an empty registry. m may be nil.
func NewRegistry(src Source, m *metrics.Metrics) *Registry {
	return &Registry{
		src:     src,
		metrics: m,
		log:     logger.Named("mirror"),
		views:   make(map[int64]*GroupView),
	}
}

// View returns the group's view, loading it when it is missing or stale.
func (r *Registry) View(ctx context.Context, groupID int64) (*GroupView, error) {
	r.mu.Lock()
	v, ok := r.views[groupID]
	r.mu.Unlock()
	if ok && !v.Stale() {
		return v, nil
	}
	return r.Reload(ctx, groupID)
}

// Reload replaces the group's view with fresh store contents.
func (r *Registry) Reload(ctx context.Context, groupID int64) (*GroupView, error) {
	balances, err := r.src.ListBalances(ctx, store.BalanceQuery{GroupID: groupID})
	if err != nil {
		return nil, err
	}
	players, err := r.src.ListPlayers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	r.metrics.MirrorReload()
	r.log.Debugw("Reloaded group view", "group_id", groupID, "balances", len(balances), "players", len(players))

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.views[groupID]; ok {
		v.mu.Lock()
		v.reset(balances, players)
		v.mu.Unlock()
		return v, nil
	}
	v := NewGroupView(groupID, balances, players)
	r.views[groupID] = v
	return v, nil
}

// Invalidate marks a loaded view stale. Unknown groups are ignored.
func (r *Registry) Invalidate(groupID int64) {
	r.mu.Lock()
	v, ok := r.views[groupID]
	r.mu.Unlock()
	if ok {
		v.MarkStale()
	}
}
