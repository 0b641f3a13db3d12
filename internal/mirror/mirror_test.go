package mirror

import (
	"context"
	"errors"
	"testing"
	"time"

	"bankroll/internal/models"
	"bankroll/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balance(handle, uid string, buyIn, ending float64) models.Balance {
	b := models.Balance{PlayerUID: uid, BuyInBB: buyIn, EndingBB: ending}
	b.ID = handle
	return b
}

func handles(bs []models.Balance) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

func newView() *GroupView {
	deleted := balance("gone", "u1", 0, 0)
	deleted.IsDeleted = true
	return NewGroupView(1,
		[]models.Balance{balance("b2", "u1", 10, 20), balance("b1", "u2", 10, 5), deleted},
		[]models.Player{{PlayerUID: "u1", TotalBalance: 10}, {PlayerUID: "u2", TotalBalance: -5}},
	)
}

func TestNewGroupView_SkipsDeleted(t *testing.T) {
	v := newView()
	assert.Equal(t, []string{"b2", "b1"}, handles(v.Balances("")))
	assert.Equal(t, []string{"b2"}, handles(v.Balances("u1")))
	_, ok := v.Balance("gone")
	assert.False(t, ok)
}

func TestApply_InsertAndUndo(t *testing.T) {
	v := newView()
	nb := balance("b3", "u1", 5, 8)

	undo := v.Apply(Patch{Upsert: &nb, PlayerUID: "u1", TotalDelta: 3})
	assert.Equal(t, []string{"b3", "b2", "b1"}, handles(v.Balances("")))
	p, _ := v.Player("u1")
	assert.Equal(t, 13.0, p.TotalBalance)

	undo()
	assert.Equal(t, []string{"b2", "b1"}, handles(v.Balances("")))
	p, _ = v.Player("u1")
	assert.Equal(t, 10.0, p.TotalBalance)
}

func TestApply_ReplaceAndUndo(t *testing.T) {
	v := newView()
	updated := balance("b1", "u2", 10, 50)

	undo := v.Apply(Patch{Upsert: &updated, PlayerUID: "u2", TotalDelta: 45})
	got, ok := v.Balance("b1")
	require.True(t, ok)
	assert.Equal(t, 50.0, got.EndingBB)
	assert.Equal(t, []string{"b2", "b1"}, handles(v.Balances("")))

	undo()
	got, _ = v.Balance("b1")
	assert.Equal(t, 5.0, got.EndingBB)
	assert.Equal(t, []string{"b2", "b1"}, handles(v.Balances("")))
	p, _ := v.Player("u2")
	assert.Equal(t, -5.0, p.TotalBalance)
}

func datedBalance(handle string, date, created time.Time) models.Balance {
	b := balance(handle, "u1", 10, 10)
	b.DateTS = date
	b.CreatedAt = created
	return b
}

func datedView() *GroupView {
	day := func(d int) time.Time { return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC) }
	return NewGroupView(1,
		[]models.Balance{
			datedBalance("jun10", day(10), day(10)),
			datedBalance("jun05", day(5), day(5)),
			datedBalance("jun01", day(1), day(1)),
		},
		[]models.Player{{PlayerUID: "u1"}},
	)
}

func TestApply_InsertKeepsSessionOrder(t *testing.T) {
	v := datedView()
	older := datedBalance("jun03", time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC), time.Time{})

	undo := v.Apply(Patch{Upsert: &older, PlayerUID: "u1"})
	assert.Equal(t, []string{"jun10", "jun05", "jun03", "jun01"}, handles(v.Balances("")))

	undo()
	assert.Equal(t, []string{"jun10", "jun05", "jun01"}, handles(v.Balances("")))
}

func TestApply_SameDateNewestCreatedFirst(t *testing.T) {
	v := datedView()
	same := datedBalance("jun05b", time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC), time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC))

	v.Apply(Patch{Upsert: &same, PlayerUID: "u1"})
	assert.Equal(t, []string{"jun10", "jun05b", "jun05", "jun01"}, handles(v.Balances("")))
}

func TestApply_DateChangeMovesAndUndoRestores(t *testing.T) {
	v := datedView()
	moved, ok := v.Balance("jun10")
	require.True(t, ok)
	moved.DateTS = time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	undo := v.Apply(Patch{Upsert: &moved, PlayerUID: "u1"})
	assert.Equal(t, []string{"jun05", "jun01", "jun10"}, handles(v.Balances("")))

	undo()
	assert.Equal(t, []string{"jun10", "jun05", "jun01"}, handles(v.Balances("")))
}

func TestNewGroupView_SortsLoadedBalances(t *testing.T) {
	a := datedBalance("a", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), time.Now())
	b := datedBalance("b", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), time.Now())
	v := NewGroupView(1, []models.Balance{a, b}, nil)
	assert.Equal(t, []string{"b", "a"}, handles(v.Balances("")))
}

func TestApply_RemoveAndUndo(t *testing.T) {
	v := newView()

	undo := v.Apply(Patch{Remove: "b2", PlayerUID: "u1", TotalDelta: -10})
	assert.Equal(t, []string{"b1"}, handles(v.Balances("")))
	p, _ := v.Player("u1")
	assert.Equal(t, 0.0, p.TotalBalance)

	undo()
	assert.Equal(t, []string{"b2", "b1"}, handles(v.Balances("")))
	p, _ = v.Player("u1")
	assert.Equal(t, 10.0, p.TotalBalance)
}

func TestApply_DeletedUpsertRemoves(t *testing.T) {
	v := newView()
	deleted := balance("b1", "u2", 10, 5)
	deleted.IsDeleted = true

	undo := v.Apply(Patch{Upsert: &deleted})
	assert.Equal(t, []string{"b2"}, handles(v.Balances("")))

	undo()
	assert.Equal(t, []string{"b2", "b1"}, handles(v.Balances("")))
}

func TestApply_UnknownPlayerIgnored(t *testing.T) {
	v := newView()
	nb := balance("b3", "ghost", 0, 1)
	v.Apply(Patch{Upsert: &nb, PlayerUID: "ghost", TotalDelta: 1})
	_, ok := v.Player("ghost")
	assert.False(t, ok)
}

type fakeSource struct {
	balances []models.Balance
	players  []models.Player
	err      error
	loads    int
}

func (f *fakeSource) ListBalances(_ context.Context, q store.BalanceQuery) ([]models.Balance, error) {
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.balances, nil
}

func (f *fakeSource) ListPlayers(context.Context, int64) ([]models.Player, error) {
	return f.players, nil
}

func TestRegistry_LoadsLazilyAndReloadsWhenStale(t *testing.T) {
	src := &fakeSource{balances: []models.Balance{balance("b1", "u1", 0, 1)}}
	r := NewRegistry(src, nil)
	ctx := context.Background()

	v, err := r.View(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, src.loads)

	again, err := r.View(ctx, 1)
	require.NoError(t, err)
	assert.Same(t, v, again)
	assert.Equal(t, 1, src.loads)

	src.balances = append(src.balances, balance("b2", "u1", 0, 2))
	r.Invalidate(1)
	reloaded, err := r.View(ctx, 1)
	require.NoError(t, err)
	assert.Same(t, v, reloaded)
	assert.Equal(t, 2, src.loads)
	assert.Len(t, reloaded.Balances(""), 2)
	assert.False(t, reloaded.Stale())
}

func TestRegistry_LoadError(t *testing.T) {
	src := &fakeSource{err: errors.New("store down")}
	r := NewRegistry(src, nil)

	_, err := r.View(context.Background(), 1)
	require.Error(t, err)

	r.Invalidate(99)
}
