package services

import (
	"context"
	"testing"
	"time"

	"bankroll/internal/idgen"
	"bankroll/internal/logger"
	"bankroll/internal/models"
	"bankroll/internal/store"
	"bankroll/internal/testutil"
)

func init() {
	logger.Init("test")
}

func newTestServices(st store.Store) *Services {
	return New(Deps{
		Store:    st,
		IDs:      &idgen.Sequence{Next: 100000000},
		Location: time.UTC,
	})
}

func f64(v float64) *float64 { return &v }

func input(date string, buyIn, ending float64) BalanceInput {
	return BalanceInput{Date: date, SB: f64(1), BB: f64(3), BuyInBB: buyIn, EndingBB: ending}
}

// member sets up a group with one joined player and returns the actor.
func member(t *testing.T, st store.Store) (*models.Group, *models.Player, Actor) {
	t.Helper()
	uid := testutil.UID()
	g := testutil.CreateTestGroup(t, st, uid)
	p := testutil.CreateTestPlayer(t, st, g.GroupID, uid)
	return g, p, Actor{UID: uid, Email: uid + "@test.com"}
}

func playerTotal(t *testing.T, st store.Store, groupID int64, uid string) float64 {
	t.Helper()
	p, err := st.GetPlayer(context.Background(), groupID, uid)
	testutil.AssertNoError(t, err)
	return p.TotalBalance
}

func historyOf(t *testing.T, st store.Store, groupID int64) []models.HistoryRecord {
	t.Helper()
	records, err := st.ListHistory(context.Background(), groupID)
	testutil.AssertNoError(t, err)
	return records
}

func liveNetSum(t *testing.T, st store.Store, groupID int64, uid string) float64 {
	t.Helper()
	balances, err := st.ListBalances(context.Background(), store.BalanceQuery{GroupID: groupID, PlayerUID: uid})
	testutil.AssertNoError(t, err)
	sum := 0.0
	for _, b := range balances {
		sum = models.AddBB(sum, b.Net())
	}
	return sum
}
