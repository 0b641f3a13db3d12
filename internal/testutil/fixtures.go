package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"bankroll/internal/models"
	"bankroll/internal/stakes"
	"bankroll/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// Passwords every fixture group is created with.
const (
	PlayerPassword = "player-pass"
	AdminPassword  = "admin-pass"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

func hash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(h)
}

// UID returns a unique identity-provider user id.
func UID() string {
	return fmt.Sprintf("uid-%d", nextID())
}

// CreateTestGroup creates a group with free stakes owned by creatorUID.
func CreateTestGroup(t *testing.T, st store.Store, creatorUID string) *models.Group {
	t.Helper()
	return CreateTestGroupWithSettings(t, st, creatorUID, &models.GroupSettings{RankingTopN: models.DefaultRankingTopN})
}

// CreateTestGroupWithFixedStakes creates a group whose stakes are fixed at sb/bb.
func CreateTestGroupWithFixedStakes(t *testing.T, st store.Store, creatorUID string, sb, bb float64) *models.Group {
	t.Helper()
	return CreateTestGroupWithSettings(t, st, creatorUID, &models.GroupSettings{
		StakesFixed: true,
		StakesSB:    &sb,
		StakesBB:    &bb,
		RankingTopN: models.DefaultRankingTopN,
	})
}

// CreateTestGroupWithSettings creates a group with the given settings.
func CreateTestGroupWithSettings(t *testing.T, st store.Store, creatorUID string, settings *models.GroupSettings) *models.Group {
	t.Helper()

	n := nextID()
	g := &models.Group{
		GroupID:            100000 + n,
		GroupName:          fmt.Sprintf("Group %d", n),
		Creator:            creatorUID + "@test.com",
		CreatorUID:         creatorUID,
		PlayerPasswordHash: hash(t, PlayerPassword),
		AdminPasswordHash:  hash(t, AdminPassword),
		Settings:           settings,
		LastUpdated:        time.Now().UTC(),
	}
	if err := st.CreateGroup(context.Background(), g); err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// CreateTestPlayer joins uid to the group with a zero total.
func CreateTestPlayer(t *testing.T, st store.Store, groupID int64, uid string) *models.Player {
	t.Helper()

	p := &models.Player{
		PlayerID:    200000 + nextID(),
		GroupID:     groupID,
		PlayerUID:   uid,
		DisplayName: "Player " + uid,
		Email:       uid + "@test.com",
	}
	if err := st.CreatePlayer(context.Background(), p); err != nil {
		t.Fatalf("failed to create test player: %v", err)
	}
	return p
}

// CreateTestBalance inserts a balance directly, bypassing the mutation
// engine. The player's total is not adjusted.
func CreateTestBalance(t *testing.T, st store.Store, p *models.Player, buyIn, ending float64) *models.Balance {
	t.Helper()

	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := &models.Balance{
		BalanceID:   300000000 + nextID(),
		GroupID:     p.GroupID,
		PlayerID:    p.PlayerID,
		PlayerUID:   p.PlayerUID,
		Date:        date.Format(models.DateLayout),
		DateTS:      date,
		Stakes:      stakes.Format(1, 3),
		BuyInBB:     buyIn,
		EndingBB:    ending,
		LastUpdated: time.Now().UTC(),
	}
	if err := st.CreateBalance(context.Background(), b); err != nil {
		t.Fatalf("failed to create test balance: %v", err)
	}
	return b
}
