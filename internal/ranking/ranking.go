// Package ranking aggregates per-player net results into a leaderboard.
package ranking

import (
	"fmt"
	"math"
	"sort"

	"bankroll/internal/models"

	"github.com/shopspring/decimal"
)

// UnknownName is shown for a player id with no directory entry.
const UnknownName = "(unknown)"

// Row is one leaderboard line.
type Row struct {
	Rank      int     `json:"rank"`
	PlayerUID string  `json:"player_uid"`
	Name      string  `json:"name"`
	Total     float64 `json:"total"`
	DiffText  string  `json:"diff_text"`
}

// Compute sums ending minus buy-in per player over the non-deleted balances,
// orders players by total descending and keeps the first topN rows. topN <= 0
// keeps all rows. Equal totals are ordered by player uid ascending. Players
// without a contributing balance never appear.
func Compute(balances []models.Balance, directory map[string]models.Player, topN int) []Row {
	sums := make(map[string]decimal.Decimal)
	for i := range balances {
		b := &balances[i]
		if b.IsDeleted {
			continue
		}
		net := decimal.NewFromFloat(b.EndingBB).Sub(decimal.NewFromFloat(b.BuyInBB))
		sums[b.PlayerUID] = sums[b.PlayerUID].Add(net)
	}

	rows := make([]Row, 0, len(sums))
	for uid, total := range sums {
		name := UnknownName
		if p, ok := directory[uid]; ok && p.DisplayName != "" {
			name = p.DisplayName
		}
		v := total.InexactFloat64()
		rows = append(rows, Row{PlayerUID: uid, Name: name, Total: v, DiffText: FormatDiff(v)})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].PlayerUID < rows[j].PlayerUID
	})

	if topN > 0 && len(rows) > topN {
		rows = rows[:topN]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// Directory indexes players by uid.
func Directory(players []models.Player) map[string]models.Player {
	dir := make(map[string]models.Player, len(players))
	for _, p := range players {
		dir[p.PlayerUID] = p
	}
	return dir
}

// FormatDiff renders a signed big-blind amount with one decimal, e.g.
// "+5.0BB" or "-2.5BB". Zero is positive.
func FormatDiff(v float64) string {
	sign := "+"
	if v < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%.1fBB", sign, math.Abs(v))
}
