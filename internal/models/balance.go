package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format of Balance.Date.
const DateLayout = "2006-01-02"

// Balance is one poker session report. Sizes are denominated in big blinds.
//
// A deleted balance keeps its row with IsDeleted set; it no longer counts
// towards rankings or running totals but stays addressable for the audit trail.
type Balance struct {
	Base        `bson:",inline"`
	BalanceID   int64     `gorm:"not null;index" json:"balance_id" bson:"balance_id"`
	GroupID     int64     `gorm:"not null;index" json:"group_id" bson:"group_id"`
	PlayerID    int64     `gorm:"not null" json:"player_id" bson:"player_id"`
	PlayerUID   string    `gorm:"not null;index" json:"player_uid" bson:"player_uid"`
	Date        string    `gorm:"type:varchar(10);not null" json:"date" bson:"date"`
	DateTS      time.Time `gorm:"not null" json:"date_ts" bson:"date_ts"`
	Stakes      string    `gorm:"not null" json:"stakes" bson:"stakes"`
	BuyInBB     float64   `gorm:"not null" json:"buy_in_bb" bson:"buy_in_bb"`
	EndingBB    float64   `gorm:"not null" json:"ending_bb" bson:"ending_bb"`
	Memo        string    `json:"memo" bson:"memo"`
	LastUpdated time.Time `json:"last_updated" bson:"last_updated"`
	IsDeleted   bool      `gorm:"not null;default:false;index" json:"is_deleted" bson:"is_deleted"`
}

// Net returns ending minus buy-in.
func (b *Balance) Net() float64 {
	return NetOf(b.BuyInBB, b.EndingBB)
}

// NetOf returns ending minus buy-in computed in decimal so repeated deltas do
// not accumulate binary float error.
func NetOf(buyIn, ending float64) float64 {
	return decimal.NewFromFloat(ending).Sub(decimal.NewFromFloat(buyIn)).InexactFloat64()
}

// AddBB adds two big-blind amounts in decimal.
func AddBB(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

// Snapshot returns a full copy of the balance as stored in history records.
func (b *Balance) Snapshot() BalanceSnapshot {
	dateTS := b.DateTS
	lastUpdated := b.LastUpdated
	deleted := b.IsDeleted
	return BalanceSnapshot{
		ID:          b.ID,
		BalanceID:   b.BalanceID,
		GroupID:     b.GroupID,
		PlayerID:    b.PlayerID,
		PlayerUID:   b.PlayerUID,
		Date:        b.Date,
		DateTS:      &dateTS,
		Stakes:      b.Stakes,
		BuyInBB:     b.BuyInBB,
		EndingBB:    b.EndingBB,
		Memo:        b.Memo,
		LastUpdated: &lastUpdated,
		IsDeleted:   &deleted,
	}
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, date, loc)
}
