package models

import (
	"fmt"
	"time"
)

// ChangeCategory classifies a history record.
type ChangeCategory string

const (
	ChangeCreate ChangeCategory = "create"
	ChangeUpdate ChangeCategory = "update"
	ChangeDelete ChangeCategory = "delete"
)

// Valid reports whether c is one of the known categories.
func (c ChangeCategory) Valid() bool {
	switch c {
	case ChangeCreate, ChangeUpdate, ChangeDelete:
		return true
	}
	return false
}

// BalanceSnapshot is a full or partial Balance-shaped copy kept inside a
// history record. Update records carry only the patched fields in After.
type BalanceSnapshot struct {
	ID          string     `json:"id,omitempty" bson:"id,omitempty"`
	BalanceID   int64      `json:"balance_id,omitempty" bson:"balance_id,omitempty"`
	GroupID     int64      `json:"group_id,omitempty" bson:"group_id,omitempty"`
	PlayerID    int64      `json:"player_id,omitempty" bson:"player_id,omitempty"`
	PlayerUID   string     `json:"player_uid,omitempty" bson:"player_uid,omitempty"`
	Date        string     `json:"date,omitempty" bson:"date,omitempty"`
	DateTS      *time.Time `json:"date_ts,omitempty" bson:"date_ts,omitempty"`
	Stakes      string     `json:"stakes,omitempty" bson:"stakes,omitempty"`
	BuyInBB     float64    `json:"buy_in_bb" bson:"buy_in_bb"`
	EndingBB    float64    `json:"ending_bb" bson:"ending_bb"`
	Memo        string     `json:"memo" bson:"memo"`
	LastUpdated *time.Time `json:"last_updated,omitempty" bson:"last_updated,omitempty"`
	IsDeleted   *bool      `json:"is_deleted,omitempty" bson:"is_deleted,omitempty"`
}

// Net returns ending minus buy-in of the snapshot.
func (s *BalanceSnapshot) Net() float64 {
	return NetOf(s.BuyInBB, s.EndingBB)
}

// ChangeDetails holds the before and/or after snapshot of a mutation.
// Use CreateDetails, UpdateDetails or DeleteDetails to build one; the
// category decides which halves are present.
type ChangeDetails struct {
	Before *BalanceSnapshot `json:"before,omitempty" bson:"before,omitempty"`
	After  *BalanceSnapshot `json:"after,omitempty" bson:"after,omitempty"`
}

// CreateDetails holds only the new balance.
func CreateDetails(after BalanceSnapshot) ChangeDetails {
	return ChangeDetails{After: &after}
}

// UpdateDetails holds the pre-patch snapshot and the patched fields.
func UpdateDetails(before, after BalanceSnapshot) ChangeDetails {
	return ChangeDetails{Before: &before, After: &after}
}

// DeleteDetails holds only the pre-delete snapshot.
func DeleteDetails(before BalanceSnapshot) ChangeDetails {
	return ChangeDetails{Before: &before}
}

// Check verifies the halves present match the category.
func (d ChangeDetails) Check(c ChangeCategory) error {
	switch c {
	case ChangeCreate:
		if d.After == nil || d.Before != nil {
			return fmt.Errorf("create details must carry only an after snapshot")
		}
	case ChangeUpdate:
		if d.After == nil || d.Before == nil {
			return fmt.Errorf("update details must carry before and after snapshots")
		}
	case ChangeDelete:
		if d.Before == nil || d.After != nil {
			return fmt.Errorf("delete details must carry only a before snapshot")
		}
	default:
		return fmt.Errorf("unknown change category %q", c)
	}
	return nil
}

// HistoryRecord is an append-only audit entry. Nothing updates or deletes one
// after it is written. ChangedAt is assigned by the store.
type HistoryRecord struct {
	Base            `bson:",inline"`
	HistoryID       int64          `gorm:"not null" json:"history_id" bson:"history_id"`
	GroupID         int64          `gorm:"not null;index" json:"group_id" bson:"group_id"`
	BalanceID       int64          `gorm:"not null;index" json:"balance_id" bson:"balance_id"`
	ChangedAt       time.Time      `gorm:"not null;index" json:"changed_at" bson:"changed_at"`
	ChangeCategory  ChangeCategory `gorm:"type:varchar(10);not null" json:"change_category" bson:"change_category"`
	ChangeDetails   ChangeDetails  `gorm:"serializer:json;type:text" json:"change_details" bson:"change_details"`
	ChangerUID      string         `gorm:"not null" json:"changer_uid" bson:"changer_uid"`
	ChangerPlayerID int64          `json:"changer_player_id" bson:"changer_player_id"`
}

// TableName keeps the document collection name.
func (HistoryRecord) TableName() string { return "balance_histories" }
