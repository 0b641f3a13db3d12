package models

// Player is a member of exactly one group.
//
// TotalBalance is a cached aggregate: the sum of ending-minus-buy-in over the
// player's non-deleted balances. Only the balance mutation path changes it,
// by applying signed deltas.
type Player struct {
	Base         `bson:",inline"`
	PlayerID     int64   `gorm:"not null" json:"player_id" bson:"player_id"`
	GroupID      int64   `gorm:"not null;uniqueIndex:idx_players_group_uid" json:"group_id" bson:"group_id"`
	PlayerUID    string  `gorm:"not null;uniqueIndex:idx_players_group_uid" json:"player_uid" bson:"player_uid"`
	DisplayName  string  `gorm:"not null" json:"display_name" bson:"display_name"`
	Email        string  `json:"email" bson:"email"`
	TotalBalance float64 `gorm:"not null;default:0" json:"total_balance" bson:"total_balance"`
}
