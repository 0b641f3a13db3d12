package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultRankingTopN bounds the public ranking when a group has no setting.
const DefaultRankingTopN = 10

// GroupSettings holds the group-wide knobs an administrator can change.
type GroupSettings struct {
	// StakesFixed gates whether StakesSB/StakesBB are authoritative.
	StakesFixed bool     `json:"stakes_fixed" bson:"stakes_fixed"`
	StakesSB    *float64 `json:"stakes_sb" bson:"stakes_sb"`
	StakesBB    *float64 `json:"stakes_bb" bson:"stakes_bb"`
	// StakesValue is the deprecated free-text form ("1/3"). It is only read
	// when the numeric fields are absent and is cleared on every save.
	StakesValue *string `json:"stakes_value" bson:"stakes_value"`
	RankingTopN int     `json:"ranking_top_n" bson:"ranking_top_n"`
}

// Value stores the settings as a JSON text column.
func (s GroupSettings) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads the JSON text column.
func (s *GroupSettings) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		return json.Unmarshal([]byte(v), s)
	case []byte:
		return json.Unmarshal(v, s)
	}
	return fmt.Errorf("unsupported settings column type %T", src)
}

// TopN returns the configured ranking size, falling back to the default.
func (s *GroupSettings) TopN() int {
	if s == nil || s.RankingTopN <= 0 {
		return DefaultRankingTopN
	}
	return s.RankingTopN
}

// Group is the tenant container. GroupID never changes after creation.
type Group struct {
	GroupID            int64          `gorm:"primaryKey;autoIncrement:false" json:"group_id" bson:"group_id"`
	GroupName          string         `gorm:"not null" json:"group_name" bson:"group_name"`
	Creator            string         `json:"creator" bson:"creator"`
	CreatorUID         string         `gorm:"index" json:"creator_uid" bson:"creator_uid"`
	CreatorName        string         `json:"creator_name,omitempty" bson:"creator_name,omitempty"`
	PlayerPasswordHash string         `gorm:"not null" json:"-" bson:"player_password_hash"`
	AdminPasswordHash  string         `gorm:"not null" json:"-" bson:"admin_password_hash"`
	Settings           *GroupSettings `gorm:"type:text" json:"settings,omitempty" bson:"settings,omitempty"`
	LastUpdated        time.Time      `json:"last_updated" bson:"last_updated"`
	CreatedAt          time.Time      `json:"created_at" bson:"created_at"`
}

// DisplayID returns the group id zero-padded to six digits.
func (g *Group) DisplayID() string {
	return PadID(g.GroupID)
}

// CreatorDisplayName returns the creator's name, the local part of an email
// creator, the raw creator, or "(unknown)" in that order of preference.
func (g *Group) CreatorDisplayName() string {
	if g == nil {
		return "(unknown)"
	}
	if g.CreatorName != "" {
		return g.CreatorName
	}
	if at := strings.Index(g.Creator, "@"); at >= 0 {
		return g.Creator[:at]
	}
	if g.Creator != "" {
		return g.Creator
	}
	return "(unknown)"
}

// PadID formats a numeric id as at least six zero-padded digits.
func PadID(id int64) string {
	if id < 0 {
		id = -id
	}
	return fmt.Sprintf("%06d", id)
}
