package services

import (
	"context"
	"time"

	"bankroll/internal/events"
	"bankroll/internal/history"
	"bankroll/internal/idgen"
	"bankroll/internal/metrics"
	"bankroll/internal/mirror"
	"bankroll/internal/models"
	"bankroll/internal/pagination"
	"bankroll/internal/ranking"
	"bankroll/internal/store"
)

// Actor is the authenticated identity-provider user making a request.
type Actor struct {
	UID   string
	Email string
}

// Deps are the collaborators shared by the services.
type Deps struct {
	Store   store.Store
	Mirror  *mirror.Registry
	Events  events.Publisher
	Metrics *metrics.Metrics
	IDs     idgen.Source
	// Location interprets YYYY-MM-DD dates.
	Location *time.Location
	Now      func() time.Time
	// DefaultTopN seeds ranking_top_n of new groups.
	DefaultTopN int
}

func (d Deps) withDefaults() Deps {
	if d.Mirror == nil {
		d.Mirror = mirror.NewRegistry(d.Store, d.Metrics)
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.IDs == nil {
		d.IDs = idgen.Random{}
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.DefaultTopN <= 0 {
		d.DefaultTopN = models.DefaultRankingTopN
	}
	return d
}

// CreateGroupInput holds the fields of a new group.
type CreateGroupInput struct {
	GroupName      string
	PlayerPassword string
	AdminPassword  string
	DisplayName    string
}

// SettingsInput is the admin settings form. SB/BB are only stored when
// StakesFixed is set.
type SettingsInput struct {
	GroupName   string
	StakesFixed bool
	StakesSB    *float64
	StakesBB    *float64
	RankingTopN int
}

// StakesView describes the stakes a group's reporting form should use.
type StakesView struct {
	Fixed  bool     `json:"fixed"`
	SB     *float64 `json:"sb,omitempty"`
	BB     *float64 `json:"bb,omitempty"`
	Stakes string   `json:"stakes,omitempty"`
	// FormSB and FormBB pre-fill the admin settings form.
	FormSB *float64 `json:"form_sb,omitempty"`
	FormBB *float64 `json:"form_bb,omitempty"`
}

// GroupServicer defines the contract for group membership and settings.
type GroupServicer interface {
	CreateGroup(ctx context.Context, actor Actor, in CreateGroupInput) (*models.Group, *models.Player, error)
	JoinGroup(ctx context.Context, actor Actor, groupID int64, password, displayName string) (*models.Player, error)
	GetGroup(ctx context.Context, actor Actor, groupID int64) (*models.Group, error)
	GetMember(ctx context.Context, actor Actor, groupID int64) (*models.Player, error)
	ListPlayers(ctx context.Context, actor Actor, groupID int64) ([]models.Player, error)
	ResolveStakes(ctx context.Context, actor Actor, groupID int64) (*StakesView, error)
	UpdateSettings(ctx context.Context, actor Actor, groupID int64, adminPassword string, in SettingsInput) (*models.Group, error)
}

// BalanceInput is a session report as submitted by a player. SB and BB are
// ignored when the group's stakes are fixed.
type BalanceInput struct {
	Date     string
	SB       *float64
	BB       *float64
	BuyInBB  float64
	EndingBB float64
	Memo     string
}

// BalanceServicer defines the contract for the balance mutation engine and
// balance reads.
type BalanceServicer interface {
	Create(ctx context.Context, actor Actor, groupID int64, in BalanceInput) (*models.Balance, error)
	// Update and SoftDelete act on a balance the caller already loaded.
	Update(ctx context.Context, actor Actor, existing *models.Balance, in BalanceInput) (*models.Balance, error)
	SoftDelete(ctx context.Context, actor Actor, existing *models.Balance) error
	Get(ctx context.Context, actor Actor, groupID int64, handle string) (*models.Balance, error)
	List(ctx context.Context, actor Actor, groupID int64, mine bool) ([]models.Balance, error)
}

// HistoryFilter holds the admin history filter as submitted. Dates are
// YYYY-MM-DD strings; numeric bounds are optional.
type HistoryFilter struct {
	ChangedStart string   `form:"changed_start" binding:"omitempty,ymd_date"`
	ChangedEnd   string   `form:"changed_end" binding:"omitempty,ymd_date"`
	BalanceID    string   `form:"balance_id" binding:"omitempty,numeric"`
	Category     string   `form:"category" binding:"omitempty,history_category"`
	PlayerUID    string   `form:"player_uid"`
	DateStart    string   `form:"date_start" binding:"omitempty,ymd_date"`
	DateEnd      string   `form:"date_end" binding:"omitempty,ymd_date"`
	Stakes       string   `form:"stakes"`
	BuyInMin     *float64 `form:"buy_in_min"`
	BuyInMax     *float64 `form:"buy_in_max"`
	EndingMin    *float64 `form:"ending_min"`
	EndingMax    *float64 `form:"ending_max"`
	DeltaMin     *float64 `form:"delta_min"`
	DeltaMax     *float64 `form:"delta_max"`
	Memo         string   `form:"memo"`
	SortKey      string   `form:"sort" binding:"omitempty,history_sort_key"`
	SortDir      string   `form:"dir" binding:"omitempty,sort_dir"`
}

// HistoryServicer defines the contract for the balance audit trail.
type HistoryServicer interface {
	Record(ctx context.Context, h *models.HistoryRecord) error
	List(ctx context.Context, actor Actor, groupID int64, adminPassword string, filter HistoryFilter, page pagination.PageRequest) (*pagination.PageResponse[history.Entry], error)
}

// RankingServicer defines the contract for the leaderboard.
type RankingServicer interface {
	// Public returns the ranking truncated to the group's ranking_top_n.
	Public(ctx context.Context, actor Actor, groupID int64) ([]ranking.Row, error)
	// Full returns every ranked player; admin only.
	Full(ctx context.Context, actor Actor, groupID int64, adminPassword string) ([]ranking.Row, error)
}
