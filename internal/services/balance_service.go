package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	apperrors "bankroll/internal/errors"
	"bankroll/internal/events"
	"bankroll/internal/idgen"
	"bankroll/internal/logger"
	"bankroll/internal/mirror"
	"bankroll/internal/models"
	"bankroll/internal/stakes"
	"bankroll/internal/store"

	"github.com/shopspring/decimal"
)

// Mutation operation names, used in logs and metrics.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Write chain step names.
const (
	StepBalance     = "balance"
	StepPlayerTotal = "player_total"
	StepGroupTouch  = "group_touch"
	StepHistory     = "history"
)

// balanceService is the balance mutation engine. Each mutation is a fixed
// sequence of independent store writes: balance, player total, group touch,
// history record. A failing step stops the chain; earlier steps stay
// committed. The player total is read, adjusted and written back without
// locking.
type balanceService struct {
	d       Deps
	history HistoryServicer

	// deleting holds the handles of balances with a delete in flight.
	deleting sync.Map
}

// NewBalanceService creates a new BalanceServicer.
func NewBalanceService(d Deps, history HistoryServicer) BalanceServicer {
	return &balanceService{d: d.withDefaults(), history: history}
}

type step struct {
	name string
	run  func() error
}

// runChain executes steps in order. On failure the local mirror patch is
// undone, the view is marked stale and a generic persistence error returned.
func (s *balanceService) runChain(ctx context.Context, op string, b *models.Balance, view *mirror.GroupView, undo func(), steps []step) error {
	for _, st := range steps {
		if err := st.run(); err != nil {
			if undo != nil {
				undo()
			}
			if view != nil {
				view.MarkStale()
			}
			s.d.Metrics.FailedStep(op, st.name)
			logger.Named("balances").Errorw("Balance mutation failed",
				"operation", op,
				"group_id", b.GroupID,
				"balance_id", b.BalanceID,
				"step", st.name,
				"error", err,
			)
			return apperrors.Wrap(apperrors.ErrPersistenceFailed, err)
		}
	}

	if err := s.d.Events.PublishGroupChanged(ctx, events.GroupChanged{
		GroupID:   b.GroupID,
		BalanceID: b.BalanceID,
		Category:  models.ChangeCategory(op),
	}); err != nil {
		logger.Named("balances").Warnw("Failed to publish group change", "group_id", b.GroupID, "error", err)
	}
	return nil
}

// view returns the group's mirror, or nil when it cannot be loaded. Mutations
// still proceed without one.
func (s *balanceService) view(ctx context.Context, groupID int64) *mirror.GroupView {
	v, err := s.d.Mirror.View(ctx, groupID)
	if err != nil {
		logger.Named("balances").Warnw("Group view unavailable", "group_id", groupID, "error", err)
		return nil
	}
	return v
}

func applyPatch(v *mirror.GroupView, p mirror.Patch) func() {
	if v == nil {
		return nil
	}
	return v.Apply(p)
}

// resolveInput validates the submitted form against the group and returns the
// stakes string and the parsed session date.
func (s *balanceService) resolveInput(g *models.Group, in BalanceInput) (string, time.Time, error) {
	dateTS, err := models.ParseDate(in.Date, s.d.Location)
	if err != nil {
		return "", time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be YYYY-MM-DD")
	}

	if fixed, ok := stakes.ResolveGroup(g); ok {
		return fixed.String(), dateTS, nil
	}
	if in.SB == nil || in.BB == nil || *in.SB <= 0 || *in.BB <= 0 {
		return "", time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "sb and bb must be numbers greater than zero")
	}
	return stakes.Format(*in.SB, *in.BB), dateTS, nil
}

// ownedBalance checks the actor may mutate b and loads the owning player.
func (s *balanceService) ownedBalance(ctx context.Context, actor Actor, b *models.Balance) (*models.Group, *models.Player, error) {
	if b == nil {
		return nil, nil, apperrors.ErrBalanceNotFound
	}
	g, err := loadGroup(ctx, s.d.Store, b.GroupID)
	if err != nil {
		return nil, nil, err
	}
	if b.PlayerUID != actor.UID {
		return nil, nil, apperrors.ErrForbidden
	}
	if b.IsDeleted {
		return nil, nil, apperrors.ErrBalanceAlreadyDeleted
	}
	p, err := loadMember(ctx, s.d.Store, b.GroupID, actor.UID)
	if err != nil {
		return nil, nil, err
	}
	return g, p, nil
}

func (s *balanceService) newHistory(b *models.Balance, p *models.Player, actor Actor, category models.ChangeCategory, details models.ChangeDetails) *models.HistoryRecord {
	return &models.HistoryRecord{
		HistoryID:       s.d.IDs.Numeric(idgen.HistoryIDDigits),
		GroupID:         b.GroupID,
		BalanceID:       b.BalanceID,
		ChangeCategory:  category,
		ChangeDetails:   details,
		ChangerUID:      actor.UID,
		ChangerPlayerID: p.PlayerID,
	}
}

// Create records a new session for the actor.
func (s *balanceService) Create(ctx context.Context, actor Actor, groupID int64, in BalanceInput) (b *models.Balance, err error) {
	start := time.Now()
	defer func() { s.d.Metrics.ObserveMutation(OpCreate, start, err) }()

	g, err := loadGroup(ctx, s.d.Store, groupID)
	if err != nil {
		return nil, err
	}
	p, err := loadMember(ctx, s.d.Store, groupID, actor.UID)
	if err != nil {
		return nil, err
	}
	stakesText, dateTS, err := s.resolveInput(g, in)
	if err != nil {
		return nil, err
	}

	now := s.d.Now().UTC()
	b = &models.Balance{
		BalanceID:   s.d.IDs.Numeric(idgen.BalanceIDDigits),
		GroupID:     groupID,
		PlayerID:    p.PlayerID,
		PlayerUID:   actor.UID,
		Date:        in.Date,
		DateTS:      dateTS,
		Stakes:      stakesText,
		BuyInBB:     in.BuyInBB,
		EndingBB:    in.EndingBB,
		Memo:        in.Memo,
		LastUpdated: now,
	}
	b.ID = idgen.Handle()
	b.CreatedAt = now
	delta := b.Net()

	view := s.view(ctx, groupID)
	undo := applyPatch(view, mirror.Patch{Upsert: b, PlayerUID: actor.UID, TotalDelta: delta})

	err = s.runChain(ctx, OpCreate, b, view, undo, []step{
		{StepBalance, func() error {
			return s.d.Store.CreateBalance(ctx, b)
		}},
		{StepPlayerTotal, func() error {
			return s.d.Store.PatchPlayer(ctx, p.ID, store.Fields{"total_balance": models.AddBB(p.TotalBalance, delta)})
		}},
		{StepGroupTouch, func() error {
			return s.d.Store.PatchGroup(ctx, groupID, store.Fields{"last_updated": now})
		}},
		{StepHistory, func() error {
			return s.history.Record(ctx, s.newHistory(b, p, actor, models.ChangeCreate, models.CreateDetails(b.Snapshot())))
		}},
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Update replaces the mutable fields of a loaded balance. The player total
// moves by the difference between the new and old net results.
func (s *balanceService) Update(ctx context.Context, actor Actor, existing *models.Balance, in BalanceInput) (b *models.Balance, err error) {
	start := time.Now()
	defer func() { s.d.Metrics.ObserveMutation(OpUpdate, start, err) }()

	g, p, err := s.ownedBalance(ctx, actor, existing)
	if err != nil {
		return nil, err
	}
	stakesText, dateTS, err := s.resolveInput(g, in)
	if err != nil {
		return nil, err
	}

	before := existing.Snapshot()
	now := s.d.Now().UTC()
	diff := decimal.NewFromFloat(models.NetOf(in.BuyInBB, in.EndingBB)).
		Sub(decimal.NewFromFloat(existing.Net())).
		InexactFloat64()

	updated := *existing
	updated.Date = in.Date
	updated.DateTS = dateTS
	updated.Stakes = stakesText
	updated.BuyInBB = in.BuyInBB
	updated.EndingBB = in.EndingBB
	updated.Memo = in.Memo
	updated.LastUpdated = now
	b = &updated

	after := models.BalanceSnapshot{
		Date:        updated.Date,
		DateTS:      &updated.DateTS,
		Stakes:      updated.Stakes,
		BuyInBB:     updated.BuyInBB,
		EndingBB:    updated.EndingBB,
		Memo:        updated.Memo,
		LastUpdated: &updated.LastUpdated,
	}

	view := s.view(ctx, existing.GroupID)
	undo := applyPatch(view, mirror.Patch{Upsert: b, PlayerUID: actor.UID, TotalDelta: diff})

	err = s.runChain(ctx, OpUpdate, b, view, undo, []step{
		{StepBalance, func() error {
			return s.d.Store.PatchBalance(ctx, existing.ID, store.Fields{
				"date":         updated.Date,
				"date_ts":      updated.DateTS,
				"stakes":       updated.Stakes,
				"buy_in_bb":    updated.BuyInBB,
				"ending_bb":    updated.EndingBB,
				"memo":         updated.Memo,
				"last_updated": now,
			})
		}},
		{StepPlayerTotal, func() error {
			return s.d.Store.PatchPlayer(ctx, p.ID, store.Fields{"total_balance": models.AddBB(p.TotalBalance, diff)})
		}},
		{StepGroupTouch, func() error {
			return s.d.Store.PatchGroup(ctx, existing.GroupID, store.Fields{"last_updated": now})
		}},
		{StepHistory, func() error {
			return s.history.Record(ctx, s.newHistory(b, p, actor, models.ChangeUpdate, models.UpdateDetails(before, after)))
		}},
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// SoftDelete flags a loaded balance deleted and removes its net result from
// the player total. A balance already flagged, or with a delete in flight in
// this process, is rejected.
func (s *balanceService) SoftDelete(ctx context.Context, actor Actor, existing *models.Balance) (err error) {
	start := time.Now()
	defer func() { s.d.Metrics.ObserveMutation(OpDelete, start, err) }()

	_, p, err := s.ownedBalance(ctx, actor, existing)
	if err != nil {
		return err
	}
	if _, busy := s.deleting.LoadOrStore(existing.ID, struct{}{}); busy {
		return apperrors.ErrDeleteInProgress
	}
	defer s.deleting.Delete(existing.ID)

	// the caller's copy may predate a delete that finished in the meantime
	current, err := s.d.Store.GetBalance(ctx, existing.GroupID, existing.ID)
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.ErrBalanceNotFound
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if current.IsDeleted {
		return apperrors.ErrBalanceAlreadyDeleted
	}

	before := current.Snapshot()
	delta := current.Net()
	now := s.d.Now().UTC()

	view := s.view(ctx, current.GroupID)
	undo := applyPatch(view, mirror.Patch{Remove: current.ID, PlayerUID: actor.UID, TotalDelta: -delta})

	return s.runChain(ctx, OpDelete, current, view, undo, []step{
		{StepBalance, func() error {
			return s.d.Store.PatchBalance(ctx, current.ID, store.Fields{"is_deleted": true, "last_updated": now})
		}},
		{StepPlayerTotal, func() error {
			return s.d.Store.PatchPlayer(ctx, p.ID, store.Fields{"total_balance": models.AddBB(p.TotalBalance, -delta)})
		}},
		{StepGroupTouch, func() error {
			return s.d.Store.PatchGroup(ctx, current.GroupID, store.Fields{"last_updated": now})
		}},
		{StepHistory, func() error {
			return s.history.Record(ctx, s.newHistory(current, p, actor, models.ChangeDelete, models.DeleteDetails(before)))
		}},
	})
}

// Get loads a balance of a group the actor belongs to, deleted or not.
func (s *balanceService) Get(ctx context.Context, actor Actor, groupID int64, handle string) (*models.Balance, error) {
	if _, err := loadMember(ctx, s.d.Store, groupID, actor.UID); err != nil {
		return nil, err
	}
	if !idgen.IsHandle(strings.TrimSpace(handle)) {
		return nil, apperrors.ErrBalanceNotFound
	}
	b, err := s.d.Store.GetBalance(ctx, groupID, handle)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ErrBalanceNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return b, nil
}

// List returns the group's live balances from the local mirror, newest
// session first. With mine set only the actor's balances are returned.
func (s *balanceService) List(ctx context.Context, actor Actor, groupID int64, mine bool) ([]models.Balance, error) {
	if _, err := loadMember(ctx, s.d.Store, groupID, actor.UID); err != nil {
		return nil, err
	}
	v, err := s.d.Mirror.View(ctx, groupID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	uid := ""
	if mine {
		uid = actor.UID
	}
	return v.Balances(uid), nil
}
