package services

import (
	"context"
	"strconv"
	"time"

	apperrors "bankroll/internal/errors"
	"bankroll/internal/history"
	"bankroll/internal/logger"
	"bankroll/internal/models"
	"bankroll/internal/pagination"
)

// historyService appends and queries the balance audit trail.
type historyService struct {
	d Deps
}

// NewHistoryService creates a new HistoryServicer.
func NewHistoryService(d Deps) HistoryServicer {
	return &historyService{d: d.withDefaults()}
}

// Record appends a history record after checking its details match its
// category. Records are never changed afterwards.
func (s *historyService) Record(ctx context.Context, h *models.HistoryRecord) error {
	if err := h.ChangeDetails.Check(h.ChangeCategory); err != nil {
		logger.Named("history").Errorw("Refusing malformed history record",
			"group_id", h.GroupID,
			"balance_id", h.BalanceID,
			"category", h.ChangeCategory,
			"error", err,
		)
		return err
	}
	return s.d.Store.AppendHistory(ctx, h)
}

// List returns the admin history view: records filtered, sorted, expanded
// into display rows and paged.
func (s *historyService) List(ctx context.Context, actor Actor, groupID int64, adminPassword string, filter HistoryFilter, page pagination.PageRequest) (*pagination.PageResponse[history.Entry], error) {
	if _, err := authorizeAdmin(ctx, s.d.Store, actor, groupID, adminPassword); err != nil {
		return nil, err
	}

	criteria, err := filter.Criteria(s.d.Location)
	if err != nil {
		return nil, err
	}

	records, err := s.d.Store.ListHistory(ctx, groupID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	entries := history.Apply(records, criteria, filter.Sort())
	resp := pagination.Slice(entries, page)
	return &resp, nil
}

// Criteria converts the submitted filter, reading dates in loc.
func (f HistoryFilter) Criteria(loc *time.Location) (history.Criteria, error) {
	c := history.Criteria{
		BalanceID: f.BalanceID,
		Category:  models.ChangeCategory(f.Category),
		PlayerUID: f.PlayerUID,
		DateStart: f.DateStart,
		DateEnd:   f.DateEnd,
		Stakes:    f.Stakes,
		BuyInMin:  f.BuyInMin,
		BuyInMax:  f.BuyInMax,
		EndingMin: f.EndingMin,
		EndingMax: f.EndingMax,
		DeltaMin:  f.DeltaMin,
		DeltaMax:  f.DeltaMax,
		Memo:      f.Memo,
	}
	if c.Category != "" && !c.Category.Valid() {
		return c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown change category")
	}
	if c.BalanceID != "" {
		if _, err := strconv.ParseInt(c.BalanceID, 10, 64); err != nil {
			return c, apperrors.WithMessage(apperrors.ErrInvalidInput, "balance_id must be numeric")
		}
	}

	var err error
	if c.ChangedStart, err = parseDay(f.ChangedStart, loc); err != nil {
		return c, err
	}
	if c.ChangedEnd, err = parseDay(f.ChangedEnd, loc); err != nil {
		return c, err
	}
	return c, nil
}

// Sort returns the requested sort state, defaulting to newest change first.
func (f HistoryFilter) Sort() history.SortState {
	key := history.SortKey(f.SortKey)
	if !key.Valid() {
		return history.DefaultSort()
	}
	dir := history.SortDir(f.SortDir)
	if dir != history.Asc && dir != history.Desc {
		dir = history.Asc
	}
	return history.SortState{Key: key, Dir: dir}
}

func parseDay(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := models.ParseDate(s, loc)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "dates must be YYYY-MM-DD")
	}
	return &t, nil
}
