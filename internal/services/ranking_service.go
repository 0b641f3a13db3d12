package services

import (
	"context"

	apperrors "bankroll/internal/errors"
	"bankroll/internal/ranking"
)

// rankingService computes leaderboards from the local group mirror.
type rankingService struct {
	d Deps
}

// NewRankingService creates a new RankingServicer.
func NewRankingService(d Deps) RankingServicer {
	return &rankingService{d: d.withDefaults()}
}

// Public returns the member-visible ranking truncated to ranking_top_n.
func (s *rankingService) Public(ctx context.Context, actor Actor, groupID int64) ([]ranking.Row, error) {
	g, err := loadGroup(ctx, s.d.Store, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := loadMember(ctx, s.d.Store, groupID, actor.UID); err != nil {
		return nil, err
	}
	return s.compute(ctx, groupID, g.Settings.TopN())
}

// Full returns every ranked player.
func (s *rankingService) Full(ctx context.Context, actor Actor, groupID int64, adminPassword string) ([]ranking.Row, error) {
	if _, err := authorizeAdmin(ctx, s.d.Store, actor, groupID, adminPassword); err != nil {
		return nil, err
	}
	return s.compute(ctx, groupID, 0)
}

func (s *rankingService) compute(ctx context.Context, groupID int64, topN int) ([]ranking.Row, error) {
	v, err := s.d.Mirror.View(ctx, groupID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ranking.Compute(v.Balances(""), v.Players(), topN), nil
}
