package services

import (
	"context"
	"errors"
	"strings"

	apperrors "bankroll/internal/errors"
	"bankroll/internal/events"
	"bankroll/internal/idgen"
	"bankroll/internal/logger"
	"bankroll/internal/models"
	"bankroll/internal/ranking"
	"bankroll/internal/stakes"
	"bankroll/internal/store"
)

// groupService handles group membership and settings.
type groupService struct {
	d Deps
}

// NewGroupService creates a new GroupServicer.
func NewGroupService(d Deps) GroupServicer {
	return &groupService{d: d.withDefaults()}
}

// CreateGroup creates a group owned by the actor and joins the actor as its
// first player.
func (s *groupService) CreateGroup(ctx context.Context, actor Actor, in CreateGroupInput) (*models.Group, *models.Player, error) {
	name := strings.TrimSpace(in.GroupName)
	if name == "" {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "group name is required")
	}
	if in.PlayerPassword == "" || in.AdminPassword == "" {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "player and admin passwords are required")
	}

	playerHash, err := hashPassword(in.PlayerPassword)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	adminHash, err := hashPassword(in.AdminPassword)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	g := &models.Group{
		GroupID:            s.d.IDs.Numeric(idgen.GroupIDDigits),
		GroupName:          name,
		Creator:            actor.Email,
		CreatorUID:         actor.UID,
		CreatorName:        strings.TrimSpace(in.DisplayName),
		PlayerPasswordHash: playerHash,
		AdminPasswordHash:  adminHash,
		Settings:           &models.GroupSettings{RankingTopN: s.d.DefaultTopN},
		LastUpdated:        s.d.Now().UTC(),
	}
	if err := s.d.Store.CreateGroup(ctx, g); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrPersistenceFailed, err)
	}

	p, err := s.join(ctx, g, actor, in.DisplayName)
	if err != nil {
		return nil, nil, err
	}

	logger.Named("groups").Infow("Group created", "group_id", g.GroupID, "creator_uid", actor.UID)
	return g, p, nil
}

// JoinGroup adds the actor to a group after checking the player password.
// Joining twice returns the existing player.
func (s *groupService) JoinGroup(ctx context.Context, actor Actor, groupID int64, password, displayName string) (*models.Player, error) {
	g, err := loadGroup(ctx, s.d.Store, groupID)
	if err != nil {
		return nil, err
	}
	if !checkPassword(g.PlayerPasswordHash, password) {
		return nil, apperrors.ErrInvalidPassword
	}
	return s.join(ctx, g, actor, displayName)
}

func (s *groupService) join(ctx context.Context, g *models.Group, actor Actor, displayName string) (*models.Player, error) {
	existing, err := s.d.Store.GetPlayer(ctx, g.GroupID, actor.UID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = emailLocalPart(actor.Email)
	}
	p := &models.Player{
		PlayerID:    s.d.IDs.Numeric(idgen.PlayerIDDigits),
		GroupID:     g.GroupID,
		PlayerUID:   actor.UID,
		DisplayName: name,
		Email:       actor.Email,
	}
	if err := s.d.Store.CreatePlayer(ctx, p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// joined concurrently
			return loadMember(ctx, s.d.Store, g.GroupID, actor.UID)
		}
		return nil, apperrors.Wrap(apperrors.ErrPersistenceFailed, err)
	}

	s.d.Mirror.Invalidate(g.GroupID)
	s.publish(ctx, g.GroupID)
	return p, nil
}

func emailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	if email != "" {
		return email
	}
	return ranking.UnknownName
}

// GetGroup returns a group the actor belongs to.
func (s *groupService) GetGroup(ctx context.Context, actor Actor, groupID int64) (*models.Group, error) {
	g, err := loadGroup(ctx, s.d.Store, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := loadMember(ctx, s.d.Store, groupID, actor.UID); err != nil {
		return nil, err
	}
	return g, nil
}

// GetMember returns the actor's player profile in a group.
func (s *groupService) GetMember(ctx context.Context, actor Actor, groupID int64) (*models.Player, error) {
	if _, err := loadGroup(ctx, s.d.Store, groupID); err != nil {
		return nil, err
	}
	return loadMember(ctx, s.d.Store, groupID, actor.UID)
}

// ListPlayers returns the group's player directory.
func (s *groupService) ListPlayers(ctx context.Context, actor Actor, groupID int64) ([]models.Player, error) {
	if _, err := s.GetMember(ctx, actor, groupID); err != nil {
		return nil, err
	}
	players, err := s.d.Store.ListPlayers(ctx, groupID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return players, nil
}

// ResolveStakes reports the group's effective stakes.
func (s *groupService) ResolveStakes(ctx context.Context, actor Actor, groupID int64) (*StakesView, error) {
	g, err := s.GetGroup(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}

	view := &StakesView{}
	view.FormSB, view.FormBB = stakes.FormDefaults(g.Settings)
	if st, ok := stakes.ResolveGroup(g); ok {
		sb, bb := st.SB, st.BB
		view.Fixed = true
		view.SB = &sb
		view.BB = &bb
		view.Stakes = st.String()
	}
	return view, nil
}

// UpdateSettings validates and saves the admin settings form. A failed
// validation writes nothing.
func (s *groupService) UpdateSettings(ctx context.Context, actor Actor, groupID int64, adminPassword string, in SettingsInput) (*models.Group, error) {
	g, err := authorizeAdmin(ctx, s.d.Store, actor, groupID, adminPassword)
	if err != nil {
		return nil, err
	}
	if !stakes.Validate(in.StakesFixed, in.StakesSB, in.StakesBB) {
		return nil, apperrors.ErrInvalidStakes
	}

	settings := &models.GroupSettings{
		StakesFixed: in.StakesFixed,
		RankingTopN: in.RankingTopN,
	}
	if settings.RankingTopN <= 0 {
		settings.RankingTopN = s.d.DefaultTopN
	}
	if in.StakesFixed {
		sb, bb := *in.StakesSB, *in.StakesBB
		settings.StakesSB = &sb
		settings.StakesBB = &bb
	}

	name := strings.TrimSpace(in.GroupName)
	if name == "" {
		name = g.GroupName
	}
	now := s.d.Now().UTC()

	err = s.d.Store.PatchGroup(ctx, groupID, store.Fields{
		"group_name":   name,
		"settings":     settings,
		"last_updated": now,
	})
	if err != nil {
		logger.Named("groups").Errorw("Failed to save group settings", "group_id", groupID, "error", err)
		return nil, apperrors.Wrap(apperrors.ErrPersistenceFailed, err)
	}

	g.GroupName = name
	g.Settings = settings
	g.LastUpdated = now
	s.publish(ctx, groupID)
	return g, nil
}

func (s *groupService) publish(ctx context.Context, groupID int64) {
	if err := s.d.Events.PublishGroupChanged(ctx, events.GroupChanged{GroupID: groupID}); err != nil {
		logger.Named("groups").Warnw("Failed to publish group change", "group_id", groupID, "error", err)
	}
}
