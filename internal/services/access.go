package services

import (
	"context"
	"errors"

	apperrors "bankroll/internal/errors"
	"bankroll/internal/models"
	"bankroll/internal/store"

	"golang.org/x/crypto/bcrypt"
)

func loadGroup(ctx context.Context, st store.Store, groupID int64) (*models.Group, error) {
	g, err := st.GetGroup(ctx, groupID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ErrGroupNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return g, nil
}

func loadMember(ctx context.Context, st store.Store, groupID int64, uid string) (*models.Player, error) {
	p, err := st.GetPlayer(ctx, groupID, uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ErrNotAMember
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return p, nil
}

// authorizeAdmin admits the group creator, or a member presenting the admin
// password.
func authorizeAdmin(ctx context.Context, st store.Store, actor Actor, groupID int64, adminPassword string) (*models.Group, error) {
	g, err := loadGroup(ctx, st, groupID)
	if err != nil {
		return nil, err
	}
	if g.CreatorUID != "" && g.CreatorUID == actor.UID {
		return g, nil
	}
	if _, err := loadMember(ctx, st, groupID, actor.UID); err != nil {
		return nil, err
	}
	if adminPassword == "" {
		return nil, apperrors.ErrForbidden
	}
	if !checkPassword(g.AdminPasswordHash, adminPassword) {
		return nil, apperrors.ErrInvalidPassword
	}
	return g, nil
}

func hashPassword(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
