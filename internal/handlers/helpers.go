package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "bankroll/internal/errors"
	"bankroll/internal/logger"
	"bankroll/internal/middleware"
	"bankroll/internal/services"
)

// adminPasswordHeader carries the group admin password on admin routes.
const adminPasswordHeader = "X-Admin-Password"

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// getActor extracts the authenticated user from the Gin context.
// Returns ErrUnauthorized if no uid is present.
func getActor(c *gin.Context) (services.Actor, error) {
	uid := c.GetString(middleware.UIDKey)
	if uid == "" {
		return services.Actor{}, apperrors.ErrUnauthorized
	}
	return services.Actor{UID: uid, Email: c.GetString(middleware.EmailKey)}, nil
}

// parseGroupID parses the :groupID path parameter.
func parseGroupID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("groupID"), 10, 64)
	if err != nil || id < 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid groupID")
	}
	return id, nil
}

// actorAndGroup is the common prologue of every group-scoped handler.
func actorAndGroup(c *gin.Context) (services.Actor, int64, bool) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return actor, 0, false
	}
	groupID, err := parseGroupID(c)
	if err != nil {
		respondWithError(c, err)
		return actor, 0, false
	}
	return actor, groupID, true
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	log := logger.Named("http")

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			log.Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, ErrorResponse{Error: ErrorDetail{Code: appErr.Code, Message: appErr.Message}})
		return
	}

	log.Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, ErrorResponse{Error: ErrorDetail{
		Code:    apperrors.ErrInternalServer.Code,
		Message: apperrors.ErrInternalServer.Message,
	}})
}
