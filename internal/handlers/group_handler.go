package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "bankroll/internal/errors"
	"bankroll/internal/models"
	"bankroll/internal/services"
)

// GroupHandler handles group membership requests.
type GroupHandler struct {
	groupService services.GroupServicer
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService services.GroupServicer) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroupRequest represents the request payload for creating a group.
type CreateGroupRequest struct {
	GroupName      string `json:"group_name" binding:"required,min=1,max=100"`
	PlayerPassword string `json:"player_password" binding:"required,min=4,max=72"`
	AdminPassword  string `json:"admin_password" binding:"required,min=4,max=72"`
	DisplayName    string `json:"display_name" binding:"max=50"`
}

// JoinGroupRequest represents the request payload for joining a group.
type JoinGroupRequest struct {
	PlayerPassword string `json:"player_password" binding:"required"`
	DisplayName    string `json:"display_name" binding:"max=50"`
}

// GroupResponse is a group as shown to members.
type GroupResponse struct {
	*models.Group
	DisplayID   string `json:"display_id"`
	CreatorName string `json:"creator_display_name"`
}

func groupResponse(g *models.Group) GroupResponse {
	return GroupResponse{Group: g, DisplayID: g.DisplayID(), CreatorName: g.CreatorDisplayName()}
}

// CreateGroup handles the creation of a new group
// @Summary     Create a group
// @Description Create a group; the caller joins it as its first player
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGroupRequest true "Group details"
// @Success     201 {object} map[string]interface{} "Group and creator player"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	group, player, err := h.groupService.CreateGroup(c.Request.Context(), actor, services.CreateGroupInput{
		GroupName:      req.GroupName,
		PlayerPassword: req.PlayerPassword,
		AdminPassword:  req.AdminPassword,
		DisplayName:    req.DisplayName,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"group": groupResponse(group), "player": player})
}

// GetGroup returns a group to one of its members
// @Summary     Get a group
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       groupID path int true "Group ID"
// @Success     200 {object} map[string]interface{} "Group"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /groups/{groupID} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	group, err := h.groupService.GetGroup(c.Request.Context(), actor, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": groupResponse(group)})
}

// JoinGroup adds the caller to a group
// @Summary     Join a group
// @Description Join with the player password. Joining twice returns the existing profile.
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       groupID path int true "Group ID"
// @Param       request body JoinGroupRequest true "Join details"
// @Success     200 {object} map[string]interface{} "Player"
// @Failure     403 {object} ErrorResponse "Incorrect password"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /groups/{groupID}/join [post]
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	var req JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	player, err := h.groupService.JoinGroup(c.Request.Context(), actor, groupID, req.PlayerPassword, req.DisplayName)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"player": player})
}

// GetMember returns the caller's player profile
// @Summary     Get my player profile
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       groupID path int true "Group ID"
// @Success     200 {object} map[string]interface{} "Player"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Router      /groups/{groupID}/me [get]
func (h *GroupHandler) GetMember(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	player, err := h.groupService.GetMember(c.Request.Context(), actor, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"player": player})
}

// ListPlayers lists the group's players
// @Summary     List players
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       groupID path int true "Group ID"
// @Success     200 {object} map[string]interface{} "Players"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Router      /groups/{groupID}/players [get]
func (h *GroupHandler) ListPlayers(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	players, err := h.groupService.ListPlayers(c.Request.Context(), actor, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"players": players})
}

// ResolveStakes returns the stakes the reporting form should use
// @Summary     Resolve stakes
// @Description Fixed groups return their SB/BB; otherwise players enter stakes per session.
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       groupID path int true "Group ID"
// @Success     200 {object} services.StakesView "Stakes"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Router      /groups/{groupID}/stakes [get]
func (h *GroupHandler) ResolveStakes(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	view, err := h.groupService.ResolveStakes(c.Request.Context(), actor, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
