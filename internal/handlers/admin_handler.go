package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "bankroll/internal/errors"
	"bankroll/internal/pagination"
	"bankroll/internal/services"
)

// AdminHandler handles group administration: settings, the full ranking and
// the change history. Callers are the group creator or members presenting
// the admin password in X-Admin-Password.
type AdminHandler struct {
	groupService   services.GroupServicer
	rankingService services.RankingServicer
	historyService services.HistoryServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(groupService services.GroupServicer, rankingService services.RankingServicer, historyService services.HistoryServicer) *AdminHandler {
	return &AdminHandler{groupService: groupService, rankingService: rankingService, historyService: historyService}
}

// UpdateSettingsRequest represents the admin settings form.
type UpdateSettingsRequest struct {
	GroupName   string   `json:"group_name" binding:"max=100"`
	StakesFixed bool     `json:"stakes_fixed"`
	StakesSB    *float64 `json:"stakes_sb"`
	StakesBB    *float64 `json:"stakes_bb"`
	RankingTopN int      `json:"ranking_top_n"`
}

// HistoryQuery is the history filter plus paging.
type HistoryQuery struct {
	services.HistoryFilter
	pagination.PageRequest
}

// UpdateSettings saves the group settings
// @Summary     Update group settings
// @Description Fixed stakes require SB and BB greater than zero; nothing is written otherwise.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       groupID path int true "Group ID"
// @Param       X-Admin-Password header string false "Admin password"
// @Param       request body UpdateSettingsRequest true "Settings"
// @Success     200 {object} map[string]interface{} "Group"
// @Failure     400 {object} ErrorResponse "Invalid stakes"
// @Failure     403 {object} ErrorResponse "Admin access required"
// @Router      /groups/{groupID}/admin/settings [put]
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	group, err := h.groupService.UpdateSettings(c.Request.Context(), actor, groupID, c.GetHeader(adminPasswordHeader), services.SettingsInput{
		GroupName:   req.GroupName,
		StakesFixed: req.StakesFixed,
		StakesSB:    req.StakesSB,
		StakesBB:    req.StakesBB,
		RankingTopN: req.RankingTopN,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": groupResponse(group)})
}

// FullRanking returns every ranked player
// @Summary     Full ranking
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       groupID path int true "Group ID"
// @Param       X-Admin-Password header string false "Admin password"
// @Success     200 {object} map[string]interface{} "Ranking"
// @Failure     403 {object} ErrorResponse "Admin access required"
// @Router      /groups/{groupID}/admin/ranking [get]
func (h *AdminHandler) FullRanking(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	rows, err := h.rankingService.Full(c.Request.Context(), actor, groupID, c.GetHeader(adminPasswordHeader))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ranking": rows})
}

// ListHistory returns the filtered, sorted change history
// @Summary     Change history
// @Description Row criteria match a record when either its before or after snapshot matches. changed_end is inclusive.
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       groupID path int true "Group ID"
// @Param       X-Admin-Password header string false "Admin password"
// @Param       changed_start query string false "First change day (YYYY-MM-DD)"
// @Param       changed_end query string false "Last change day (YYYY-MM-DD)"
// @Param       balance_id query string false "Balance id"
// @Param       category query string false "create, update or delete"
// @Param       player_uid query string false "Player uid"
// @Param       date_start query string false "First session date"
// @Param       date_end query string false "Last session date"
// @Param       stakes query string false "Stakes substring"
// @Param       memo query string false "Memo substring"
// @Param       sort query string false "changed_at, date, buy_in_bb, ending_bb or delta"
// @Param       dir query string false "asc or desc"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]interface{} "Page of history entries"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     403 {object} ErrorResponse "Admin access required"
// @Router      /groups/{groupID}/admin/history [get]
func (h *AdminHandler) ListHistory(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp, err := h.historyService.List(c.Request.Context(), actor, groupID, c.GetHeader(adminPasswordHeader), q.HistoryFilter, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
