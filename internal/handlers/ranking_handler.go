package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bankroll/internal/services"
)

// RankingHandler serves the member-visible leaderboard.
type RankingHandler struct {
	rankingService services.RankingServicer
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(rankingService services.RankingServicer) *RankingHandler {
	return &RankingHandler{rankingService: rankingService}
}

// PublicRanking returns the top players of the group
// @Summary     Ranking
// @Description Players ordered by total result, truncated to the group's ranking_top_n.
// @Tags        ranking
// @Produce     json
// @Security    BearerAuth
// @Param       groupID path int true "Group ID"
// @Success     200 {object} map[string]interface{} "Ranking"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Router      /groups/{groupID}/ranking [get]
func (h *RankingHandler) PublicRanking(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	rows, err := h.rankingService.Public(c.Request.Context(), actor, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ranking": rows})
}
