package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "bankroll/internal/errors"
	"bankroll/internal/services"
)

// BalanceHandler handles session report requests.
type BalanceHandler struct {
	balanceService services.BalanceServicer
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceService services.BalanceServicer) *BalanceHandler {
	return &BalanceHandler{balanceService: balanceService}
}

// BalanceRequest represents a submitted session report. SB and BB are
// ignored when the group's stakes are fixed.
type BalanceRequest struct {
	Date     string   `json:"date" binding:"required,ymd_date"`
	SB       *float64 `json:"sb" binding:"omitempty,gt=0"`
	BB       *float64 `json:"bb" binding:"omitempty,gt=0"`
	BuyInBB  *float64 `json:"buy_in_bb" binding:"required"`
	EndingBB *float64 `json:"ending_bb" binding:"required"`
	Memo     string   `json:"memo" binding:"max=500"`
}

func (r BalanceRequest) input() services.BalanceInput {
	return services.BalanceInput{
		Date:     r.Date,
		SB:       r.SB,
		BB:       r.BB,
		BuyInBB:  *r.BuyInBB,
		EndingBB: *r.EndingBB,
		Memo:     r.Memo,
	}
}

// ListBalancesQuery holds the list filter.
type ListBalancesQuery struct {
	Mine bool `form:"mine"`
}

// ListBalances lists the group's live balances, newest date first
// @Summary     List balances
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Param       groupID path int true "Group ID"
// @Param       mine query bool false "Only the caller's balances"
// @Success     200 {object} map[string]interface{} "Balances"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Router      /groups/{groupID}/balances [get]
func (h *BalanceHandler) ListBalances(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	var q ListBalancesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	balances, err := h.balanceService.List(c.Request.Context(), actor, groupID, q.Mine)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances})
}

// CreateBalance records a session
// @Summary     Create a balance
// @Tags        balances
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       groupID path int true "Group ID"
// @Param       request body BalanceRequest true "Session report"
// @Success     201 {object} map[string]interface{} "Balance created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     502 {object} ErrorResponse "Persistence failed"
// @Router      /groups/{groupID}/balances [post]
func (h *BalanceHandler) CreateBalance(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	var req BalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	balance, err := h.balanceService.Create(c.Request.Context(), actor, groupID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"balance": balance})
}

// UpdateBalance edits one of the caller's balances
// @Summary     Update a balance
// @Tags        balances
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       groupID path int true "Group ID"
// @Param       balanceID path string true "Balance handle"
// @Param       request body BalanceRequest true "Session report"
// @Success     200 {object} map[string]interface{} "Balance updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Balance not found"
// @Failure     409 {object} ErrorResponse "Balance already deleted"
// @Failure     502 {object} ErrorResponse "Persistence failed"
// @Router      /groups/{groupID}/balances/{balanceID} [put]
func (h *BalanceHandler) UpdateBalance(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	var req BalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	existing, err := h.balanceService.Get(c.Request.Context(), actor, groupID, c.Param("balanceID"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.balanceService.Update(c.Request.Context(), actor, existing, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// DeleteBalance soft-deletes one of the caller's balances
// @Summary     Delete a balance
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Param       groupID path int true "Group ID"
// @Param       balanceID path string true "Balance handle"
// @Success     204 "Balance deleted"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Balance not found"
// @Failure     409 {object} ErrorResponse "Already deleted or delete in progress"
// @Failure     502 {object} ErrorResponse "Persistence failed"
// @Router      /groups/{groupID}/balances/{balanceID} [delete]
func (h *BalanceHandler) DeleteBalance(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	existing, err := h.balanceService.Get(c.Request.Context(), actor, groupID, c.Param("balanceID"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.balanceService.SoftDelete(c.Request.Context(), actor, existing); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
