package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/lobsterwork/lobsterwork/internal/middleware"
	"github.com/shopspring/decimal"
)

type createBidRequest struct {
	Amount         *decimal.Decimal `json:"amount"`
	Proposal       string           `json:"proposal"`
	EstimatedHours *int             `json:"estimated_hours"`
}

func (h *Handler) handleCreateBid(c *gin.Context) {
	var req createBidRequest
	if !bindJSON(c, &req) {
		return
	}

	bid, err := h.bids.Create(c.Request.Context(), middleware.GetUser(c), domain.CreateBidInput{
		TaskID:         c.Param("id"),
		Amount:         req.Amount,
		Proposal:       req.Proposal,
		EstimatedHours: req.EstimatedHours,
	})
	if err != nil {
		h.writeError(c, err, "Failed to place bid")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bid": bid})
}

func (h *Handler) handleListTaskBids(c *gin.Context) {
	bids, err := h.bids.ListForTask(c.Request.Context(), middleware.GetUser(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to list bids")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

func (h *Handler) handleListMyBids(c *gin.Context) {
	bids, err := h.bids.ListMine(c.Request.Context(), middleware.GetUser(c))
	if err != nil {
		h.writeError(c, err, "Failed to list bids")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

func (h *Handler) handleAcceptBid(c *gin.Context) {
	bid, err := h.bids.Accept(c.Request.Context(), middleware.GetUser(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to accept bid")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bid": bid})
}
