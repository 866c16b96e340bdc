package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lobsterwork/lobsterwork/internal/domain"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// errorMappings is checked in order. An empty message means the error's own
// text is returned.
var errorMappings = []errorMapping{
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{domain.ErrValidation, http.StatusBadRequest, ""},
	{domain.ErrPaymentIntentNotFound, http.StatusBadRequest, "Unknown payment_intent_id"},
	{domain.ErrInvalidPurpose, http.StatusBadRequest, "Invalid payment intent purpose"},
	{domain.ErrAmountMismatch, http.StatusBadRequest, "Payment amount/currency mismatch"},
	{domain.ErrPaymentNotReady, http.StatusPaymentRequired, "Payment has not succeeded yet"},
	{domain.ErrOwnership, http.StatusForbidden, "Payment intent does not belong to this user"},
	{domain.ErrPaymentUserMismatch, http.StatusForbidden, "Payment intent does not belong to this user"},
	{domain.ErrPaymentAlreadyUsed, http.StatusConflict, "Payment already used"},
	{domain.ErrUpstream, http.StatusBadGateway, "Failed to verify payment"},
	{domain.ErrInvalidSignature, http.StatusBadRequest, "Invalid signature"},
	{domain.ErrWebhookNotConfigured, http.StatusInternalServerError, "Webhook secret not configured"},

	{domain.ErrPaymentNotFound, http.StatusNotFound, "Payment not found"},
	{domain.ErrProfileNotFound, http.StatusNotFound, "Profile not found"},
	{domain.ErrTaskNotFound, http.StatusNotFound, "Task not found"},
	{domain.ErrBidNotFound, http.StatusNotFound, "Bid not found"},
	{domain.ErrNotTaskPoster, http.StatusForbidden, "Only the task poster can do this"},
	{domain.ErrSelfBid, http.StatusForbidden, "You cannot bid on your own task"},
	{domain.ErrReviewNotAllowed, http.StatusForbidden, "You cannot review this task"},
	{domain.ErrTaskNotOpen, http.StatusConflict, "Task is not open"},
	{domain.ErrInvalidTransition, http.StatusConflict, "Invalid status transition"},
	{domain.ErrDuplicateBid, http.StatusConflict, "You have already bid on this task"},
	{domain.ErrDuplicateReview, http.StatusConflict, "You have already reviewed this task"},
}

// writeError maps err to a status code and a {"error": message} body.
// Unrecognised errors become a 500 with fallback as the message. Server
// errors are attached to the context for request logging and reported to
// operators.
func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.message
		if message == "" {
			message = validationMessage(err)
		}
		if m.status >= http.StatusInternalServerError {
			h.report(c, err)
		}
		c.JSON(m.status, gin.H{"error": message})
		return
	}

	h.report(c, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

func (h *Handler) report(c *gin.Context, err error) {
	_ = c.Error(err)
	if h.reporter != nil {
		h.reporter.Error(err, c.Request.Method+" "+c.FullPath())
	}
}

func validationMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
