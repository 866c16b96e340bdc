package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lobsterwork/lobsterwork/internal/config"
	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/lobsterwork/lobsterwork/internal/middleware"
)

func (h *Handler) handleCreatePaymentIntent(c *gin.Context) {
	issued, err := h.payments.CreateIntent(c.Request.Context(), middleware.GetUser(c))
	if err != nil {
		// This route answers 200, 401 or 500 only.
		if errors.Is(err, domain.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		h.report(c, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment intent"})
		return
	}
	c.JSON(http.StatusOK, issued)
}

func (h *Handler) handleStripeWebhook(c *gin.Context) {
	if !h.webhooks.Configured() {
		slog.Error("stripe webhook secret is not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook secret not configured"})
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, config.MaxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		badRequest(c, "Invalid request body")
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		badRequest(c, "Missing stripe-signature header")
		return
	}

	event, err := h.webhooks.Verify(payload, signature)
	if err != nil {
		slog.Warn("webhook verification failed", "error", err)
		h.writeError(c, err, "Webhook handler failed")
		return
	}

	if err := h.payments.HandleEvent(c.Request.Context(), event); err != nil {
		h.writeError(c, err, "Webhook handler failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) handleGetPayment(c *gin.Context) {
	attempt, err := h.payments.GetAttempt(c.Request.Context(), middleware.GetUser(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to load payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": attempt})
}
