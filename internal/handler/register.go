package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lobsterwork/lobsterwork/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts all routes on r. Authentication middleware must already be
// installed on r so that middleware.GetUser works in the handlers.
func (h *Handler) Register(r gin.IRouter, gatherer prometheus.Gatherer) {
	r.GET("/healthz", h.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Provider callbacks authenticate by signature, not session
	r.POST("/webhooks/stripe", h.handleStripeWebhook)

	// Everything below is rate limited per user, or per IP when anonymous
	api := r.Group("/")
	if h.limit != nil {
		api.Use(h.limit)
	}

	// Public reads
	api.GET("/tasks", h.handleListTasks)
	api.GET("/tasks/:id", h.handleGetTask)
	api.GET("/profiles/:id", h.handleGetProfile)
	api.GET("/profiles/:id/reviews", h.handleListReviews)

	auth := api.Group("/", middleware.RequireUser())
	auth.POST("/create-payment-intent", h.handleCreatePaymentIntent)
	auth.GET("/payments/:id", h.handleGetPayment)

	auth.POST("/tasks", h.handleCreateTask)
	auth.PATCH("/tasks/:id", h.handleUpdateTask)

	auth.POST("/tasks/:id/bids", h.handleCreateBid)
	auth.GET("/tasks/:id/bids", h.handleListTaskBids)
	auth.GET("/bids/mine", h.handleListMyBids)
	auth.POST("/bids/:id/accept", h.handleAcceptBid)

	auth.POST("/reviews", h.handleCreateReview)

	auth.GET("/profile", h.handleGetOwnProfile)
	auth.PATCH("/profile", h.handleUpdateProfile)
}
