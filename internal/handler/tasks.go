package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/lobsterwork/lobsterwork/internal/middleware"
	"github.com/shopspring/decimal"
)

func (h *Handler) handleCreateTask(c *gin.Context) {
	body, ok := decodeObject(c)
	if !ok {
		return
	}

	in := domain.CreateTaskInput{
		PaymentIntentID: nonEmptyString(body["payment_intent_id"]),
		TaskFields: domain.TaskFields{
			Title:       nonEmptyString(body["title"]),
			Description: nonEmptyString(body["description"]),
			BudgetMin:   number(body["budget_min"]),
			BudgetMax:   number(body["budget_max"]),
			Category:    optionalString(body["category"]),
		},
	}
	if wt := optionalString(body["preferred_worker_type"]); wt != nil {
		t := domain.UserType(*wt)
		in.PreferredWorkerType = &t
	}
	if err := in.Validate(); err != nil {
		h.writeError(c, err, "Failed to create task")
		return
	}
	deadline, err := domain.ParseDeadline(nonEmptyString(body["deadline"]))
	if err != nil {
		h.writeError(c, err, "Failed to create task")
		return
	}
	in.Deadline = deadline

	result, err := h.tasks.CreateWithPayment(c.Request.Context(), middleware.GetUser(c), in)
	if err != nil {
		h.writeError(c, err, "Failed to create task")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) handleListTasks(c *gin.Context) {
	var f domain.TaskFilter

	if s := strings.TrimSpace(c.Query("status")); s != "" {
		status := domain.TaskStatus(strings.ToUpper(s))
		if !status.Valid() {
			badRequest(c, "status must be one of OPEN, IN_PROGRESS, COMPLETED, CANCELLED")
			return
		}
		f.Status = &status
	}
	if s := strings.TrimSpace(c.Query("preferred_worker_type")); s != "" {
		wt := domain.UserType(strings.ToUpper(s))
		if !wt.Valid() {
			badRequest(c, "preferred_worker_type must be HUMAN or AGENT")
			return
		}
		f.PreferredWorkerType = &wt
	}
	if s := strings.TrimSpace(c.Query("category")); s != "" {
		f.Category = &s
	}
	if s := strings.TrimSpace(c.Query("poster_id")); s != "" {
		f.PosterID = &s
	}

	var ok bool
	if f.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}
	if f.Offset, ok = queryInt(c, "offset"); !ok {
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err, "Failed to list tasks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func queryInt(c *gin.Context, key string) (int, bool) {
	s := c.Query(key)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		badRequest(c, key+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func (h *Handler) handleGetTask(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), middleware.GetUser(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to load task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

type updateTaskRequest struct {
	Title               *string          `json:"title"`
	Description         *string          `json:"description"`
	BudgetMin           *decimal.Decimal `json:"budget_min"`
	BudgetMax           *decimal.Decimal `json:"budget_max"`
	PreferredWorkerType *string          `json:"preferred_worker_type"`
	Deadline            *string          `json:"deadline"`
	Category            *string          `json:"category"`
	Status              *string          `json:"status"`
}

func (h *Handler) handleUpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	upd := domain.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		BudgetMin:   req.BudgetMin,
		BudgetMax:   req.BudgetMax,
		Category:    req.Category,
	}
	if req.PreferredWorkerType != nil {
		wt := domain.UserType(*req.PreferredWorkerType)
		upd.PreferredWorkerType = &wt
	}
	if req.Status != nil {
		status := domain.TaskStatus(strings.ToUpper(*req.Status))
		upd.Status = &status
	}
	if req.Deadline != nil {
		deadline, err := domain.ParseDeadline(*req.Deadline)
		if err != nil {
			h.writeError(c, err, "Failed to update task")
			return
		}
		upd.Deadline = deadline
	}

	task, err := h.tasks.Update(c.Request.Context(), middleware.GetUser(c), c.Param("id"), upd)
	if err != nil {
		h.writeError(c, err, "Failed to update task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}
