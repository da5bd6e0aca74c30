package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/teamsphere/teamsphere-server/internal/service"
	"github.com/teamsphere/teamsphere-server/internal/store"
)

// TaskHandlers provides HTTP handlers for task endpoints.
type TaskHandlers struct {
	svc *service.Tasks
	log *zerolog.Logger
}

// NewTaskHandlers creates a new task handlers instance.
func NewTaskHandlers(svc *service.Tasks, logger *zerolog.Logger) *TaskHandlers {
	return &TaskHandlers{svc: svc, log: logger}
}

// CommentRequest represents the add-comment request body.
type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// ListByProject returns the project's tasks with optional filters.
// GET /api/tasks/project/:projectId?status=&assignee=&priority=&milestone=
func (h *TaskHandlers) ListByProject(c *gin.Context) {
	filter := store.TaskFilter{
		Status:      c.Query("status"),
		AssigneeID:  c.Query("assignee"),
		Priority:    c.Query("priority"),
		MilestoneID: c.Query("milestone"),
	}

	tasks, err := h.svc.ListByProject(c.Request.Context(), currentUserID(c), c.Param("projectId"), filter)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// Get returns one task.
// GET /api/tasks/:id
func (h *TaskHandlers) Get(c *gin.Context) {
	task, err := h.svc.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Create creates a task.
// POST /api/tasks
func (h *TaskHandlers) Create(c *gin.Context) {
	var req service.CreateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	task, err := h.svc.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// Update modifies task fields.
// PUT /api/tasks/:id
func (h *TaskHandlers) Update(c *gin.Context) {
	var req service.UpdateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	task, err := h.svc.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Delete removes a task.
// DELETE /api/tasks/:id
func (h *TaskHandlers) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// AddComment appends a comment to a task.
// POST /api/tasks/:id/comments
func (h *TaskHandlers) AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	task, err := h.svc.AddComment(c.Request.Context(), currentUserID(c), c.Param("id"), req.Content)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}
