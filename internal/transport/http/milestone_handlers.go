package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/teamsphere/teamsphere-server/internal/service"
)

// MilestoneHandlers provides HTTP handlers for milestone endpoints.
type MilestoneHandlers struct {
	svc *service.Milestones
	log *zerolog.Logger
}

// NewMilestoneHandlers creates a new milestone handlers instance.
func NewMilestoneHandlers(svc *service.Milestones, logger *zerolog.Logger) *MilestoneHandlers {
	return &MilestoneHandlers{svc: svc, log: logger}
}

// MilestoneTaskRequest represents the add-task request body.
type MilestoneTaskRequest struct {
	TaskID string `json:"taskId" binding:"required"`
}

// ListByProject returns the project's milestones.
// GET /api/milestones/project/:projectId
func (h *MilestoneHandlers) ListByProject(c *gin.Context) {
	milestones, err := h.svc.ListByProject(c.Request.Context(), currentUserID(c), c.Param("projectId"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, milestones)
}

// Create creates a milestone.
// POST /api/milestones
func (h *MilestoneHandlers) Create(c *gin.Context) {
	var req service.CreateMilestoneInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	milestone, err := h.svc.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, milestone)
}

// Update modifies milestone fields.
// PUT /api/milestones/:id
func (h *MilestoneHandlers) Update(c *gin.Context) {
	var req service.UpdateMilestoneInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	milestone, err := h.svc.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, milestone)
}

// Delete removes a milestone.
// DELETE /api/milestones/:id
func (h *MilestoneHandlers) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// AddTask links a task into the milestone.
// POST /api/milestones/:id/tasks
func (h *MilestoneHandlers) AddTask(c *gin.Context) {
	var req MilestoneTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	milestone, err := h.svc.AddTask(c.Request.Context(), currentUserID(c), c.Param("id"), req.TaskID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, milestone)
}
