package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/teamsphere/teamsphere-server/internal/service"
	"github.com/teamsphere/teamsphere-server/internal/store"
)

// ProjectHandlers provides HTTP handlers for project endpoints, including
// the shared project notes.
type ProjectHandlers struct {
	svc *service.Projects
	log *zerolog.Logger
}

// NewProjectHandlers creates a new project handlers instance.
func NewProjectHandlers(svc *service.Projects, logger *zerolog.Logger) *ProjectHandlers {
	return &ProjectHandlers{svc: svc, log: logger}
}

// AddMemberRequest represents the add-member request body.
type AddMemberRequest struct {
	Email string     `json:"email" binding:"required"`
	Role  store.Role `json:"role"`
}

// NotesRequest represents the notes update request body.
type NotesRequest struct {
	Notes string `json:"notes"`
}

// NotesResponse represents the notes response body.
type NotesResponse struct {
	Notes string `json:"notes"`
}

// List returns the caller's projects.
// GET /api/projects
func (h *ProjectHandlers) List(c *gin.Context) {
	projects, err := h.svc.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// Get returns one project with tasks and milestones expanded.
// GET /api/projects/:id
func (h *ProjectHandlers) Get(c *gin.Context) {
	project, err := h.svc.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Create creates a project owned by the caller.
// POST /api/projects
func (h *ProjectHandlers) Create(c *gin.Context) {
	var req service.CreateProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	project, err := h.svc.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// Update modifies project fields.
// PUT /api/projects/:id
func (h *ProjectHandlers) Update(c *gin.Context) {
	var req service.UpdateProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	project, err := h.svc.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Delete removes a project and everything in it.
// DELETE /api/projects/:id
func (h *ProjectHandlers) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// AddMember adds a user to the project by email.
// POST /api/projects/:id/members
func (h *ProjectHandlers) AddMember(c *gin.Context) {
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	project, err := h.svc.AddMember(c.Request.Context(), currentUserID(c), c.Param("id"), req.Email, req.Role)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// GetNotes returns the project's shared notes.
// GET /api/notes/project/:projectId
func (h *ProjectHandlers) GetNotes(c *gin.Context) {
	notes, err := h.svc.GetNotes(c.Request.Context(), currentUserID(c), c.Param("projectId"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, NotesResponse{Notes: notes})
}

// UpdateNotes replaces the project's shared notes.
// PUT /api/notes/project/:projectId
func (h *ProjectHandlers) UpdateNotes(c *gin.Context) {
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	notes, err := h.svc.UpdateNotes(c.Request.Context(), currentUserID(c), c.Param("projectId"), req.Notes)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, NotesResponse{Notes: notes})
}
