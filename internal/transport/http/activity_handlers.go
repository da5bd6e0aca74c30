package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/teamsphere/teamsphere-server/internal/service"
)

// ActivityHandlers provides HTTP handlers for the project activity feed.
type ActivityHandlers struct {
	svc *service.Activities
	log *zerolog.Logger
}

// NewActivityHandlers creates a new activity handlers instance.
func NewActivityHandlers(svc *service.Activities, logger *zerolog.Logger) *ActivityHandlers {
	return &ActivityHandlers{svc: svc, log: logger}
}

// ListByProject returns the project feed, newest first.
// GET /api/activities/project/:projectId?limit=
func (h *ActivityHandlers) ListByProject(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	activities, err := h.svc.ListByProject(c.Request.Context(), currentUserID(c), c.Param("projectId"), limit)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}
