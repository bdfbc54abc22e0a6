package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/fside/backend/internal/project"
	"github.com/fside/backend/internal/repository"
	"github.com/fside/backend/internal/ws"
)

// CollaborationHandler handles the collaboration session endpoints: the
// WebSocket attach route plus REST views over presence and chat history.
type CollaborationHandler struct {
	projects *project.Service
	gateway  *ws.Gateway
	chatRepo *repository.ChatRepository
}

// NewCollaborationHandler creates a new CollaborationHandler.
func NewCollaborationHandler(projects *project.Service, gateway *ws.Gateway, chatRepo *repository.ChatRepository) *CollaborationHandler {
	return &CollaborationHandler{
		projects: projects,
		gateway:  gateway,
		chatRepo: chatRepo,
	}
}

// Attach handles WS /api/projects/:id/collaborate - joins a project's
// collaboration session. Participant identity and membership are checked by
// the gateway during the join handshake.
func (h *CollaborationHandler) Attach(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Project ID is required")
		return
	}

	if err := h.gateway.HandleConnection(c.Writer, c.Request, projectID); err != nil {
		// Upgrade failed; the upgrader already wrote the HTTP error.
		return
	}
}

// Collaborators handles GET /api/projects/:id/collaborators - returns the
// live presence snapshot. An inactive project yields an empty list.
func (h *CollaborationHandler) Collaborators(c *gin.Context) {
	projectID := c.Param("id")
	userID := getUserID(c)

	if err := h.projects.Authorize(c.Request.Context(), projectID, userID); err != nil {
		sendAuthError(c, projectID, err)
		return
	}

	var collaborators interface{} = []struct{}{}
	activeSessions := 0
	if hub := h.gateway.HubManager().Get(projectID); hub != nil {
		snapshot := hub.Snapshot()
		collaborators = snapshot
		activeSessions = len(snapshot)
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id":      projectID,
		"collaborators":   collaborators,
		"active_sessions": activeSessions,
	})
}

// ChatHistory handles GET /api/projects/:id/chat - returns recent persisted
// chat history in sequence order. The limit query parameter bounds the
// result (default 200).
func (h *CollaborationHandler) ChatHistory(c *gin.Context) {
	projectID := c.Param("id")
	userID := getUserID(c)

	if err := h.projects.Authorize(c.Request.Context(), projectID, userID); err != nil {
		sendAuthError(c, projectID, err)
		return
	}

	limit := 200
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	messages, err := h.chatRepo.Recent(c.Request.Context(), projectID, limit)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load chat history: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": projectID,
		"messages":   messages,
	})
}

// RegisterRoutes registers the collaboration handler routes on a Gin router group.
func (h *CollaborationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/projects/:id/collaborate", h.Attach)
	rg.GET("/projects/:id/collaborators", h.Collaborators)
	rg.GET("/projects/:id/chat", h.ChatHistory)
}
