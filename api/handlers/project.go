// Package handlers provides HTTP API request handlers.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/fside/backend/internal/model"
	"github.com/fside/backend/internal/project"
)

// ProjectHandler handles HTTP requests for project management.
type ProjectHandler struct {
	projects *project.Service
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects *project.Service) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
	}
}

// CreateProjectRequest represents the request body for creating a project.
type CreateProjectRequest struct {
	Name string `json:"name" binding:"required"`
}

// InviteRequest represents the request body for inviting a collaborator.
type InviteRequest struct {
	Email      string `json:"email" binding:"required"`
	Permission string `json:"permission" binding:"required"`
}

// ShareRequest represents the request body for creating a share link.
type ShareRequest struct {
	Permission string `json:"permission" binding:"required"`
	ExpiresIn  string `json:"expires_in"`
}

// AddMemberRequest represents the request body for adding a member directly.
type AddMemberRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	Permission string `json:"permission" binding:"required"`
}

// ProjectResponse represents a project in API responses.
type ProjectResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// ShareResponse represents a share link in API responses.
type ShareResponse struct {
	ShareURL   string `json:"share_url"`
	Token      string `json:"token"`
	ProjectID  string `json:"project_id"`
	Permission string `json:"permission"`
	CreatedAt  string `json:"created_at"`
	ExpiresAt  string `json:"expires_at"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// toProjectResponse converts a model.Project to ProjectResponse.
func toProjectResponse(p *model.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

// getUserID extracts the user ID from the request context.
// In a real implementation, this would come from authentication middleware.
func getUserID(c *gin.Context) string {
	// Try to get from context (set by auth middleware)
	if userID, exists := c.Get("userID"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	// Default user for development/testing
	return "default-user"
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// Create handles POST /api/projects - creates a new project.
func (h *ProjectHandler) Create(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	userID := getUserID(c)

	proj, err := h.projects.Create(c.Request.Context(), &model.CreateProjectRequest{
		Name:    req.Name,
		OwnerID: userID,
	})
	if err != nil {
		if errors.Is(err, model.ErrProjectNameRequired) {
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create project: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, toProjectResponse(proj))
}

// List handles GET /api/projects - lists the user's projects.
func (h *ProjectHandler) List(c *gin.Context) {
	userID := getUserID(c)

	projects, err := h.projects.List(c.Request.Context(), userID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list projects: "+err.Error())
		return
	}

	response := make([]*ProjectResponse, len(projects))
	for i, p := range projects {
		response[i] = toProjectResponse(p)
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/projects/:id - gets a specific project.
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Project ID is required")
		return
	}

	userID := getUserID(c)
	if err := h.projects.Authorize(c.Request.Context(), projectID, userID); err != nil {
		sendAuthError(c, projectID, err)
		return
	}

	proj, err := h.projects.Get(c.Request.Context(), projectID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get project: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(proj))
}

// Delete handles DELETE /api/projects/:id - deletes a project.
func (h *ProjectHandler) Delete(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Project ID is required")
		return
	}

	userID := getUserID(c)

	if err := h.projects.Delete(c.Request.Context(), projectID, userID); err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			sendError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", "Project "+projectID+" not found")
			return
		}
		if errors.Is(err, model.ErrForbidden) {
			sendError(c, http.StatusForbidden, "FORBIDDEN", "Only the owner can delete a project")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete project: "+err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

// Members handles GET /api/projects/:id/members - lists project members.
func (h *ProjectHandler) Members(c *gin.Context) {
	projectID := c.Param("id")
	userID := getUserID(c)

	if err := h.projects.Authorize(c.Request.Context(), projectID, userID); err != nil {
		sendAuthError(c, projectID, err)
		return
	}

	members, err := h.projects.Members(c.Request.Context(), projectID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list members: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, members)
}

// AddMember handles POST /api/projects/:id/members - adds a member directly.
func (h *ProjectHandler) AddMember(c *gin.Context) {
	projectID := c.Param("id")

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	requesterID := getUserID(c)
	member, err := h.projects.AddMember(c.Request.Context(), projectID, requesterID, req.UserID, model.Permission(req.Permission))
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidPermission):
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, model.ErrForbidden):
			sendError(c, http.StatusForbidden, "FORBIDDEN", "Admin permission required")
		case errors.Is(err, model.ErrProjectNotFound):
			sendError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", "Project "+projectID+" not found")
		default:
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add member: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, member)
}

// RemoveMember handles DELETE /api/projects/:id/members/:userId.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	projectID := c.Param("id")
	targetID := c.Param("userId")
	requesterID := getUserID(c)

	if err := h.projects.RemoveMember(c.Request.Context(), projectID, requesterID, targetID); err != nil {
		switch {
		case errors.Is(err, model.ErrProjectNotFound):
			sendError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", "Project "+projectID+" not found")
		case errors.Is(err, model.ErrForbidden):
			sendError(c, http.StatusForbidden, "FORBIDDEN", "Cannot remove this member")
		default:
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove member: "+err.Error())
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// Invite handles POST /api/projects/:id/invite - invites a collaborator.
func (h *ProjectHandler) Invite(c *gin.Context) {
	projectID := c.Param("id")

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	userID := getUserID(c)
	if err := h.projects.Authorize(c.Request.Context(), projectID, userID); err != nil {
		sendAuthError(c, projectID, err)
		return
	}

	inv, err := h.projects.Invite(c.Request.Context(), projectID, req.Email, model.Permission(req.Permission))
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidPermission):
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, model.ErrProjectNotFound):
			sendError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", "Project "+projectID+" not found")
		default:
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to send invitation: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, inv)
}

// AcceptInvitation handles POST /api/invitations/:id/accept.
func (h *ProjectHandler) AcceptInvitation(c *gin.Context) {
	invitationID := c.Param("id")
	userID := getUserID(c)

	member, err := h.projects.AcceptInvitation(c.Request.Context(), invitationID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvitationNotFound):
			sendError(c, http.StatusNotFound, "INVITATION_NOT_FOUND", "Invitation "+invitationID+" not found")
		case errors.Is(err, model.ErrInvitationExpired):
			sendError(c, http.StatusGone, "INVITATION_EXPIRED", "Invitation has expired")
		default:
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to accept invitation: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, member)
}

// Share handles POST /api/projects/:id/share - creates a share link.
func (h *ProjectHandler) Share(c *gin.Context) {
	projectID := c.Param("id")

	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	userID := getUserID(c)
	if err := h.projects.Authorize(c.Request.Context(), projectID, userID); err != nil {
		sendAuthError(c, projectID, err)
		return
	}

	link, err := h.projects.Share(c.Request.Context(), projectID, model.Permission(req.Permission), req.ExpiresIn)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidPermission):
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, model.ErrProjectNotFound):
			sendError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", "Project "+projectID+" not found")
		default:
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create share link: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, &ShareResponse{
		ShareURL:   "/ide/shared/" + link.Token,
		Token:      link.Token,
		ProjectID:  link.ProjectID,
		Permission: string(link.Permission),
		CreatedAt:  link.CreatedAt.Format(time.RFC3339),
		ExpiresAt:  link.ExpiresAt.Format(time.RFC3339),
	})
}

// RedeemShareLink handles POST /api/share/:token/redeem.
func (h *ProjectHandler) RedeemShareLink(c *gin.Context) {
	token := c.Param("token")
	userID := getUserID(c)

	member, err := h.projects.Redeem(c.Request.Context(), token, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrShareLinkNotFound):
			sendError(c, http.StatusNotFound, "SHARE_LINK_NOT_FOUND", "Share link not found")
		case errors.Is(err, model.ErrShareLinkExpired):
			sendError(c, http.StatusGone, "SHARE_LINK_EXPIRED", "Share link has expired")
		default:
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to redeem share link: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, member)
}

// sendAuthError maps authorization failures to HTTP responses.
func sendAuthError(c *gin.Context, projectID string, err error) {
	switch {
	case errors.Is(err, model.ErrProjectNotFound):
		sendError(c, http.StatusNotFound, "PROJECT_NOT_FOUND", "Project "+projectID+" not found")
	case errors.Is(err, model.ErrNotAMember):
		sendError(c, http.StatusForbidden, "FORBIDDEN", "Access to project denied")
	default:
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to authorize: "+err.Error())
	}
}

// RegisterRoutes registers the project handler routes on a Gin router group.
func (h *ProjectHandler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	{
		projects.POST("", h.Create)
		projects.GET("", h.List)
		projects.GET("/:id", h.Get)
		projects.DELETE("/:id", h.Delete)
		projects.GET("/:id/members", h.Members)
		projects.POST("/:id/members", h.AddMember)
		projects.DELETE("/:id/members/:userId", h.RemoveMember)
		projects.POST("/:id/invite", h.Invite)
		projects.POST("/:id/share", h.Share)
	}

	rg.POST("/invitations/:id/accept", h.AcceptInvitation)
	rg.POST("/share/:token/redeem", h.RedeemShareLink)
}
