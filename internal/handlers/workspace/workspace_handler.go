// internal/handlers/workspace/workspace_handler.go
package workspace

import (
	"net/http"

	"inboker-service/internal/domain/workspace"
	"inboker-service/internal/middleware"
	"inboker-service/internal/pkg/response"
	service "inboker-service/internal/service/workspace"

	"github.com/gin-gonic/gin"
)

type WorkspaceHandler struct {
	workspaceService *service.Service
}

func NewWorkspaceHandler(workspaceService *service.Service) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
	}
}

// ========== Owner Endpoints ==========

// Create creates the caller's workspace
func (h *WorkspaceHandler) Create(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req workspace.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.workspaceService.Create(c.Request.Context(), principal.UserID, &req)
	if err != nil {
		response.FromError(c, "failed to create workspace", err)
		return
	}

	response.Success(c, http.StatusCreated, "workspace created successfully", result)
}

// Get returns the caller's workspace
func (h *WorkspaceHandler) Get(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	result, err := h.workspaceService.ForOwner(c.Request.Context(), principal.UserID)
	if err != nil {
		response.FromError(c, "workspace not found", err)
		return
	}

	response.Success(c, http.StatusOK, "workspace retrieved", result)
}

// Update updates the caller's workspace
func (h *WorkspaceHandler) Update(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req workspace.UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.workspaceService.Update(c.Request.Context(), principal.UserID, &req)
	if err != nil {
		response.FromError(c, "failed to update workspace", err)
		return
	}

	response.Success(c, http.StatusOK, "workspace updated successfully", result)
}

// ========== Public Endpoints ==========

// Public returns a booking page and its active services
func (h *WorkspaceHandler) Public(c *gin.Context) {
	result, err := h.workspaceService.Public(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.FromError(c, "workspace not found", err)
		return
	}

	response.Success(c, http.StatusOK, "workspace retrieved", result)
}
