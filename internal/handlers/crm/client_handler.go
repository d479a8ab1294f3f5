// internal/handlers/crm/client_handler.go
package crm

import (
	"net/http"
	"strconv"

	"inboker-service/internal/domain/crm"
	"inboker-service/internal/middleware"
	"inboker-service/internal/pkg/response"
	service "inboker-service/internal/service/crm"

	"github.com/gin-gonic/gin"
)

type ClientHandler struct {
	crmService *service.Service
}

func NewClientHandler(crmService *service.Service) *ClientHandler {
	return &ClientHandler{
		crmService: crmService,
	}
}

// Create adds a client to the pipeline as a lead
func (h *ClientHandler) Create(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req crm.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.crmService.Create(c.Request.Context(), principal.UserID, &req)
	if err != nil {
		response.FromError(c, "failed to create client", err)
		return
	}

	response.Success(c, http.StatusCreated, "client created successfully", result)
}

// List retrieves clients with filters
func (h *ClientHandler) List(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var filters crm.ClientListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.crmService.List(c.Request.Context(), principal.UserID, &filters)
	if err != nil {
		response.FromError(c, "failed to list clients", err)
		return
	}

	response.Success(c, http.StatusOK, "clients retrieved", result)
}

// Pipeline returns clients grouped by stage
func (h *ClientHandler) Pipeline(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	result, err := h.crmService.Pipeline(c.Request.Context(), principal.UserID)
	if err != nil {
		response.FromError(c, "failed to load pipeline", err)
		return
	}

	response.Success(c, http.StatusOK, "pipeline retrieved", result)
}

func (h *ClientHandler) Get(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid client ID", err)
		return
	}

	result, err := h.crmService.Get(c.Request.Context(), principal.UserID, id)
	if err != nil {
		response.FromError(c, "client not found", err)
		return
	}

	response.Success(c, http.StatusOK, "client retrieved", result)
}

func (h *ClientHandler) Update(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid client ID", err)
		return
	}

	var req crm.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.crmService.Update(c.Request.Context(), principal.UserID, id, &req)
	if err != nil {
		response.FromError(c, "failed to update client", err)
		return
	}

	response.Success(c, http.StatusOK, "client updated successfully", result)
}

// MoveStage moves a client to another pipeline column
func (h *ClientHandler) MoveStage(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid client ID", err)
		return
	}

	var req crm.MoveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.crmService.MoveStage(c.Request.Context(), principal.UserID, id, req.Stage)
	if err != nil {
		response.FromError(c, "failed to move client", err)
		return
	}

	response.Success(c, http.StatusOK, "client moved successfully", result)
}

func (h *ClientHandler) Delete(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid client ID", err)
		return
	}

	if err := h.crmService.Delete(c.Request.Context(), principal.UserID, id); err != nil {
		response.FromError(c, "failed to delete client", err)
		return
	}

	response.Success(c, http.StatusOK, "client deleted successfully", nil)
}
