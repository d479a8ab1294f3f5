// internal/handlers/catalog/service_handler.go
package catalog

import (
	"net/http"
	"strconv"

	"inboker-service/internal/domain/catalog"
	"inboker-service/internal/middleware"
	"inboker-service/internal/pkg/response"
	service "inboker-service/internal/service/catalog"

	"github.com/gin-gonic/gin"
)

type ServiceHandler struct {
	catalogService *service.Service
}

func NewServiceHandler(catalogService *service.Service) *ServiceHandler {
	return &ServiceHandler{
		catalogService: catalogService,
	}
}

// Create adds a bookable service
func (h *ServiceHandler) Create(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req catalog.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.catalogService.Create(c.Request.Context(), principal.UserID, &req)
	if err != nil {
		response.FromError(c, "failed to create service", err)
		return
	}

	response.Success(c, http.StatusCreated, "service created successfully", result)
}

// List lists every service in the caller's workspace
func (h *ServiceHandler) List(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	result, err := h.catalogService.List(c.Request.Context(), principal.UserID)
	if err != nil {
		response.FromError(c, "failed to list services", err)
		return
	}

	response.Success(c, http.StatusOK, "services retrieved", result)
}

// Get retrieves a service by ID
func (h *ServiceHandler) Get(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid service ID", err)
		return
	}

	result, err := h.catalogService.Get(c.Request.Context(), principal.UserID, id)
	if err != nil {
		response.FromError(c, "service not found", err)
		return
	}

	response.Success(c, http.StatusOK, "service retrieved", result)
}

// Update updates a service
func (h *ServiceHandler) Update(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid service ID", err)
		return
	}

	var req catalog.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.catalogService.Update(c.Request.Context(), principal.UserID, id, &req)
	if err != nil {
		response.FromError(c, "failed to update service", err)
		return
	}

	response.Success(c, http.StatusOK, "service updated successfully", result)
}

// Delete removes a service
func (h *ServiceHandler) Delete(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid service ID", err)
		return
	}

	if err := h.catalogService.Delete(c.Request.Context(), principal.UserID, id); err != nil {
		response.FromError(c, "failed to delete service", err)
		return
	}

	response.Success(c, http.StatusOK, "service deleted successfully", nil)
}
