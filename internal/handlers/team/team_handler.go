// internal/handlers/team/team_handler.go
package team

import (
	"net/http"
	"strconv"

	"inboker-service/internal/domain/team"
	"inboker-service/internal/middleware"
	"inboker-service/internal/pkg/response"
	service "inboker-service/internal/service/team"

	"github.com/gin-gonic/gin"
)

type TeamHandler struct {
	teamService *service.Service
}

func NewTeamHandler(teamService *service.Service) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// ========== Staff ==========

func (h *TeamHandler) CreateStaff(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req team.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.teamService.CreateStaff(c.Request.Context(), principal.UserID, &req)
	if err != nil {
		response.FromError(c, "failed to create staff member", err)
		return
	}

	response.Success(c, http.StatusCreated, "staff member created successfully", result)
}

func (h *TeamHandler) ListStaff(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	result, err := h.teamService.ListStaff(c.Request.Context(), principal.UserID)
	if err != nil {
		response.FromError(c, "failed to list staff", err)
		return
	}

	response.Success(c, http.StatusOK, "staff retrieved", result)
}

func (h *TeamHandler) UpdateStaff(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid staff ID", err)
		return
	}

	var req team.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.teamService.UpdateStaff(c.Request.Context(), principal.UserID, id, &req)
	if err != nil {
		response.FromError(c, "failed to update staff member", err)
		return
	}

	response.Success(c, http.StatusOK, "staff member updated successfully", result)
}

func (h *TeamHandler) DeleteStaff(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid staff ID", err)
		return
	}

	if err := h.teamService.DeleteStaff(c.Request.Context(), principal.UserID, id); err != nil {
		response.FromError(c, "failed to delete staff member", err)
		return
	}

	response.Success(c, http.StatusOK, "staff member deleted successfully", nil)
}

// ========== Shifts ==========

func (h *TeamHandler) CreateShift(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req team.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.teamService.CreateShift(c.Request.Context(), principal.UserID, &req)
	if err != nil {
		response.FromError(c, "failed to create shift", err)
		return
	}

	response.Success(c, http.StatusCreated, "shift created successfully", result)
}

// ListShifts lists shifts, optionally for one staff member (?staff_member_id=)
func (h *TeamHandler) ListShifts(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var staffID *int64
	if raw := c.Query("staff_member_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.ValidationError(c, "invalid staff ID", err)
			return
		}
		staffID = &id
	}

	result, err := h.teamService.ListShifts(c.Request.Context(), principal.UserID, staffID)
	if err != nil {
		response.FromError(c, "failed to list shifts", err)
		return
	}

	response.Success(c, http.StatusOK, "shifts retrieved", result)
}

func (h *TeamHandler) DeleteShift(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid shift ID", err)
		return
	}

	if err := h.teamService.DeleteShift(c.Request.Context(), principal.UserID, id); err != nil {
		response.FromError(c, "failed to delete shift", err)
		return
	}

	response.Success(c, http.StatusOK, "shift deleted successfully", nil)
}
