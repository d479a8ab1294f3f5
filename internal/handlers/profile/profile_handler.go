// internal/handlers/profile/profile_handler.go
package profile

import (
	"context"
	"net/http"

	"inboker-service/internal/domain/profile"
	"inboker-service/internal/middleware"
	"inboker-service/internal/pkg/response"
	"inboker-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

type Profiles interface {
	Me(ctx context.Context, p *session.Principal) (*profile.Profile, error)
	Dashboard(p *session.Principal) (*profile.DashboardResponse, error)
	Update(ctx context.Context, p *session.Principal, req *profile.UpdateProfileRequest) (*profile.Profile, error)
	List(ctx context.Context, filters *profile.ProfileListFilters) (*profile.ProfileListResponse, error)
}

type ProfileHandler struct {
	profiles Profiles
}

func NewProfileHandler(profiles Profiles) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Me returns the caller's profile.
func (h *ProfileHandler) Me(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	result, err := h.profiles.Me(c.Request.Context(), principal)
	if err != nil {
		response.FromError(c, "failed to load profile", err)
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", result)
}

// UpdateMe changes the caller's name or completes onboarding with a role.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req profile.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.profiles.Update(c.Request.Context(), principal, &req)
	if err != nil {
		response.FromError(c, "failed to update profile", err)
		return
	}

	response.Success(c, http.StatusOK, "profile updated", result)
}

// Dashboard tells the frontend where the caller's dashboard lives.
func (h *ProfileHandler) Dashboard(c *gin.Context) {
	result, err := h.profiles.Dashboard(middleware.MustGetPrincipal(c))
	if err != nil {
		response.FromError(c, "failed to resolve dashboard", err)
		return
	}

	response.Success(c, http.StatusOK, "dashboard resolved", result)
}

// List lists profiles (admin).
func (h *ProfileHandler) List(c *gin.Context) {
	var filters profile.ProfileListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.profiles.List(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list profiles", err)
		return
	}

	response.Success(c, http.StatusOK, "profiles retrieved", result)
}
