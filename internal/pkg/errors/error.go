package xerrors

import "errors"

// Generic errors, mapped to HTTP statuses by pkg/response.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict: resource already exists")
	ErrInternal       = errors.New("internal server error")
	ErrRateLimited    = errors.New("too many requests")
	ErrBadRequest     = errors.New("bad request")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Billing errors
var (
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrAlreadySubscribed = errors.New("user already has an active subscription or trial")
	ErrInvalidPlan       = errors.New("invalid plan")
	ErrPlanNotConfigured = errors.New("price for plan is not configured")
	ErrInvalidAction     = errors.New("invalid action")
)

// Booking errors
var (
	ErrInvalidTransition = errors.New("booking cannot move to that status")
	ErrServiceInactive   = errors.New("service is not available for booking")
	ErrBookingInPast     = errors.New("booking must start in the future")
)
