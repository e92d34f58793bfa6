package booking

import (
	"errors"
	"net/http"
	"strconv"

	"cortate/internal/domain"
	"cortate/internal/modules/availability"
	"cortate/internal/modules/pricing"
	"cortate/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.Create)
	rg.GET("/bookings/my", h.ListMine)
	rg.GET("/bookings/:id", h.Get)
	rg.GET("/bookings/:id/timeline", h.Timeline)
	rg.POST("/bookings/:id/accept", h.Accept)
	rg.POST("/bookings/:id/reject", h.Reject)
	rg.POST("/bookings/:id/cancel", h.Cancel)
	rg.POST("/bookings/:id/confirm", h.Confirm)
	rg.POST("/bookings/:id/start", h.Start)
	rg.POST("/bookings/:id/complete", h.Complete)
	rg.POST("/bookings/:id/no-show/client", h.ClientNoShow)
	rg.POST("/bookings/:id/no-show/barber", h.BarberNoShow)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.Create(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Timeline(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	entries, err := h.service.Timeline(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"timeline": entries})
}

func (h *Handler) ListMine(c *gin.Context) {
	userID := c.GetInt64("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var (
		rows []domain.Booking
		err  error
	)
	switch domain.UserRole(c.GetString("role")) {
	case domain.RoleBarber:
		rows, err = h.service.ListForBarberUser(c.Request.Context(), userID, limit, offset)
	default:
		rows, err = h.service.ListForClientUser(c.Request.Context(), userID, limit, offset)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": rows})
}

func (h *Handler) Accept(c *gin.Context) {
	h.transition(c, func(id int64) (*Result, error) {
		return h.service.Accept(c.Request.Context(), c.GetInt64("user_id"), id)
	})
}

func (h *Handler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	h.transition(c, func(id int64) (*Result, error) {
		return h.service.Reject(c.Request.Context(), c.GetInt64("user_id"), id, req.Reason)
	})
}

func (h *Handler) Cancel(c *gin.Context) {
	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	role := domain.UserRole(c.GetString("role"))
	h.transition(c, func(id int64) (*Result, error) {
		return h.service.Cancel(c.Request.Context(), c.GetInt64("user_id"), role, id, req.Reason)
	})
}

func (h *Handler) Confirm(c *gin.Context) {
	h.transition(c, func(id int64) (*Result, error) {
		return h.service.Confirm(c.Request.Context(), c.GetInt64("user_id"), id)
	})
}

func (h *Handler) Start(c *gin.Context) {
	h.transition(c, func(id int64) (*Result, error) {
		return h.service.Start(c.Request.Context(), c.GetInt64("user_id"), id)
	})
}

func (h *Handler) Complete(c *gin.Context) {
	h.transition(c, func(id int64) (*Result, error) {
		return h.service.Complete(c.Request.Context(), c.GetInt64("user_id"), id)
	})
}

func (h *Handler) ClientNoShow(c *gin.Context) {
	var req NoShowRequest
	_ = c.ShouldBindJSON(&req)

	h.transition(c, func(id int64) (*Result, error) {
		return h.service.MarkClientNoShow(c.Request.Context(), c.GetInt64("user_id"), id, req.WaitedMinutes)
	})
}

func (h *Handler) BarberNoShow(c *gin.Context) {
	var req NoShowRequest
	_ = c.ShouldBindJSON(&req)

	h.transition(c, func(id int64) (*Result, error) {
		return h.service.MarkBarberNoShow(c.Request.Context(), c.GetInt64("user_id"), id, req.WaitedMinutes)
	})
}

func (h *Handler) transition(c *gin.Context, op func(id int64) (*Result, error)) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	res, err := op(id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return 0, false
	}
	return id, true
}

// respondError maps every service error to a stable machine-readable
// code for the caller.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking or barber not found")
	case errors.Is(err, ErrNotAuthorized):
		response.Error(c, http.StatusForbidden, "NOT_AUTHORIZED", "You may not perform this operation")
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", "Booking status does not allow this operation")
	case errors.Is(err, ErrBookingExpired):
		response.Error(c, http.StatusGone, "BOOKING_EXPIRED", "The acceptance deadline has passed")
	case errors.Is(err, ErrTooEarly):
		response.Error(c, http.StatusUnprocessableEntity, "TOO_EARLY", "Too early to mark a no-show")
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request")
	case errors.Is(err, availability.ErrBarberUnavailable):
		response.Error(c, http.StatusUnprocessableEntity, "BARBER_UNAVAILABLE", "Barber is not active or not verified")
	case errors.Is(err, availability.ErrBarberSuspended):
		response.Error(c, http.StatusUnprocessableEntity, "BARBER_SUSPENDED", "Barber is temporarily suspended")
	case errors.Is(err, availability.ErrInvalidDate):
		response.Error(c, http.StatusBadRequest, "INVALID_DATE", "Requested time must be in the future")
	case errors.Is(err, availability.ErrInsufficientAdvanceTime):
		response.Error(c, http.StatusUnprocessableEntity, "INSUFFICIENT_ADVANCE_TIME", "Requested time is too soon")
	case errors.Is(err, availability.ErrBarberNotAvailableAtTime):
		response.Error(c, http.StatusUnprocessableEntity, "BARBER_NOT_AVAILABLE_AT_TIME", "Barber is not available at the requested time")
	case errors.Is(err, availability.ErrNoImmediateBookings):
		response.Error(c, http.StatusUnprocessableEntity, "NO_IMMEDIATE_BOOKINGS", "Barber does not take immediate bookings right now")
	case errors.Is(err, availability.ErrTimeConflict):
		response.Error(c, http.StatusConflict, "TIME_CONFLICT", "Barber already has a booking in that window")
	case errors.Is(err, pricing.ErrInvalidServiceType):
		response.Error(c, http.StatusBadRequest, "INVALID_SERVICE_TYPE", "Service type is not supported by this barber")
	case errors.Is(err, pricing.ErrServiceUnavailable):
		response.Error(c, http.StatusUnprocessableEntity, "SERVICE_UNAVAILABLE", "Barber does not serve the requested location")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Operation failed")
	}
}
