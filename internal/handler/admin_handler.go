package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/rahhal-travel/service-booking/internal/application"
	"github.com/rahhal-travel/service-booking/internal/auth"
	"github.com/rahhal-travel/service-booking/internal/middleware"
	"github.com/rahhal-travel/service-booking/internal/response"
)

// AdminHandler handles admin HTTP requests for booking and payment oversight.
type AdminHandler struct {
	bookings *application.BookingService
	payments *application.PaymentService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bookings *application.BookingService, payments *application.PaymentService) *AdminHandler {
	return &AdminHandler{bookings: bookings, payments: payments}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.GET("/stats/revenue", h.RevenueStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.bookings.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// RevenueStats handles GET /api/v1/admin/stats/revenue.
func (h *AdminHandler) RevenueStats(c *gin.Context) {
	stats, err := h.payments.GetRevenueStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
