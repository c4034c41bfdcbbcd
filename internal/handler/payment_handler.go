package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rahhal-travel/service-booking/internal/application"
	"github.com/rahhal-travel/service-booking/internal/auth"
	"github.com/rahhal-travel/service-booking/internal/events"
	"github.com/rahhal-travel/service-booking/internal/middleware"
	"github.com/rahhal-travel/service-booking/internal/response"
)

// PaymentHandler handles HTTP requests for payment operations.
type PaymentHandler struct {
	service *application.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *application.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers all payment routes on the given router group.
// The webhook and the lookup endpoints are unauthenticated; gateways do not
// carry user tokens.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	payments := r.Group("/api/v1/payments")
	{
		payments.GET("/methods", h.ListMethods)
		payments.GET("/currencies", h.ListCurrencies)
		payments.POST("/webhook", h.Webhook)
	}

	authed := payments.Group("")
	authed.Use(authMW)
	{
		authed.POST("", h.InitiatePayment)
		authed.GET("", h.ListPayments)
		authed.GET("/:number", h.GetPayment)
		authed.POST("/:number/refund", h.Refund)
	}
}

// InitiatePayment handles POST /api/v1/payments.
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.InitiatePayment(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListPayments handles GET /api/v1/payments.
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.ListPayments(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetPayment handles GET /api/v1/payments/:number.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetPayment(c.Request.Context(), userID, c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Refund handles POST /api/v1/payments/:number/refund.
func (h *PaymentHandler) Refund(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.RefundRequest
	// Body is optional; an empty body requests a full refund.
	_ = c.ShouldBindJSON(&req)

	result, err := h.service.Refund(c.Request.Context(), userID, c.Param("number"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Webhook handles POST /api/v1/payments/webhook. Gateways retry delivery, so
// the underlying operation is idempotent.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var evt events.GatewayCallbackEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if evt.PaymentNumber == "" || evt.Status == "" {
		response.BadRequest(c, "payment_number and status are required")
		return
	}

	if err := h.service.ApplyGatewayCallback(c.Request.Context(), evt); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"received": true})
}

// ListMethods handles GET /api/v1/payments/methods.
func (h *PaymentHandler) ListMethods(c *gin.Context) {
	response.Success(c, gin.H{"methods": h.service.ListMethods()})
}

// ListCurrencies handles GET /api/v1/payments/currencies.
func (h *PaymentHandler) ListCurrencies(c *gin.Context) {
	response.Success(c, gin.H{"currencies": h.service.ListCurrencies()})
}
