package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rahhal-travel/service-booking/internal/application"
	"github.com/rahhal-travel/service-booking/internal/auth"
	"github.com/rahhal-travel/service-booking/internal/middleware"
	"github.com/rahhal-travel/service-booking/internal/response"
)

// CatalogHandler handles HTTP requests for packages and custom trips.
type CatalogHandler struct {
	service *application.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *application.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes registers catalog routes. Packages are public; trips belong
// to their creator and require authentication.
func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	packages := r.Group("/api/v1/packages")
	{
		packages.GET("", h.ListPackages)
		packages.GET("/:id", h.GetPackage)
	}

	trips := r.Group("/api/v1/trips")
	trips.Use(authMW)
	{
		trips.GET("", h.ListTrips)
		trips.GET("/:id", h.GetTrip)
	}
}

// ListPackages handles GET /api/v1/packages.
func (h *CatalogHandler) ListPackages(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListPackages(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetPackage handles GET /api/v1/packages/:id.
func (h *CatalogHandler) GetPackage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid package ID")
		return
	}

	result, err := h.service.GetPackage(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListTrips handles GET /api/v1/trips.
func (h *CatalogHandler) ListTrips(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.ListTrips(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetTrip handles GET /api/v1/trips/:id.
func (h *CatalogHandler) GetTrip(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid trip ID")
		return
	}

	result, err := h.service.GetTrip(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
