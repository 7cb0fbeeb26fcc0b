package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/relief/internal/models"
	"github.com/stwalsh4118/relief/internal/services"
)

// GeometryHandler serves any member of the geometry hierarchy by id.
type GeometryHandler struct {
	service services.GeometryService
}

// NewGeometryHandler creates a new GeometryHandler instance.
func NewGeometryHandler(service services.GeometryService) *GeometryHandler {
	return &GeometryHandler{service: service}
}

// GeometryResponse tags the entity with its discriminator so clients can decode it.
type GeometryResponse struct {
	Kind   string                `json:"kind"`
	Entity models.GeometryEntity `json:"entity"`
}

// Get handles GET /api/v1/geometries/:id.
func (h *GeometryHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	entity, err := h.service.GetGeometry(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load geometry")
		return
	}

	c.JSON(http.StatusOK, GeometryResponse{
		Kind:   entity.PolymorphicIdentity(),
		Entity: entity,
	})
}
