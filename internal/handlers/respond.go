package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apierrors "github.com/stwalsh4118/relief/internal/errors"
	"github.com/stwalsh4118/relief/internal/repository"
	"github.com/stwalsh4118/relief/internal/services"
)

// respondError maps service and repository errors onto the JSON error envelope.
// message is used for unexpected failures only.
func respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrInvalidStation),
		errors.Is(err, services.ErrInvalidCoordinates):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrStationNotFound):
		apierrors.NotFound(c, "Station not found")
	case errors.Is(err, services.ErrGeometryNotFound):
		apierrors.NotFound(c, "Geometry not found")
	case errors.Is(err, repository.ErrIntegrityViolation):
		apierrors.Conflict(c, "Request conflicts with stored data", err)
	case errors.Is(err, repository.ErrStoreUnavailable):
		apierrors.ServiceUnavailable(c, "Database is unavailable", err)
	default:
		apierrors.InternalServerError(c, message, err)
	}
}

// respondBindError reports a failed ShouldBind call.
func respondBindError(c *gin.Context, err error, message string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, message, nil)
}

// pathID parses the :id path parameter, writing a 400 when it is not a UUID.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid id", map[string]interface{}{
			"id": c.Param("id"),
		})
		return uuid.Nil, false
	}
	return id, true
}
