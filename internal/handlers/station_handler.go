package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apierrors "github.com/stwalsh4118/relief/internal/errors"
	"github.com/stwalsh4118/relief/internal/middleware"
	"github.com/stwalsh4118/relief/internal/models"
	"github.com/stwalsh4118/relief/internal/repository"
	"github.com/stwalsh4118/relief/internal/services"
)

// maxPatchBodyBytes bounds PATCH bodies read before decoding.
const maxPatchBodyBytes = 1 << 20

// StationHandler handles station-related HTTP requests.
type StationHandler struct {
	service services.StationService
}

// NewStationHandler creates a new StationHandler instance.
func NewStationHandler(service services.StationService) *StationHandler {
	return &StationHandler{
		service: service,
	}
}

// ListStationsRequest represents the query parameters for the list endpoint.
type ListStationsRequest struct {
	County string `form:"county" binding:"omitempty,max=50"`
	City   string `form:"city" binding:"omitempty,max=50"`
	Level  *int   `form:"level" binding:"omitempty,min=0,max=10"`
	SortBy string `form:"sort_by" binding:"omitempty,max=64"`
	Order  string `form:"order" binding:"omitempty,oneof=asc desc"`
	Skip   int    `form:"skip" binding:"omitempty,min=0"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// filters converts the set query parameters into repository filters.
func (r ListStationsRequest) filters() repository.Filters {
	filters := repository.Filters{}
	if r.County != "" {
		filters["county"] = r.County
	}
	if r.City != "" {
		filters["city"] = r.City
	}
	if r.Level != nil {
		filters["level"] = *r.Level
	}
	return filters
}

// HighLevelRequest represents the query parameters for the high-level endpoint.
type HighLevelRequest struct {
	MinLevel *int `form:"min_level" binding:"required,min=0,max=10"`
}

// CreateStationRequest represents the body of POST /api/v1/stations.
type CreateStationRequest struct {
	Geometry  models.Geometry `json:"geometry"`
	CreatedBy *uuid.UUID      `json:"createdBy"`
	County    *string         `json:"county" binding:"omitempty,max=50"`
	City      *string         `json:"city" binding:"omitempty,max=50"`
	Lane      *string         `json:"lane" binding:"omitempty,max=20"`
	Alley     *string         `json:"alley" binding:"omitempty,max=20"`
	No        *string         `json:"no" binding:"omitempty,max=20"`
	Floor     *string         `json:"floor" binding:"omitempty,max=20"`
	Room      *string         `json:"room" binding:"omitempty,max=20"`
	OpHour    *string         `json:"opHour" binding:"omitempty,max=100"`
	Level     int             `json:"level" binding:"min=0,max=10"`
	Comment   *string         `json:"comment"`
}

// StationListResponse represents the response for the list endpoint.
type StationListResponse struct {
	Stations []models.Station `json:"stations"`
	Total    int64            `json:"total"`
	Skip     int              `json:"skip"`
	Limit    int              `json:"limit"`
}

// StationResponse wraps a single station.
type StationResponse struct {
	Station *models.Station `json:"station"`
}

// HighLevelResponse represents the response for the high-level endpoint.
type HighLevelResponse struct {
	Stations []models.Station `json:"stations"`
	Count    int              `json:"count"`
	MinLevel int              `json:"min_level"`
}

// List handles GET /api/v1/stations.
// The X-Total-Count header carries the unpaginated match count.
func (h *StationHandler) List(c *gin.Context) {
	var req ListStationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err, "Invalid query parameters")
		return
	}

	page, err := h.service.ListStations(c.Request.Context(), services.StationQuery{
		Filters:  req.filters(),
		SortBy:   req.SortBy,
		SortDesc: req.Order == "desc",
		Skip:     req.Skip,
		Limit:    req.Limit,
	})
	if err != nil {
		respondError(c, err, "Failed to list stations")
		return
	}

	c.Header(middleware.TotalCountHeader, strconv.FormatInt(page.Total, 10))
	c.JSON(http.StatusOK, StationListResponse{
		Stations: page.Stations,
		Total:    page.Total,
		Skip:     page.Skip,
		Limit:    page.Limit,
	})
}

// Get handles GET /api/v1/stations/:id.
func (h *StationHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	station, err := h.service.GetStation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to query station")
		return
	}

	c.JSON(http.StatusOK, StationResponse{Station: station})
}

// Create handles POST /api/v1/stations.
func (h *StationHandler) Create(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid request body")
		return
	}
	if req.Geometry.IsEmpty() {
		apierrors.BadRequest(c, "geometry is required", nil)
		return
	}

	if log != nil {
		log.Info("Processing create station request", map[string]interface{}{
			"level": req.Level,
			"type":  req.Geometry.Type,
		})
	}

	station, err := h.service.CreateStation(c.Request.Context(), services.StationInput{
		Geometry:  req.Geometry,
		CreatedBy: req.CreatedBy,
		County:    req.County,
		City:      req.City,
		Lane:      req.Lane,
		Alley:     req.Alley,
		No:        req.No,
		Floor:     req.Floor,
		Room:      req.Room,
		OpHour:    req.OpHour,
		Level:     req.Level,
		Comment:   req.Comment,
	})
	if err != nil {
		respondError(c, err, "Failed to create station")
		return
	}

	c.JSON(http.StatusCreated, StationResponse{Station: station})
}

// Update handles PATCH /api/v1/stations/:id.
// Only keys present in the body are written; an explicit null clears a nullable field.
func (h *StationHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPatchBodyBytes))
	if err != nil {
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}
	patch, err := decodeStationPatch(body)
	if err != nil {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}

	station, err := h.service.UpdateStation(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err, "Failed to update station")
		return
	}

	c.JSON(http.StatusOK, StationResponse{Station: station})
}

// Delete handles DELETE /api/v1/stations/:id and returns the removed station.
func (h *StationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	station, err := h.service.DeleteStation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to delete station")
		return
	}

	c.JSON(http.StatusOK, StationResponse{Station: station})
}

// HighLevel handles GET /api/v1/stations/high-level.
func (h *StationHandler) HighLevel(c *gin.Context) {
	var req HighLevelRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err, "Invalid query parameters")
		return
	}

	stations, err := h.service.HighLevelStations(c.Request.Context(), *req.MinLevel)
	if err != nil {
		respondError(c, err, "Failed to query high-level stations")
		return
	}

	c.JSON(http.StatusOK, HighLevelResponse{
		Stations: stations,
		Count:    len(stations),
		MinLevel: *req.MinLevel,
	})
}

var patchValidator = validator.New()

// decodeStationPatch turns a JSON object into a StationPatch, keeping
// absent keys unset. Unknown keys are ignored.
func decodeStationPatch(body []byte) (models.StationPatch, error) {
	var patch models.StationPatch

	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&raw); err != nil {
		return patch, fmt.Errorf("request body must be a JSON object: %w", err)
	}
	if raw == nil {
		return patch, fmt.Errorf("request body must be a JSON object")
	}

	if v, ok := raw["geometry"]; ok {
		var g models.Geometry
		if err := json.Unmarshal(v, &g); err != nil {
			return patch, fmt.Errorf("invalid geometry: %w", err)
		}
		if g.IsEmpty() {
			return patch, fmt.Errorf("geometry cannot be null")
		}
		patch.Geometry = models.Some(g)
	}
	if v, ok := raw["createdBy"]; ok {
		var id *uuid.UUID
		if err := json.Unmarshal(v, &id); err != nil {
			return patch, fmt.Errorf("createdBy must be a uuid or null")
		}
		patch.CreatedBy = models.Some(id)
	}
	if v, ok := raw["level"]; ok {
		var level *int
		if err := json.Unmarshal(v, &level); err != nil || level == nil {
			return patch, fmt.Errorf("level must be an integer")
		}
		patch.Level = models.Some(*level)
	}

	// Rules mirror the binding tags of CreateStationRequest.
	nullable := []struct {
		key  string
		rule string
		dst  *models.Opt[*string]
	}{
		{"county", "max=50", &patch.County},
		{"city", "max=50", &patch.City},
		{"lane", "max=20", &patch.Lane},
		{"alley", "max=20", &patch.Alley},
		{"no", "max=20", &patch.No},
		{"floor", "max=20", &patch.Floor},
		{"room", "max=20", &patch.Room},
		{"opHour", "max=100", &patch.OpHour},
		{"comment", "", &patch.Comment},
	}
	for _, f := range nullable {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		var s *string
		if err := json.Unmarshal(v, &s); err != nil {
			return patch, fmt.Errorf("%s must be a string or null", f.key)
		}
		if s != nil && f.rule != "" {
			if err := patchValidator.Var(*s, f.rule); err != nil {
				return patch, fmt.Errorf("%s is too long", f.key)
			}
		}
		*f.dst = models.Some(s)
	}

	return patch, nil
}
