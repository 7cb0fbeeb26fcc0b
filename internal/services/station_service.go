package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/relief/internal/logger"
	"github.com/stwalsh4118/relief/internal/models"
	"github.com/stwalsh4118/relief/internal/repository"
)

// Coordinate validation constants
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Station validation constants
const (
	MinStationLevel = 0
	MaxStationLevel = 10
)

// Service-level errors
var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidStation     = errors.New("invalid station")
	ErrStationNotFound    = errors.New("station not found")
)

// StationQuery is a filtered, sorted page request over stations.
type StationQuery struct {
	Filters  repository.Filters
	SortBy   string
	SortDesc bool
	Skip     int
	Limit    int
}

// StationPage is one page of stations plus the total number of matching stations.
// Limit is the page size actually applied.
type StationPage struct {
	Stations []models.Station
	Total    int64
	Skip     int
	Limit    int
}

// StationInput holds the caller-supplied fields of a new station.
type StationInput struct {
	Geometry  models.Geometry
	CreatedBy *uuid.UUID
	County    *string
	City      *string
	Lane      *string
	Alley     *string
	No        *string
	Floor     *string
	Room      *string
	OpHour    *string
	Level     int
	Comment   *string
}

// Fields converts the input into a repository field map.
func (in StationInput) Fields() repository.Fields {
	fields := repository.Fields{
		"geometry":   in.Geometry,
		"created_by": in.CreatedBy,
		"county":     in.County,
		"city":       in.City,
		"lane":       in.Lane,
		"alley":      in.Alley,
		"no":         in.No,
		"floor":      in.Floor,
		"room":       in.Room,
		"op_hour":    in.OpHour,
		"level":      in.Level,
		"comment":    in.Comment,
	}
	return fields
}

// StationService defines the interface for station business logic operations.
type StationService interface {
	// ListStations returns one page of stations and the total match count.
	// Unknown filter or sort fields are ignored.
	ListStations(ctx context.Context, q StationQuery) (*StationPage, error)

	// GetStation returns a station with its properties loaded.
	// Returns ErrStationNotFound if no station has the id.
	GetStation(ctx context.Context, id uuid.UUID) (*models.Station, error)

	// CreateStation validates and stores a new station.
	// Returns ErrInvalidStation or ErrInvalidCoordinates for bad input.
	CreateStation(ctx context.Context, in StationInput) (*models.Station, error)

	// UpdateStation applies a partial update.
	// Returns ErrStationNotFound if no station has the id.
	UpdateStation(ctx context.Context, id uuid.UUID, patch models.StationPatch) (*models.Station, error)

	// DeleteStation removes a station and returns its last state.
	// Returns ErrStationNotFound if no station has the id.
	DeleteStation(ctx context.Context, id uuid.UUID) (*models.Station, error)

	// HighLevelStations returns every station with level >= minLevel.
	HighLevelStations(ctx context.Context, minLevel int) ([]models.Station, error)
}

// stationService is the concrete implementation of StationService.
type stationService struct {
	db   repository.Session
	repo repository.StationStore
	log  *logger.Logger
}

// NewStationService creates a new instance of StationService.
func NewStationService(db repository.Session, repo repository.StationStore, log *logger.Logger) StationService {
	return &stationService{
		db:   db,
		repo: repo,
		log:  log,
	}
}

// ListStations runs List and Count with the same filters so the page and total agree.
func (s *stationService) ListStations(ctx context.Context, q StationQuery) (*StationPage, error) {
	s.log.Info("Listing stations", map[string]interface{}{
		"filters":   q.Filters,
		"sort_by":   q.SortBy,
		"sort_desc": q.SortDesc,
		"skip":      q.Skip,
		"limit":     q.Limit,
	})

	limit := s.repo.PageSize(q.Limit)
	stations, err := s.repo.List(ctx, s.db, repository.ListParams{
		Filters:  q.Filters,
		SortBy:   q.SortBy,
		SortDesc: q.SortDesc,
		Skip:     q.Skip,
		Limit:    limit,
	})
	if err != nil {
		s.log.Error("Failed to list stations", err, nil)
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	total, err := s.repo.Count(ctx, s.db, q.Filters)
	if err != nil {
		s.log.Error("Failed to count stations", err, nil)
		return nil, fmt.Errorf("failed to count stations: %w", err)
	}

	return &StationPage{
		Stations: stations,
		Total:    total,
		Skip:     q.Skip,
		Limit:    limit,
	}, nil
}

// GetStation retrieves a station and its properties.
func (s *stationService) GetStation(ctx context.Context, id uuid.UUID) (*models.Station, error) {
	station, err := s.repo.GetByID(ctx, s.db, id)
	if err != nil {
		s.log.Error("Failed to query station", err, map[string]interface{}{
			"station_id": id.String(),
		})
		return nil, fmt.Errorf("failed to query station: %w", err)
	}

	// Repository returns nil, nil when no station found - transform to domain error
	if station == nil {
		s.log.Debug("Station not found", map[string]interface{}{
			"station_id": id.String(),
		})
		return nil, ErrStationNotFound
	}

	if err := s.repo.LoadProperties(ctx, s.db, station); err != nil {
		s.log.Error("Failed to load station properties", err, map[string]interface{}{
			"station_id": id.String(),
		})
		return nil, fmt.Errorf("failed to load station properties: %w", err)
	}

	return station, nil
}

// CreateStation validates the input and stores the station.
func (s *stationService) CreateStation(ctx context.Context, in StationInput) (*models.Station, error) {
	if err := validateLevel(in.Level); err != nil {
		s.log.Warn("Invalid station level provided", map[string]interface{}{
			"level": in.Level,
		})
		return nil, err
	}
	if err := validateGeometry(in.Geometry); err != nil {
		s.log.Warn("Invalid station geometry provided", map[string]interface{}{
			"type": in.Geometry.Type,
		})
		return nil, err
	}

	station, err := s.repo.Create(ctx, s.db, in.Fields())
	if err != nil {
		s.log.Error("Failed to create station", err, nil)
		return nil, fmt.Errorf("failed to create station: %w", err)
	}

	s.log.Info("Station created", map[string]interface{}{
		"station_id": station.UUID.String(),
		"level":      station.Level,
	})
	return station, nil
}

// UpdateStation applies only the members set in patch.
func (s *stationService) UpdateStation(ctx context.Context, id uuid.UUID, patch models.StationPatch) (*models.Station, error) {
	if patch.Level.Set {
		if err := validateLevel(patch.Level.Value); err != nil {
			return nil, err
		}
	}
	if patch.Geometry.Set {
		if err := validateGeometry(patch.Geometry.Value); err != nil {
			return nil, err
		}
	}

	current, err := s.repo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query station: %w", err)
	}
	if current == nil {
		return nil, ErrStationNotFound
	}

	updated, err := s.repo.Update(ctx, s.db, current, patch.Fields())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStationNotFound
		}
		s.log.Error("Failed to update station", err, map[string]interface{}{
			"station_id": id.String(),
		})
		return nil, fmt.Errorf("failed to update station: %w", err)
	}

	s.log.Info("Station updated", map[string]interface{}{
		"station_id": id.String(),
		"fields":     len(patch.Fields()),
	})
	return updated, nil
}

// DeleteStation removes the station.
func (s *stationService) DeleteStation(ctx context.Context, id uuid.UUID) (*models.Station, error) {
	removed, err := s.repo.Remove(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStationNotFound
		}
		s.log.Error("Failed to delete station", err, map[string]interface{}{
			"station_id": id.String(),
		})
		return nil, fmt.Errorf("failed to delete station: %w", err)
	}

	s.log.Info("Station deleted", map[string]interface{}{
		"station_id": id.String(),
	})
	return removed, nil
}

// HighLevelStations returns stations at or above minLevel.
func (s *stationService) HighLevelStations(ctx context.Context, minLevel int) ([]models.Station, error) {
	if err := validateLevel(minLevel); err != nil {
		return nil, err
	}

	stations, err := s.repo.HighLevelStations(ctx, s.db, minLevel)
	if err != nil {
		s.log.Error("Failed to query high-level stations", err, map[string]interface{}{
			"min_level": minLevel,
		})
		return nil, fmt.Errorf("failed to query high-level stations: %w", err)
	}

	s.log.Info("High-level stations found", map[string]interface{}{
		"min_level": minLevel,
		"count":     len(stations),
	})
	return stations, nil
}

func validateLevel(level int) error {
	if level < MinStationLevel || level > MaxStationLevel {
		return fmt.Errorf("%w: level must be between %d and %d, got %d",
			ErrInvalidStation, MinStationLevel, MaxStationLevel, level)
	}
	return nil
}

// validateGeometry checks point coordinates; other geometry types pass through.
func validateGeometry(g models.Geometry) error {
	if g.Type != models.GeometryPoint {
		return nil
	}
	lng, lat, err := g.Point()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	if lat < MinLatitude || lat > MaxLatitude {
		return fmt.Errorf("%w: latitude must be between %f and %f, got %f",
			ErrInvalidCoordinates, MinLatitude, MaxLatitude, lat)
	}
	if lng < MinLongitude || lng > MaxLongitude {
		return fmt.Errorf("%w: longitude must be between %f and %f, got %f",
			ErrInvalidCoordinates, MinLongitude, MaxLongitude, lng)
	}
	return nil
}
