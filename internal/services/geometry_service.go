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

var ErrGeometryNotFound = errors.New("geometry not found")

// GeometryService loads members of the geometry hierarchy by id.
type GeometryService interface {
	// GetGeometry returns the concrete entity stored under id.
	// Returns ErrGeometryNotFound if no root row exists.
	GetGeometry(ctx context.Context, id uuid.UUID) (models.GeometryEntity, error)
}

type geometryService struct {
	db     repository.Session
	loader repository.GeometryLoader
	log    *logger.Logger
}

// NewGeometryService creates a new instance of GeometryService.
func NewGeometryService(db repository.Session, loader repository.GeometryLoader, log *logger.Logger) GeometryService {
	return &geometryService{
		db:     db,
		loader: loader,
		log:    log,
	}
}

func (s *geometryService) GetGeometry(ctx context.Context, id uuid.UUID) (models.GeometryEntity, error) {
	entity, err := s.loader.Load(ctx, s.db, id)
	if err != nil {
		s.log.Error("Failed to load geometry", err, map[string]interface{}{
			"geometry_id": id.String(),
		})
		return nil, fmt.Errorf("failed to load geometry: %w", err)
	}
	if entity == nil {
		s.log.Debug("Geometry not found", map[string]interface{}{
			"geometry_id": id.String(),
		})
		return nil, ErrGeometryNotFound
	}

	s.log.Debug("Geometry loaded", map[string]interface{}{
		"geometry_id": id.String(),
		"identity":    entity.PolymorphicIdentity(),
	})
	return entity, nil
}
