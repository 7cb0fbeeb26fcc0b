package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stwalsh4118/relief/internal/models"
)

// StationStore is the station data access contract consumed by the service layer.
type StationStore interface {
	CRUD[models.Station]

	// PageSize returns the page size List uses for a requested limit.
	PageSize(limit int) int

	// HighLevelStations returns stations with level >= minLevel in natural order.
	HighLevelStations(ctx context.Context, db Session, minLevel int) ([]models.Station, error)

	// LoadProperties fills station.Properties.
	LoadProperties(ctx context.Context, db Session, station *models.Station) error
}

// GeometryLoader materializes any member of the geometry hierarchy by id.
type GeometryLoader interface {
	Load(ctx context.Context, db Session, id uuid.UUID) (models.GeometryEntity, error)
}

var (
	_ StationStore   = (*StationRepository)(nil)
	_ GeometryLoader = (*GeometryRepository)(nil)
)
