package repository

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/relief/internal/models"
)

// StationRepository adds station-specific queries on top of the generic engine.
// All CRUD operations are inherited from the embedded Repository.
type StationRepository struct {
	*Repository[models.Station]
	properties *Repository[models.StationProperty]
}

// NewStationRepository creates a StationRepository sharing opts with its property repository.
func NewStationRepository(opts ...Option) (*StationRepository, error) {
	stations, err := New[models.Station](opts...)
	if err != nil {
		return nil, err
	}
	properties, err := New[models.StationProperty](opts...)
	if err != nil {
		return nil, err
	}
	return &StationRepository{Repository: stations, properties: properties}, nil
}

// HighLevelStations returns every station whose level is at least minLevel.
// Results are in natural store order and are not paginated.
func (r *StationRepository) HighLevelStations(ctx context.Context, db Session, minLevel int) ([]models.Station, error) {
	level, err := r.Column("level")
	if err != nil {
		return nil, err
	}
	stations, err := r.FindWhere(ctx, db, level+" >= $1", minLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations with level >= %d: %w", minLevel, err)
	}
	return stations, nil
}

// LoadProperties fills station.Properties from the station_properties relationship.
func (r *StationRepository) LoadProperties(ctx context.Context, db Session, station *models.Station) error {
	if station == nil {
		return nil
	}
	col, err := r.properties.Column("station_uuid")
	if err != nil {
		return err
	}
	props, err := r.properties.FindWhere(ctx, db, col+" = $1", station.UUID)
	if err != nil {
		return fmt.Errorf("failed to load properties of station %s: %w", station.UUID, err)
	}
	station.Properties = props
	return nil
}

// Properties exposes the generic repository of the station's property rows.
func (r *StationRepository) Properties() *Repository[models.StationProperty] {
	return r.properties
}
