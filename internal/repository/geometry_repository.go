package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/relief/internal/models"
)

// GeometryRepository loads members of the base_geometries hierarchy without
// knowing their subtype up front. The discriminator on the root row selects
// the subtype repository that materializes the full entity.
type GeometryRepository struct {
	roots         *Repository[models.BaseGeometry]
	closureAreas  *Repository[models.ClosureArea]
	stations      *Repository[models.Station]
	hrRequests    *Repository[models.HRRequirement]
	supplyRequest *Repository[models.SupplyRequirement]
}

// NewGeometryRepository creates a GeometryRepository with one subtype repository per identity.
func NewGeometryRepository(opts ...Option) (*GeometryRepository, error) {
	r := &GeometryRepository{}
	var err error
	if r.roots, err = New[models.BaseGeometry](opts...); err != nil {
		return nil, err
	}
	if r.closureAreas, err = New[models.ClosureArea](opts...); err != nil {
		return nil, err
	}
	if r.stations, err = New[models.Station](opts...); err != nil {
		return nil, err
	}
	if r.hrRequests, err = New[models.HRRequirement](opts...); err != nil {
		return nil, err
	}
	if r.supplyRequest, err = New[models.SupplyRequirement](opts...); err != nil {
		return nil, err
	}
	return r, nil
}

// Roots exposes the generic repository over root rows only.
func (r *GeometryRepository) Roots() *Repository[models.BaseGeometry] {
	return r.roots
}

// Load returns the complete entity identified by id, or nil, nil if none exists.
// A root row whose discriminator names an abstract or unknown identity, or
// whose subtype row is missing, is an integrity violation.
func (r *GeometryRepository) Load(ctx context.Context, db Session, id uuid.UUID) (models.GeometryEntity, error) {
	root, err := r.roots.GetByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}

	var entity models.GeometryEntity
	switch root.PropertyName {
	case models.IdentityClosureArea:
		entity, err = load(ctx, db, r.closureAreas, id)
	case models.IdentityStation:
		entity, err = load(ctx, db, r.stations, id)
	case models.IdentityHRRequirement:
		entity, err = load(ctx, db, r.hrRequests, id)
	case models.IdentitySupplyRequirement:
		entity, err = load(ctx, db, r.supplyRequest, id)
	default:
		return nil, fmt.Errorf("%w: geometry %s has non-concrete identity %q",
			ErrIntegrityViolation, id, root.PropertyName)
	}
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, fmt.Errorf("%w: geometry %s has no %s row",
			ErrIntegrityViolation, id, root.PropertyName)
	}
	return entity, nil
}

// load adapts a typed lookup to the sum type, keeping a missing row as a nil interface.
func load[T any, PT interface {
	*T
	models.GeometryEntity
}](ctx context.Context, db Session, repo *Repository[T], id uuid.UUID) (models.GeometryEntity, error) {
	row, err := repo.GetByID(ctx, db, id)
	if err != nil || row == nil {
		return nil, err
	}
	return PT(row), nil
}
