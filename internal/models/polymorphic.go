package models

// GeometryEntity is a fully materialized member of the base_geometries hierarchy.
// Exactly one concrete type exists per non-abstract discriminator value.
type GeometryEntity interface {
	Identifiable
	PolymorphicIdentity() string
	geometryEntity()
}

func (*ClosureArea) geometryEntity()       {}
func (*Station) geometryEntity()           {}
func (*HRRequirement) geometryEntity()     {}
func (*SupplyRequirement) geometryEntity() {}

// Discriminator values of the geometry hierarchy.
// IdentityBase and IdentityRequest are abstract: no complete entity carries them.
const (
	IdentityBase              = "base"
	IdentityRequest           = "request"
	IdentityClosureArea       = "closure_area"
	IdentityStation           = "station"
	IdentityHRRequirement     = "hr_request"
	IdentitySupplyRequirement = "supply_request"
)
