package models

import "github.com/google/uuid"

// BaseGeometry is the root of the geometry hierarchy.
// PropertyName is the discriminator selecting which subtype tables hold the rest of the entity.
// All nullable fields use pointers to distinguish between zero values and NULL.
type BaseGeometry struct {
	UUIDPK
	Timestamps
	PropertyName string     `db:"property_name" json:"propertyName"`
	Geometry     Geometry   `db:"geometry" json:"geometry"`
	CreatedBy    *uuid.UUID `db:"created_by" json:"createdBy,omitempty"`

	// Address
	County *string `db:"county" json:"county,omitempty"`
	City   *string `db:"city" json:"city,omitempty"`
	Lane   *string `db:"lane" json:"lane,omitempty"`
	Alley  *string `db:"alley" json:"alley,omitempty"`
	No     *string `db:"no" json:"no,omitempty"`
	Floor  *string `db:"floor" json:"floor,omitempty"`
	Room   *string `db:"room" json:"room,omitempty"`
}

// TableName specifies the root table of the hierarchy.
func (BaseGeometry) TableName() string {
	return "base_geometries"
}

// PolymorphicIdentity is the discriminator value of a root-only row.
func (BaseGeometry) PolymorphicIdentity() string {
	return IdentityBase
}

// DiscriminatorColumn names the column holding the polymorphic identity.
func (BaseGeometry) DiscriminatorColumn() string {
	return "property_name"
}

// ClosureArea marks a closed road or area.
type ClosureArea struct {
	BaseGeometry
	Status            string  `db:"status" json:"status"`
	InformationSource *string `db:"information_source" json:"informationSource,omitempty"`
	Comment           *string `db:"comment" json:"comment,omitempty"`
}

// TableName specifies the subtype table joined to base_geometries.
func (ClosureArea) TableName() string {
	return "closure_areas"
}

// PolymorphicIdentity returns the closure area discriminator value.
func (ClosureArea) PolymorphicIdentity() string {
	return IdentityClosureArea
}

// Station is a relief station whose facilities and supplies are crowd verified.
type Station struct {
	BaseGeometry
	OpHour  *string `db:"op_hour" json:"opHour,omitempty"`
	Level   int     `db:"level" json:"level"`
	Comment *string `db:"comment" json:"comment,omitempty"`

	Properties []StationProperty `db:"-" json:"properties,omitempty"`
}

// TableName specifies the subtype table joined to base_geometries.
func (Station) TableName() string {
	return "stations"
}

// PolymorphicIdentity returns the station discriminator value.
func (Station) PolymorphicIdentity() string {
	return IdentityStation
}

// StationPatch is a partial update of a Station. Only set members are written.
type StationPatch struct {
	Geometry  Opt[Geometry]   `db:"geometry"`
	CreatedBy Opt[*uuid.UUID] `db:"created_by"`
	County    Opt[*string]    `db:"county"`
	City      Opt[*string]    `db:"city"`
	Lane      Opt[*string]    `db:"lane"`
	Alley     Opt[*string]    `db:"alley"`
	No        Opt[*string]    `db:"no"`
	Floor     Opt[*string]    `db:"floor"`
	Room      Opt[*string]    `db:"room"`
	OpHour    Opt[*string]    `db:"op_hour"`
	Level     Opt[int]        `db:"level"`
	Comment   Opt[*string]    `db:"comment"`
}

// Fields returns the set members keyed by column name.
func (p StationPatch) Fields() map[string]any {
	return PatchFields(p)
}
