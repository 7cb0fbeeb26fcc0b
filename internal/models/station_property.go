package models

import "github.com/google/uuid"

// PropertyType classifies a station property.
type PropertyType string

const (
	PropertyFacility PropertyType = "facility"
	PropertySupply   PropertyType = "supply"
	PropertyService  PropertyType = "service"
)

// Rating is a crowd vote on a station or one of its properties.
type Rating string

const (
	RatingUp      Rating = "up"
	RatingNeutral Rating = "neutral"
	RatingDown    Rating = "down"
)

// Valid reports whether r belongs to the rating vocabulary.
func (r Rating) Valid() bool {
	switch r {
	case RatingUp, RatingNeutral, RatingDown:
		return true
	}
	return false
}

// StationProperty is a facility, supply or service attribute of a station.
// Status and Weightings are written by the crowd aggregation process.
type StationProperty struct {
	UUIDPK
	Timestamps
	StationUUID  uuid.UUID    `db:"station_uuid" json:"stationUuid"`
	PropertyType PropertyType `db:"property_type" json:"propertyType"`
	PropertyName string       `db:"property_name" json:"propertyName"`
	Quantity     *int         `db:"quantity" json:"quantity,omitempty"`
	Comment      *string      `db:"comment" json:"comment,omitempty"`
	Status       string       `db:"status" json:"status"`
	Weightings   float64      `db:"weightings" json:"weightings"`
	CreatedBy    uuid.UUID    `db:"created_by" json:"createdBy"`
}

func (StationProperty) TableName() string {
	return "station_properties"
}

// StationPropertyPatch is a partial update of a StationProperty.
type StationPropertyPatch struct {
	Quantity   Opt[*int]    `db:"quantity"`
	Comment    Opt[*string] `db:"comment"`
	Status     Opt[string]  `db:"status"`
	Weightings Opt[float64] `db:"weightings"`
}

// Fields returns the set members keyed by column name.
func (p StationPropertyPatch) Fields() map[string]any {
	return PatchFields(p)
}

// CrowdSourcing is one user's rating of a station or of a specific property.
// UserCredibilityScore is copied from the user when the rating is created and never re-derived.
type CrowdSourcing struct {
	UUIDPK
	Timestamps
	StationUUID          uuid.UUID  `db:"station_uuid" json:"stationUuid"`
	ItemUUID             *uuid.UUID `db:"item_uuid" json:"itemUuid,omitempty"`
	UserUUID             uuid.UUID  `db:"user_uuid" json:"userUuid"`
	UserCredibilityScore float64    `db:"user_credibility_score" json:"userCredibilityScore"`
	Rating               Rating     `db:"rating" json:"rating"`
	NUpdates             int        `db:"n_updates" json:"nUpdates"`
	DistanceFromGeometry *string    `db:"distance_from_geometry" json:"distanceFromGeometry,omitempty"`
}

func (CrowdSourcing) TableName() string {
	return "crowd_sourcing"
}
