package models

import "github.com/google/uuid"

// RequestBase is the ticket layer of the geometry hierarchy.
// HR and supply requirements extend it through their own tables.
type RequestBase struct {
	BaseGeometry
	Title        string  `db:"title" json:"title"`
	Description  *string `db:"description" json:"description,omitempty"`
	ContactName  string  `db:"contact_name" json:"contactName"`
	ContactEmail *string `db:"contact_email" json:"contactEmail,omitempty"`
	ContactPhone *string `db:"contact_phone" json:"contactPhone,omitempty"`
	Status       string  `db:"status" json:"status"`
	Priority     string  `db:"priority" json:"priority"`

	Photos []RequestPhoto `db:"-" json:"photos,omitempty"`
}

// TableName specifies the ticket table joined to base_geometries.
func (RequestBase) TableName() string {
	return "request_bases"
}

// PolymorphicIdentity returns the abstract ticket discriminator value.
func (RequestBase) PolymorphicIdentity() string {
	return IdentityRequest
}

// HRRequirement is a ticket asking for people with given specialties.
type HRRequirement struct {
	RequestBase

	Tasks []HRTaskSpecialty `db:"-" json:"tasks,omitempty"`
}

func (HRRequirement) TableName() string {
	return "hr_requirements"
}

func (HRRequirement) PolymorphicIdentity() string {
	return IdentityHRRequirement
}

// SupplyRequirement is a ticket asking for supply items.
type SupplyRequirement struct {
	RequestBase

	Items []SupplyTaskItem `db:"-" json:"items,omitempty"`
}

func (SupplyRequirement) TableName() string {
	return "supply_requirements"
}

func (SupplyRequirement) PolymorphicIdentity() string {
	return IdentitySupplyRequirement
}

// HRTaskSpecialty is one specialty line of an HR requirement.
type HRTaskSpecialty struct {
	UUIDPK
	Timestamps
	ReqUUID              uuid.UUID `db:"req_uuid" json:"reqUuid"`
	SpecialtyDescription string    `db:"specialty_description" json:"specialtyDescription"`
	Quantity             int       `db:"quantity" json:"quantity"`
	Status               string    `db:"status" json:"status"`
}

func (HRTaskSpecialty) TableName() string {
	return "hr_task_specialties"
}

// SupplyTaskItem is one item line of a supply requirement.
type SupplyTaskItem struct {
	UUIDPK
	Timestamps
	ReqUUID         uuid.UUID `db:"req_uuid" json:"reqUuid"`
	ItemName        string    `db:"item_name" json:"itemName"`
	ItemDescription *string   `db:"item_description" json:"itemDescription,omitempty"`
	Quantity        int       `db:"quantity" json:"quantity"`
	Status          string    `db:"status" json:"status"`
	Suggestion      *string   `db:"suggestion" json:"suggestion,omitempty"`
}

func (SupplyTaskItem) TableName() string {
	return "supply_task_items"
}

// RequestPhoto is a photo attached to any ticket.
type RequestPhoto struct {
	UUIDPK
	Timestamps
	ReqUUID   uuid.UUID `db:"req_uuid" json:"reqUuid"`
	URL       string    `db:"url" json:"url"`
	CreatedBy uuid.UUID `db:"created_by" json:"createdBy"`
}

func (RequestPhoto) TableName() string {
	return "request_photos"
}
