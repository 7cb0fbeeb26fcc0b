package models

import (
	"time"

	"github.com/google/uuid"
)

// UUIDPK is the identity mixin shared by every persisted entity.
// The UUID is assigned by the repository before the first insert and never changes.
type UUIDPK struct {
	UUID uuid.UUID `db:"uuid" json:"uuid"`
}

// GetUUID returns the entity identifier.
func (p UUIDPK) GetUUID() uuid.UUID {
	return p.UUID
}

// Timestamps is the lifecycle mixin.
// CreatedAt and UpdatedAt are maintained by the store; DeleteAt is the soft-delete marker.
type Timestamps struct {
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	DeleteAt  *time.Time `db:"delete_at" json:"deleteAt,omitempty"`
}

// Deleted reports whether the row carries a soft-delete marker.
func (t Timestamps) Deleted() bool {
	return t.DeleteAt != nil
}

// Identifiable is satisfied by every entity embedding UUIDPK.
type Identifiable interface {
	GetUUID() uuid.UUID
}

// Tabler names the table that stores the fields declared directly on a type.
type Tabler interface {
	TableName() string
}

// Polymorphic is implemented by the types of an inheritance hierarchy.
// The identity is stored in the root table's discriminator column.
type Polymorphic interface {
	PolymorphicIdentity() string
}

// Discriminated is implemented by hierarchy roots that store a polymorphic identity.
type Discriminated interface {
	DiscriminatorColumn() string
}
