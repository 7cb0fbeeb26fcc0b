package models

import "github.com/google/uuid"

// DefaultCredibilityScore is assigned to new users by the store.
const DefaultCredibilityScore = 50.0

// User is an account whose credibility score weights its crowd ratings.
type User struct {
	UUIDPK
	Timestamps
	Name             string  `db:"name" json:"name"`
	Password         string  `db:"password" json:"-"`
	CredibilityScore float64 `db:"credibility_score" json:"credibilityScore"`

	Groups   []Group  `db:"-" json:"groups,omitempty"`
	Policies []Policy `db:"-" json:"policies,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Group collects users that share policies.
type Group struct {
	UUIDPK
	Name string `db:"name" json:"name"`
}

func (Group) TableName() string {
	return "groups"
}

// PermissionLevel is an opaque permission level string.
// The vocabulary is owned by the policy enforcement layer.
type PermissionLevel string

// Policy grants one permission level per operation kind.
type Policy struct {
	UUIDPK
	Name   string          `db:"name" json:"name"`
	Read   PermissionLevel `db:"read" json:"read"`
	Create PermissionLevel `db:"create" json:"create"`
	Edit   PermissionLevel `db:"edit" json:"edit"`
	Delete PermissionLevel `db:"delete" json:"delete"`
}

func (Policy) TableName() string {
	return "policies"
}

type UserGroupAssign struct {
	UUIDPK
	UserUUID  uuid.UUID `db:"user_uuid" json:"userUuid"`
	GroupUUID uuid.UUID `db:"group_uuid" json:"groupUuid"`
}

func (UserGroupAssign) TableName() string {
	return "user_group_assign"
}

type PolicyUserAssign struct {
	UUIDPK
	UserUUID   uuid.UUID `db:"user_uuid" json:"userUuid"`
	PolicyUUID uuid.UUID `db:"policy_uuid" json:"policyUuid"`
}

func (PolicyUserAssign) TableName() string {
	return "policy_user_assign"
}

type PolicyGroupAssign struct {
	UUIDPK
	GroupUUID  uuid.UUID `db:"group_uuid" json:"groupUuid"`
	PolicyUUID uuid.UUID `db:"policy_uuid" json:"policyUuid"`
}

func (PolicyGroupAssign) TableName() string {
	return "policy_group_assign"
}
