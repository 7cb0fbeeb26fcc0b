package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/relief/internal/models"
)

// UserRepository resolves a user's many-to-many associations through the assignment tables.
type UserRepository struct {
	*Repository[models.User]
	groups   *Repository[models.Group]
	policies *Repository[models.Policy]
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(opts ...Option) (*UserRepository, error) {
	users, err := New[models.User](opts...)
	if err != nil {
		return nil, err
	}
	groups, err := New[models.Group](opts...)
	if err != nil {
		return nil, err
	}
	policies, err := New[models.Policy](opts...)
	if err != nil {
		return nil, err
	}
	return &UserRepository{Repository: users, groups: groups, policies: policies}, nil
}

// Groups returns the groups the user is assigned to.
func (r *UserRepository) Groups(ctx context.Context, db Session, userID uuid.UUID) ([]models.Group, error) {
	groups, err := r.groups.FindWhere(ctx, db, r.groups.inAssignment(
		models.UserGroupAssign{}.TableName(), "group_uuid", "user_uuid"), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups of user %s: %w", userID, err)
	}
	return groups, nil
}

// Policies returns the policies assigned directly to the user.
func (r *UserRepository) Policies(ctx context.Context, db Session, userID uuid.UUID) ([]models.Policy, error) {
	policies, err := r.policies.FindWhere(ctx, db, r.policies.inAssignment(
		models.PolicyUserAssign{}.TableName(), "policy_uuid", "user_uuid"), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load policies of user %s: %w", userID, err)
	}
	return policies, nil
}

// GroupPolicies returns the policies assigned to a group.
func (r *UserRepository) GroupPolicies(ctx context.Context, db Session, groupID uuid.UUID) ([]models.Policy, error) {
	policies, err := r.policies.FindWhere(ctx, db, r.policies.inAssignment(
		models.PolicyGroupAssign{}.TableName(), "policy_uuid", "group_uuid"), groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load policies of group %s: %w", groupID, err)
	}
	return policies, nil
}

// LoadAssociations fills user.Groups and user.Policies.
func (r *UserRepository) LoadAssociations(ctx context.Context, db Session, user *models.User) error {
	if user == nil {
		return nil
	}
	groups, err := r.Groups(ctx, db, user.UUID)
	if err != nil {
		return err
	}
	policies, err := r.Policies(ctx, db, user.UUID)
	if err != nil {
		return err
	}
	user.Groups = groups
	user.Policies = policies
	return nil
}

// inAssignment builds "uuid IN (SELECT target FROM assign WHERE owner = $1)".
func (r *Repository[T]) inAssignment(assignTable, targetColumn, ownerColumn string) string {
	return fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s = $1)",
		r.schema.qualified(columnUUID),
		pgx.Identifier{targetColumn}.Sanitize(),
		pgx.Identifier{assignTable}.Sanitize(),
		pgx.Identifier{ownerColumn}.Sanitize())
}
