// Package registry is a read-mostly view over case and task assignment
// relationships, consulted by the policy engine's assignment override and by
// UI permission hints. It holds no state of its own beyond a short-lived
// cache; the store is authoritative.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/bryanpmx/caf-api/internal/repository"
)

const (
	defaultTTL      = 30 * time.Second
	cleanupInterval = 5 * time.Minute
)

type Registry struct {
	repo  repository.AssignmentRepository
	cache *cache.Cache
}

func New(repo repository.AssignmentRepository) *Registry {
	return &Registry{
		repo:  repo,
		cache: cache.New(defaultTTL, cleanupInterval),
	}
}

// IsAssigned reports whether the user is in the assigned-staff set of the
// case, the assignee of the task, or the case's primary staff.
func (r *Registry) IsAssigned(ctx context.Context, userID, caseOrTaskID uuid.UUID) (bool, error) {
	key := fmt.Sprintf("assigned:%s:%s", userID, caseOrTaskID)
	if v, ok := r.cache.Get(key); ok {
		return v.(bool), nil
	}

	assigned, err := r.repo.IsAssigned(ctx, userID, caseOrTaskID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve assignment: %w", err)
	}

	r.cache.Set(key, assigned, cache.DefaultExpiration)
	return assigned, nil
}

// IsPrimary reports whether the user is the case's primary staff.
func (r *Registry) IsPrimary(ctx context.Context, userID, caseID uuid.UUID) (bool, error) {
	key := fmt.Sprintf("primary:%s:%s", userID, caseID)
	if v, ok := r.cache.Get(key); ok {
		return v.(bool), nil
	}

	primary, err := r.repo.IsPrimary(ctx, userID, caseID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve primary assignment: %w", err)
	}

	r.cache.Set(key, primary, cache.DefaultExpiration)
	return primary, nil
}

// AssignedStaffIDs returns the assigned-staff set for a case, uncached.
func (r *Registry) AssignedStaffIDs(ctx context.Context, caseID uuid.UUID) ([]uuid.UUID, error) {
	return r.repo.AssignedStaffIDs(ctx, caseID)
}

// Invalidate drops cached entries for a user/resource pair after an
// assignment change.
func (r *Registry) Invalidate(userID, caseOrTaskID uuid.UUID) {
	r.cache.Delete(fmt.Sprintf("assigned:%s:%s", userID, caseOrTaskID))
	r.cache.Delete(fmt.Sprintf("primary:%s:%s", userID, caseOrTaskID))
}
