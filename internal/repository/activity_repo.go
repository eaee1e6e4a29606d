package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/mergington-activities/internal/models"
)

var (
	// ErrActivityNotFound indicates no activity is registered under the requested name.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrParticipantExists indicates the email is already on the roster.
	ErrParticipantExists = errors.New("participant already registered")
	// ErrParticipantMissing indicates the email is not on the roster.
	ErrParticipantMissing = errors.New("participant not registered")
)

// ActivityRepository stores activities and their participant rosters.
type ActivityRepository interface {
	List(ctx context.Context) (map[string]models.Activity, error)
	Get(ctx context.Context, name string) (models.Activity, error)
	AddParticipant(ctx context.Context, name, email string) (models.Activity, error)
	RemoveParticipant(ctx context.Context, name, email string) (models.Activity, error)
}

type memoryActivityRepository struct {
	mu         sync.RWMutex
	activities map[string]*models.Activity
}

// NewMemoryActivityRepository builds an in-memory registry initialised with a copy of seed.
func NewMemoryActivityRepository(seed map[string]models.Activity) ActivityRepository {
	activities := make(map[string]*models.Activity, len(seed))
	for name, activity := range seed {
		item := activity.Clone()
		activities[name] = &item
	}
	return &memoryActivityRepository{activities: activities}
}

func (r *memoryActivityRepository) List(ctx context.Context) (map[string]models.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]models.Activity, len(r.activities))
	for name, activity := range r.activities {
		snapshot[name] = activity.Clone()
	}
	return snapshot, nil
}

func (r *memoryActivityRepository) Get(ctx context.Context, name string) (models.Activity, error) {
	if err := ctx.Err(); err != nil {
		return models.Activity{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	activity, ok := r.activities[name]
	if !ok {
		return models.Activity{}, ErrActivityNotFound
	}
	return activity.Clone(), nil
}

func (r *memoryActivityRepository) AddParticipant(ctx context.Context, name, email string) (models.Activity, error) {
	if err := ctx.Err(); err != nil {
		return models.Activity{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	activity, ok := r.activities[name]
	if !ok {
		return models.Activity{}, ErrActivityNotFound
	}
	if !activity.AddParticipant(email) {
		return models.Activity{}, ErrParticipantExists
	}
	return activity.Clone(), nil
}

func (r *memoryActivityRepository) RemoveParticipant(ctx context.Context, name, email string) (models.Activity, error) {
	if err := ctx.Err(); err != nil {
		return models.Activity{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	activity, ok := r.activities[name]
	if !ok {
		return models.Activity{}, ErrActivityNotFound
	}
	if !activity.RemoveParticipant(email) {
		return models.Activity{}, ErrParticipantMissing
	}
	return activity.Clone(), nil
}
