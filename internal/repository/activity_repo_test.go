package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mergington-activities/internal/models"
)

func newTestActivityRepo() ActivityRepository {
	return NewMemoryActivityRepository(map[string]models.Activity{
		"Chess Club": {
			Description:     "Chess",
			Schedule:        "Fridays",
			MaxParticipants: 2,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		"Empty Club": {Description: "Nobody yet", Schedule: "Never", MaxParticipants: 5},
	})
}

func TestMemoryActivityRepositoryListReturnsSnapshot(t *testing.T) {
	repo := newTestActivityRepo()
	ctx := context.Background()

	snapshot, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)

	_, err = repo.AddParticipant(ctx, "Chess Club", "new@mergington.edu")
	require.NoError(t, err)

	require.Len(t, snapshot["Chess Club"].Participants, 2)

	chess := snapshot["Chess Club"]
	chess.Participants[0] = "mutated@mergington.edu"
	fresh, err := repo.Get(ctx, "Chess Club")
	require.NoError(t, err)
	require.Equal(t, "michael@mergington.edu", fresh.Participants[0])
}

func TestMemoryActivityRepositorySeedIsCopied(t *testing.T) {
	seed := map[string]models.Activity{
		"Art Club": {Participants: []string{"a@mergington.edu"}},
	}
	repo := NewMemoryActivityRepository(seed)

	_, err := repo.AddParticipant(context.Background(), "Art Club", "b@mergington.edu")
	require.NoError(t, err)
	require.Equal(t, []string{"a@mergington.edu"}, seed["Art Club"].Participants)
}

func TestMemoryActivityRepositoryAddParticipant(t *testing.T) {
	repo := newTestActivityRepo()
	ctx := context.Background()

	activity, err := repo.AddParticipant(ctx, "Chess Club", "new@mergington.edu")
	require.NoError(t, err)
	require.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu", "new@mergington.edu"}, activity.Participants)

	_, err = repo.AddParticipant(ctx, "Chess Club", "new@mergington.edu")
	require.ErrorIs(t, err, ErrParticipantExists)

	_, err = repo.AddParticipant(ctx, "Unknown", "new@mergington.edu")
	require.ErrorIs(t, err, ErrActivityNotFound)

	stored, err := repo.Get(ctx, "Chess Club")
	require.NoError(t, err)
	require.Len(t, stored.Participants, 3)
}

func TestMemoryActivityRepositoryCapIsNotEnforced(t *testing.T) {
	repo := newTestActivityRepo()

	activity, err := repo.AddParticipant(context.Background(), "Chess Club", "third@mergington.edu")
	require.NoError(t, err)
	require.Len(t, activity.Participants, 3)
	require.Equal(t, 2, activity.MaxParticipants)
}

func TestMemoryActivityRepositoryRemoveParticipant(t *testing.T) {
	repo := newTestActivityRepo()
	ctx := context.Background()

	activity, err := repo.RemoveParticipant(ctx, "Chess Club", "michael@mergington.edu")
	require.NoError(t, err)
	require.Equal(t, []string{"daniel@mergington.edu"}, activity.Participants)

	_, err = repo.RemoveParticipant(ctx, "Chess Club", "michael@mergington.edu")
	require.ErrorIs(t, err, ErrParticipantMissing)

	_, err = repo.RemoveParticipant(ctx, "Empty Club", "ghost@mergington.edu")
	require.ErrorIs(t, err, ErrParticipantMissing)

	_, err = repo.RemoveParticipant(ctx, "Unknown", "michael@mergington.edu")
	require.ErrorIs(t, err, ErrActivityNotFound)
}

func TestMemoryActivityRepositoryRespectsCancelledContext(t *testing.T) {
	repo := newTestActivityRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.AddParticipant(ctx, "Chess Club", "late@mergington.edu")
	require.ErrorIs(t, err, context.Canceled)

	activity, err := repo.Get(context.Background(), "Chess Club")
	require.NoError(t, err)
	require.Len(t, activity.Participants, 2)
}

func TestMemoryActivityRepositoryConcurrentSignups(t *testing.T) {
	repo := newTestActivityRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.AddParticipant(ctx, "Empty Club", "same@mergington.edu")
		}()
	}
	wg.Wait()

	activity, err := repo.Get(ctx, "Empty Club")
	require.NoError(t, err)
	require.Equal(t, []string{"same@mergington.edu"}, activity.Participants)
}
