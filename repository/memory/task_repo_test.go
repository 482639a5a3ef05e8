package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

func TestTaskRepository_ListOrderingAndPaging(t *testing.T) {
	repo := NewTaskRepository()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	due := func(h int) *time.Time {
		v := base.Add(time.Duration(h) * time.Hour)
		return &v
	}
	for _, task := range []domain.Task{
		{UserID: "u", Title: "none", Status: domain.StatusPending},
		{UserID: "u", Title: "third", Status: domain.StatusPending, DueDate: due(3)},
		{UserID: "u", Title: "first", Status: domain.StatusPending, DueDate: due(1)},
		{UserID: "u", Title: "second", Status: domain.StatusPending, DueDate: due(2)},
		{UserID: "other", Title: "foreign", Status: domain.StatusPending, DueDate: due(0)},
	} {
		task := task
		_, err := repo.Create(ctx, &task)
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, repository.TaskFilter{UserID: "u"})
	require.NoError(t, err)
	titles := make([]string, 0, len(all))
	for _, task := range all {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"first", "second", "third", "none"}, titles)

	page, err := repo.List(ctx, repository.TaskFilter{UserID: "u", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "third", page[0].Title)

	empty, err := repo.List(ctx, repository.TaskFilter{UserID: "u", Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)

	count, err := repo.Count(ctx, repository.TaskFilter{UserID: "u"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
}

func TestTaskRepository_ReturnsCopies(t *testing.T) {
	repo := NewTaskRepository()
	ctx := context.Background()
	due := time.Now()

	created, err := repo.Create(ctx, &domain.Task{UserID: "u", Title: "orig", DueDate: &due})
	require.NoError(t, err)

	loaded, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	loaded.Title = "mutated"
	*loaded.DueDate = due.Add(time.Hour)

	again, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "orig", again.Title)
	assert.True(t, due.Equal(*again.DueDate))
}

func TestTaskRepository_UpdateRequiresOwner(t *testing.T) {
	repo := NewTaskRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Task{UserID: "u", Title: "t"})
	require.NoError(t, err)

	foreign := *created
	foreign.UserID = "intruder"
	assert.ErrorIs(t, repo.Update(ctx, &foreign), domain.ErrTaskNotFound)

	created.Title = "renamed"
	require.NoError(t, repo.Update(ctx, created))
	loaded, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", loaded.Title)
}

func TestUserRepository_CascadeAndUniqueness(t *testing.T) {
	tasks := NewTaskRepository()
	users := NewUserRepository(tasks)
	ctx := context.Background()

	alice := &domain.User{Username: "alice", Email: "a@example.com", PasswordHash: "h"}
	require.NoError(t, users.Create(ctx, alice))
	assert.ErrorIs(t, users.Create(ctx, &domain.User{Username: "x", Email: "a@example.com", PasswordHash: "h"}), domain.ErrEmailTaken)
	assert.ErrorIs(t, users.Create(ctx, &domain.User{Username: "x", Email: "x@example.com"}), domain.ErrInvalidPayload)

	bob := &domain.User{Username: "bob", Email: "b@example.com", GoogleID: "g-1"}
	require.NoError(t, users.Create(ctx, bob))
	assert.ErrorIs(t, users.LinkGoogleID(ctx, alice.ID, "g-1"), domain.ErrIdentityTaken)

	_, err := tasks.Create(ctx, &domain.Task{UserID: alice.ID, Title: "t"})
	require.NoError(t, err)
	require.NoError(t, users.Delete(ctx, alice.ID))

	count, err := tasks.Count(ctx, repository.TaskFilter{UserID: alice.ID})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.ErrorIs(t, users.Delete(ctx, alice.ID), domain.ErrUserNotFound)
}

func TestSessionRepository_StatesAndRevocation(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "s", time.Minute))
	require.NoError(t, repo.Consume(ctx, "s"))
	assert.ErrorIs(t, repo.Consume(ctx, "s"), domain.ErrInvalidState)

	require.NoError(t, repo.Revoke(ctx, "jti", time.Now().Add(time.Minute)))
	revoked, err := repo.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, repo.Revoke(ctx, "stale", time.Now().Add(-time.Minute)))
	revoked, err = repo.IsRevoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, revoked)
}
