package task

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository/memory"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestUseCase(t *testing.T) (*UseCase, *memory.TaskRepository) {
	t.Helper()
	repo := memory.NewTaskRepository()
	uc := New(repo, nil, nil)
	uc.now = func() time.Time { return fixedNow }
	return uc, repo
}

func at(d time.Duration) *time.Time {
	v := fixedNow.Add(d)
	return &v
}

func ptr[T any](v T) *T { return &v }

func TestCreateTask_DefaultsAndOwnership(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateTask(ctx, "owner-a", Input{Title: "  Write report  "})
	require.NoError(t, err)
	assert.Equal(t, "owner-a", created.UserID)
	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.IsOverdue)
}

func TestCreateTask_Validation(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.CreateTask(ctx, "owner-a", Input{Title: "   "})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.CreateTask(ctx, "owner-a", Input{Title: "x", Status: "archived"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.CreateTask(ctx, "owner-a", Input{Title: "x", Priority: "urgent"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.CreateTask(ctx, "", Input{Title: "x"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestListTasks_OwnerIsolation(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := uc.CreateTask(ctx, "owner-a", Input{Title: fmt.Sprintf("a-%d", i)})
		require.NoError(t, err)
	}
	_, err := uc.CreateTask(ctx, "owner-b", Input{Title: "b-0"})
	require.NoError(t, err)

	page, err := uc.ListTasks(ctx, "owner-b", Query{})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, "owner-b", page.Tasks[0].UserID)
	assert.EqualValues(t, 1, page.Pagination.TotalTasks)
}

func TestListTasks_SecondPage(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	// inserted in reverse so ordering comes from the due date, not insertion
	for i := 10; i >= 1; i-- {
		_, err := uc.CreateTask(ctx, "owner-a", Input{
			Title:   fmt.Sprintf("task-%02d", i),
			DueDate: at(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	page, err := uc.ListTasks(ctx, "owner-a", Query{Page: 2, Limit: 6})
	require.NoError(t, err)

	require.Len(t, page.Tasks, 4)
	for i, task := range page.Tasks {
		assert.Equal(t, fmt.Sprintf("task-%02d", i+7), task.Title)
	}
	assert.Equal(t, Pagination{
		CurrentPage: 2,
		TotalPages:  2,
		TotalTasks:  10,
		Limit:       6,
		HasNextPage: false,
		HasPrevPage: true,
	}, page.Pagination)
}

func TestListTasks_DefaultsAndEmpty(t *testing.T) {
	uc, _ := newTestUseCase(t)

	page, err := uc.ListTasks(context.Background(), "owner-a", Query{Page: -3, Limit: 0})
	require.NoError(t, err)
	assert.Empty(t, page.Tasks)
	assert.NotNil(t, page.Tasks)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, DefaultLimit, page.Pagination.Limit)
	assert.Equal(t, 0, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNextPage)
	assert.False(t, page.Pagination.HasPrevPage)
}

func TestListTasks_UndatedTasksSortLast(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.CreateTask(ctx, "owner-a", Input{Title: "someday"})
	require.NoError(t, err)
	_, err = uc.CreateTask(ctx, "owner-a", Input{Title: "tomorrow", DueDate: at(24 * time.Hour)})
	require.NoError(t, err)

	page, err := uc.ListTasks(ctx, "owner-a", Query{})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 2)
	assert.Equal(t, "tomorrow", page.Tasks[0].Title)
	assert.Equal(t, "someday", page.Tasks[1].Title)
}

func TestListTasks_Filters(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	inputs := []Input{
		{Title: "Client Meeting", Priority: domain.PriorityHigh},
		{Title: "Notes", Description: "Weekly meeting notes", Status: domain.StatusInProgress},
		{Title: "Groceries", Status: domain.StatusDone, Priority: domain.PriorityLow},
	}
	for _, in := range inputs {
		_, err := uc.CreateTask(ctx, "owner-a", in)
		require.NoError(t, err)
	}

	page, err := uc.ListTasks(ctx, "owner-a", Query{Search: "meet"})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 2)

	page, err = uc.ListTasks(ctx, "owner-a", Query{Search: "MEET", Priority: domain.PriorityHigh})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, "Client Meeting", page.Tasks[0].Title)

	page, err = uc.ListTasks(ctx, "owner-a", Query{Status: domain.StatusDone})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, "Groceries", page.Tasks[0].Title)
}

func TestOverdueFlagAndListing(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	late, err := uc.CreateTask(ctx, "owner-a", Input{Title: "late", DueDate: at(-time.Hour)})
	require.NoError(t, err)
	assert.True(t, late.IsOverdue)

	doneLate, err := uc.CreateTask(ctx, "owner-a", Input{Title: "done late", Status: domain.StatusDone, DueDate: at(-time.Hour)})
	require.NoError(t, err)
	assert.False(t, doneLate.IsOverdue)

	_, err = uc.CreateTask(ctx, "owner-a", Input{Title: "future", DueDate: at(time.Hour)})
	require.NoError(t, err)
	_, err = uc.CreateTask(ctx, "owner-b", Input{Title: "someone else's", DueDate: at(-time.Hour)})
	require.NoError(t, err)

	page, err := uc.ListTasks(ctx, "owner-a", Query{})
	require.NoError(t, err)
	for _, task := range page.Tasks {
		assert.Equal(t, task.Title == "late", task.IsOverdue, task.Title)
	}

	overdue, err := uc.Overdue(ctx, "owner-a")
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)
	assert.True(t, overdue[0].IsOverdue)
}

func TestStats_Arithmetic(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	inputs := []Input{
		{Title: "a", Status: domain.StatusPending, DueDate: at(-time.Hour)},
		{Title: "b", Status: domain.StatusPending},
		{Title: "c", Status: domain.StatusInProgress, DueDate: at(-2 * time.Hour)},
		{Title: "d", Status: domain.StatusDone, DueDate: at(-time.Hour)},
		{Title: "e", Status: domain.StatusDone},
	}
	for _, in := range inputs {
		_, err := uc.CreateTask(ctx, "owner-a", in)
		require.NoError(t, err)
	}

	stats, err := uc.Stats(ctx, "owner-a")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStats{Total: 5, Completed: 2, Pending: 2, Overdue: 2}, stats)
	assert.EqualValues(t, 1, stats.InProgress())
	assert.Equal(t, stats.Total, stats.Completed+stats.Pending+stats.InProgress())
}

func TestUpdateTask_PartialMerge(t *testing.T) {
	uc, repo := newTestUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateTask(ctx, "owner-a", Input{Title: "draft", Description: "keep me", DueDate: at(time.Hour)})
	require.NoError(t, err)

	updated, err := uc.UpdateTask(ctx, created.ID, "owner-a", domain.TaskPatch{
		Status:   ptr(domain.StatusDone),
		Priority: ptr(domain.PriorityHigh),
	})
	require.NoError(t, err)
	assert.Equal(t, "draft", updated.Title)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, domain.StatusDone, updated.Status)
	assert.Equal(t, domain.PriorityHigh, updated.Priority)
	require.NotNil(t, updated.DueDate)

	cleared, err := uc.UpdateTask(ctx, created.ID, "owner-a", domain.TaskPatch{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.DueDate)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.DueDate)
	assert.Equal(t, domain.StatusDone, stored.Status)
}

func TestUpdateTask_NotOwnerLeavesTaskUnchanged(t *testing.T) {
	uc, repo := newTestUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateTask(ctx, "owner-a", Input{Title: "mine"})
	require.NoError(t, err)

	_, err = uc.UpdateTask(ctx, created.ID, "owner-b", domain.TaskPatch{Title: ptr("hijacked")})
	assert.ErrorIs(t, err, domain.ErrForbiddenTask)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", stored.Title)
	assert.Equal(t, "owner-a", stored.UserID)
}

func TestUpdateTask_Errors(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.UpdateTask(ctx, "missing", "owner-a", domain.TaskPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	created, err := uc.CreateTask(ctx, "owner-a", Input{Title: "mine"})
	require.NoError(t, err)
	_, err = uc.UpdateTask(ctx, created.ID, "owner-a", domain.TaskPatch{Title: ptr(" ")})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestDeleteTask(t *testing.T) {
	uc, repo := newTestUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateTask(ctx, "owner-a", Input{Title: "mine"})
	require.NoError(t, err)

	assert.ErrorIs(t, uc.DeleteTask(ctx, created.ID, "owner-b"), domain.ErrForbiddenTask)
	_, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, uc.DeleteTask(ctx, created.ID, "owner-a"))
	assert.ErrorIs(t, uc.DeleteTask(ctx, created.ID, "owner-a"), domain.ErrTaskNotFound)
}

type failingRepo struct {
	*memory.TaskRepository
	err error
}

func (f failingRepo) Create(context.Context, *domain.Task) (*domain.Task, error) {
	return nil, f.err
}

type recordingBuffer struct {
	ops []string
	err error
}

func (b *recordingBuffer) BufferTask(_ context.Context, operation string, _ *domain.Task) error {
	b.ops = append(b.ops, operation)
	return b.err
}

func TestCreateTask_BuffersStoreFailures(t *testing.T) {
	buf := &recordingBuffer{}
	uc := New(failingRepo{TaskRepository: memory.NewTaskRepository(), err: errors.New("connection refused")}, buf, nil)

	created, err := uc.CreateTask(context.Background(), "owner-a", Input{Title: "offline"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"create"}, buf.ops)

	buf.err = errors.New("disk full")
	_, err = uc.CreateTask(context.Background(), "owner-a", Input{Title: "offline"})
	assert.Error(t, err)
}

func TestCreateTask_DomainErrorsAreNotBuffered(t *testing.T) {
	buf := &recordingBuffer{}
	uc := New(failingRepo{TaskRepository: memory.NewTaskRepository(), err: domain.ErrInvalidPayload}, buf, nil)

	_, err := uc.CreateTask(context.Background(), "owner-a", Input{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	assert.Empty(t, buf.ops)
}
