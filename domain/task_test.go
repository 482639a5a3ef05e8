package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskStatus(t *testing.T) {
	for raw, want := range map[string]TaskStatus{
		"todo":        StatusPending,
		"Pending":     StatusPending,
		"in-progress": StatusInProgress,
		"in_progress": StatusInProgress,
		" DONE ":      StatusDone,
		"completed":   StatusDone,
	} {
		got, err := ParseTaskStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseTaskStatus("archived")
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
	_, err = ParseTaskPriority("urgent")
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Minute), now.Add(time.Minute)

	assert.True(t, (&Task{Status: StatusPending, DueDate: &past}).IsOverdue(now))
	assert.True(t, (&Task{Status: StatusInProgress, DueDate: &past}).IsOverdue(now))
	assert.False(t, (&Task{Status: StatusDone, DueDate: &past}).IsOverdue(now))
	assert.False(t, (&Task{Status: StatusPending, DueDate: &future}).IsOverdue(now))
	assert.False(t, (&Task{Status: StatusPending, DueDate: &now}).IsOverdue(now))
	assert.False(t, (&Task{Status: StatusPending}).IsOverdue(now))
}

func TestTaskPatch(t *testing.T) {
	due := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	task := &Task{ID: "t1", UserID: "u1", Title: "old", Description: "keep", Status: StatusPending, Priority: PriorityLow, DueDate: &due}

	title := "  new  "
	status := TaskStatus("pending")
	patch := TaskPatch{Title: &title, Status: &status}
	require.NoError(t, patch.Validate())
	patch.Apply(task)

	assert.Equal(t, "new", task.Title)
	assert.Equal(t, "keep", task.Description)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, PriorityLow, task.Priority)
	assert.Equal(t, "u1", task.UserID)
	require.NotNil(t, task.DueDate)

	TaskPatch{ClearDueDate: true}.Apply(task)
	assert.Nil(t, task.DueDate)

	blank := " "
	assert.True(t, IsDomainError(TaskPatch{Title: &blank}.Validate(), ErrCodeInvalid))
	bad := TaskPriority("urgent")
	assert.True(t, IsDomainError(TaskPatch{Priority: &bad}.Validate(), ErrCodeInvalid))
}

func TestTaskStatsInProgress(t *testing.T) {
	assert.EqualValues(t, 3, TaskStats{Total: 10, Completed: 4, Pending: 3}.InProgress())
}

func TestErrorMatching(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", WrapError(ErrCodeNotFound, ErrTaskNotFound.Message, errors.New("no rows")))
	assert.ErrorIs(t, wrapped, ErrTaskNotFound)
	assert.NotErrorIs(t, wrapped, ErrUserNotFound)
	assert.Equal(t, ErrCodeNotFound, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.False(t, IsDomainError(errors.New("plain"), ""))
}
