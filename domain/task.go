package domain

import (
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	// StatusPending is stored and exchanged as "todo".
	StatusPending    TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

// TaskPriority ranks a task for the owner.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// ParseTaskStatus normalises user input. "pending" is accepted as an alias of "todo".
func ParseTaskStatus(raw string) (TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "todo", "pending":
		return StatusPending, nil
	case "in-progress", "in_progress", "inprogress":
		return StatusInProgress, nil
	case "done", "completed":
		return StatusDone, nil
	default:
		return "", Invalid("status must be one of todo, in-progress, done")
	}
}

// ParseTaskPriority normalises user input.
func ParseTaskPriority(raw string) (TaskPriority, error) {
	switch p := TaskPriority(strings.ToLower(strings.TrimSpace(raw))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", Invalid("priority must be one of low, medium, high")
	}
}

// Task represents a user-owned activity item.
type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusDone
}

// IsOverdue reports whether the task is past due and still open at now.
func (t *Task) IsOverdue(now time.Time) bool {
	if t == nil || t.DueDate == nil || t.IsCompleted() {
		return false
	}
	return t.DueDate.Before(now)
}

// OwnedBy reports whether userID owns the task.
func (t *Task) OwnedBy(userID string) bool {
	return t != nil && userID != "" && t.UserID == userID
}

// TaskView is a task enriched with fields derived at read time.
type TaskView struct {
	Task
	IsOverdue bool `json:"is_overdue"`
}

// NewTaskView derives the overdue flag against now.
func NewTaskView(t Task, now time.Time) TaskView {
	return TaskView{Task: t, IsOverdue: t.IsOverdue(now)}
}

// TaskPatch carries a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title        *string
	Description  *string
	Status       *TaskStatus
	Priority     *TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
}

// Validate rejects patches that would break task invariants.
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return Invalid("title cannot be empty")
	}
	if p.Status != nil {
		if _, err := ParseTaskStatus(string(*p.Status)); err != nil {
			return err
		}
	}
	if p.Priority != nil {
		if _, err := ParseTaskPriority(string(*p.Priority)); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the patch into t. Ownership and identity are never touched.
func (p TaskPatch) Apply(t *Task) {
	if t == nil {
		return
	}
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status, _ = ParseTaskStatus(string(*p.Status))
	}
	if p.Priority != nil {
		t.Priority, _ = ParseTaskPriority(string(*p.Priority))
	}
	switch {
	case p.ClearDueDate:
		t.DueDate = nil
	case p.DueDate != nil:
		due := *p.DueDate
		t.DueDate = &due
	}
}

// TaskStats holds per-owner aggregate counts. Tasks in progress are not
// counted separately; consumers derive them as Total-Completed-Pending.
type TaskStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Overdue   int64 `json:"overdue"`
}

// InProgress derives the number of tasks that are neither pending nor done.
func (s TaskStats) InProgress() int64 {
	return s.Total - s.Completed - s.Pending
}
