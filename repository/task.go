package repository

import (
	"context"
	"strings"
	"time"

	"github.com/fastygo/taskflow/domain"
)

// TaskFilter is the owner-scoped predicate used by task queries. UserID is
// mandatory; every other field is optional and combined with AND.
type TaskFilter struct {
	UserID   string
	Status   domain.TaskStatus
	Priority domain.TaskPriority
	Search   string
	Limit    int
	Offset   int
}

// Matches evaluates the filter predicate in memory. Paging fields are ignored.
func (f TaskFilter) Matches(t domain.Task) bool {
	if f.UserID == "" || t.UserID != f.UserID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	// List returns matching tasks ordered by due date ascending, undated tasks last.
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int64, error)
	Stats(ctx context.Context, userID string, now time.Time) (domain.TaskStats, error)
	ListOverdue(ctx context.Context, userID string, now time.Time) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
