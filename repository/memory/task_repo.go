// Package memory provides in-process repositories used by the "memory"
// storage driver and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

// TaskRepository keeps tasks in a map guarded by a RWMutex.
type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
	now   func() time.Time
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{
		tasks: make(map[string]domain.Task),
		now:   time.Now,
	}
}

func (r *TaskRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

func (r *TaskRepository) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	matched := r.matching(func(t domain.Task) bool { return filter.Matches(t) })
	sortByDueDate(matched)

	offset := max(filter.Offset, 0)
	if offset >= len(matched) {
		return []domain.Task{}, nil
	}
	end := len(matched)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return matched[offset:end], nil
}

func (r *TaskRepository) Count(_ context.Context, filter repository.TaskFilter) (int64, error) {
	return int64(len(r.matching(func(t domain.Task) bool { return filter.Matches(t) }))), nil
}

func (r *TaskRepository) Stats(_ context.Context, userID string, now time.Time) (domain.TaskStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.TaskStats
	for _, task := range r.tasks {
		if task.UserID != userID {
			continue
		}
		stats.Total++
		switch task.Status {
		case domain.StatusDone:
			stats.Completed++
		case domain.StatusPending:
			stats.Pending++
		}
		if task.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats, nil
}

func (r *TaskRepository) ListOverdue(_ context.Context, userID string, now time.Time) ([]domain.Task, error) {
	overdue := r.matching(func(t domain.Task) bool {
		return t.UserID == userID && t.IsOverdue(now)
	})
	sortByDueDate(overdue)
	return overdue, nil
}

func (r *TaskRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := r.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = *cloneTask(*task)
	return task, nil
}

func (r *TaskRepository) Update(_ context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.tasks[task.ID]
	if !ok || current.UserID != task.UserID {
		return domain.ErrTaskNotFound
	}
	task.CreatedAt = current.CreatedAt
	task.UpdatedAt = r.now()
	r.tasks[task.ID] = *cloneTask(*task)
	return nil
}

func (r *TaskRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

// DeleteByUser mirrors the ON DELETE CASCADE of the SQL schema.
func (r *TaskRepository) DeleteByUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, task := range r.tasks {
		if task.UserID == userID {
			delete(r.tasks, id)
		}
	}
}

func (r *TaskRepository) matching(keep func(domain.Task) bool) []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Task, 0)
	for _, task := range r.tasks {
		if keep(task) {
			out = append(out, *cloneTask(task))
		}
	}
	return out
}

// sortByDueDate orders like the SQL store: due date ascending with undated
// tasks last, then creation time and id.
func sortByDueDate(tasks []domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		case !a.CreatedAt.Equal(b.CreatedAt):
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.ID < b.ID
		}
	})
}

func cloneTask(t domain.Task) *domain.Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return &t
}
