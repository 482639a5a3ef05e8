package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/logger"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/usecase"
)

// Input holds the fields accepted when creating a task. Zero values fall
// back to status "todo" and priority "medium".
type Input struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
	DueDate     *time.Time
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalTasks  int64 `json:"total_tasks"`
	Limit       int   `json:"limit"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
}

type Page struct {
	Tasks      []domain.TaskView `json:"tasks"`
	Pagination Pagination        `json:"pagination"`
}

type UseCase struct {
	tasks  repository.TaskRepository
	buffer usecase.OperationBuffer
	logger *zap.Logger
	now    func() time.Time
}

// New wires the task use case. buffer may be nil, in which case store
// failures are returned to the caller directly.
func New(tasks repository.TaskRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		buffer: buffer,
		logger: logger,
		now:    time.Now,
	}
}

// ListTasks returns one page of the owner's tasks matching q.
func (uc *UseCase) ListTasks(ctx context.Context, ownerID string, q Query) (*Page, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	q = q.normalized()

	filter := repository.TaskFilter{
		UserID:   ownerID,
		Status:   q.Status,
		Priority: q.Priority,
		Search:   q.Search,
		Limit:    q.Limit,
		Offset:   q.offset(),
	}

	total, err := uc.tasks.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	tasks, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	views := make([]domain.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, domain.NewTaskView(t, now))
	}

	return &Page{Tasks: views, Pagination: paginate(total, q)}, nil
}

func paginate(total int64, q Query) Pagination {
	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return Pagination{
		CurrentPage: q.Page,
		TotalPages:  totalPages,
		TotalTasks:  total,
		Limit:       q.Limit,
		HasNextPage: q.Page < totalPages,
		HasPrevPage: q.Page > 1,
	}
}

// Stats returns aggregate counters for the owner. Pending counts only tasks
// in "todo"; in-progress is Total-Completed-Pending.
func (uc *UseCase) Stats(ctx context.Context, ownerID string) (domain.TaskStats, error) {
	if ownerID == "" {
		return domain.TaskStats{}, domain.ErrUnauthorized
	}
	return uc.tasks.Stats(ctx, ownerID, uc.now())
}

// Overdue lists every open task of the owner whose due date has passed.
func (uc *UseCase) Overdue(ctx context.Context, ownerID string) ([]domain.TaskView, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	now := uc.now()
	tasks, err := uc.tasks.ListOverdue(ctx, ownerID, now)
	if err != nil {
		return nil, err
	}
	views := make([]domain.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, domain.NewTaskView(t, now))
	}
	return views, nil
}

func (uc *UseCase) GetTask(ctx context.Context, id, ownerID string) (*domain.TaskView, error) {
	task, err := uc.ownedTask(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	view := domain.NewTaskView(*task, uc.now())
	return &view, nil
}

func (uc *UseCase) CreateTask(ctx context.Context, ownerID string, in Input) (*domain.TaskView, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Invalid("title is required")
	}

	status, priority := domain.StatusPending, domain.PriorityMedium
	var err error
	if in.Status != "" {
		if status, err = domain.ParseTaskStatus(string(in.Status)); err != nil {
			return nil, err
		}
	}
	if in.Priority != "" {
		if priority, err = domain.ParseTaskPriority(string(in.Priority)); err != nil {
			return nil, err
		}
	}

	task := &domain.Task{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Title:       title,
		Description: in.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     in.DueDate,
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationCreate, task, err) {
			now := uc.now()
			task.CreatedAt, task.UpdatedAt = now, now
			view := domain.NewTaskView(*task, now)
			return &view, nil
		}
		return nil, err
	}
	view := domain.NewTaskView(*created, uc.now())
	return &view, nil
}

// UpdateTask merges patch into a task owned by ownerID and returns the result.
func (uc *UseCase) UpdateTask(ctx context.Context, id, ownerID string, patch domain.TaskPatch) (*domain.TaskView, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	task, err := uc.ownedTask(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	patch.Apply(task)
	if err := uc.tasks.Update(ctx, task); err != nil {
		if !uc.shouldBuffer(ctx, usecase.OperationUpdate, task, err) {
			return nil, err
		}
		task.UpdatedAt = uc.now()
	}
	view := domain.NewTaskView(*task, uc.now())
	return &view, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, id, ownerID string) error {
	task, err := uc.ownedTask(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if err := uc.tasks.Delete(ctx, task.ID); err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationDelete, task, err) {
			return nil
		}
		return err
	}
	return nil
}

// ownedTask loads a task and checks it belongs to ownerID before any mutation.
func (uc *UseCase) ownedTask(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	if id == "" {
		return nil, domain.Invalid("missing task id")
	}
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.OwnedBy(ownerID) {
		return nil, domain.ErrForbiddenTask
	}
	return task, nil
}

// shouldBuffer hands a failed write to the offline buffer. Domain errors
// are final and never buffered.
func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, task *domain.Task, cause error) bool {
	if uc.buffer == nil {
		return false
	}
	var dErr *domain.Error
	if errors.As(cause, &dErr) {
		return false
	}
	log := logger.WithRequestID(ctx, uc.logger)
	if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
		log.Error("failed to buffer task operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	log.Warn("task operation buffered", zap.String("operation", operation), zap.String("task_id", task.ID), zap.Error(cause))
	return true
}
