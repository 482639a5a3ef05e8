package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

const taskColumns = `id, user_id, title, description, status, priority, due_date, created_at, updated_at`

// The owner predicate is always bound; the optional ones collapse to TRUE on ''.
const taskWhere = `
	WHERE user_id = $1
	  AND ($2 = '' OR status = $2)
	  AND ($3 = '' OR priority = $3)
	  AND ($4 = '' OR title ILIKE $4 OR description ILIKE $4)
`

type taskRepository struct {
	pool Querier
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool Querier) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrTaskNotFound
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks` + taskWhere + `
	ORDER BY due_date ASC NULLS LAST, created_at ASC, id ASC
	LIMIT $5 OFFSET $6
	`
	args := append(filterArgs(filter), clampLimit(filter.Limit), max(filter.Offset, 0))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return collectTasks(rows)
}

func (r *taskRepository) Count(ctx context.Context, filter repository.TaskFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM tasks` + taskWhere
	var total int64
	if err := r.pool.QueryRow(ctx, query, filterArgs(filter)...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return total, nil
}

// Stats computes all counters in one statement so they share a snapshot.
func (r *taskRepository) Stats(ctx context.Context, userID string, now time.Time) (domain.TaskStats, error) {
	const query = `
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = $2),
		COUNT(*) FILTER (WHERE status = $3),
		COUNT(*) FILTER (WHERE due_date < $4 AND status <> $2)
	FROM tasks
	WHERE user_id = $1
	`
	var stats domain.TaskStats
	if err := r.pool.QueryRow(ctx, query,
		userID,
		string(domain.StatusDone),
		string(domain.StatusPending),
		now,
	).Scan(&stats.Total, &stats.Completed, &stats.Pending, &stats.Overdue); err != nil {
		return domain.TaskStats{}, fmt.Errorf("task stats: %w", err)
	}
	return stats, nil
}

func (r *taskRepository) ListOverdue(ctx context.Context, userID string, now time.Time) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
	WHERE user_id = $1 AND due_date < $2 AND status <> $3
	ORDER BY due_date ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, userID, now, string(domain.StatusDone))
	if err != nil {
		return nil, fmt.Errorf("list overdue tasks: %w", err)
	}
	return collectTasks(rows)
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, user_id, title, description, status, priority, due_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		nullTime(task.DueDate),
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, taskWriteError("create", err)
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $3,
		description = $4,
		status = $5,
		priority = $6,
		due_date = $7,
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		nullTime(task.DueDate),
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return taskWriteError("update", err)
	}

	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func filterArgs(filter repository.TaskFilter) []any {
	return []any{
		filter.UserID,
		string(filter.Status),
		string(filter.Priority),
		likePattern(filter.Search),
	}
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var (
		status   string
		priority string
		due      *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&due,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	task.DueDate = due
	return &task, nil
}
