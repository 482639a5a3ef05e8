package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/infrastructure/buffer"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	DatabaseOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained and purged.
type ProcessorConfig struct {
	Interval        time.Duration
	BatchSize       int
	MaxRetries      int
	Retention       time.Duration
	CleanupInterval time.Duration
}

// BufferProcessor replays buffered task writes once the database is reachable.
type BufferProcessor struct {
	store    *buffer.Store
	monitor  ConnectionHealth
	taskRepo repository.TaskRepository
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ProcessorConfig
	now      func() time.Time
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	taskRepo repository.TaskRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:    store,
		monitor:  monitor,
		taskRepo: taskRepo,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
		now:      time.Now,
	}

	drainSchedule := fmt.Sprintf("@every %ds", max(int(cfg.Interval.Seconds()), 1))
	_, _ = bp.cron.AddFunc(drainSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	})
	cleanupSchedule := fmt.Sprintf("@every %ds", max(int(cfg.CleanupInterval.Seconds()), 1))
	_, _ = bp.cron.AddFunc(cleanupSchedule, func() {
		if _, err := bp.Cleanup(); err != nil {
			bp.logger.Error("buffer cleanup failed", zap.Error(err))
		}
	})

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started")
}

// Stop gracefully stops the scheduler.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain replays buffered items in the order they were accepted. It stops at
// the first transient failure so later writes to the same task never overtake it.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.DatabaseOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		err := bp.processItem(ctx, item)
		switch {
		case err == nil:
		case isFinal(err):
			bp.logger.Warn("discarding buffered write rejected by store",
				zap.String("item_id", item.ID),
				zap.String("operation", item.Operation),
				zap.Error(err))
		default:
			item.Retries++
			if item.Retries >= bp.cfg.MaxRetries {
				bp.logger.Warn("dropping buffer item (max retries reached)",
					zap.String("item_id", item.ID), zap.Error(err))
				break
			}
			if uErr := bp.store.Update(item); uErr != nil {
				bp.logger.Error("failed to record buffer retry", zap.Error(uErr))
			}
			return fmt.Errorf("replay %s %s: %w", item.Entity, item.Operation, err)
		}

		if err := bp.store.Remove(item); err != nil {
			bp.logger.Warn("failed to purge processed buffer item", zap.Error(err))
		}
	}
	return nil
}

// Cleanup drops items older than the configured retention.
func (bp *BufferProcessor) Cleanup() (int, error) {
	if bp == nil || bp.store == nil {
		return 0, nil
	}
	removed, err := bp.store.Cleanup(bp.now().Add(-bp.cfg.Retention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		bp.logger.Warn("expired buffered writes discarded", zap.Int("count", removed))
	}
	return removed, nil
}

// BufferOperation persists an item for later replay.
func (bp *BufferProcessor) BufferOperation(_ context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return errors.New("buffer processor not configured")
	}
	return bp.store.Enqueue(item)
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if item.Entity != buffer.EntityTask {
		return domain.Invalid(fmt.Sprintf("unsupported entity %q", item.Entity))
	}
	var task domain.Task
	if err := json.Unmarshal(item.Data, &task); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "corrupt buffered task", err)
	}

	switch item.Operation {
	case usecase.OperationCreate:
		_, err := bp.taskRepo.Create(ctx, &task)
		return err
	case usecase.OperationUpdate:
		return bp.taskRepo.Update(ctx, &task)
	case usecase.OperationDelete:
		if err := bp.taskRepo.Delete(ctx, task.ID); err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
			return err
		}
		return nil
	default:
		return domain.Invalid(fmt.Sprintf("unsupported operation %q", item.Operation))
	}
}

// isFinal reports errors that will not go away by retrying.
func isFinal(err error) bool {
	var dErr *domain.Error
	return errors.As(err, &dErr)
}
