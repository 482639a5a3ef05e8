package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/internal/config"
	"github.com/fastygo/taskflow/internal/infrastructure/buffer"
	"github.com/fastygo/taskflow/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskflow/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskflow/internal/infrastructure/redis"
	"github.com/fastygo/taskflow/internal/services"
	"github.com/fastygo/taskflow/internal/services/lifecycle"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/repository/memory"
	"github.com/fastygo/taskflow/repository/postgres"
	redisRepo "github.com/fastygo/taskflow/repository/redis"
	"github.com/fastygo/taskflow/usecase"
)

// startupTimeout bounds connecting to external dependencies at boot.
const startupTimeout = 30 * time.Second

// stack holds the storage-side collaborators selected by STORAGE_DRIVER.
// The memory driver leaves buffer, monitor and bufferSize nil.
type stack struct {
	users      repository.UserRepository
	tasks      repository.TaskRepository
	sessions   repository.SessionRepository
	states     repository.StateRepository
	buffer     usecase.OperationBuffer
	monitor    *monitor.Monitor
	bufferSize func() int
}

func newMemoryStack(cfg *config.Config) *stack {
	tasks := memory.NewTaskRepository()
	sessions := memory.NewSessionRepository(cfg.JWT.TTL)
	return &stack{
		users:    memory.NewUserRepository(tasks),
		tasks:    tasks,
		sessions: sessions,
		states:   sessions,
	}
}

func newPostgresStack(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, log *zap.Logger) (*stack, error) {
	if err := pgInfra.RunMigrations(cfg, log); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	bootCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := pgInfra.NewPool(bootCtx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	manager.Register("postgres", func(context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(bootCtx, cfg.Redis, log)
	if err != nil {
		return nil, err
	}
	manager.RegisterCloser("redis", redisClient.Close)

	store, err := buffer.Open(cfg.Buffer.Path, "", cfg.Buffer.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("open write buffer: %w", err)
	}
	manager.RegisterCloser("buffer", store.Close)

	mon := monitor.New(pool, monitor.RedisPinger(redisClient), store, 10*time.Second, log)
	mon.Start()
	manager.Register("monitor", func(context.Context) error {
		mon.Stop()
		return nil
	})

	taskRepo := postgres.NewTaskRepository(pool)

	processor := services.NewBufferProcessor(store, mon, taskRepo, log, services.ProcessorConfig{
		Interval:   cfg.Buffer.SyncInterval,
		BatchSize:  50,
		MaxRetries: cfg.Buffer.MaxRetry,
		Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
	})
	processor.Start()
	// Registered after the store so it stops first.
	manager.Register("buffer_processor", func(ctx context.Context) error {
		processor.Stop(ctx)
		return nil
	})

	return &stack{
		users:      postgres.NewUserRepository(pool),
		tasks:      taskRepo,
		sessions:   redisRepo.NewSessionRepository(redisClient, cfg.JWT.TTL),
		states:     redisRepo.NewStateRepository(redisClient),
		buffer:     services.NewBufferBridge(processor),
		monitor:    mon,
		bufferSize: processor.Size,
	}, nil
}
