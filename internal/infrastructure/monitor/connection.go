package monitor

import (
	"context"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// RedisPinger adapts a go-redis client to Pinger.
func RedisPinger(client *redislib.Client) Pinger {
	if client == nil {
		return nil
	}
	return PingerFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

// Sizer is satisfied by *buffer.Store.
type Sizer interface {
	Size() (int, error)
}

// Monitor periodically probes the durable dependencies. Nil dependencies
// are reported as not configured and ignored by IsOnline.
type Monitor struct {
	pg     Pinger
	redis  Pinger
	buffer Sizer

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(pg, redis Pinger, buf Sizer, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		pg:       pg,
		redis:    redis,
		buffer:   buf,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	m.Refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether every configured dependency answered the last probe.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy()
}

// DatabaseOnline reports whether buffered task writes can be replayed.
func (m *Monitor) DatabaseOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.PostgreSQL.OK
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes all dependencies once and stores the result.
func (m *Monitor) Refresh() {
	status := Status{
		PostgreSQL: m.probe("postgres", m.pg, 3*time.Second),
		Redis:      m.probe("redis", m.redis, 2*time.Second),
		Buffer:     m.checkBuffer(),
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if !previous.LastCheck.IsZero() && previous.Healthy() != status.Healthy() {
		m.logger.Info("dependency status changed", zap.Bool("online", status.Healthy()))
	}
}

func (m *Monitor) probe(name string, p Pinger, timeout time.Duration) Check {
	if p == nil {
		return Check{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		m.logger.Debug("dependency probe failed", zap.String("dependency", name), zap.Error(err))
		return Check{Configured: true}
	}
	return Check{Configured: true, OK: true}
}

func (m *Monitor) checkBuffer() BufferCheck {
	if m.buffer == nil {
		return BufferCheck{}
	}
	size, err := m.buffer.Size()
	if err != nil {
		m.logger.Warn("buffer size check failed", zap.Error(err))
		return BufferCheck{Check: Check{Configured: true}}
	}
	return BufferCheck{Check: Check{Configured: true, OK: true}, Size: size}
}
