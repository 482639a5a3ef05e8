package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskflow/api/handler"
	"github.com/fastygo/taskflow/internal/config"
	"github.com/fastygo/taskflow/internal/infrastructure/metrics"
	"github.com/fastygo/taskflow/internal/infrastructure/oauth"
	"github.com/fastygo/taskflow/internal/middleware"
	"github.com/fastygo/taskflow/internal/router"
	"github.com/fastygo/taskflow/internal/services/lifecycle"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/pkg/logger"
	"github.com/fastygo/taskflow/pkg/password"
	"github.com/fastygo/taskflow/pkg/token"
	authUC "github.com/fastygo/taskflow/usecase/auth"
	profileUC "github.com/fastygo/taskflow/usecase/profile"
	taskUC "github.com/fastygo/taskflow/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Service:     cfg.AppName,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.Listen(context.Background())
	defer stop()

	var st *stack
	if cfg.UsesPostgres() {
		st, err = newPostgresStack(appCtx, cfg, manager, zapLogger)
	} else {
		zapLogger.Warn("using in-memory storage, data is lost on restart")
		st = newMemoryStack(cfg)
	}
	if err != nil {
		zapLogger.Fatal("storage initialisation failed", zap.Error(err))
	}

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	hasher := password.NewHasher(cfg.Auth.BcryptCost)

	authUseCase := authUC.New(st.users, st.sessions, tokens, hasher, zapLogger)
	if cfg.OAuth.Enabled() {
		authUseCase.SetFederation(oauth.NewGoogle(oauth.GoogleConfig{
			ClientID:     cfg.OAuth.GoogleClientID,
			ClientSecret: cfg.OAuth.GoogleClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
		}), st.states)
		zapLogger.Info("google sign-in enabled")
	}
	profileUseCase := profileUC.New(st.users, st.sessions, hasher, zapLogger)
	taskUseCase := taskUC.New(st.tasks, st.buffer, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.OAuth.ClientURL),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(st.monitor, cfg.Storage.Driver, ctxAdapter, zapLogger),
	}

	var observer middleware.RequestObserver
	if cfg.HTTP.MetricsEnabled {
		collector := metrics.New("taskflow")
		if st.bufferSize != nil {
			collector.Gauge("taskflow", "buffer_pending_writes", "Task writes waiting for replay.", func() float64 {
				return float64(st.bufferSize())
			})
		}
		handlers.Metrics = collector.Handler()
		observer = collector
	}

	authMiddleware := middleware.JWTAuth(authUseCase, ctxAdapter, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      middleware.CORS(cfg.HTTP.AllowedOrigins)(middleware.Metrics(observer)(r.Handler)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
