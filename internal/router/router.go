package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskflow/api/handler"
	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
	// Metrics serves /metrics when set.
	Metrics fasthttp.RequestHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()
	r.SaveMatchedRoutePath = true
	r.NotFound = jsonError(fasthttp.StatusNotFound, domain.ErrCodeNotFound, "route not found")
	r.MethodNotAllowed = jsonError(fasthttp.StatusMethodNotAllowed, domain.ErrCodeInvalid, "method not allowed")

	r.GET("/health", handlers.Health.Check)
	if handlers.Metrics != nil {
		r.GET("/metrics", handlers.Metrics)
	}

	// Account routes
	r.POST("/users/register", handlers.Auth.Register)
	r.POST("/users/login", handlers.Auth.Login)
	r.POST("/users/logout", authMiddleware(handlers.Auth.Logout))
	r.POST("/users/logout-all", authMiddleware(handlers.Auth.LogoutAll))
	r.GET("/users/current", authMiddleware(handlers.Profile.Current))
	r.PUT("/users/change-password", authMiddleware(handlers.Profile.ChangePassword))
	r.DELETE("/users/delete-user", authMiddleware(handlers.Profile.DeleteUser))

	r.GET("/auth/google", handlers.Auth.GoogleStart)
	r.GET("/auth/google/callback", handlers.Auth.GoogleCallback)

	// Task routes
	r.GET("/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	r.GET("/tasks/stats", authMiddleware(handlers.Task.GetStats))
	r.GET("/tasks/overdue", authMiddleware(handlers.Task.GetOverdue))
	r.GET("/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.PUT("/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	return r
}

func jsonError(status int, code domain.ErrorCode, message string) fasthttp.RequestHandler {
	body := transport.Failure(string(code), message).Bytes()
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.SetContentType("application/json")
		ctx.SetStatusCode(status)
		ctx.SetBody(body)
	}
}
