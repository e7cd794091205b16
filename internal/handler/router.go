package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/ticklist/internal/metrics"
	"github.com/hitoshi/ticklist/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	MetricsGatherer   prometheus.Gatherer // nilの場合/metricsを公開しない
	CORSAllowedOrigin string
	HSTS              bool
	RateLimiter       *middleware.RateLimiter

	// 認証
	Authenticator    middleware.Authenticator
	CredentialSource middleware.CredentialSource
	AuthService      AuthServiceInterface
	AuthConfig       AuthHandlerConfig
	FallbackHeader   string

	// ドメイン
	FolderService FolderServiceInterface
	ListService   ListServiceInterface
	TaskService   TaskServiceInterface
	UserService   UserServiceInterface

	HealthChecker HealthChecker
	StaticDir     string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Recovery → Logging → SecurityHeaders → CORS → Auth → RateLimit(General)
//
// 登録・ログイン・ログアウト・ヘルスチェックは認証の外に配置する。
// 登録・ログインにはIP単位のレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin, deps.FallbackHeader))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	folderHandler := NewFolderHandler(deps.FolderService)
	listHandler := NewListHandler(deps.ListService)
	taskHandler := NewTaskHandler(deps.TaskService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	r.Get("/api/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthMiddleware())
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})
		r.Post("/logout", authHandler.Logout)

		r.With(middleware.NewAuthMiddleware(deps.Authenticator, deps.CredentialSource)).
			Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Authenticator, deps.CredentialSource))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/folders", func(r chi.Router) {
			r.Get("/", folderHandler.ListFolders)
			r.Post("/", folderHandler.CreateFolder)
			r.Post("/reorder", folderHandler.ReorderFolders)
			r.Patch("/{id}", folderHandler.UpdateFolder)
			r.Delete("/{id}", folderHandler.DeleteFolder)
		})

		r.Route("/api/lists", func(r chi.Router) {
			r.Get("/", listHandler.ListLists)
			r.Post("/", listHandler.CreateList)
			r.Post("/reorder", listHandler.ReorderLists)
			r.Patch("/{id}", listHandler.UpdateList)
			r.Delete("/{id}", listHandler.DeleteList)
		})

		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)
			r.Post("/reorder", taskHandler.ReorderTasks)
			r.Get("/{id}", taskHandler.GetTask)
			r.Patch("/{id}", taskHandler.UpdateTask)
			r.Delete("/{id}", taskHandler.DeleteTask)
		})

		r.Get("/api/export", userHandler.Export)
	})

	if static := NewStaticHandler(deps.StaticDir); static != nil {
		r.NotFound(static.ServeHTTP)
	}

	return r
}
