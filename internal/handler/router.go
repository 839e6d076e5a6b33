package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/blogman/internal/metrics"
	"github.com/hitoshi/blogman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler // nilの場合 /metrics は公開しない
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	MaxBodyBytes      int64

	// CSRF（無効の場合はトークン検証を行わない）
	CSRFEnabled bool
	CSRFConfig  middleware.CSRFConfig

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 記事・カテゴリ
	PostService     PostServiceInterface
	CategoryService CategoryServiceInterface

	// ヘルスチェック
	HealthChecks []HealthCheck
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → SecurityHeaders → Logging → Metrics → CORS → CSRF → MaxBytes
//
// 書き込み系の記事ルートはさらに Session → RateLimit(General) を通る。
// 登録・ログインはIP単位の RateLimit(Auth) を通る。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mc := deps.Metrics
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	maxBodyBytes := deps.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = middleware.DefaultMaxBodyBytes
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(chimw.RequestID)
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(mc))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.CSRFEnabled {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
	}
	r.Use(middleware.NewMaxBytesMiddleware(maxBodyBytes))

	r.NotFound(NotFound)

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	postHandler := NewPostHandler(deps.PostService)
	categoryHandler := NewCategoryHandler(deps.CategoryService)
	healthHandler := NewHealthHandler(deps.HealthChecks...)

	sessionMiddleware := middleware.NewSessionMiddleware(deps.SessionFinder)

	// --- 運用エンドポイント ---
	r.Get("/healthz", healthHandler.Healthz)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/", healthHandler.Welcome)

		if deps.CSRFEnabled {
			r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))
		}

		// 認証
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(deps.RateLimiter.AuthMiddleware())
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})
			r.Post("/logout", authHandler.Logout)
			r.With(sessionMiddleware).Post("/logout-all", authHandler.LogoutAll)
			r.With(sessionMiddleware).Get("/me", authHandler.Me)
		})

		// カテゴリ（公開）
		r.Get("/categories", categoryHandler.ListCategories)

		// 記事
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.ListPosts)
			r.Get("/{id}", postHandler.GetPost)

			// 書き込み系: Session → RateLimit(General)
			r.Group(func(r chi.Router) {
				r.Use(sessionMiddleware)
				r.Use(deps.RateLimiter.GeneralMiddleware())

				r.Post("/", postHandler.CreatePost)
				r.Put("/{id}", postHandler.UpdatePost)
				r.Delete("/{id}", postHandler.DeletePost)
			})
		})
	})

	return r
}
