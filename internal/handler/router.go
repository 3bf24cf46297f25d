package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/billman/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	UserResolver      middleware.UserResolver
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	RecordStatus      middleware.StatusRecorderFunc

	// 認証
	AuthService AuthServiceInterface
	AuthMetrics LoginRecorder
	AuthConfig  AuthHandlerConfig

	// 請求書
	Pipeline  InvoicePipeline
	Invoices  InvoiceLister
	Customers CustomerLister
	Views     ViewTagger

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// 共通ミドルウェアの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging
//
// ページルート（/dashboard/*）にはページガード（未認証を/loginへ303）とCSRF、
// APIルート（/api/*）にはAPIセッション（未認証に401）とレート制限を適用する。
// 両者の認可判定は同一のauth.Authorize述語を共有する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.RecordStatus))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthMetrics, deps.AuthConfig)
	invoiceHandler := NewInvoiceHandler(deps.Pipeline, deps.Invoices, deps.Customers, deps.Views)

	// --- 認証不要のルート ---

	// ログイン試行はIPごとのレート制限下に置く
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)

	// ログインフォームが先に取得するCSRFトークン
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(r.Context()); err != nil {
				middleware.WriteMessage(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	// Prometheusスクレイプ
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- ページルート（レイアウトレベルのガード） ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewPageGuardMiddleware(deps.UserResolver))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Route("/dashboard/invoices", func(r chi.Router) {
			r.Get("/", invoiceHandler.ListInvoices)
			r.Post("/", invoiceHandler.CreateInvoice)
			r.Post("/{id}", invoiceHandler.UpdateInvoice)
		})
	})

	// --- APIルート（ルートレベルの認可フック） ---
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewAPISessionMiddleware(deps.UserResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/me", authHandler.Me)
		r.Get("/invoices", invoiceHandler.ListInvoices)
		r.Get("/customers", invoiceHandler.ListCustomers)
	})

	return r
}
