// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/billman/internal/auth"
	"github.com/hitoshi/billman/internal/model"
)

// SessionCookieName はセッションIDを保持するHTTP Only Cookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// UserResolver はセッションIDから現在のユーザーを解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type UserResolver interface {
	CurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// resolveUser はCookieからセッションを解決しユーザーを返す。
// Cookieなし・無効セッション・検索エラーはいずれも「未ログイン」として扱う。
// 検索エラーはログにのみ記録する。
func resolveUser(r *http.Request, resolver UserResolver) *model.User {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	user, err := resolver.CurrentUser(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to resolve session",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return user
}

// NewPageGuardMiddleware はレイアウトレベルのガードミドルウェアを返す。
// 保護パス配下で未認証の場合、保護コンテンツを描画する前にサインイン
// ロケーションへ303でリダイレクトする。判定はauth.Authorizeに委譲し、
// APIセッションミドルウェアと同一ルールを共有する。
func NewPageGuardMiddleware(resolver UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := resolveUser(r, resolver)

			decision := auth.Authorize(user, r.URL.Path)
			if !decision.Allowed {
				http.Redirect(w, r, decision.RedirectTo, http.StatusSeeOther)
				return
			}

			if user != nil {
				r = r.WithContext(ContextWithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewAPISessionMiddleware はルートレベルの認可フックを返す。
// ハンドラー実行前に同一のauth.Authorize述語を評価し、
// 未認証のAPIリクエストには401 Unauthorizedを返す。
func NewAPISessionMiddleware(resolver UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := resolveUser(r, resolver)

			// APIルートは常に保護対象として判定する
			decision := auth.Authorize(user, auth.ProtectedPrefix)
			if !decision.Allowed {
				WriteMessage(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
