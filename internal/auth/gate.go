package auth

import (
	"strings"

	"github.com/hitoshi/billman/internal/model"
)

const (
	// ProtectedPrefix は認証を必須とするパスの接頭辞。
	ProtectedPrefix = "/dashboard"
	// SignInPath は認証拒否時のリダイレクト先。
	SignInPath = "/login"
)

// Decision はセッションゲートの判定結果。
type Decision struct {
	Allowed    bool
	RedirectTo string // Allowed=falseの場合のリダイレクト先
}

// Authorize はリクエストパスと認証状態からアクセス可否を判定する。
// ルール: ProtectedPrefix配下かつ有効なIdentityなし → SignInPathへのDenyRedirect。
// それ以外はAllow。
//
// レイアウト側のガードとルーティング前の認可フックの両方がこの1つの述語を
// 呼ぶことで、判定ルールの乖離を防ぐ。
func Authorize(user *model.User, path string) Decision {
	isProtected := path == ProtectedPrefix || strings.HasPrefix(path, ProtectedPrefix+"/")
	if isProtected && user == nil {
		return Decision{Allowed: false, RedirectTo: SignInPath}
	}
	return Decision{Allowed: true}
}
