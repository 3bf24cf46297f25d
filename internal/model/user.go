// Package model はドメインモデルを定義する。
package model

import "time"

// User は認証済みユーザーの公開属性を表す。
// パスワードは認証成功後のどの経路にも含めない。
type User struct {
	ID    string
	Name  string
	Email string
}

// Session はユーザーのログインセッションを表す。
// 有効なUserに紐付かないSessionは未ログインと等価として扱う。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
