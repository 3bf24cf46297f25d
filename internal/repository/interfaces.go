// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/billman/internal/model"
)

// InvoiceRepository は請求書データの永続化インターフェース。
// 書き込みはすべてパラメータバインディングを通す。SQL文字列連結は禁止。
type InvoiceRepository interface {
	// Create は新規請求書を作成する。
	Create(ctx context.Context, invoice *model.Invoice) error

	// Update は指定IDの請求書のcustomer_id、amount、statusを更新する。
	// dateは作成時から不変のため更新しない。
	Update(ctx context.Context, invoice *model.Invoice) error

	// FindByID は指定IDの請求書を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Invoice, error)

	// ListWithCustomer は請求書一覧を顧客情報と結合して日付降順で返す。
	ListWithCustomer(ctx context.Context) ([]model.InvoiceWithCustomer, error)
}

// CustomerRepository は顧客データの永続化インターフェース。
type CustomerRepository interface {
	// List は顧客一覧を名前順で返す。
	List(ctx context.Context) ([]*model.Customer, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
