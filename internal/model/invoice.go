// Package model はドメインモデルを定義する。
package model

import "time"

// InvoiceStatus は請求書の状態を表す。pendingとpaidの2値のみを許可する。
type InvoiceStatus string

const (
	// StatusPending は未払いの請求書を示す。
	StatusPending InvoiceStatus = "pending"
	// StatusPaid は支払い済みの請求書を示す。
	StatusPaid InvoiceStatus = "paid"
)

// IsValid はステータスが許可された2値のいずれかであるかを返す。
func (s InvoiceStatus) IsValid() bool {
	return s == StatusPending || s == StatusPaid
}

// Customer は請求先の顧客を表す。
type Customer struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// Invoice は永続化された請求書を表す。
// AmountCentsは通貨の最小単位（セント）の整数。浮動小数点で金額を保存しない。
// Dateは作成時のサーバー日付（YYYY-MM-DD）で、更新操作では変更されない。
type Invoice struct {
	ID          string
	CustomerID  string
	AmountCents int64
	Status      InvoiceStatus
	Date        string
}

// InvoiceWithCustomer は請求書一覧表示用に顧客名を結合した構造体。
type InvoiceWithCustomer struct {
	Invoice
	CustomerName  string
	CustomerEmail string
}
