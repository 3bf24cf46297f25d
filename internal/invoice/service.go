package invoice

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/billman/internal/model"
)

// ListPath は請求書一覧のロケーション。成功終端のリダイレクト先であり、
// コミット後に無効化されるキャッシュビューのキーでもある。
const ListPath = "/dashboard/invoices"

// 操作全体メッセージ。大文字小文字の差異は元仕様の通り。
const (
	msgCreateMissingFields = "Missing Fields. Failed to Create Invoice."
	msgUpdateMissingFields = "Missing fields. Failed to Update Invoice."
	msgCreateDBError       = "Database Error: Failed to Create Invoice."
	msgUpdateDBError       = "Database Error: Failed to Update Invoice."
)

// InvoiceWriter はパイプラインが必要とする永続化インターフェース。
// repository.InvoiceRepositoryの部分集合として定義する。
type InvoiceWriter interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	Update(ctx context.Context, invoice *model.Invoice) error
}

// Revalidator はコミット後にキャッシュ済みビューの無効化を通知するインターフェース。
type Revalidator interface {
	Invalidate(path string)
}

// MetricsRecorder はミューテーション結果のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordMutation(operation, outcome string)
}

// メトリクスのラベル値
const (
	opCreate = "create"
	opUpdate = "update"

	outcomeCommitted        = "committed"
	outcomeValidationFailed = "validation_failed"
	outcomePersistError     = "persist_error"
)

// Service は検証付きミューテーションパイプラインを提供する。
// 呼び出し間で共有する可変状態は持たない。各実行は独立している。
type Service struct {
	invoices InvoiceWriter
	cache    Revalidator
	metrics  MetricsRecorder

	// テストで差し替えるためのフック
	now   func() time.Time
	newID func() string
}

// NewService はServiceを生成する。metricsはnilを許容する。
func NewService(invoices InvoiceWriter, cache Revalidator, metrics MetricsRecorder) *Service {
	return &Service{
		invoices: invoices,
		cache:    cache,
		metrics:  metrics,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Create は新規請求書の作成パイプラインを実行する。
//
// 検証失敗時はフィールドエラー付きのStateで終端し、書き込みは一切行わない。
// 永続化失敗時は詳細をログに記録し、フィールド非特定のStateで終端する（自動リトライなし）。
// コミット時は一覧ビューを無効化し、一覧ロケーションへのリダイレクトで終端する。
func (s *Service) Create(ctx context.Context, in FormInput) *Result {
	d, fieldErrors := validate(in, false)
	if fieldErrors != nil {
		s.record(opCreate, outcomeValidationFailed)
		return &Result{Failed: &State{
			Message: msgCreateMissingFields,
			Errors:  fieldErrors,
		}}
	}

	inv := &model.Invoice{
		ID:          s.newID(),
		CustomerID:  d.customerID,
		AmountCents: d.amountCents,
		Status:      d.status,
		// 新規レコードの日付は挿入時点のサーバー日付で固定する
		Date: s.now().Format("2006-01-02"),
	}

	if err := s.invoices.Create(ctx, inv); err != nil {
		slog.Error("failed to create invoice",
			slog.String("invoice_id", inv.ID),
			slog.String("error", err.Error()),
		)
		s.record(opCreate, outcomePersistError)
		return &Result{Failed: &State{
			Message: msgCreateDBError,
			Errors:  map[string][]string{},
		}}
	}

	s.cache.Invalidate(ListPath)
	s.record(opCreate, outcomeCommitted)
	return &Result{Redirect: ListPath}
}

// Update は既存請求書の更新パイプラインを実行する。
// dateフィールドは検証対象から除外され、作成時の日付は変更されない。
func (s *Service) Update(ctx context.Context, in FormInput) *Result {
	d, fieldErrors := validate(in, true)
	if fieldErrors != nil {
		s.record(opUpdate, outcomeValidationFailed)
		return &Result{Failed: &State{
			Message: msgUpdateMissingFields,
			Errors:  fieldErrors,
		}}
	}

	inv := &model.Invoice{
		ID:          d.id,
		CustomerID:  d.customerID,
		AmountCents: d.amountCents,
		Status:      d.status,
	}

	if err := s.invoices.Update(ctx, inv); err != nil {
		slog.Error("failed to update invoice",
			slog.String("invoice_id", inv.ID),
			slog.String("error", err.Error()),
		)
		s.record(opUpdate, outcomePersistError)
		return &Result{Failed: &State{
			Message: msgUpdateDBError,
			Errors:  map[string][]string{},
		}}
	}

	s.cache.Invalidate(ListPath)
	s.record(opUpdate, outcomeCommitted)
	return &Result{Redirect: ListPath}
}

func (s *Service) record(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordMutation(operation, outcome)
	}
}
