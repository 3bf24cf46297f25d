package invoice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/billman/internal/model"
)

// --- モック ---

type mockWriter struct {
	createFn func(ctx context.Context, inv *model.Invoice) error
	updateFn func(ctx context.Context, inv *model.Invoice) error

	createCalls int
	updateCalls int
	lastCreated *model.Invoice
	lastUpdated *model.Invoice
}

func (m *mockWriter) Create(ctx context.Context, inv *model.Invoice) error {
	m.createCalls++
	m.lastCreated = inv
	if m.createFn != nil {
		return m.createFn(ctx, inv)
	}
	return nil
}

func (m *mockWriter) Update(ctx context.Context, inv *model.Invoice) error {
	m.updateCalls++
	m.lastUpdated = inv
	if m.updateFn != nil {
		return m.updateFn(ctx, inv)
	}
	return nil
}

type mockRevalidator struct {
	invalidated []string
}

func (m *mockRevalidator) Invalidate(path string) {
	m.invalidated = append(m.invalidated, path)
}

type mockRecorder struct {
	recorded [][2]string
}

func (m *mockRecorder) RecordMutation(operation, outcome string) {
	m.recorded = append(m.recorded, [2]string{operation, outcome})
}

// newTestService は時刻とID生成を固定したServiceを生成する。
func newTestService(writer *mockWriter, cache *mockRevalidator) *Service {
	s := NewService(writer, cache, nil)
	s.now = func() time.Time {
		return time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	}
	s.newID = func() string { return "invoice-id-1" }
	return s
}

func validCreateInput() FormInput {
	return FormInput{
		CustomerID: "customer-1",
		Amount:     "49.99",
		Status:     "pending",
	}
}

// --- Create: 検証 ---

// 顧客未選択の作成が検証失敗で終端し、書き込みが発生しないことを検証
func TestService_Create_MissingCustomerID(t *testing.T) {
	writer := &mockWriter{}
	cache := &mockRevalidator{}
	s := newTestService(writer, cache)

	in := validCreateInput()
	in.CustomerID = ""
	result := s.Create(context.Background(), in)

	if result.Failed == nil {
		t.Fatal("expected Failed state")
	}
	if result.Failed.Message != "Missing Fields. Failed to Create Invoice." {
		t.Errorf("message = %q", result.Failed.Message)
	}
	got := result.Failed.Errors["customerId"]
	if len(got) != 1 || got[0] != "Please select a customer." {
		t.Errorf("customerId errors = %v", got)
	}
	if writer.createCalls != 0 {
		t.Errorf("expected no writes, got %d", writer.createCalls)
	}
	if len(cache.invalidated) != 0 {
		t.Error("validation failure must not invalidate views")
	}
	if result.Redirect != "" {
		t.Error("validation failure must not redirect")
	}
}

// 0以下および数値でない金額がすべて検証失敗になり、書き込みが発生しないことを検証
func TestService_Create_RejectsNonPositiveAmounts(t *testing.T) {
	amounts := []string{"0", "-5", "-0.01", "abc", "", "NaN", "Inf"}

	for _, amount := range amounts {
		writer := &mockWriter{}
		s := newTestService(writer, &mockRevalidator{})

		in := validCreateInput()
		in.Amount = amount
		result := s.Create(context.Background(), in)

		if result.Failed == nil {
			t.Fatalf("amount %q: expected Failed state", amount)
		}
		got := result.Failed.Errors["amount"]
		if len(got) != 1 || got[0] != "Please enter an amount greater than $0." {
			t.Errorf("amount %q: errors = %v", amount, got)
		}
		if writer.createCalls != 0 {
			t.Errorf("amount %q: expected no writes", amount)
		}
	}
}

// pending/paid以外のステータスが検証失敗になることを検証
func TestService_Create_RejectsUnknownStatus(t *testing.T) {
	statuses := []string{"overdue", "PAID", "", "draft"}

	for _, status := range statuses {
		writer := &mockWriter{}
		s := newTestService(writer, &mockRevalidator{})

		in := validCreateInput()
		in.Status = status
		result := s.Create(context.Background(), in)

		if result.Failed == nil {
			t.Fatalf("status %q: expected Failed state", status)
		}
		got := result.Failed.Errors["status"]
		if len(got) != 1 || got[0] != "Please select an invoice status." {
			t.Errorf("status %q: errors = %v", status, got)
		}
		if writer.createCalls != 0 {
			t.Errorf("status %q: expected no writes", status)
		}
	}
}

// 全フィールド不正の場合に3つのフィールドエラーが揃うことを検証
func TestService_Create_CollectsAllFieldErrors(t *testing.T) {
	s := newTestService(&mockWriter{}, &mockRevalidator{})

	result := s.Create(context.Background(), FormInput{})

	if result.Failed == nil {
		t.Fatal("expected Failed state")
	}
	for _, field := range []string{"customerId", "amount", "status"} {
		if len(result.Failed.Errors[field]) == 0 {
			t.Errorf("expected field error for %q", field)
		}
	}
}

// --- Create: 永続化 ---

// 検証済み金額がセント単位の整数に変換されて保存されることを検証
func TestService_Create_ConvertsAmountToCents(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"49.99", 4999},
		{"10", 1000},
		{"0.01", 1},
		{"49.995", 5000}, // 端数セントは四捨五入
		{"1234.5", 123450},
	}

	for _, tc := range cases {
		writer := &mockWriter{}
		s := newTestService(writer, &mockRevalidator{})

		in := validCreateInput()
		in.Amount = tc.amount
		result := s.Create(context.Background(), in)

		if result.Failed != nil {
			t.Fatalf("amount %q: unexpected failure: %+v", tc.amount, result.Failed)
		}
		if writer.lastCreated.AmountCents != tc.want {
			t.Errorf("amount %q: cents = %d, want %d", tc.amount, writer.lastCreated.AmountCents, tc.want)
		}
	}
}

// 新規レコードの日付が常に挿入時点のサーバー日付（YYYY-MM-DD）になることを検証
func TestService_Create_StoresTodayDate(t *testing.T) {
	writer := &mockWriter{}
	s := newTestService(writer, &mockRevalidator{})

	result := s.Create(context.Background(), validCreateInput())

	if result.Failed != nil {
		t.Fatalf("unexpected failure: %+v", result.Failed)
	}
	if writer.lastCreated.Date != "2024-06-15" {
		t.Errorf("date = %q, want 2024-06-15", writer.lastCreated.Date)
	}
	if writer.lastCreated.ID != "invoice-id-1" {
		t.Errorf("id = %q, want generated id", writer.lastCreated.ID)
	}
}

// 永続化失敗がフィールド非特定のStateで終端し、リダイレクトも無効化も行わないことを検証
func TestService_Create_PersistError(t *testing.T) {
	writer := &mockWriter{
		createFn: func(ctx context.Context, inv *model.Invoice) error {
			return errors.New("connection refused")
		},
	}
	cache := &mockRevalidator{}
	s := newTestService(writer, cache)

	result := s.Create(context.Background(), validCreateInput())

	if result.Failed == nil {
		t.Fatal("expected Failed state")
	}
	if result.Failed.Message != "Database Error: Failed to Create Invoice." {
		t.Errorf("message = %q", result.Failed.Message)
	}
	if result.Failed.Errors == nil || len(result.Failed.Errors) != 0 {
		t.Errorf("persist error must carry an empty (non-nil) errors map, got %v", result.Failed.Errors)
	}
	if result.Redirect != "" {
		t.Error("persist error must not redirect")
	}
	if len(cache.invalidated) != 0 {
		t.Error("persist error must not invalidate views")
	}
}

// コミットが一覧ビューを無効化し、一覧へのリダイレクトで終端することを検証
func TestService_Create_CommittedInvalidatesAndRedirects(t *testing.T) {
	writer := &mockWriter{}
	cache := &mockRevalidator{}
	s := newTestService(writer, cache)

	result := s.Create(context.Background(), validCreateInput())

	if result.Failed != nil {
		t.Fatalf("unexpected failure: %+v", result.Failed)
	}
	if result.Redirect != "/dashboard/invoices" {
		t.Errorf("redirect = %q", result.Redirect)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != ListPath {
		t.Errorf("invalidated = %v, want [%s]", cache.invalidated, ListPath)
	}
}

// --- Update ---

// idのない更新が検証失敗になり、書き込みが発生しないことを検証
func TestService_Update_RequiresID(t *testing.T) {
	writer := &mockWriter{}
	s := newTestService(writer, &mockRevalidator{})

	result := s.Update(context.Background(), validCreateInput())

	if result.Failed == nil {
		t.Fatal("expected Failed state")
	}
	if result.Failed.Message != "Missing fields. Failed to Update Invoice." {
		t.Errorf("message = %q", result.Failed.Message)
	}
	if len(result.Failed.Errors["id"]) == 0 {
		t.Error("expected field error for id")
	}
	if writer.updateCalls != 0 {
		t.Error("expected no writes")
	}
}

// 更新が既存行の日付を決して変更しないことを検証
func TestService_Update_NeverTouchesDate(t *testing.T) {
	writer := &mockWriter{}
	s := newTestService(writer, &mockRevalidator{})

	in := validCreateInput()
	in.ID = "existing-invoice"
	result := s.Update(context.Background(), in)

	if result.Failed != nil {
		t.Fatalf("unexpected failure: %+v", result.Failed)
	}
	if writer.updateCalls != 1 {
		t.Fatalf("updateCalls = %d, want 1", writer.updateCalls)
	}
	if writer.lastUpdated.Date != "" {
		t.Errorf("update must not carry a date, got %q", writer.lastUpdated.Date)
	}
	if writer.lastUpdated.ID != "existing-invoice" {
		t.Errorf("id = %q", writer.lastUpdated.ID)
	}
}

// 更新の永続化失敗メッセージがUpdate用の文言になることを検証
func TestService_Update_PersistError(t *testing.T) {
	writer := &mockWriter{
		updateFn: func(ctx context.Context, inv *model.Invoice) error {
			return errors.New("deadlock detected")
		},
	}
	s := newTestService(writer, &mockRevalidator{})

	in := validCreateInput()
	in.ID = "existing-invoice"
	result := s.Update(context.Background(), in)

	if result.Failed == nil {
		t.Fatal("expected Failed state")
	}
	if result.Failed.Message != "Database Error: Failed to Update Invoice." {
		t.Errorf("message = %q", result.Failed.Message)
	}
	if len(result.Failed.Errors) != 0 {
		t.Errorf("errors = %v, want empty", result.Failed.Errors)
	}
}

// 更新のコミットも一覧ビューを無効化してリダイレクトすることを検証
func TestService_Update_CommittedInvalidatesAndRedirects(t *testing.T) {
	writer := &mockWriter{}
	cache := &mockRevalidator{}
	s := newTestService(writer, cache)

	in := validCreateInput()
	in.ID = "existing-invoice"
	result := s.Update(context.Background(), in)

	if result.Failed != nil {
		t.Fatalf("unexpected failure: %+v", result.Failed)
	}
	if result.Redirect != ListPath {
		t.Errorf("redirect = %q", result.Redirect)
	}
	if len(cache.invalidated) != 1 {
		t.Errorf("invalidated = %v", cache.invalidated)
	}
}

// --- メトリクス ---

// パイプラインの各終端がoperation/outcomeラベルで記録されることを検証
func TestService_RecordsMutationOutcomes(t *testing.T) {
	recorder := &mockRecorder{}
	writer := &mockWriter{
		updateFn: func(ctx context.Context, inv *model.Invoice) error {
			return errors.New("boom")
		},
	}
	s := NewService(writer, &mockRevalidator{}, recorder)

	s.Create(context.Background(), validCreateInput())          // committed
	s.Create(context.Background(), FormInput{})                 // validation_failed
	in := validCreateInput()
	in.ID = "existing-invoice"
	s.Update(context.Background(), in)                          // persist_error

	want := [][2]string{
		{"create", "committed"},
		{"create", "validation_failed"},
		{"update", "persist_error"},
	}
	if len(recorder.recorded) != len(want) {
		t.Fatalf("recorded = %v", recorder.recorded)
	}
	for i, w := range want {
		if recorder.recorded[i] != w {
			t.Errorf("recorded[%d] = %v, want %v", i, recorder.recorded[i], w)
		}
	}
}
