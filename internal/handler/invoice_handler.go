package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/billman/internal/invoice"
	"github.com/hitoshi/billman/internal/middleware"
	"github.com/hitoshi/billman/internal/model"
)

// InvoicePipeline は請求書ハンドラーが必要とするミューテーションパイプライン。
type InvoicePipeline interface {
	Create(ctx context.Context, in invoice.FormInput) *invoice.Result
	Update(ctx context.Context, in invoice.FormInput) *invoice.Result
}

// InvoiceLister は請求書一覧の取得インターフェース。
// repository.InvoiceRepositoryの部分集合として定義する。
type InvoiceLister interface {
	ListWithCustomer(ctx context.Context) ([]model.InvoiceWithCustomer, error)
}

// CustomerLister は顧客一覧の取得インターフェース。
type CustomerLister interface {
	List(ctx context.Context) ([]*model.Customer, error)
}

// ViewTagger は一覧ビューの世代由来ETagを提供するインターフェース。
type ViewTagger interface {
	ETag(path string) string
}

// InvoiceHandler は請求書管理のHTTPハンドラー。
type InvoiceHandler struct {
	pipeline  InvoicePipeline
	invoices  InvoiceLister
	customers CustomerLister
	views     ViewTagger
}

// NewInvoiceHandler はInvoiceHandlerを生成する。
func NewInvoiceHandler(pipeline InvoicePipeline, invoices InvoiceLister, customers CustomerLister, views ViewTagger) *InvoiceHandler {
	return &InvoiceHandler{
		pipeline:  pipeline,
		invoices:  invoices,
		customers: customers,
		views:     views,
	}
}

// invoiceResponse は請求書一覧のAPIレスポンス。
type invoiceResponse struct {
	ID            string `json:"id"`
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	AmountCents   int64  `json:"amount"`
	Status        string `json:"status"`
	Date          string `json:"date"`
}

// customerResponse は顧客一覧のAPIレスポンス。
type customerResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateInvoice は請求書作成フォームの提出を処理する。
// POST /dashboard/invoices
//
// 検証失敗は422でフィールドエラー付きState、永続化失敗は500で
// フィールド非特定のStateを返す。成功時は303で一覧へ遷移し、本文を返さない。
func (h *InvoiceHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.WriteMessage(w, http.StatusBadRequest, "invalid form submission")
		return
	}

	result := h.pipeline.Create(r.Context(), invoice.FormInput{
		CustomerID: r.PostFormValue("customerId"),
		Amount:     r.PostFormValue("amount"),
		Status:     r.PostFormValue("status"),
	})

	h.writeResult(w, r, result)
}

// UpdateInvoice は請求書編集フォームの提出を処理する。
// POST /dashboard/invoices/{id}
func (h *InvoiceHandler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.WriteMessage(w, http.StatusBadRequest, "invalid form submission")
		return
	}

	result := h.pipeline.Update(r.Context(), invoice.FormInput{
		ID:         chi.URLParam(r, "id"),
		CustomerID: r.PostFormValue("customerId"),
		Amount:     r.PostFormValue("amount"),
		Status:     r.PostFormValue("status"),
	})

	h.writeResult(w, r, result)
}

// writeResult はパイプラインの終端をHTTPレスポンスに写す。
// 成功終端はリダイレクトそのものであり、State本文を持たない。
func (h *InvoiceHandler) writeResult(w http.ResponseWriter, r *http.Request, result *invoice.Result) {
	if result.Failed != nil {
		middleware.WriteState(w, result.Failed)
		return
	}
	http.Redirect(w, r, result.Redirect, http.StatusSeeOther)
}

// ListInvoices は請求書一覧を返す。
// GET /dashboard/invoices, GET /api/invoices
//
// ETagは一覧ビューの世代から導出する。ミューテーションのコミットで世代が進み、
// キャッシュ済みの表示は次のアクセスで再計算される。
func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	etag := h.views.ETag(invoice.ListPath)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	invoices, err := h.invoices.ListWithCustomer(r.Context())
	if err != nil {
		slog.Error("failed to list invoices", slog.String("error", err.Error()))
		middleware.WriteMessage(w, http.StatusInternalServerError, "Database Error: Failed to Fetch Invoices.")
		return
	}

	resp := make([]invoiceResponse, 0, len(invoices))
	for _, iv := range invoices {
		resp = append(resp, invoiceResponse{
			ID:            iv.ID,
			CustomerID:    iv.CustomerID,
			CustomerName:  iv.CustomerName,
			CustomerEmail: iv.CustomerEmail,
			AmountCents:   iv.AmountCents,
			Status:        string(iv.Status),
			Date:          iv.Date,
		})
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListCustomers は請求書フォームのcustomer select用の顧客一覧を返す。
// GET /api/customers
func (h *InvoiceHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		slog.Error("failed to list customers", slog.String("error", err.Error()))
		middleware.WriteMessage(w, http.StatusInternalServerError, "Database Error: Failed to Fetch Customers.")
		return
	}

	resp := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, customerResponse{ID: c.ID, Name: c.Name})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
