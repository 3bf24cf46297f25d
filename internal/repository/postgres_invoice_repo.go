package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/billman/internal/model"
)

// PostgresInvoiceRepo はPostgreSQLを使用した請求書リポジトリ。
type PostgresInvoiceRepo struct {
	db *sql.DB
}

// NewPostgresInvoiceRepo はPostgresInvoiceRepoを生成する。
func NewPostgresInvoiceRepo(db *sql.DB) *PostgresInvoiceRepo {
	return &PostgresInvoiceRepo{db: db}
}

// Create は新規請求書を作成する。
func (r *PostgresInvoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (id, customer_id, amount, status, date)
		 VALUES ($1, $2, $3, $4, $5)`,
		invoice.ID, invoice.CustomerID, invoice.AmountCents, string(invoice.Status), invoice.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}
	return nil
}

// Update は指定IDの請求書のcustomer_id、amount、statusを更新する。
// dateは更新対象に含めない。
func (r *PostgresInvoiceRepo) Update(ctx context.Context, invoice *model.Invoice) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoices
		 SET customer_id = $1, amount = $2, status = $3
		 WHERE id = $4`,
		invoice.CustomerID, invoice.AmountCents, string(invoice.Status), invoice.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("invoice not found: %s", invoice.ID)
	}
	return nil
}

// FindByID は指定IDの請求書を取得する。見つからない場合はnilを返す。
func (r *PostgresInvoiceRepo) FindByID(ctx context.Context, id string) (*model.Invoice, error) {
	invoice := &model.Invoice{}
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, amount, status, to_char(date, 'YYYY-MM-DD')
		 FROM invoices WHERE id = $1`,
		id,
	).Scan(&invoice.ID, &invoice.CustomerID, &invoice.AmountCents, &status, &invoice.Date)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice by ID: %w", err)
	}

	invoice.Status = model.InvoiceStatus(status)
	return invoice, nil
}

// ListWithCustomer は請求書一覧を顧客情報と結合して日付降順で返す。
func (r *PostgresInvoiceRepo) ListWithCustomer(ctx context.Context) ([]model.InvoiceWithCustomer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.customer_id, i.amount, i.status, to_char(i.date, 'YYYY-MM-DD'),
		        c.name, c.email
		 FROM invoices i
		 JOIN customers c ON c.id = i.customer_id
		 ORDER BY i.date DESC, i.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []model.InvoiceWithCustomer
	for rows.Next() {
		var iv model.InvoiceWithCustomer
		var status string
		if err := rows.Scan(
			&iv.ID, &iv.CustomerID, &iv.AmountCents, &status, &iv.Date,
			&iv.CustomerName, &iv.CustomerEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}
		iv.Status = model.InvoiceStatus(status)
		invoices = append(invoices, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoice rows: %w", err)
	}

	return invoices, nil
}

// compile-time interface check
var _ InvoiceRepository = (*PostgresInvoiceRepo)(nil)
