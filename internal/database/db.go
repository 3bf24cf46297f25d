package database

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/lib/pq"
)

// Open はPostgreSQLデータベース接続を開く。
// ストアへの接続は暗号化トランスポートを必須とするため、
// URLにsslmodeが指定されていない場合はsslmode=requireを補う。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
func Open(databaseURL string) (*sql.DB, error) {
	secured, err := EnsureSSLMode(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", secured)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// EnsureSSLMode は接続URLにsslmode未指定の場合にsslmode=requireを付与する。
// 明示的に指定されたsslmode（テスト環境のdisable等）は尊重する。
func EnsureSSLMode(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid database URL: %w", err)
	}

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
