package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/billman/internal/invoice"
)

// messageResponse はフィールド非特定エラーの統一フォーマット。
// 認証失敗等の意図的に非具体的なメッセージを運ぶ。
type messageResponse struct {
	Message string `json:"message"`
}

// WriteMessage は単一メッセージのJSONレスポンスを書き込む。
// 生のデータベースエラーや認証情報の詳細は決してクライアントに渡さない。
func WriteMessage(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(messageResponse{Message: message})
}

// WriteState はパイプラインの失敗終端Stateを書き込む。
// ValidationFailedは422、PersistErrorは500で返す。
func WriteState(w http.ResponseWriter, state *invoice.State) {
	statusCode := http.StatusInternalServerError
	if state.HasFieldErrors() {
		statusCode = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(state)
}
