// Package invoice は請求書の検証付きミューテーションパイプラインを提供する。
//
// 1回の実行は次の状態機械をたどる:
//
//	Received → Validating → {ValidationFailed | Validated}
//	         → Persisting → {PersistError | Committed}
//	         → Invalidated → Redirected
//
// 成功終端はRedirectedのみで、Stateを返さない。
package invoice

// State は失敗終端（ValidationFailed / PersistError）の結果形状。
// Presentation Layerが失敗経路でのみ消費する。
type State struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// HasFieldErrors はフィールド単位のエラーを持つかを返す。
// PersistErrorはフィールド非特定のためErrorsが空になる。
func (s *State) HasFieldErrors() bool {
	return len(s.Errors) > 0
}

// Result は1回のパイプライン実行の終端を表す判別共用体。
// FailedとRedirectは排他で、どちらか一方のみが設定される。
type Result struct {
	Failed   *State
	Redirect string // 成功時の遷移先。設定時はFailedがnil
}
