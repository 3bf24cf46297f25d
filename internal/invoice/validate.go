package invoice

import (
	"math"
	"strconv"
	"strings"

	"github.com/hitoshi/billman/internal/model"
)

// 検証失敗時のフィールドエラーメッセージ
const (
	msgMissingID      = "Missing invoice id."
	msgSelectCustomer = "Please select a customer."
	msgAmountPositive = "Please enter an amount greater than $0."
	msgSelectStatus   = "Please select an invoice status."
)

// FormInput は型なしのキー値提出から抽出した生のフィールド値。
// Amountはテキストのまま受け取り、検証段階で数値に強制変換する。
type FormInput struct {
	ID         string
	CustomerID string
	Amount     string
	Status     string
}

// draft は検証を通過した型付きの請求書レコード。
type draft struct {
	id          string
	customerID  string
	amountCents int64
	status      model.InvoiceStatus
}

// validate は生入力に型付き制約を適用する。
// 制約はスキーマ宣言順（id, customerId, amount, status）に評価し、
// フィールドエラーの順序を決定的に保つ。
// 1つでも制約を満たさない場合は(nil, fieldErrors)を返し、部分的な永続化は行わない。
func validate(in FormInput, requireID bool) (*draft, map[string][]string) {
	fieldErrors := map[string][]string{}

	if requireID && strings.TrimSpace(in.ID) == "" {
		fieldErrors["id"] = append(fieldErrors["id"], msgMissingID)
	}

	if strings.TrimSpace(in.CustomerID) == "" {
		fieldErrors["customerId"] = append(fieldErrors["customerId"], msgSelectCustomer)
	}

	// テキストからの強制変換。数値でないテキストは実行時クラッシュではなく検証失敗。
	amountCents, ok := parseAmountCents(in.Amount)
	if !ok {
		fieldErrors["amount"] = append(fieldErrors["amount"], msgAmountPositive)
	}

	status := model.InvoiceStatus(in.Status)
	if !status.IsValid() {
		fieldErrors["status"] = append(fieldErrors["status"], msgSelectStatus)
	}

	if len(fieldErrors) > 0 {
		return nil, fieldErrors
	}

	return &draft{
		id:          strings.TrimSpace(in.ID),
		customerID:  strings.TrimSpace(in.CustomerID),
		amountCents: amountCents,
		status:      status,
	}, nil
}

// parseAmountCents は金額テキストを最小通貨単位（セント）の整数に変換する。
// 正の数値のみを受理する。端数セントは四捨五入（round half away from zero）する。
func parseAmountCents(text string) (int64, bool) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, false
	}
	if amount <= 0 {
		return 0, false
	}
	return int64(math.Round(amount * 100)), true
}
