// internal/bank/ledger.go

package bank

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DescriptionMode 決定呼叫端提供轉帳描述時，兩邊交易如何標示。
type DescriptionMode string

const (
	// DescriptionShared 兩邊交易都使用呼叫端原文。
	DescriptionShared DescriptionMode = "shared"
	// DescriptionLabeled 在預設標籤後接上原文，例如 "Transfer to Savings: rent"。
	DescriptionLabeled DescriptionMode = "labeled"
)

// ParseDescriptionMode 解析設定值；空字串視為 DescriptionShared。
func ParseDescriptionMode(s string) (DescriptionMode, error) {
	switch DescriptionMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DescriptionShared:
		return DescriptionShared, nil
	case DescriptionLabeled:
		return DescriptionLabeled, nil
	}
	return "", fmt.Errorf("unknown transfer description mode %q", s)
}

// TransferRequest 描述一次轉帳的輸入。
type TransferRequest struct {
	From        AccountKey      `json:"from"`
	To          AccountKey      `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// TransferResult 為轉帳成功後新增的兩筆交易。
type TransferResult struct {
	Debit  Transaction `json:"debit"`
	Credit Transaction `json:"credit"`
}

// Ledger 為純函式的轉帳引擎：不持有狀態，也不做 I/O。
type Ledger struct {
	ids  IDGenerator
	now  func() time.Time
	mode DescriptionMode
}

// NewLedger 建立 ledger；now 為 nil 時使用 time.Now。
func NewLedger(ids IDGenerator, now func() time.Time, mode DescriptionMode) *Ledger {
	if now == nil {
		now = time.Now
	}
	if mode == "" {
		mode = DescriptionShared
	}
	return &Ledger{ids: ids, now: now, mode: mode}
}

// Validate 依序檢查轉帳前置條件，第一個失敗者勝出。
// 金額先四捨五入到分再判斷；不足半分的金額視為 0。
func Validate(state *AppState, req TransferRequest) error {
	from, ok1 := state.Account(req.From)
	_, ok2 := state.Account(req.To)
	if !ok1 || !ok2 {
		return ErrMissingSelection
	}
	if req.From == req.To {
		return ErrSameAccount
	}
	amount := NormalizeAmount(req.Amount)
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if exceeds(amount, from.Balance) {
		return ErrInsufficientFunds
	}
	return nil
}

// Transfer 驗證後在 state 的深拷貝上同時完成扣款與入帳，回傳更新後的狀態。
// 任一前置條件失敗時回傳錯誤，state 不會被修改；成功時原 state 亦保持不變，
// 呼叫端負責將回傳的狀態交給 Store 保存。
func (l *Ledger) Transfer(state *AppState, req TransferRequest) (*AppState, *TransferResult, error) {
	req.Amount = NormalizeAmount(req.Amount)
	if err := Validate(state, req); err != nil {
		return nil, nil, err
	}

	next := state.Clone()
	from, _ := next.Account(req.From)
	to, _ := next.Account(req.To)

	debitDesc, creditDesc := l.describe(req)
	now := l.now().UTC()

	res := &TransferResult{}
	res.Debit = from.append(Transaction{
		ID:          TxID(l.ids.NewID()),
		Type:        Debit,
		Description: debitDesc,
		Amount:      req.Amount,
		Date:        now,
	})
	res.Credit = to.append(Transaction{
		ID:          TxID(l.ids.NewID()),
		Type:        Credit,
		Description: creditDesc,
		Amount:      req.Amount,
		Date:        now,
	})
	return next, res, nil
}

func (l *Ledger) describe(req TransferRequest) (debit, credit string) {
	debit = "Transfer to " + req.To.DisplayName()
	credit = "Transfer from " + req.From.DisplayName()

	custom := strings.TrimSpace(req.Description)
	if custom == "" {
		return debit, credit
	}
	if l.mode == DescriptionLabeled {
		return debit + ": " + custom, credit + ": " + custom
	}
	return custom, custom
}
