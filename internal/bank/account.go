// Package bank 定義核心領域模型與業務規則。
// 本檔定義 User、Account、Transaction 與 AppState 結構，不含任何 HTTP 或儲存細節。

package bank

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKey names one of the two ledgers held in AppState.
type AccountKey string

const (
	Checking AccountKey = "checking"
	Savings  AccountKey = "savings"
)

// AccountKeys 依固定順序列出所有帳戶鍵。
var AccountKeys = []AccountKey{Checking, Savings}

// DisplayName 回傳首字大寫的帳戶名稱，例如 "checking" → "Checking"。
func (k AccountKey) DisplayName() string {
	s := string(k)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// TxType is the direction of a transaction relative to its account.
type TxType string

const (
	Credit TxType = "credit"
	Debit  TxType = "debit"
)

// User represents the single embedded demo user.
type User struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// FullName 回傳「名 姓」格式的顯示名稱。
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// TxID 為交易 ID。讀取時同時接受 JSON 字串與數字（舊版 blob 以毫秒時間戳當 ID）。
type TxID string

func (id *TxID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TxID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = TxID(n.String())
	return nil
}

// Transaction represents one immutable ledger entry.
// Balance 為此筆交易寫入後的帳戶餘額快照。
type Transaction struct {
	ID          TxID            `json:"id"`
	Type        TxType          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Balance     decimal.Decimal `json:"balance"`
}

// Account represents a ledger with an append-only transaction list.
type Account struct {
	Balance       decimal.Decimal `json:"balance"`
	AccountNumber string          `json:"accountNumber"`
	Transactions  []Transaction   `json:"transactions"`
}

// Accounts 固定持有 checking 與 savings 兩個帳戶，JSON 形狀與原始 blob 相同。
type Accounts struct {
	Checking Account `json:"checking"`
	Savings  Account `json:"savings"`
}

// AppState 為整個應用程式的單一持久化根物件。
type AppState struct {
	User     User     `json:"user"`
	Accounts Accounts `json:"accounts"`
}

// Account 依鍵取得帳戶指標；未知的鍵回傳 false。
// 回傳的指標指向 s 內部，只在呼叫端持有的副本上修改。
func (s *AppState) Account(key AccountKey) (*Account, bool) {
	switch key {
	case Checking:
		return &s.Accounts.Checking, true
	case Savings:
		return &s.Accounts.Savings, true
	}
	return nil, false
}

// Clone 深拷貝整個狀態（含交易切片），讓 ledger 在副本上運算而不影響原狀態。
func (s *AppState) Clone() *AppState {
	cp := *s
	cp.Accounts.Checking = s.Accounts.Checking.clone()
	cp.Accounts.Savings = s.Accounts.Savings.clone()
	return &cp
}

func (a Account) clone() Account {
	cp := a
	if a.Transactions != nil {
		cp.Transactions = make([]Transaction, len(a.Transactions))
		copy(cp.Transactions, a.Transactions)
	}
	return cp
}

// append 追加一筆交易並同步更新餘額，回傳新增的交易。
func (a *Account) append(tx Transaction) Transaction {
	switch tx.Type {
	case Credit:
		a.Balance = a.Balance.Add(tx.Amount)
	case Debit:
		a.Balance = a.Balance.Sub(tx.Amount)
	}
	tx.Balance = a.Balance
	a.Transactions = append(a.Transactions, tx)
	return tx
}
