// internal/bank/history.go
//
// 交易列表查詢與帳務一致性檢查。交易切片依建立順序追加，但不保證依日期排序，
// 顯示前一律重新排序。

package bank

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DashboardLimit 為儀表板顯示的最近交易筆數。
const DashboardLimit = 5

// LabeledTransaction 為附上所屬帳戶名稱的交易，用於合併列表。
type LabeledTransaction struct {
	Transaction
	Account string `json:"account"`
}

// History 回傳單一帳戶依日期由新到舊排序的完整交易紀錄。
func History(state *AppState, key AccountKey) ([]Transaction, error) {
	a, ok := state.Account(key)
	if !ok {
		return nil, fmt.Errorf("account %q: %w", key, ErrMissingSelection)
	}
	out := make([]Transaction, len(a.Transactions))
	copy(out, a.Transactions)
	sortByDateDesc(out, func(t Transaction) time.Time { return t.Date })
	return out, nil
}

// RecentTransactions 合併兩個帳戶的交易，依日期由新到舊排序後取前 n 筆；n <= 0 表示全部。
func RecentTransactions(state *AppState, n int) []LabeledTransaction {
	var all []LabeledTransaction
	for _, key := range AccountKeys {
		a, _ := state.Account(key)
		for _, t := range a.Transactions {
			all = append(all, LabeledTransaction{Transaction: t, Account: key.DisplayName()})
		}
	}
	sortByDateDesc(all, func(t LabeledTransaction) time.Time { return t.Date })
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// sortByDateDesc 以日期遞減排序；同一時間者，較晚追加的排在前面。
func sortByDateDesc[T any](s []T, date func(T) time.Time) {
	slices.Reverse(s)
	sort.SliceStable(s, func(i, j int) bool { return date(s[i]).After(date(s[j])) })
}

// Verify 檢查每個帳戶：餘額 = 入帳總和 − 扣款總和，且每筆交易的 Balance 等於當下的累計餘額。
func Verify(state *AppState) error {
	for _, key := range AccountKeys {
		a, _ := state.Account(key)
		running := decimal.Zero
		for i, t := range a.Transactions {
			switch t.Type {
			case Credit:
				running = running.Add(t.Amount)
			case Debit:
				running = running.Sub(t.Amount)
			default:
				return fmt.Errorf("%s transaction %d: unknown type %q", key, i, t.Type)
			}
			if !t.Balance.Equal(running) {
				return fmt.Errorf("%s transaction %d: balance %s, running total %s", key, i, t.Balance, running)
			}
		}
		if !a.Balance.Equal(running) {
			return fmt.Errorf("%s: balance %s, ledger total %s", key, a.Balance, running)
		}
	}
	return nil
}
