// internal/bank/errors.go
//
// 本檔集中定義「領域錯誤（domain errors）」。
// 轉帳驗證錯誤的訊息會原封不動顯示給使用者，由上層 handler 轉換成 HTTP 狀態碼或頁面訊息。

package bank

import "errors"

var (
	// ErrMissingSelection 代表來源或目標帳戶未選擇或不存在。
	// 對應 HTTP 狀態碼 400 Bad Request。
	ErrMissingSelection = errors.New("Please select both accounts")

	// ErrSameAccount 代表轉帳來源與目標帳戶相同。
	// 對應 HTTP 狀態碼 400 Bad Request。
	ErrSameAccount = errors.New("Cannot transfer to the same account")

	// ErrNonPositiveAmount 代表金額 <= 0。
	// 對應 HTTP 狀態碼 400 Bad Request。
	ErrNonPositiveAmount = errors.New("Amount must be greater than 0")

	// ErrInsufficientFunds 代表來源帳戶餘額不足。
	// 對應 HTTP 狀態碼 409 Conflict。
	ErrInsufficientFunds = errors.New("Insufficient funds")

	// ErrNoState 代表儲存層尚無任何狀態，呼叫端需先 seed。
	ErrNoState = errors.New("no application state stored")
)

// IsValidation 判斷 err 是否為四種轉帳驗證錯誤之一。
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingSelection) ||
		errors.Is(err, ErrSameAccount) ||
		errors.Is(err, ErrNonPositiveAmount) ||
		errors.Is(err, ErrInsufficientFunds)
}
