// internal/bank/amount.go
//
// 金額一律以「分」為最小單位。輸入可能帶有任意指數（例如 1e-200000000），
// 比較與四捨五入前先以位數判斷數量級，避免 decimal 對極端指數做 rescale。

package bank

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale 為金額保留的小數位數。
const AmountScale = 2

// magnitude 回傳 m，使 10^(m-1) <= |d| < 10^m。
func magnitude(d decimal.Decimal) int64 {
	return int64(d.NumDigits()) + int64(d.Exponent())
}

// NormalizeAmount 將金額四捨五入到分。小於半分的數值回傳 0；
// 已是兩位小數以內的數值原樣回傳。
func NormalizeAmount(d decimal.Decimal) decimal.Decimal {
	if d.Exponent() >= -AmountScale {
		return d
	}
	if d.IsZero() || magnitude(d) < -AmountScale {
		return decimal.Zero
	}
	return d.Round(AmountScale)
}

// exceeds 回報正數 amount 是否大於 balance。
// 數量級不同時直接以位數判斷，只有同一數量級才做實際比較。
func exceeds(amount, balance decimal.Decimal) bool {
	if !balance.IsPositive() {
		return true
	}
	ma, mb := magnitude(amount), magnitude(balance)
	if ma != mb {
		return ma > mb
	}
	return balance.LessThan(amount)
}

// FormatAmount 供日誌使用；數量級過大或過小時改用係數加指數的寫法。
func FormatAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return "0"
	}
	if m := magnitude(d); m > 30 || m < -30 {
		return fmt.Sprintf("%se%d", d.Coefficient().String(), d.Exponent())
	}
	return d.String()
}
