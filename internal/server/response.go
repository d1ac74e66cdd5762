// internal/server/response.go
//
// 統一 JSON 回應格式與錯誤代碼映射。
// 驗證錯誤的訊息原封不動回給使用者；其他錯誤只記錄在日誌，對外回傳通用訊息。
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sharmamusiicc/khanbank/internal/bank"
)

// statusFor 將錯誤轉成 HTTP 狀態碼：餘額不足 409，其餘驗證錯誤 400，其他 500。
func statusFor(err error) int {
	switch {
	case errors.Is(err, bank.ErrInsufficientFunds):
		return http.StatusConflict
	case bank.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageFor 回傳可以顯示給使用者的錯誤訊息。
func messageFor(err error) string {
	if bank.IsValidation(err) {
		for _, v := range []error{bank.ErrMissingSelection, bank.ErrSameAccount, bank.ErrNonPositiveAmount, bank.ErrInsufficientFunds} {
			if errors.Is(err, v) {
				return v.Error()
			}
		}
	}
	return "Something went wrong, please try again"
}

func writeJSON(c *gin.Context, code int, v any) {
	c.JSON(code, v)
}

// writeErr 以 {"error": msg} 輸出錯誤；非驗證錯誤另寫入日誌。
func writeErr(c *gin.Context, log *slog.Logger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": messageFor(err)})
}

// badRequest 用於請求本身無法解析的情況。
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
