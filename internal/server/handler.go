// internal/server/handler.go
//
// Package server
// ─────────────────────────────────────────────
// 提供 HTML 頁面與 /api/v1 JSON 介面，作為 bank 模組的應用層 (Application Layer)。
// 每個 handler 僅負責：
//  1. 解析 HTTP 請求（表單或 JSON）
//  2. 呼叫 bank.Service 執行商業邏輯（保存由 Service 完成）
//  3. 回傳頁面或 JSON 回應
//
// handler 不直接變更帳戶或交易，只透過 Service 取得與修改狀態。
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sharmamusiicc/khanbank/internal/bank"
	"github.com/sharmamusiicc/khanbank/internal/format"
	"github.com/sharmamusiicc/khanbank/internal/session"
	"github.com/sharmamusiicc/khanbank/internal/storage"
)

// Server 為 HTTP 層核心結構：
// - svc：注入的商業邏輯層，負責讀取、驗證、變更與保存。
// - guard：登入旗標檢查。
// - cache：冪等回應的保存位置，通常與狀態共用同一個 Backend。
// - idemTTL：冪等回應保存多久。
type Server struct {
	svc     *bank.Service
	guard   *session.Guard
	cache   storage.Backend
	idemTTL time.Duration
	now     func() time.Time
	log     *slog.Logger
	views   views
}

// DefaultIdempotencyTTL 為未指定時冪等回應的保存時間。
const DefaultIdempotencyTTL = 24 * time.Hour

// NewServer 建立新的 HTTP 伺服器；idemTTL <= 0 時使用 DefaultIdempotencyTTL，
// logger 為 nil 時使用 slog.Default()。
func NewServer(svc *bank.Service, guard *session.Guard, cache storage.Backend, idemTTL time.Duration, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if idemTTL <= 0 {
		idemTTL = DefaultIdempotencyTTL
	}
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	return &Server{svc: svc, guard: guard, cache: cache, idemTTL: idemTTL, now: time.Now, log: logger, views: v}, nil
}

// accountSummary 為 API 回應中的帳戶摘要（不含交易）。
type accountSummary struct {
	Name          string          `json:"name"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
}

func summarize(st *bank.AppState) map[bank.AccountKey]accountSummary {
	out := make(map[bank.AccountKey]accountSummary, len(bank.AccountKeys))
	for _, key := range bank.AccountKeys {
		a, _ := st.Account(key)
		out[key] = accountSummary{Name: key.DisplayName(), AccountNumber: a.AccountNumber, Balance: a.Balance}
	}
	return out
}

// health 提供健康檢查端點：GET /api/v1/health。
func (s *Server) health(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// apiDashboard 處理 GET /api/v1/dashboard：使用者、兩帳戶餘額與最近 5 筆交易。
func (s *Server) apiDashboard(c *gin.Context) {
	st, err := s.svc.State(c.Request.Context())
	if err != nil {
		writeErr(c, s.log, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"user":     st.User,
		"accounts": summarize(st),
		"recent":   bank.RecentTransactions(st, bank.DashboardLimit),
	})
}

// apiAccount 處理 GET /api/v1/accounts/:key：單一帳戶與完整交易紀錄（新到舊）。
func (s *Server) apiAccount(c *gin.Context) {
	key := bank.AccountKey(c.Param("key"))
	st, err := s.svc.State(c.Request.Context())
	if err != nil {
		writeErr(c, s.log, err)
		return
	}
	txs, err := bank.History(st, key)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	a, _ := st.Account(key)
	writeJSON(c, http.StatusOK, gin.H{
		"key":           key,
		"name":          key.DisplayName(),
		"accountNumber": a.AccountNumber,
		"balance":       a.Balance,
		"transactions":  txs,
	})
}

// apiTransfer 處理 POST /api/v1/transfer：
//
//	{"from": "checking", "to": "savings", "amount": "5000", "description": "rent"}
//
// 成功時回傳兩筆交易與轉帳後的餘額；餘額不足為 409，其他驗證錯誤為 400。
func (s *Server) apiTransfer(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var req bank.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	st, res, err := s.svc.Transfer(c.Request.Context(), req)
	if err != nil {
		writeErr(c, s.log, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"message":  transferredMessage(res.Debit.Amount),
		"debit":    res.Debit,
		"credit":   res.Credit,
		"accounts": summarize(st),
	})
}

func (s *Server) apiGetProfile(c *gin.Context) {
	st, err := s.svc.State(c.Request.Context())
	if err != nil {
		writeErr(c, s.log, err)
		return
	}
	writeJSON(c, http.StatusOK, st.User)
}

// apiPutProfile 處理 PUT /api/v1/profile：五個欄位整批取代，缺少的欄位視為空字串。
func (s *Server) apiPutProfile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var u bank.User
	if err := c.ShouldBindJSON(&u); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := s.svc.UpdateProfile(c.Request.Context(), u)
	if err != nil {
		writeErr(c, s.log, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"message": profileUpdatedMessage, "user": updated})
}

// apiLogin 處理 POST /api/v1/session：不驗證任何憑證，只設定登入旗標。
func (s *Server) apiLogin(c *gin.Context) {
	if err := s.guard.Login(c.Request.Context()); err != nil {
		writeErr(c, s.log, fmt.Errorf("login: %w", err))
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"loggedIn": true})
}

func (s *Server) apiLogout(c *gin.Context) {
	if err := s.guard.Logout(c.Request.Context()); err != nil {
		writeErr(c, s.log, fmt.Errorf("logout: %w", err))
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"loggedIn": false})
}

const profileUpdatedMessage = "Profile updated successfully!"

const (
	maxBodyBytes    = 64 << 10
	maxAmountLength = 32
)

func transferredMessage(amount decimal.Decimal) string {
	return "Successfully transferred " + format.Currency(amount) + "!"
}

// parseAmount 解析表單金額；空白、過長或無法解析時視為 0，交由驗證回報 ErrNonPositiveAmount。
// 小數位數由 Ledger 四捨五入到分。
func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if len(s) > maxAmountLength {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
