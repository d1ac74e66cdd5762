// internal/session/guard.go

// Package session 以儲存層中的登入旗標控管頁面存取。
// 旗標只是布林值，不代表任何身分驗證。
package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// EntryPath 為未登入時導向的入口頁。
const EntryPath = "/"

// FlagStore 保存登入旗標，由 storage.Store 實作。
type FlagStore interface {
	LoggedIn(ctx context.Context) (bool, error)
	SetLoggedIn(ctx context.Context) error
	ClearLoggedIn(ctx context.Context) error
}

type Guard struct {
	flags FlagStore
	log   *slog.Logger
}

func NewGuard(flags FlagStore, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{flags: flags, log: logger}
}

// RequirePage 用於 HTML 頁面：旗標不存在時以 302 導向入口頁。
func (g *Guard) RequirePage() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := g.flags.LoggedIn(c.Request.Context())
		if err != nil {
			g.log.Error("read login flag", "error", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if !ok {
			c.Redirect(http.StatusFound, EntryPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAPI 用於 JSON API：旗標不存在時回 401。
func (g *Guard) RequireAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := g.flags.LoggedIn(c.Request.Context())
		if err != nil {
			g.log.Error("read login flag", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

func (g *Guard) Login(ctx context.Context) error {
	if err := g.flags.SetLoggedIn(ctx); err != nil {
		return err
	}
	g.log.Info("session started")
	return nil
}

// Logout 清除旗標；帳戶資料保持不變。
func (g *Guard) Logout(ctx context.Context) error {
	if err := g.flags.ClearLoggedIn(ctx); err != nil {
		return err
	}
	g.log.Info("session ended")
	return nil
}

// LoggedIn 供入口頁判斷是否直接進入總覽。
func (g *Guard) LoggedIn(ctx context.Context) (bool, error) {
	return g.flags.LoggedIn(ctx)
}
