// internal/server/router.go
//
// 本檔負責 HTTP 路由註冊。
// 與 handler.go 分離：handler 定義「如何處理請求」，router 定義「請求如何被導向」，
// main.go 組裝整體應用（注入 Service、Store、Guard）。
package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Router 建立並回傳整個 HTTP 處理鏈。
func (s *Server) Router() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	// ────────────────
	// HTML 頁面
	// ────────────────
	r.GET("/", s.entry)
	r.POST("/login", s.login)
	r.POST("/logout", s.logout)

	pages := r.Group("", s.guard.RequirePage())
	pages.GET("/dashboard", s.dashboard)
	pages.GET("/accounts/:key", s.account)
	pages.GET("/transfer", s.showTransfer)
	pages.POST("/transfer", s.submitTransfer)
	pages.GET("/profile", s.showProfile)
	pages.POST("/profile", s.submitProfile)

	// ────────────────
	// API Version Mounting
	// ────────────────
	//
	// 同一組端點同時掛在 /api/v1 與 /api 之下。
	idem := idempotency(s.cache, s.idemTTL, s.now, s.log)
	for _, prefix := range []string{"/api/v1", "/api"} {
		s.mountAPI(r.Group(prefix), idem)
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		s.notFound(c)
	})
	return r
}

func (s *Server) mountAPI(api *gin.RouterGroup, idem gin.HandlerFunc) {
	// 健康檢查：可供監控或 Docker liveness probe 使用。
	api.GET("/health", s.health)

	api.POST("/session", s.apiLogin)
	api.DELETE("/session", s.apiLogout)

	auth := api.Group("", s.guard.RequireAPI())
	auth.GET("/dashboard", s.apiDashboard)
	auth.GET("/accounts/:key", s.apiAccount)
	auth.POST("/transfer", idem, s.apiTransfer)
	auth.GET("/profile", s.apiGetProfile)
	auth.PUT("/profile", s.apiPutProfile)
}
