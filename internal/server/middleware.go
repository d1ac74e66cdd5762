package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sharmamusiicc/khanbank/internal/storage"
)

const (
	requestIDKey      = "requestID"
	headerRequestID   = "X-Request-ID"
	headerIdempotency = "Idempotency-Key"
	headerIdemHit     = "X-Idempotency-Hit"
)

// requestLogger 為每個請求指定 request ID（沿用客戶端提供者），並在完成後寫一筆日誌。
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(headerRequestID, id)

		c.Next()

		log.Info("request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// cachedResponse 為保存於 Backend 的回應；Expires 之後視為不存在。
type cachedResponse struct {
	Status  int             `json:"status"`
	Body    json.RawMessage `json:"body"`
	Expires time.Time       `json:"expires"`
}

// bodyRecorder 在寫出回應的同時保留一份副本。
type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// idempotency 以 Idempotency-Key 標頭快取第一次的回應，重送時直接回放並加上 X-Idempotency-Hit。
// 5xx 不快取，客戶端可以用同一個 key 重試。
// 處理期間持有互斥鎖，同一行程內相同 key 的並行請求只會執行一次。
// 快取保存 ttl；讀到過期項目時刪除並重新執行。
func idempotency(cache storage.Backend, ttl time.Duration, now func() time.Time, log *slog.Logger) gin.HandlerFunc {
	var mu sync.Mutex
	return func(c *gin.Context) {
		key := c.GetHeader(headerIdempotency)
		if key == "" {
			c.Next()
			return
		}
		sum := sha256.Sum256([]byte(key))
		storeKey := "idem:" + hex.EncodeToString(sum[:])
		ctx := c.Request.Context()

		mu.Lock()
		defer mu.Unlock()

		raw, err := cache.Get(ctx, storeKey)
		switch {
		case err == nil:
			var cached cachedResponse
			uerr := json.Unmarshal(raw, &cached)
			if uerr == nil && now().Before(cached.Expires) {
				log.Info("idempotency hit", "request_id", c.GetString(requestIDKey))
				c.Header(headerIdemHit, "true")
				c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
				c.Abort()
				return
			}
			if uerr != nil {
				log.Warn("discarding unreadable idempotency entry", "error", uerr)
			}
			if derr := cache.Delete(ctx, storeKey); derr != nil {
				log.Warn("delete stale idempotency entry", "error", derr)
			}
		case !errors.Is(err, storage.ErrNotFound):
			log.Error("read idempotency key", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again"})
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status >= http.StatusInternalServerError || !json.Valid(rec.buf.Bytes()) {
			return
		}
		blob, err := json.Marshal(cachedResponse{Status: status, Body: rec.buf.Bytes(), Expires: now().Add(ttl)})
		if err == nil {
			err = cache.Put(ctx, storeKey, blob)
		}
		if err != nil {
			log.Error("save idempotency key", "error", err)
			return
		}
		log.Info("idempotency key saved", "request_id", c.GetString(requestIDKey))
	}
}
