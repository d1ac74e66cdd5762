// cmd/server/main.go

// 本服務提供 KhanBank 的網頁與 JSON API：帳戶總覽、交易紀錄、帳戶間轉帳與個人資料編輯。
// 此檔案負責讀取設定、初始化模組（storage, bank, session, server），
// 並啟動 HTTP 伺服器；收到 SIGINT/SIGTERM 時等待進行中的請求完成後再結束。

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sharmamusiicc/khanbank/internal/bank"
	"github.com/sharmamusiicc/khanbank/internal/config"
	"github.com/sharmamusiicc/khanbank/internal/server"
	"github.com/sharmamusiicc/khanbank/internal/session"
	"github.com/sharmamusiicc/khanbank/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 儲存後端：狀態、登入旗標與冪等快取共用
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	kv, err := storage.Open(connectCtx, storage.Options{
		Driver:      cfg.StoreDriver,
		DataDir:     cfg.DataDir,
		DatabaseURL: cfg.DatabaseURL,
		MySQLDSN:    cfg.MySQLDSN,
	})
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Error("close store", "error", err)
		}
	}()

	ids, err := bank.NewIDGenerator(cfg.IDScheme, cfg.SnowflakeNode)
	if err != nil {
		return err
	}
	mode, err := bank.ParseDescriptionMode(cfg.DescriptionMode)
	if err != nil {
		return err
	}

	store := storage.NewStore(kv, ids, nil)
	svc := bank.NewService(store, bank.NewLedger(ids, nil, mode), logger)

	// 啟動時先讀取一次狀態（必要時 seed），儲存層有問題可立即發現
	if _, err := svc.State(ctx); err != nil {
		return err
	}

	srv, err := server.NewServer(svc, session.NewGuard(store, logger), kv, cfg.IdempotencyTTL, logger)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "env", cfg.Env, "port", cfg.Port, "store", cfg.StoreDriver, "ids", cfg.IDScheme)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
