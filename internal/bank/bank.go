// internal/bank/bank.go

// Package bank 定義核心商業邏輯：轉帳、個人資料更新與交易紀錄查詢。
// Service 以單一互斥鎖 (sync.Mutex) 包住「讀取 → 驗證 → 變更 → 保存」整段流程，
// 確保每次變更原子且序列化。金額以 decimal 表示，避免浮點誤差。
//
// 同一個儲存後端若被多個行程同時使用，仍是後寫者勝出（不處理跨行程協調）。
package bank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// StateStore 為 Service 依賴的持久化介面，由 storage.Store 實作。
type StateStore interface {
	// Load 回傳已保存的狀態；尚未保存時回傳 ErrNoState。
	Load(ctx context.Context) (*AppState, error)
	Save(ctx context.Context, state *AppState) error
	Seed(ctx context.Context) (*AppState, error)
}

// Service 為聚合根：串接 Store 與 Ledger。
// - mu：序列化所有讀寫，確保跨帳戶操作（轉帳）原子完成。
// - store：注入的持久化層，Service 本身不持有狀態副本。
type Service struct {
	mu     sync.Mutex
	store  StateStore
	ledger *Ledger
	log    *slog.Logger
}

// NewService 建立 Service；logger 為 nil 時使用 slog.Default()。
func NewService(store StateStore, ledger *Ledger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, ledger: ledger, log: logger}
}

// State 回傳目前狀態；第一次使用時先 seed。
func (s *Service) State(ctx context.Context) (*AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// load 必須在持有 mu 時呼叫。
func (s *Service) load(ctx context.Context) (*AppState, error) {
	st, err := s.store.Load(ctx)
	if errors.Is(err, ErrNoState) {
		st, err = s.store.Seed(ctx)
		if err != nil {
			return nil, fmt.Errorf("seed state: %w", err)
		}
		s.log.Info("seeded initial state")
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if verr := Verify(st); verr != nil {
		s.log.Warn("stored state violates ledger invariant", "error", verr)
	}
	return st, nil
}

// Transfer 轉帳為「單一臨界區內」的原子操作：
// 1) 讀取狀態 → 2) 依序驗證 → 3) 在副本上同步扣款與入帳 → 4) 整份保存。
// 驗證失敗或保存失敗都不會留下任何可觀察的部分變更。
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*AppState, *TransferResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	next, res, err := s.ledger.Transfer(st, req)
	if err != nil {
		s.log.Info("transfer rejected", "from", req.From, "to", req.To, "amount", FormatAmount(req.Amount), "reason", err.Error())
		return nil, nil, err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return nil, nil, fmt.Errorf("save transfer: %w", err)
	}
	s.log.Info("transfer applied",
		"from", req.From, "to", req.To, "amount", res.Debit.Amount.String(),
		"debit_id", res.Debit.ID, "credit_id", res.Credit.ID)
	return next, res, nil
}

// UpdateProfile 整批取代使用者資料並保存，回傳更新後的使用者。
func (s *Service) UpdateProfile(ctx context.Context, u User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	next := UpdateProfile(st, u)
	if err := s.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	s.log.Info("profile updated")
	return &next.User, nil
}
