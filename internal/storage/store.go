// internal/storage/store.go
//
// Store 將 AppState 序列化後寫入 Backend，並實作 bank.StateStore。
// 狀態以單一 blob 保存在 StateKey 之下，登入旗標另存於 LoginKey。
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sharmamusiicc/khanbank/internal/bank"
)

// 固定的儲存鍵名。
const (
	StateKey = "khanBankData"
	LoginKey = "khanBankLoggedIn"
)

// Store 為 AppState 與登入旗標的持久化層。
type Store struct {
	kv   Backend
	ids  bank.IDGenerator
	now  func() time.Time
	kind string
}

// NewStore 建立 Store；ids 與 now 只在 Seed 時使用。now 為 nil 時使用 time.Now。
func NewStore(kv Backend, ids bank.IDGenerator, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{kv: kv, ids: ids, now: now, kind: backendKind(kv)}
}

// Load 讀取並解析狀態。
//   - 鍵不存在：回傳 bank.ErrNoState。
//   - 新版 blob 帶有 _meta 外層，讀取時剝除；舊版未包裝的 blob 直接解析。
//   - 內容無法解析時回傳錯誤，不會自動覆寫。
func (s *Store) Load(ctx context.Context) (*bank.AppState, error) {
	raw, err := s.kv.Get(ctx, StateKey)
	if errors.Is(err, ErrNotFound) {
		return nil, bank.ErrNoState
	}
	if err != nil {
		return nil, err
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", StateKey, err)
	}
	data := raw
	if env.Meta != nil {
		if env.Meta.Version > SchemaVersion {
			return nil, fmt.Errorf("decode %s: unsupported version %d", StateKey, env.Meta.Version)
		}
		data = env.Data
	}

	var st bank.AppState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode %s: %w", StateKey, err)
	}
	if st.Accounts.Checking.Transactions == nil {
		st.Accounts.Checking.Transactions = []bank.Transaction{}
	}
	if st.Accounts.Savings.Transactions == nil {
		st.Accounts.Savings.Transactions = []bank.Transaction{}
	}
	return &st, nil
}

// Save 將整份狀態包裝後覆寫寫入。
func (s *Store) Save(ctx context.Context, st *bank.AppState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	blob, err := json.MarshalIndent(Envelope{
		Meta: &Meta{Storage: s.kind, Version: SchemaVersion, Timestamp: s.now().UTC()},
		Data: data,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return s.kv.Put(ctx, StateKey, blob)
}

// Seed 建立初始狀態並保存，回傳該狀態。
func (s *Store) Seed(ctx context.Context) (*bank.AppState, error) {
	st := bank.NewSeedState(s.ids, s.now())
	if err := s.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// LoggedIn 回傳登入旗標；旗標不存在視為未登入。
func (s *Store) LoggedIn(ctx context.Context) (bool, error) {
	v, err := s.kv.Get(ctx, LoginKey)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(v) == "true", nil
}

func (s *Store) SetLoggedIn(ctx context.Context) error {
	return s.kv.Put(ctx, LoginKey, []byte("true"))
}

func (s *Store) ClearLoggedIn(ctx context.Context) error {
	return s.kv.Delete(ctx, LoginKey)
}

func backendKind(kv Backend) string {
	switch kv.(type) {
	case *FileBackend:
		return "file"
	case *PostgresBackend:
		return "postgres"
	case *MySQLBackend:
		return "mysql"
	case *MemoryBackend:
		return "memory"
	default:
		return "custom"
	}
}
