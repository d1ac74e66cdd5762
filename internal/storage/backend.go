// internal/storage/backend.go
//
// 儲存層的鍵值介面。所有後端（檔案、Postgres、MySQL、記憶體）都只處理不透明的位元組，
// 不了解 AppState 的結構；序列化由 Store 負責。
package storage

import (
	"context"
	"errors"
)

// ErrNotFound 代表指定的鍵不存在。
var ErrNotFound = errors.New("storage: key not found")

// Backend 為持久化鍵值儲存。Put 以整份值覆寫；Delete 不存在的鍵不視為錯誤。
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
