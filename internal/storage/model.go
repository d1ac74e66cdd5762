// internal/storage/model.go
//
// 定義持久化 blob 的外層結構。Meta 保存儲存方式、版本與時間戳，
// 讀取時會剝除，不屬於 AppState 的一部分。
package storage

import (
	"encoding/json"
	"time"
)

// SchemaVersion 為目前 blob 的結構版本。
const SchemaVersion = 1

// Meta 為所有持久化 blob 的中繼資料 (metadata)。
type Meta struct {
	Storage   string    `json:"storage"`   // 儲存類型，例如 "file"、"postgres"
	Version   int       `json:"version"`   // 結構版本號，用於未來升級時比對
	Timestamp time.Time `json:"timestamp"` // 寫入時間
}

// Envelope 包住實際資料。舊版（未包裝）的 blob 沒有 _meta 欄位。
type Envelope struct {
	Meta *Meta           `json:"_meta,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}
