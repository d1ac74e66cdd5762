// internal/storage/jsonstore.go
//
// 檔案後端：每個鍵對應資料目錄下的一個 .json 檔。
// 採「原子寫入」策略 (atomic write)：先寫入 .tmp 檔，再以 rename() 取代原檔，
// 寫入中斷時原檔不會損壞。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9._:-]+$`)

// FileBackend 以目錄中的檔案保存每個鍵。
type FileBackend struct {
	dir string
}

// NewFileBackend 建立檔案後端；目錄不存在時自動建立。
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	// ':' 在部分檔案系統不合法
	return filepath.Join(f.dir, strings.ReplaceAll(key, ":", "_")+".json"), nil
}

// Get 讀取鍵對應的檔案內容；檔案不存在時回傳 ErrNotFound。
func (f *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return b, nil
}

// Put 將值寫入 path+".tmp" 暫存檔，完成後使用 os.Rename() 取代正式檔案。
func (f *FileBackend) Put(_ context.Context, key string, value []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	tmp := p + ".tmp"

	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := file.Write(value); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	// 原子替換
	return os.Rename(tmp, p)
}

func (f *FileBackend) Delete(_ context.Context, key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}

func (f *FileBackend) Close() error { return nil }
