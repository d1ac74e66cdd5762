package storage

import (
	"context"
	"fmt"
)

// Options 描述要開啟的後端。
type Options struct {
	Driver      string // file | postgres | mysql | memory
	DataDir     string
	DatabaseURL string
	MySQLDSN    string
}

// Open 依 Driver 建立對應的 Backend。
func Open(ctx context.Context, opt Options) (Backend, error) {
	switch opt.Driver {
	case "", "file":
		return NewFileBackend(opt.DataDir)
	case "postgres":
		return ConnectPostgres(ctx, opt.DatabaseURL)
	case "mysql":
		return ConnectMySQL(ctx, opt.MySQLDSN)
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opt.Driver)
	}
}
