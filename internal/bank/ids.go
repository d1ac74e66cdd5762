package bank

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// IDGenerator 產生在整個應用程式內唯一的交易 ID。
type IDGenerator interface {
	NewID() string
}

// SnowflakeIDs 以 snowflake 產生單調遞增的 ID。
type SnowflakeIDs struct {
	node *snowflake.Node
}

// NewSnowflakeIDs 建立指定節點編號（0–1023）的產生器。
func NewSnowflakeIDs(node int64) (*SnowflakeIDs, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &SnowflakeIDs{node: n}, nil
}

func (g *SnowflakeIDs) NewID() string {
	return g.node.Generate().String()
}

// UUIDIDs 以隨機 UUID (v4) 產生 ID。
type UUIDIDs struct{}

func (UUIDIDs) NewID() string {
	return uuid.NewString()
}

// NewIDGenerator 依名稱選擇產生器："snowflake"（預設）或 "uuid"。
func NewIDGenerator(scheme string, node int64) (IDGenerator, error) {
	switch scheme {
	case "", "snowflake":
		return NewSnowflakeIDs(node)
	case "uuid":
		return UUIDIDs{}, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q", scheme)
	}
}
