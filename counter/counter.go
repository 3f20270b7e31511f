// Package counter 按键计数:每个id对应一个单调递增的计数和最后修改时间
package counter

import (
	"context"
	"time"

	c "github.com/d0ngw/countd/common"
)

// MaxIDLen id的最大字节长度
const MaxIDLen = 64

var idValidator = &c.StringLenValidator{Min: 1, Max: MaxIDLen}

// Entry 一个计数项
type Entry struct {
	ID         string    `json:"id" codec:"id"`
	Count      int64     `json:"count" codec:"count"`
	ModifiedAt time.Time `json:"modified_at" codec:"modified_at"`
}

// Store 计数存储
type Store interface {
	// Fetch 读取id当前的计数,不存在时返回KindNotFound的错误
	Fetch(ctx context.Context, id string) (*Entry, error)
	// IncrementOrCreate 原子地将id的计数加1,不存在时以1创建,返回本次递增之后的计数项
	IncrementOrCreate(ctx context.Context, id string) (*Entry, error)
}

// ValidateID 检查id非空且不超过MaxIDLen个字节
func ValidateID(id string) error {
	if err := c.ValidateAll(id, idValidator); err != nil {
		return newError(KindInvalid, "validate", id, err)
	}
	return nil
}

// Now 存储写入modified_at时使用的时间,UTC并截断到微秒,与数据库列的精度一致
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
