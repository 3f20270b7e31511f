package counter

import (
	"fmt"
	"strings"
)

// Strategy IncrementOrCreate在数据库上的实现方式
type Strategy string

// 递增策略
const (
	// StrategyUpsert 单条语句的upsert,一次往返
	StrategyUpsert Strategy = "upsert"
	// StrategyTransaction 事务中加行锁读取,进程内加1后更新
	StrategyTransaction Strategy = "transaction"
)

// DefaultStrategy 默认策略
const DefaultStrategy = StrategyUpsert

// ParseStrategy 解析策略名称,空字符串返回默认策略
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return DefaultStrategy, nil
	case StrategyUpsert:
		return StrategyUpsert, nil
	case StrategyTransaction:
		return StrategyTransaction, nil
	}
	return "", fmt.Errorf("unknown strategy %q", name)
}
