// Package ledger 记录所有已入库条目的指纹，用于跨运行去重。
//
// 账本只增不减；读取方必须把它当作集合而不是日志，同一指纹出现多行不影响判断。
package ledger

import (
	"fmt"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/config"
)

// Ledger 去重账本
type Ledger interface {
	// IsKnown 指纹是否已经入库，无法判断时返回 true
	IsKnown(fingerprint string) bool
	// Record 持久化新接收的指纹，重复记录无副作用
	Record(fingerprints []string) error
	Close() error
}

// Open 根据配置打开账本
func Open(cfg config.LedgerConfig) (Ledger, error) {
	switch cfg.Backend {
	case "", "file":
		return OpenFile(cfg.Path)
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown ledger backend: %s", cfg.Backend)
	}
}
