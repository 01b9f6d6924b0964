package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/logger"
)

// SQLiteLedger 基于 sqlite 的索引账本，适合指纹量较大时使用
type SQLiteLedger struct {
	db *sql.DB
}

var _ Ledger = (*SQLiteLedger)(nil)

// OpenSQLite 打开或创建 sqlite 账本
func OpenSQLite(path string) (*SQLiteLedger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS fingerprints (
		fp TEXT PRIMARY KEY,
		recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite ledger: %w", err)
	}
	return &SQLiteLedger{db: db}, nil
}

func (l *SQLiteLedger) IsKnown(fingerprint string) bool {
	var one int
	err := sq.Select("1").
		From("fingerprints").
		Where(sq.Eq{"fp": fingerprint}).
		Limit(1).
		RunWith(l.db).
		QueryRow().
		Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		// 查询失败时按已入库处理，宁可漏收也不重复入库
		logger.Log.Errorf("查询去重账本失败 [%s]: %v", fingerprint, err)
		return true
	}
	return true
}

func (l *SQLiteLedger) Record(fingerprints []string) error {
	if len(fingerprints) == 0 {
		return nil
	}

	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	for _, fp := range fingerprints {
		_, err := sq.Insert("fingerprints").
			Options("OR IGNORE").
			Columns("fp").
			Values(fp).
			RunWith(tx).
			Exec()
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: %v", err, rerr)
			}
			return fmt.Errorf("record fingerprint: %w", err)
		}
	}
	return tx.Commit()
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
