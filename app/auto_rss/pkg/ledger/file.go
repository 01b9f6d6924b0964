package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileLedger 每行一个指纹的文本账本，打开时全部载入内存
type FileLedger struct {
	path string
	seen map[string]struct{}
}

var _ Ledger = (*FileLedger)(nil)

// OpenFile 读取账本文件，文件不存在视为空账本
func OpenFile(path string) (*FileLedger, error) {
	l := &FileLedger{path: path, seen: make(map[string]struct{})}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			l.seen[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}
	return l, nil
}

func (l *FileLedger) IsKnown(fingerprint string) bool {
	_, ok := l.seen[fingerprint]
	return ok
}

// Record 追加写入，不对文件内容去重
func (l *FileLedger) Record(fingerprints []string) error {
	if len(fingerprints) == 0 {
		return nil
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger %s: %w", l.path, err)
	}

	w := bufio.NewWriter(f)
	for _, fp := range fingerprints {
		w.WriteString(fp)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("append ledger %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close ledger %s: %w", l.path, err)
	}

	for _, fp := range fingerprints {
		l.seen[fp] = struct{}{}
	}
	return nil
}

// Len 去重后的指纹数量
func (l *FileLedger) Len() int {
	return len(l.seen)
}

func (l *FileLedger) Close() error {
	return nil
}
