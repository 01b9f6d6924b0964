// Package storage 把每日总结归档到 Postgres，便于按日期查询历史分类与条目。
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/config"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/logger"
	"github.com/iWorld-y/auto_rss/app/auto_rss/pkg/model"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type execStep struct {
	name string
	q    sq.Sqlizer
}

type Storage struct {
	db *sql.DB
}

func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	version, err := runMigrations(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Log.Infof("数据库迁移完成, 版本: %d", version)

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveDailySummary 在一个事务里替换当天的归档
func (s *Storage) SaveDailySummary(ctx context.Context, summary *model.DailySummary) error {
	insertSummary, err := insertSummaryQuery(summary)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	steps := []execStep{
		{"delete daily summary", deleteSummaryQuery(summary.Date)},
		{"insert daily summary", insertSummary},
	}
	if items, ok := insertItemsQuery(summary); ok {
		steps = append(steps, execStep{"insert summary items", items})
	}

	for _, step := range steps {
		query, args, err := step.q.ToSql()
		if err == nil {
			_, err = tx.ExecContext(ctx, query, args...)
		}
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: %v", err, rerr)
			}
			return fmt.Errorf("failed to %s: %w", step.name, err)
		}
	}

	return tx.Commit()
}

func deleteSummaryQuery(date string) sq.DeleteBuilder {
	// summary_items 通过外键级联删除
	return psql.Delete("daily_summaries").Where(sq.Eq{"date": date})
}

func insertSummaryQuery(summary *model.DailySummary) (sq.InsertBuilder, error) {
	highlights := summary.Highlights
	if highlights == nil {
		highlights = []string{}
	}
	highlightsJSON, err := json.Marshal(highlights)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("marshal highlights: %w", err)
	}

	categorySummaries := summary.CategorySummaries
	if categorySummaries == nil {
		categorySummaries = model.NewCategorySummaries()
	}
	summariesJSON, err := json.Marshal(categorySummaries)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("marshal category summaries: %w", err)
	}

	return psql.Insert("daily_summaries").
		Columns("date", "total_items", "daily_summary", "highlights", "category_summaries").
		Values(summary.Date, summary.TotalItems, summary.DailySummary, string(highlightsJSON), string(summariesJSON)), nil
}

// insertItemsQuery 没有条目时返回 false
func insertItemsQuery(summary *model.DailySummary) (sq.InsertBuilder, bool) {
	b := psql.Insert("summary_items").
		Columns("summary_date", "category", "position", "item_id", "title", "title_zh", "link", "summary", "summary_zh", "published")

	n := 0
	if summary.Categories != nil {
		for pair := summary.Categories.Oldest(); pair != nil; pair = pair.Next() {
			for i, item := range pair.Value {
				b = b.Values(summary.Date, pair.Key, i, item.ID, item.Title, item.TitleZh, item.Link, item.Summary, item.SummaryZh, item.Published)
				n++
			}
		}
	}
	return b, n > 0
}
