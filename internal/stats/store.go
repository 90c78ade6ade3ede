package stats

import (
	"context"

	"github.com/cockroachdb/errors"

	"todo_api/internal/store"
)

type Summary struct {
	Lists     int64 `json:"lists"`
	Items     int64 `json:"items"`
	Completed int64 `json:"completed"`
}

type Store struct {
	db *store.DB
}

func NewStore(db *store.DB) *Store {
	// 数据访问层封装
	return &Store{db: db}
}

func (s *Store) Summary(ctx context.Context) (Summary, error) {
	// 汇总清单与条目的统计信息
	var summary Summary
	b := s.db.Builder()

	if err := s.db.ScanRow(ctx, b.Select("COUNT(*)").From("todo_lists"), &summary.Lists); err != nil {
		return Summary{}, errors.Wrap(err, "count todo lists")
	}

	items := b.Select(
		"COUNT(*)",
		"COALESCE(SUM(CASE WHEN is_completed THEN 1 ELSE 0 END), 0)",
	).From("todo_items")
	if err := s.db.ScanRow(ctx, items, &summary.Items, &summary.Completed); err != nil {
		return Summary{}, errors.Wrap(err, "count todo items")
	}
	return summary, nil
}
