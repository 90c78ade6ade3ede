package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
)

// Loader 在主查询之后加载关联数据并挂到结果上（预加载）。
// Loader 只能修改导航字段，不能写库。
type Loader[E Record] func(ctx context.Context, db *DB, rows []E) error

// Query 是不可变的查询描述，每个方法都返回新的 Query。
type Query[E Record] struct {
	db       *DB
	mapping  *Mapping[E]
	sel      squirrel.SelectBuilder
	includes []Loader[E]
}

// From 返回映射表上的基础查询，按主键排序。
func From[E Record](db *DB, m *Mapping[E]) *Query[E] {
	return &Query[E]{
		db:      db,
		mapping: m,
		sel:     db.builder.Select(m.selectColumns()...).From(m.Table).OrderBy("id"),
	}
}

func (q *Query[E]) Where(pred any, args ...any) *Query[E] {
	c := *q
	c.sel = q.sel.Where(pred, args...)
	return &c
}

func (q *Query[E]) Include(l Loader[E]) *Query[E] {
	c := *q
	c.includes = append(slices.Clip(q.includes), l)
	return &c
}

// List 执行查询，没有结果时返回空切片而不是 nil。
func (q *Query[E]) List(ctx context.Context) ([]E, error) {
	return q.list(ctx, q.sel)
}

// First 返回第一条记录，没有结果时返回 ErrNotFound。
func (q *Query[E]) First(ctx context.Context) (E, error) {
	var zero E
	out, err := q.list(ctx, q.sel.Limit(1))
	if err != nil {
		return zero, err
	}
	if len(out) == 0 {
		return zero, errors.Wrap(ErrNotFound, fmt.Sprintf("found no row in %s", q.mapping.Table))
	}
	return out[0], nil
}

func (q *Query[E]) list(ctx context.Context, sel squirrel.SelectBuilder) ([]E, error) {
	rows, err := q.db.queryRows(ctx, sel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]E, 0)
	for rows.Next() {
		e, err := q.mapping.scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("error scanning row of %s", q.mapping.Table))
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating over rows")
	}
	// 先关闭结果集，再执行关联查询，避免占用两个连接
	rows.Close()

	if len(out) == 0 {
		return out, nil
	}
	for _, load := range q.includes {
		if err := load(ctx, q.db, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}
