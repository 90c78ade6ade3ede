package store

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
)

// Set 是绑定到某个会话的实体集合，读操作立即执行，写操作暂存到会话中。
type Set[E Record] struct {
	session *Session
	mapping *Mapping[E]
}

func Bind[E Record](s *Session, m *Mapping[E]) *Set[E] {
	return &Set[E]{session: s, mapping: m}
}

func (s *Set[E]) Query() *Query[E] {
	return From(s.session.db, s.mapping)
}

// Find 按主键查询，不做预加载。
func (s *Set[E]) Find(ctx context.Context, id int64) (E, error) {
	return s.Query().Where(squirrel.Eq{"id": id}).First(ctx)
}

func (s *Set[E]) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	q := s.session.db.builder.Select("1").From(s.mapping.Table).Where(squirrel.Eq{"id": id}).Limit(1)
	if err := s.session.db.ScanRow(ctx, q, &one); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Add 暂存插入，提交后 e 的主键被回填。
func (s *Set[E]) Add(e E) {
	s.session.stage(func(ctx context.Context, tx *Tx) error {
		return Insert(ctx, tx, s.mapping, e)
	})
}

// MarkModified 暂存整条记录的替换（除主键外所有列）。
func (s *Set[E]) MarkModified(e E) {
	s.session.stage(func(ctx context.Context, tx *Tx) error {
		return update(ctx, tx, s.mapping, e)
	})
}

func (s *Set[E]) Remove(e E) {
	id := e.GetID()
	s.session.stage(func(ctx context.Context, tx *Tx) error {
		return remove(ctx, tx, s.mapping, id)
	})
}
