package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
)

type operation func(ctx context.Context, tx *Tx) error

// Session 是一次请求内的工作单元：先暂存写操作，Commit 时在同一个事务中按顺序执行。
// Session 不是并发安全的，也不应跨请求复用。
type Session struct {
	db      *DB
	pending []operation
}

func (s *Session) stage(op operation) {
	s.pending = append(s.pending, op)
}

// Pending 返回尚未提交的写操作数量。
func (s *Session) Pending() int {
	return len(s.pending)
}

// Commit 在一个事务中执行所有暂存的写操作。
// 并发冲突返回 ErrStaleWrite，违反约束返回 ErrConstraint；失败时事务整体回滚。
func (s *Session) Commit(ctx context.Context) error {
	ops := s.pending
	s.pending = nil
	if len(ops) == 0 {
		return nil
	}

	sqlTx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(classify(err), "begin transaction")
	}
	defer sqlTx.Rollback()

	tx := &Tx{tx: sqlTx, db: s.db}
	for _, op := range ops {
		if err := op(ctx, tx); err != nil {
			return err
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return errors.Wrap(classify(err), "commit transaction")
	}
	return nil
}

// Tx 是提交阶段暴露给 Mapping.OnInsert 的事务句柄。
type Tx struct {
	tx *sql.Tx
	db *DB
}

func (t *Tx) exec(ctx context.Context, q squirrel.Sqlizer) (sql.Result, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "can't build sql query")
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(classify(err), "error executing sql query")
	}
	return res, nil
}

// Insert 插入一条记录并回填数据库分配的主键，然后执行 OnInsert。
func Insert[E Record](ctx context.Context, tx *Tx, m *Mapping[E], e E) error {
	query, args, err := tx.db.builder.
		Insert(m.Table).
		Columns(m.Columns...).
		Values(m.Values(e)...).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "can't build sql query")
	}

	var id int64
	if err := tx.tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return errors.Wrap(classify(err), fmt.Sprintf("insert into %s", m.Table))
	}
	e.SetID(id)

	if m.OnInsert != nil {
		return m.OnInsert(ctx, tx, e)
	}
	return nil
}

func update[E Record](ctx context.Context, tx *Tx, m *Mapping[E], e E) error {
	q := tx.db.builder.Update(m.Table)
	values := m.Values(e)
	for i, col := range m.Columns {
		q = q.Set(col, values[i])
	}
	res, err := tx.exec(ctx, q.Where(squirrel.Eq{"id": e.GetID()}))
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("update %s", m.Table))
	}
	return expectRow(res, m.Table, e.GetID())
}

func remove[E Record](ctx context.Context, tx *Tx, m *Mapping[E], id int64) error {
	res, err := tx.exec(ctx, tx.db.builder.Delete(m.Table).Where(squirrel.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("delete from %s", m.Table))
	}
	return expectRow(res, m.Table, id)
}

// expectRow 把“没有影响任何行”视为并发冲突：读到的记录在提交前已被修改或删除。
func expectRow(res sql.Result, table string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return errors.Wrap(ErrStaleWrite, fmt.Sprintf("%s row %d was not written", table, id))
	}
	return nil
}
