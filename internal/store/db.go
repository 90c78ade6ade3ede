package store

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
)

// DB 是持久化网关的入口，负责按方言构造 SQL 并开启会话。
type DB struct {
	sql     *sql.DB
	dialect Dialect
	builder squirrel.StatementBuilderType
}

func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{
		sql:     db,
		dialect: dialect,
		builder: squirrel.StatementBuilder.PlaceholderFormat(dialect.placeholder()),
	}
}

func (d *DB) Dialect() Dialect {
	return d.dialect
}

// Builder 返回带有正确占位符格式的 squirrel 构造器。
func (d *DB) Builder() squirrel.StatementBuilderType {
	return d.builder
}

// Session 开启一个新的工作单元，每个请求使用自己的会话。
func (d *DB) Session() *Session {
	return &Session{db: d}
}

// ScanRow 执行只返回一行的查询并扫描到 dest。
func (d *DB) ScanRow(ctx context.Context, q squirrel.Sqlizer, dest ...any) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "can't build sql query")
	}
	if err := d.sql.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Mark(err, ErrNotFound)
		}
		return errors.Wrap(classify(err), "error executing sql query")
	}
	return nil
}

func (d *DB) queryRows(ctx context.Context, q squirrel.Sqlizer) (*sql.Rows, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "can't build sql query")
	}
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(classify(err), "error executing sql query")
	}
	return rows, nil
}
