package store

import (
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound 表示按条件查询没有命中任何记录。
	ErrNotFound = errors.New("record not found")

	// ErrStaleWrite 表示提交时检测到并发修改：UPDATE/DELETE 未影响任何行，
	// 或数据库报告序列化失败、死锁、忙等待。
	ErrStaleWrite = errors.New("stale write")

	// ErrConstraint 表示写入违反了表结构约束（外键、非空、唯一、检查）。
	ErrConstraint = errors.New("constraint violation")
)

// classify 给驱动错误打上存储层错误标记，原始信息保留。
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isConstraintViolation(err):
		return errors.Mark(err, ErrConstraint)
	case isConcurrencyFailure(err):
		return errors.Mark(err, ErrStaleWrite)
	}
	return err
}

func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsIntegrityConstraintViolation(pgErr.Code)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

func isConcurrencyFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}
