package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"

	"todo_api/internal/store"
)

//go:embed schema/*.sql
var schemaFS embed.FS

func init() {
	// SQLite 内置的 lower 只处理 ASCII，替换为按 Unicode 规则折叠，与 Postgres 一致
	if err := sqlite.RegisterDeterministicScalarFunction("lower", 1, unicodeLower); err != nil {
		panic(err)
	}
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	}
	return args[0], nil
}

// Open 按驱动名初始化数据库连接池并做连通性检查。
func Open(driver, dsn string, logger *slog.Logger) (*sql.DB, store.Dialect, error) {
	dialect, err := store.DialectForDriver(driver)
	if err != nil {
		return nil, "", err
	}
	if dialect == store.SQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, "", errors.Wrap(err, "open database")
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	// 启动阶段快速失败
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", errors.Wrap(err, "ping database")
	}

	logger.Info("database connected", slog.String("dialect", string(dialect)))
	return db, dialect, nil
}

// EnsureSchema 以 CREATE TABLE IF NOT EXISTS 的方式建表，可重复执行。
func EnsureSchema(ctx context.Context, db *sql.DB, dialect store.Dialect) error {
	ddl, err := schemaFS.ReadFile("schema/" + string(dialect) + ".sql")
	if err != nil {
		return errors.Wrapf(err, "no schema for dialect %s", dialect)
	}
	if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}

// sqliteDSN 保证每个连接都开启外键约束，级联删除依赖它。
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}
