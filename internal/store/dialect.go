package store

import (
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DialectForDriver 将 database/sql 驱动名映射到 SQL 方言。
func DialectForDriver(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", errors.Newf("unsupported database driver %q", driver)
}

// DriverName 返回 sql.Open 使用的驱动名。
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Dialect) placeholder() squirrel.PlaceholderFormat {
	if d == Postgres {
		return squirrel.Dollar
	}
	return squirrel.Question
}
