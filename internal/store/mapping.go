package store

import "context"

// Record 是所有实体必须具备的能力：拥有唯一整数主键。
type Record interface {
	GetID() int64
	SetID(id int64)
}

// Scanner 由 *sql.Row 与 *sql.Rows 实现。
type Scanner interface {
	Scan(dest ...any) error
}

// Mapping 描述实体与表之间的对应关系。Columns 不包含主键列 id，
// 主键由数据库分配。
type Mapping[E Record] struct {
	Table   string
	Columns []string

	// New 返回一个可供解码或扫描的空实体。
	New func() E
	// Values 按 Columns 的顺序返回写入值。
	Values func(e E) []any
	// Targets 按 id + Columns 的顺序返回扫描目标。
	Targets func(e E) []any
	// OnInsert 在同一事务内插入实体拥有的关联数据，可以为 nil。
	OnInsert func(ctx context.Context, tx *Tx, e E) error
}

func (m *Mapping[E]) selectColumns() []string {
	return append([]string{"id"}, m.Columns...)
}

func (m *Mapping[E]) scan(row Scanner) (E, error) {
	e := m.New()
	if err := row.Scan(m.Targets(e)...); err != nil {
		var zero E
		return zero, err
	}
	return e, nil
}
