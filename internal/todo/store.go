package todo

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"

	"todo_api/internal/store"
)

var Items = &store.Mapping[*TodoItem]{
	Table:   "todo_items",
	Columns: []string{"title", "description", "is_completed", "due_date", "todo_list_id"},
	New:     func() *TodoItem { return &TodoItem{} },
	Values: func(i *TodoItem) []any {
		return []any{i.Title, i.Description, i.IsCompleted, i.DueDate, i.TodoListID}
	},
	Targets: func(i *TodoItem) []any {
		return []any{&i.ID, &i.Title, &i.Description, &i.IsCompleted, &i.DueDate, &i.TodoListID}
	},
	// 请求体中的 todoList 不会写库，也不回显
	OnInsert: func(_ context.Context, _ *store.Tx, i *TodoItem) error {
		i.TodoList = nil
		return nil
	},
}

var Lists = &store.Mapping[*TodoList]{
	Table:   "todo_lists",
	Columns: []string{"name"},
	New:     func() *TodoList { return &TodoList{} },
	Values: func(l *TodoList) []any {
		return []any{l.Name}
	},
	Targets: func(l *TodoList) []any {
		return []any{&l.ID, &l.Name}
	},
	OnInsert: insertListItems,
}

func insertListItems(ctx context.Context, tx *store.Tx, l *TodoList) error {
	// 新建清单时一并插入请求体中的条目
	if l.Items == nil {
		l.Items = []*TodoItem{}
	}
	for _, item := range l.Items {
		item.TodoListID = l.ID
		if err := store.Insert(ctx, tx, Items, item); err != nil {
			return err
		}
	}
	return nil
}

func includeItems(q *store.Query[*TodoList]) *store.Query[*TodoList] {
	return q.Include(loadItems)
}

func loadItems(ctx context.Context, db *store.DB, lists []*TodoList) error {
	// 一次查询取回所有清单的条目，再按清单分组
	ids := make([]int64, 0, len(lists))
	for _, l := range lists {
		ids = append(ids, l.ID)
	}
	items, err := store.From(db, Items).Where(squirrel.Eq{"todo_list_id": ids}).List(ctx)
	if err != nil {
		return err
	}

	byList := make(map[int64][]*TodoItem, len(lists))
	for _, item := range items {
		byList[item.TodoListID] = append(byList[item.TodoListID], item)
	}
	for _, l := range lists {
		l.Items = byList[l.ID]
		if l.Items == nil {
			l.Items = []*TodoItem{}
		}
	}
	return nil
}

func includeTodoList(q *store.Query[*TodoItem]) *store.Query[*TodoItem] {
	return q.Include(loadTodoLists)
}

func loadTodoLists(ctx context.Context, db *store.DB, items []*TodoItem) error {
	// 为每个条目挂上所属清单（不含清单的 Items，避免循环引用）
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if !seen[item.TodoListID] {
			seen[item.TodoListID] = true
			ids = append(ids, item.TodoListID)
		}
	}
	lists, err := store.From(db, Lists).Where(squirrel.Eq{"id": ids}).List(ctx)
	if err != nil {
		return err
	}

	byID := make(map[int64]*TodoList, len(lists))
	for _, l := range lists {
		byID[l.ID] = l
	}
	for _, item := range items {
		item.TodoList = byID[item.TodoListID]
	}
	return nil
}

// titleContains 生成大小写不敏感、不锚定的子串匹配条件，% 与 _ 按字面匹配。
// 两侧都由数据库的 LOWER 折叠大小写，保证规则一致。
func titleContains(name string) squirrel.Sqlizer {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(name)
	return squirrel.Expr(`LOWER(title) LIKE LOWER(?) ESCAPE '\'`, "%"+escaped+"%")
}
