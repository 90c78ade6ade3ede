package todo

import "github.com/guregu/null/v5"

// TodoList 拥有它的 Items；删除清单时数据库级联删除其条目。
type TodoList struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Items []*TodoItem `json:"items"`
}

func (l *TodoList) GetID() int64   { return l.ID }
func (l *TodoList) SetID(id int64) { l.ID = id }

// TodoItem 的 TodoList 只有在预加载时才会填充。
type TodoItem struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	IsCompleted bool        `json:"isCompleted"`
	DueDate     null.Time   `json:"dueDate"`
	TodoListID  int64       `json:"todoListId"`
	TodoList    *TodoList   `json:"todoList"`
}

func (i *TodoItem) GetID() int64   { return i.ID }
func (i *TodoItem) SetID(id int64) { i.ID = id }
