package todo

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"todo_api/internal/crud"
	"todo_api/internal/logging"
	"todo_api/internal/stats"
	"todo_api/internal/store"
)

var errBlankName = errors.Mark(errors.New("name query parameter is required"), crud.ErrBadRequest)

type Handler struct {
	db      *store.DB
	lists   *crud.Handler[*TodoList]
	items   *crud.Handler[*TodoItem]
	stats   *stats.Handler
	logger  *slog.Logger
	timeout time.Duration
}

func NewHandler(db *store.DB, logger *slog.Logger, timeout time.Duration) *Handler {
	return &Handler{
		db: db,
		lists: crud.New(db, Lists,
			crud.WithInclude[*TodoList](includeItems),
			crud.WithLogger[*TodoList](logger),
		),
		items: crud.New(db, Items,
			crud.WithInclude[*TodoItem](includeTodoList),
			crud.WithLogger[*TodoItem](logger),
		),
		stats:   stats.NewHandler(stats.NewStore(db), logger),
		logger:  logger,
		timeout: timeout,
	}
}

func (h *Handler) Routes() http.Handler {
	// 注册路由与中间件
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	if h.timeout > 0 {
		r.Use(middleware.Timeout(h.timeout))
	}

	r.Get("/health", h.handleHealth)
	r.Get("/stats", h.stats.HandleSummary)

	r.Route("/todolists", func(r chi.Router) {
		h.lists.Mount(r, "/todolists")
	})

	r.Route("/todoitems", func(r chi.Router) {
		r.Get("/search", h.handleSearchByName)
		r.Get("/by-todolist", h.handleByTodoList)
		h.items.Mount(r, "/todoitems")
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	// 健康检查
	crud.WriteJSON(h.logger, w, http.StatusOK, map[string]string{"status": "ok"})
}

// SearchByName 按标题做大小写不敏感的子串搜索，name 为空或全是空白时返回 400。
func (h *Handler) SearchByName(ctx context.Context, name string) ([]*TodoItem, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errBlankName
	}
	return h.items.Query(h.db.Session()).Where(titleContains(name)).List(ctx)
}

// ByTodoList 返回某个清单下的所有条目，不检查清单是否存在。
func (h *Handler) ByTodoList(ctx context.Context, todoListID int64) ([]*TodoItem, error) {
	return h.items.Query(h.db.Session()).Where("todo_list_id = ?", todoListID).List(ctx)
}

func (h *Handler) handleSearchByName(w http.ResponseWriter, r *http.Request) {
	// 标题搜索
	items, err := h.SearchByName(r.Context(), r.URL.Query().Get("name"))
	if crud.PresentError(h.logger, w, r, err) {
		return
	}
	crud.WriteJSON(h.logger, w, http.StatusOK, items)
}

func (h *Handler) handleByTodoList(w http.ResponseWriter, r *http.Request) {
	// 按清单过滤
	id, err := parseTodoListID(r.URL.Query().Get("todoListId"))
	if crud.PresentError(h.logger, w, r, err) {
		return
	}
	items, err := h.ByTodoList(r.Context(), id)
	if crud.PresentError(h.logger, w, r, err) {
		return
	}
	crud.WriteJSON(h.logger, w, http.StatusOK, items)
}

// parseTodoListID 缺省时按 0 处理（结果为空），非整数返回 400。
func parseTodoListID(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Mark(errors.New("todoListId query parameter must be an integer"), crud.ErrBadRequest)
	}
	return id, nil
}
