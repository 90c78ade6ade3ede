package crud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"

	"todo_api/internal/store"
)

// Shape 是预加载钩子：只决定查询时附带哪些关联数据，不影响写入。
// 必须幂等且无副作用。
type Shape[E store.Record] func(q *store.Query[E]) *store.Query[E]

// Handler 为任意实现了 store.Record 的实体提供统一的 list/get/create/update/delete 语义。
type Handler[E store.Record] struct {
	db      *store.DB
	mapping *store.Mapping[E]
	include Shape[E]
	logger  *slog.Logger
}

type Option[E store.Record] func(*Handler[E])

// WithInclude 设置预加载钩子，默认不附带关联数据。
func WithInclude[E store.Record](shape Shape[E]) Option[E] {
	return func(h *Handler[E]) {
		h.include = shape
	}
}

func WithLogger[E store.Record](logger *slog.Logger) Option[E] {
	return func(h *Handler[E]) {
		h.logger = logger
	}
}

func New[E store.Record](db *store.DB, mapping *store.Mapping[E], opts ...Option[E]) *Handler[E] {
	h := &Handler[E]{
		db:      db,
		mapping: mapping,
		include: func(q *store.Query[E]) *store.Query[E] { return q },
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Query 返回经过预加载钩子处理的基础查询，供实体专属的查询复用。
func (h *Handler[E]) Query(s *store.Session) *store.Query[E] {
	return h.include(store.Bind(s, h.mapping).Query())
}

func (h *Handler[E]) List(ctx context.Context) ([]E, error) {
	return h.Query(h.db.Session()).List(ctx)
}

func (h *Handler[E]) Get(ctx context.Context, id int64) (E, error) {
	e, err := h.Query(h.db.Session()).Where(squirrel.Eq{"id": id}).First(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return e, errors.Mark(err, ErrNotFound)
	}
	return e, err
}

// Create 插入新记录，调用方提供的主键被忽略，由数据库分配。
func (h *Handler[E]) Create(ctx context.Context, e E) (E, error) {
	s := h.db.Session()
	store.Bind(s, h.mapping).Add(e)
	if err := s.Commit(ctx); err != nil {
		return e, h.writeError(err)
	}
	return e, nil
}

// Update 整条替换记录。提交时出现并发冲突则重新确认记录是否存在：
// 不存在返回 ErrNotFound，仍存在返回 ErrConflict。
func (h *Handler[E]) Update(ctx context.Context, id int64, e E) error {
	if id != e.GetID() {
		return ErrIDMismatch
	}

	s := h.db.Session()
	set := store.Bind(s, h.mapping)
	set.MarkModified(e)
	err := s.Commit(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrStaleWrite) {
		return h.writeError(err)
	}

	exists, existsErr := set.Exists(ctx, id)
	if existsErr != nil {
		return errors.Wrap(existsErr, "re-check after stale write")
	}
	if !exists {
		return errors.Mark(err, ErrNotFound)
	}
	return errors.Mark(errors.WithSecondaryError(
		errors.Newf("%s %d was modified concurrently", h.mapping.Table, id), err), ErrConflict)
}

// Delete 先查询再删除；删除期间记录被并发删除时同样返回 ErrNotFound。
func (h *Handler[E]) Delete(ctx context.Context, id int64) error {
	s := h.db.Session()
	set := store.Bind(s, h.mapping)
	e, err := set.Find(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errors.Mark(err, ErrNotFound)
		}
		return err
	}

	set.Remove(e)
	if err := s.Commit(ctx); err != nil {
		if errors.Is(err, store.ErrStaleWrite) {
			return errors.Mark(err, ErrNotFound)
		}
		return h.writeError(err)
	}
	return nil
}

func (h *Handler[E]) writeError(err error) error {
	if errors.Is(err, store.ErrConstraint) {
		return badRequest(err, fmt.Sprintf("%s violates a schema constraint", h.mapping.Table))
	}
	return err
}

// Mount 在 r 上注册五个标准路由，base 用于生成 Location 头。
func (h *Handler[E]) Mount(r chi.Router, base string) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate(base))
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

func (h *Handler[E]) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.List(r.Context())
	if PresentError(h.logger, w, r, err) {
		return
	}
	WriteJSON(h.logger, w, http.StatusOK, items)
}

func (h *Handler[E]) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := IDParam(r)
	if PresentError(h.logger, w, r, err) {
		return
	}
	e, err := h.Get(r.Context(), id)
	if PresentError(h.logger, w, r, err) {
		return
	}
	WriteJSON(h.logger, w, http.StatusOK, e)
}

func (h *Handler[E]) handleCreate(base string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e := h.mapping.New()
		if PresentError(h.logger, w, r, DecodeJSON(w, r, e)) {
			return
		}
		e, err := h.Create(r.Context(), e)
		if PresentError(h.logger, w, r, err) {
			return
		}
		w.Header().Set("Location", path.Join(base, fmt.Sprint(e.GetID())))
		WriteJSON(h.logger, w, http.StatusCreated, e)
	}
}

func (h *Handler[E]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := IDParam(r)
	if PresentError(h.logger, w, r, err) {
		return
	}
	e := h.mapping.New()
	if PresentError(h.logger, w, r, DecodeJSON(w, r, e)) {
		return
	}
	if PresentError(h.logger, w, r, h.Update(r.Context(), id, e)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler[E]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := IDParam(r)
	if PresentError(h.logger, w, r, err) {
		return
	}
	if PresentError(h.logger, w, r, h.Delete(r.Context(), id)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
