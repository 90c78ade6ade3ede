package crud

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// DecodeJSON 限制请求体大小并严格解析单个 JSON 对象。
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Mark(err, ErrBadRequest)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.Mark(errors.New("body must contain a single JSON object"), ErrBadRequest)
	}
	return nil
}

func WriteJSON(logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("json encode error", slog.Any("error", err))
	}
}

func WriteError(logger *slog.Logger, w http.ResponseWriter, status int, message string) {
	WriteJSON(logger, w, status, map[string]string{"error": message})
}

// PresentError 把错误分类渲染为响应，err 为 nil 时返回 false。
func PresentError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, ErrBadRequest):
		WriteError(logger, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConflict):
		WriteError(logger, w, http.StatusConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), "unexpected error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		WriteError(logger, w, http.StatusInternalServerError, "internal server error")
	}
	return true
}

// IDParam 解析并校验路径参数 {id}。
func IDParam(r *http.Request) (int64, error) {
	return ParseID(chi.URLParam(r, "id"))
}

// ParseID 解析整数主键；0 与负数照常查询，不存在时由调用方返回 404。
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidID
	}
	return id, nil
}
