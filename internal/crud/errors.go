package crud

import "github.com/cockroachdb/errors"

// 基础错误，分别对应 HTTP 状态码
var (
	// ErrNotFound 渲染为 404，响应体为空
	ErrNotFound = errors.New("not found")

	// ErrBadRequest 渲染为 400
	ErrBadRequest = errors.New("bad request")

	// ErrConflict 渲染为 409：提交时发生并发冲突且记录仍然存在，不做自动重试或合并
	ErrConflict = errors.New("conflict")
)

var (
	ErrIDMismatch = errors.Mark(errors.New("id in path does not match id in body"), ErrBadRequest)
	ErrInvalidID  = errors.Mark(errors.New("invalid id"), ErrBadRequest)
)

// badRequest 把 err 标记为 ErrBadRequest，对外只展示 msg。
func badRequest(err error, msg string) error {
	return errors.Mark(errors.WithSecondaryError(errors.New(msg), err), ErrBadRequest)
}
