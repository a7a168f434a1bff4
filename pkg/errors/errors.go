package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeValidation   = 422
	CodeServerError  = 500
)

// ========== 领域错误 ==========

var (
	// ErrNotFound 记录不存在（包括不在当前机构范围内的记录）
	ErrNotFound = stderrors.New("记录不存在")
	// ErrUnauthorized 未登录
	ErrUnauthorized = stderrors.New("请先登录")
	// ErrForbidden 无权执行该操作
	ErrForbidden = stderrors.New("权限不足")
	// ErrValidation 参数校验失败
	ErrValidation = stderrors.New("参数校验失败")
)

// ValidationError 字段级校验错误
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError 创建单字段校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "参数校验失败: " + strings.Join(parts, "; ")
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Is 转发标准库 errors.Is
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As 转发标准库 errors.As
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
