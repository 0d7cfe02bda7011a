// Package apperr 定义内核统一的错误分类。
// 校验/解码错误在任何副作用之前返回；存储错误中止当前调用但不做补偿。
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota + 1 // 调用方参数违约
	KindDecode                     // 图片内容损坏或格式不支持
	KindStorage                    // 存储后端 I/O、凭证、超时
	KindNotFound                   // 操作不存在的记录
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDecode:
		return "decode"
	case KindStorage:
		return "storage"
	case KindNotFound:
		return "not_found"
	}
	return "unknown"
}

// Error 带分类的错误，内部错误通过 Unwrap 保留
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Decodef(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDecode, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// IsKind 判断错误链中是否存在指定分类的错误
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func IsValidation(err error) bool { return IsKind(err, KindValidation) }
func IsDecode(err error) bool     { return IsKind(err, KindDecode) }
func IsStorage(err error) bool    { return IsKind(err, KindStorage) }
func IsNotFound(err error) bool   { return IsKind(err, KindNotFound) }
