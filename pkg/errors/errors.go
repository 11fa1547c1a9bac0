package errors

import (
	"errors"
	"fmt"

	"gridflow/pkg/errors/ecode"
)

// 带错误码的错误。响应层通过 DecodeErr 还原出错误码和提示信息
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code int, message string) error {
	return &Error{Code: code, Message: message}
}

func Newf(code int, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap 在已有错误上附加错误码和说明。err 为 nil 时返回 nil
func Wrap(err error, code int, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

func Wrapf(err error, code int, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// DecodeErr 解出错误码和提示信息，用于统一响应
func DecodeErr(err error) (int, string) {
	if err == nil {
		return ecode.Success, ecode.Message(ecode.Success)
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code, e.Error()
	}
	return ecode.InternalErr, err.Error()
}

// IsCode 判断错误链上是否存在指定错误码，调用方据此决定重试策略
func IsCode(err error, code int) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Code == code {
			return true
		}
		err = e.Err
		if err == nil {
			return false
		}
		e = nil
	}
	return false
}
