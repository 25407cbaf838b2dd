package apiclient

import (
	"errors"
	"fmt"
)

// TransportError 请求未完成或响应无法解析
type TransportError struct {
	Path   string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AppError 远端返回了 code >= 300 的信封
type AppError struct {
	Path   string
	Code   int
	ErrMsg string
}

func (e *AppError) Error() string {
	if e.ErrMsg != "" {
		return fmt.Sprintf("%s: code %d: %s", e.Path, e.Code, e.ErrMsg)
	}
	return fmt.Sprintf("%s: code %d", e.Path, e.Code)
}

func IsUnauthorized(err error) bool {
	var ae *AppError
	return errors.As(err, &ae) && (ae.Code == 401 || ae.Code == 403)
}

// Describe 统一两类失败为一条提示：业务失败优先使用 err_msg
func Describe(err error, transportMsg, appFallback string) string {
	var ae *AppError
	if errors.As(err, &ae) {
		if ae.ErrMsg != "" {
			return ae.ErrMsg
		}
		return appFallback
	}
	return transportMsg
}
