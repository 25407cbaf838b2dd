package model

// Envelope 远端接口统一返回结构，code >= 300 表示业务失败
type Envelope[T any] struct {
	Code   int    `json:"code"`
	ErrMsg string `json:"err_msg,omitempty"`
	Data   T      `json:"data"`
}

func (e Envelope[T]) Failed() bool { return e.Code >= 300 }

type NotifyLevel string

const (
	NotifySuccess NotifyLevel = "success"
	NotifyError   NotifyLevel = "error"
)

// Notification 对应前端的 toast
type Notification struct {
	Level       NotifyLevel `json:"level"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
}
