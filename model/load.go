package model

import "github.com/goccy/go-json"

type LoadState int

const (
	Loading LoadState = iota
	Failed
	Ready
)

func (s LoadState) String() string {
	switch s {
	case Failed:
		return "failed"
	case Ready:
		return "ready"
	default:
		return "loading"
	}
}

// Load 是一次远端读取的结果：加载中、失败（可重试）或成功
type Load[T any] struct {
	State     LoadState
	Value     T
	Reason    string
	Retryable bool
}

func Pending[T any]() Load[T] { return Load[T]{State: Loading} }

func Loaded[T any](v T) Load[T] { return Load[T]{State: Ready, Value: v} }

func LoadFailed[T any](reason string) Load[T] {
	return Load[T]{State: Failed, Reason: reason, Retryable: true}
}

func (l Load[T]) Get() (T, bool) {
	return l.Value, l.State == Ready
}

func (l Load[T]) MarshalJSON() ([]byte, error) {
	out := map[string]any{"state": l.State.String()}
	switch l.State {
	case Ready:
		out["data"] = l.Value
	case Failed:
		out["reason"] = l.Reason
		out["retryable"] = l.Retryable
	}
	return json.Marshal(out)
}
