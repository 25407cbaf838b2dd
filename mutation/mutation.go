// Package mutation runs remote writes against the shared list cache. An
// optimistic mutation patches every cached page under its prefix before the
// call is sent and restores the snapshot if the call fails.
package mutation

import (
	"context"

	"vpsweb/cache"
	"vpsweb/model"
	"vpsweb/pkg/logger"
	"vpsweb/pkg/metrics"
)

type State int

const (
	Idle State = iota
	Pending
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

// Describer 把调用失败转换为给用户看的原因
type Describer func(err error) string

type Mutation[V, In any] struct {
	Store  *cache.Store[V]
	Prefix string
	Call   func(ctx context.Context, in In) error
	// Patch 为 nil 时不做乐观更新，成功后只失效缓存
	Patch    func(V, In) V
	Success  string
	Failure  string
	Describe Describer
	Notify   func(model.Notification)
}

type Result struct {
	State        State
	Err          error
	Notification model.Notification
	// Discarded 表示调用方在结果返回前已离开，通知没有发出
	Discarded bool
}

func (r Result) OK() bool { return r.State == Committed }

// Run 执行一次变更。远端调用不随 ctx 取消；ctx 结束后到达的结果仍会修正缓存，但通知被丢弃。
func (m *Mutation[V, In]) Run(ctx context.Context, in In) Result {
	res := Result{State: Idle}

	var snap cache.Snapshot[V]
	optimistic := m.Patch != nil
	if optimistic {
		snap = m.Store.Optimistic(m.Prefix, func(v V) V { return m.Patch(v, in) })
	}
	res.State = Pending

	err := m.Call(context.WithoutCancel(ctx), in)
	if err != nil {
		if optimistic {
			m.Store.Restore(snap)
		}
		m.Store.Invalidate(m.Prefix)
		res.State = RolledBack
		res.Err = err
		res.Notification = model.Notification{
			Level:       model.NotifyError,
			Title:       m.Failure,
			Description: m.describe(err),
		}
		metrics.Mutations.WithLabelValues(m.Prefix, "rolled_back").Inc()
		logger.Logger.Warnf("%s: %v", m.Failure, err)
	} else {
		m.Store.Invalidate(m.Prefix)
		res.State = Committed
		res.Notification = model.Notification{Level: model.NotifySuccess, Title: m.Success}
		metrics.Mutations.WithLabelValues(m.Prefix, "committed").Inc()
	}

	if ctx.Err() != nil {
		res.Discarded = true
		return res
	}
	if m.Notify != nil {
		m.Notify(res.Notification)
	}
	return res
}

func (m *Mutation[V, In]) describe(err error) string {
	if m.Describe != nil {
		return m.Describe(err)
	}
	return err.Error()
}
