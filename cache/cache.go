// Package cache holds list pages fetched from the remote API, grouped by key
// prefix. Entries are replaced whole, never modified in place.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"vpsweb/pkg/metrics"
)

type Key struct {
	Prefix string
	Query  string
}

func (k Key) String() string {
	return k.Prefix + "?" + k.Query
}

type entry[V any] struct {
	value     V
	fetchedAt time.Time
	stale     bool
}

type flight struct {
	cancel   context.CancelFunc
	canceled bool
}

type Store[V any] struct {
	mu        sync.RWMutex
	entries   map[Key]entry[V]
	gens      map[string]uint64
	inflight  map[Key]*flight
	group     singleflight.Group
	staleTime time.Duration
	now       func() time.Time
}

func New[V any](staleTime time.Duration) *Store[V] {
	return &Store[V]{
		entries:   make(map[Key]entry[V]),
		gens:      make(map[string]uint64),
		inflight:  make(map[Key]*flight),
		staleTime: staleTime,
		now:       time.Now,
	}
}

func (s *Store[V]) Get(key Key) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e.value, ok
}

func (s *Store[V]) Set(key Key, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry[V]{value: v, fetchedAt: s.now()}
}

func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store[V]) Keys(prefix string) []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []Key
	for k := range s.entries {
		if k.Prefix == prefix {
			keys = append(keys, k)
		}
	}
	return keys
}

// Fetch 返回未过期的缓存，否则调用 fn。同一 key 的并发请求只会发出一次。
// fn 收到的 context 不随调用方取消，只会被 Optimistic 取消。
func (s *Store[V]) Fetch(ctx context.Context, key Key, fn func(context.Context) (V, error)) (V, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	fresh := ok && !e.stale && s.now().Sub(e.fetchedAt) < s.staleTime
	s.mu.RUnlock()

	if fresh {
		metrics.CacheLookups.WithLabelValues(key.Prefix, "hit").Inc()
		return e.value, nil
	}
	metrics.CacheLookups.WithLabelValues(key.Prefix, "miss").Inc()

	base := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key.String(), func() (any, error) {
		return s.run(base, key, fn)
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		v, _ := r.Val.(V)
		return v, nil
	}
}

func (s *Store[V]) run(base context.Context, key Key, fn func(context.Context) (V, error)) (V, error) {
	fctx, cancel := context.WithCancel(base)
	defer cancel()

	f := &flight{cancel: cancel}
	s.mu.Lock()
	gen := s.gens[key.Prefix]
	s.inflight[key] = f
	s.mu.Unlock()

	v, err := fn(fctx)

	s.mu.Lock()
	if s.inflight[key] == f {
		delete(s.inflight, key)
	}

	// 请求期间该前缀被乐观更新或失效，结果不再写入缓存
	if s.gens[key.Prefix] != gen {
		cur, ok := s.entries[key]
		canceled := f.canceled
		s.mu.Unlock()
		if !canceled {
			return v, err
		}
		if ok {
			return cur.value, nil
		}
		// 被取消的 key 还没有缓存，重新请求一次
		return s.run(base, key, fn)
	}
	defer s.mu.Unlock()
	if err != nil {
		return v, err
	}
	s.entries[key] = entry[V]{value: v, fetchedAt: s.now()}
	return v, nil
}

// Snapshot 是乐观更新前某个前缀下的全部缓存
type Snapshot[V any] struct {
	prefix  string
	entries map[Key]entry[V]
}

func (sn Snapshot[V]) Prefix() string { return sn.prefix }

func (sn Snapshot[V]) Values() map[Key]V {
	out := make(map[Key]V, len(sn.entries))
	for k, e := range sn.entries {
		out[k] = e.value
	}
	return out
}

// Optimistic 在同一临界区内依次：取消前缀下进行中的请求、保存快照、用 patch 替换每个缓存值
func (s *Store[V]) Optimistic(prefix string, patch func(V) V) Snapshot[V] {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, f := range s.inflight {
		if k.Prefix == prefix {
			f.canceled = true
			f.cancel()
		}
	}
	s.gens[prefix]++

	snap := Snapshot[V]{prefix: prefix, entries: make(map[Key]entry[V])}
	for k, e := range s.entries {
		if k.Prefix != prefix {
			continue
		}
		snap.entries[k] = e
		next := e
		next.value = patch(e.value)
		s.entries[k] = next
	}
	return snap
}

// Restore 把快照中的值原样写回
func (s *Store[V]) Restore(snap Snapshot[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range snap.entries {
		s.entries[k] = e
	}
}

// Invalidate 标记前缀下的缓存为过期，下次读取会重新请求
func (s *Store[V]) Invalidate(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[prefix]++
	for k, e := range s.entries {
		if k.Prefix == prefix {
			e.stale = true
			s.entries[k] = e
		}
	}
}
