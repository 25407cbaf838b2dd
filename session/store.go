// Package session 保存控制台侧的登录会话，按 token 索引
package session

import (
	"sync"

	"vpsweb/apiclient"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]apiclient.Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]apiclient.Session)}
}

func (s *Store) Put(sess apiclient.Session) {
	if !sess.Valid() {
		return
	}
	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()
}

func (s *Store) Get(token string) (apiclient.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	return sess, ok
}

// Delete 登出或远端返回 401 时调用
func (s *Store) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// UpdateUser 资料变更后刷新同一用户的所有会话
func (s *Store) UpdateUser(sess apiclient.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, cur := range s.sessions {
		if cur.User.ID == sess.User.ID {
			cur.User = sess.User
			s.sessions[token] = cur
		}
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
