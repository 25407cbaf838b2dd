package service

import (
	"context"
	"strings"

	"vpsweb/apiclient"
	"vpsweb/model"
)

func (s *Service) Login(ctx context.Context, username, password string) (apiclient.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return apiclient.Session{}, invalid("用户名和密码不能为空")
	}
	sess, err := s.remote.Login(ctx, apiclient.LoginRequest{Username: username, Password: password})
	if err != nil {
		return apiclient.Session{}, err
	}
	s.sessions.Put(sess)
	return sess, nil
}

func (s *Service) Logout(token string) {
	s.sessions.Delete(token)
}

// Session 查找已登录的会话
func (s *Service) Session(token string) (apiclient.Session, error) {
	if token == "" {
		return apiclient.Session{}, ErrUnauthorized
	}
	sess, ok := s.sessions.Get(token)
	if !ok {
		return apiclient.Session{}, ErrUnauthorized
	}
	return sess, nil
}

// Expire 远端拒绝会话时调用
func (s *Service) Expire(sess apiclient.Session) {
	s.sessions.Delete(sess.Token)
}

func (s *Service) Profile(ctx context.Context, sess apiclient.Session) (model.User, error) {
	u, err := s.remote.Profile(ctx, sess)
	if err != nil {
		return model.User{}, err
	}
	sess.User = u
	s.sessions.UpdateUser(sess)
	return u, nil
}

func (s *Service) UpdatePassword(ctx context.Context, sess apiclient.Session, in apiclient.PasswordChange) (model.User, error) {
	if in.OldPassword == "" {
		return model.User{}, invalid("请输入原密码")
	}
	if len(in.NewPassword) < 6 {
		return model.User{}, invalid("新密码至少 6 位")
	}
	if in.NewPassword == in.OldPassword {
		return model.User{}, invalid("新密码不能与原密码相同")
	}
	return s.remote.UpdatePassword(ctx, sess, in)
}
