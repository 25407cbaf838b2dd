package service

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"vpsweb/apiclient"
	"vpsweb/model"
	"vpsweb/mutation"
	"vpsweb/querystate"
)

func (s *Service) ListUsers(ctx context.Context, sess apiclient.Session, q querystate.AdminUsers) (UserList, error) {
	remote := q.RemoteQuery()
	page, err := s.users.Fetch(ctx, scopedKey(PrefixAdminUsers, sess, remote), func(ctx context.Context) (model.Page[model.User], error) {
		return s.remote.ListUsers(ctx, sess, remote)
	})
	if err != nil {
		return UserList{}, err
	}
	return UserList{
		Items:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages(),
	}, nil
}

func validUserID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return invalid("用户 id 不合法")
	}
	return nil
}

// SetRole 乐观更新所有已缓存的用户列表页，失败时回滚
func (s *Service) SetRole(ctx context.Context, sess apiclient.Session, in mutation.RoleChange) (mutation.Result, error) {
	if err := validUserID(in.UserID); err != nil {
		return mutation.Result{}, err
	}
	if in.Role != model.RoleAdmin && in.Role != model.RoleUser {
		return mutation.Result{}, invalid("角色只能是 admin 或 user")
	}
	m := &mutation.Mutation[model.Page[model.User], mutation.RoleChange]{
		Store:  s.users,
		Prefix: PrefixAdminUsers,
		Call: func(ctx context.Context, in mutation.RoleChange) error {
			return s.remote.SetRole(ctx, sess, in.UserID, in.Role)
		},
		Patch:    mutation.SetRolePatch,
		Success:  "角色已更新",
		Failure:  "设置角色失败",
		Describe: func(err error) string { return reason(err, "设置角色失败") },
	}
	res := m.Run(ctx, in)
	s.record(ctx, sess, "user.set_role", in.UserID+":"+in.Role, res)
	return res, nil
}

func (s *Service) CreateUser(ctx context.Context, sess apiclient.Session, in model.NewUser) (mutation.Result, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return mutation.Result{}, "", invalid("用户名不能为空")
	}
	if len(in.Password) < 6 {
		return mutation.Result{}, "", invalid("密码至少 6 位")
	}
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if !slices.Contains([]string{model.RoleAdmin, model.RoleUser}, in.Role) {
		return mutation.Result{}, "", invalid("角色只能是 admin 或 user")
	}

	var created string
	m := &mutation.Mutation[model.Page[model.User], model.NewUser]{
		Store:  s.users,
		Prefix: PrefixAdminUsers,
		Call: func(ctx context.Context, in model.NewUser) error {
			id, err := s.remote.CreateUser(ctx, sess, in)
			created = id
			return err
		},
		Success:  "用户已创建",
		Failure:  "创建用户失败",
		Describe: func(err error) string { return reason(err, "创建用户失败") },
	}
	res := m.Run(ctx, in)
	if res.OK() {
		// 上传者列表包含所有用户名
		s.uploaders.Invalidate(PrefixUploaders)
	}
	s.record(ctx, sess, "user.create", in.Username, res)
	return res, created, nil
}

func (s *Service) DeleteUser(ctx context.Context, sess apiclient.Session, userID string) (mutation.Result, error) {
	if err := validUserID(userID); err != nil {
		return mutation.Result{}, err
	}
	if userID == sess.User.ID {
		return mutation.Result{}, invalid("不能删除当前登录用户")
	}
	m := &mutation.Mutation[model.Page[model.User], string]{
		Store:  s.users,
		Prefix: PrefixAdminUsers,
		Call: func(ctx context.Context, id string) error {
			return s.remote.DeleteUser(ctx, sess, id)
		},
		Success:  "用户已删除",
		Failure:  "删除用户失败",
		Describe: func(err error) string { return reason(err, "删除用户失败") },
	}
	res := m.Run(ctx, userID)
	if res.OK() {
		// 远端级联删除了该用户的视频
		s.videos.Invalidate(PrefixVideos)
		s.uploaders.Invalidate(PrefixUploaders)
	}
	s.record(ctx, sess, "user.delete", userID, res)
	return res, nil
}
