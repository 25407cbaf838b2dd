package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"vpsweb/apiclient"
	"vpsweb/model"
)

const (
	ScopeMe  = "me"
	ScopeAll = "all"
)

// Dashboard 普通用户只能查看自己的统计
func (s *Service) Dashboard(ctx context.Context, sess apiclient.Session, scope string) (Dashboard, error) {
	if scope != ScopeAll || !sess.User.IsAdmin() {
		scope = ScopeMe
	}
	d := Dashboard{Scope: scope}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.remote.DashboardStats(ctx, sess, scope)
		d.Stats = stats
		return err
	})
	g.Go(func() error {
		pending, err := s.remote.PendingVideos(ctx, sess)
		d.Pending = pending
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

func (s *Service) PendingVideos(ctx context.Context, sess apiclient.Session) ([]model.PendingGroup, error) {
	return s.remote.PendingVideos(ctx, sess)
}
