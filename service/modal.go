package service

import (
	"context"
	"fmt"
	"slices"

	"vpsweb/apiclient"
	"vpsweb/model"
	"vpsweb/querystate"
)

// OpenModal 解析弹窗需要的数据，新增 model.Modal 类型时必须在这里处理
func (s *Service) OpenModal(ctx context.Context, sess apiclient.Session, m model.Modal) (ModalView, error) {
	view := ModalView{Kind: m.ModalKind()}
	switch m := m.(type) {
	case model.VideoPlayModal:
		if m.VideoID == "" {
			return ModalView{}, invalid("缺少视频 id")
		}
		v, err := s.remote.VideoDetail(ctx, sess, m.VideoID)
		if err != nil {
			return ModalView{}, err
		}
		view.Title = v.Title
		view.Data = v.Present()
	case model.VideoSelectModal:
		q := querystate.DefaultVideoSearch()
		q.PageSize = 100
		list, err := s.ListVideos(ctx, sess, q)
		if err != nil {
			return ModalView{}, err
		}
		items := make([]SelectableVideo, len(list.Items))
		for i, v := range list.Items {
			items[i] = SelectableVideo{
				VideoView:  v,
				Selectable: v.Status == model.VideoCompleted && !slices.Contains(m.DisabledVideoIDs, v.ID),
			}
		}
		view.Title = m.Title
		view.Data = items
	case model.SpeedChartModal:
		a, err := s.Analysis(ctx, sess, m.VideoID)
		if err != nil {
			return ModalView{}, err
		}
		view.Title = a.Video.Title
		view.Data = a
	case model.SpeedMultiChartModal:
		view.Title = "速度曲线对比"
		view.Data = s.Compare(ctx, sess, querystate.Compare{AID: m.AID, BID: m.BID})
	default:
		return ModalView{}, fmt.Errorf("%w: %s", model.ErrUnknownModal, m.ModalKind())
	}
	return view, nil
}
