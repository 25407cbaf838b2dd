package service

import (
	"context"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"vpsweb/apiclient"
	"vpsweb/cache"
	"vpsweb/model"
	"vpsweb/mutation"
	"vpsweb/querystate"
	"vpsweb/series"
)

var uploadExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".flv", ".wmv"}

func (s *Service) ListVideos(ctx context.Context, sess apiclient.Session, q querystate.VideoSearch) (VideoList, error) {
	remote := q.RemoteQuery()
	page, err := s.videos.Fetch(ctx, scopedKey(PrefixVideos, sess, remote), func(ctx context.Context) (model.Page[model.Video], error) {
		return s.remote.ListVideos(ctx, sess, remote)
	})
	if err != nil {
		return VideoList{}, err
	}

	items := slices.Clone(page.Items)
	sortVideos(items, q.SortBy)
	return VideoList{
		Items:      present(items),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages(),
	}, nil
}

func (s *Service) Uploaders(ctx context.Context, sess apiclient.Session) ([]string, error) {
	return s.uploaders.Fetch(ctx, cache.Key{Prefix: PrefixUploaders}, func(ctx context.Context) ([]string, error) {
		return s.remote.Uploaders(ctx, sess)
	})
}

func (s *Service) Categories(ctx context.Context, sess apiclient.Session) ([]model.Category, error) {
	return s.remote.Categories(ctx, sess)
}

func (s *Service) Analysis(ctx context.Context, sess apiclient.Session, id string) (AnalysisView, error) {
	if id == "" {
		return AnalysisView{}, invalid("缺少视频 id")
	}
	a, err := s.remote.Analysis(ctx, sess, id)
	if err != nil {
		return AnalysisView{}, err
	}
	return AnalysisView{
		Video:    a.Video.Present(),
		ErrorLog: a.Video.ErrorLog,
		Result:   a.Analysis,
		Chart:    series.NewSingleChart(a.Curve(), s.opt.Chart.YAxis),
	}, nil
}

// TriggerAnalysis 远端只返回确认，随后重新读取分析结果
func (s *Service) TriggerAnalysis(ctx context.Context, sess apiclient.Session, id string) (AnalysisView, error) {
	if id == "" {
		return AnalysisView{}, invalid("缺少视频 id")
	}
	if err := s.remote.TriggerAnalysis(ctx, sess, id); err != nil {
		return AnalysisView{}, err
	}
	s.videos.Invalidate(PrefixVideos)
	return s.Analysis(ctx, sess, id)
}

func (s *Service) DeleteVideo(ctx context.Context, sess apiclient.Session, id string) (mutation.Result, error) {
	if id == "" {
		return mutation.Result{}, invalid("缺少视频 id")
	}
	m := &mutation.Mutation[model.Page[model.Video], string]{
		Store:  s.videos,
		Prefix: PrefixVideos,
		Call: func(ctx context.Context, id string) error {
			return s.remote.DeleteVideo(ctx, sess, id)
		},
		Success:  "视频已删除",
		Failure:  "删除视频失败",
		Describe: func(err error) string { return reason(err, "删除失败") },
	}
	res := m.Run(ctx, id)
	s.record(ctx, sess, "video.delete", id, res)
	return res, nil
}

// ValidateUpload 在转发前检查扩展名和大小
func (s *Service) ValidateUpload(in UploadInput) error {
	ext := strings.ToLower(filepath.Ext(in.FileName))
	if !slices.Contains(uploadExtensions, ext) {
		return invalid("不支持的视频格式 %q，仅支持 %s", ext, strings.Join(uploadExtensions, " "))
	}
	if in.Size <= 0 {
		return invalid("文件为空")
	}
	if in.Size > s.opt.MaxUploadSize {
		return invalid("文件大小超过 %d MB", s.opt.MaxUploadSize/1024/1024)
	}
	return nil
}

func (s *Service) Upload(ctx context.Context, sess apiclient.Session, in UploadInput, file io.Reader) (model.UploadResult, error) {
	if err := s.ValidateUpload(in); err != nil {
		return model.UploadResult{}, err
	}
	title := in.Title
	if title == "" {
		title = strings.TrimSuffix(in.FileName, filepath.Ext(in.FileName))
	}
	res, err := s.remote.UploadVideo(ctx, sess, apiclient.Upload{
		FileName:   filepath.Base(in.FileName),
		File:       file,
		Title:      title,
		CategoryID: in.CategoryID,
	})
	if err != nil {
		return model.UploadResult{}, err
	}
	s.videos.Invalidate(PrefixVideos)
	s.uploaders.Invalidate(PrefixUploaders)
	return res, nil
}
