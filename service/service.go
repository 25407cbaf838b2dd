package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"vpsweb/apiclient"
	"vpsweb/cache"
	"vpsweb/model"
	"vpsweb/pkg/conf"
	"vpsweb/series"
	"vpsweb/session"
)

// 缓存前缀，变更按前缀失效
const (
	PrefixVideos     = "videos"
	PrefixUploaders  = "video-uploaders"
	PrefixAdminUsers = "adminUsers"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("unauthorized")
)

// Remote 是远端 vps-api，由 apiclient.Client 实现
type Remote interface {
	Login(ctx context.Context, in apiclient.LoginRequest) (apiclient.Session, error)
	Profile(ctx context.Context, sess apiclient.Session) (model.User, error)
	UpdatePassword(ctx context.Context, sess apiclient.Session, in apiclient.PasswordChange) (model.User, error)
	ListVideos(ctx context.Context, sess apiclient.Session, q url.Values) (model.Page[model.Video], error)
	Uploaders(ctx context.Context, sess apiclient.Session) ([]string, error)
	VideoDetail(ctx context.Context, sess apiclient.Session, id string) (model.VideoDetail, error)
	Analysis(ctx context.Context, sess apiclient.Session, id string) (model.Analysis, error)
	TriggerAnalysis(ctx context.Context, sess apiclient.Session, id string) error
	DeleteVideo(ctx context.Context, sess apiclient.Session, id string) error
	UploadVideo(ctx context.Context, sess apiclient.Session, up apiclient.Upload) (model.UploadResult, error)
	Categories(ctx context.Context, sess apiclient.Session) ([]model.Category, error)
	DashboardStats(ctx context.Context, sess apiclient.Session, scope string) (model.Stats, error)
	PendingVideos(ctx context.Context, sess apiclient.Session) ([]model.PendingGroup, error)
	ListUsers(ctx context.Context, sess apiclient.Session, q url.Values) (model.Page[model.User], error)
	CreateUser(ctx context.Context, sess apiclient.Session, in model.NewUser) (string, error)
	DeleteUser(ctx context.Context, sess apiclient.Session, userID string) error
	SetRole(ctx context.Context, sess apiclient.Session, userID, role string) error
	AIAnalyze(ctx context.Context, sess apiclient.Session, aid, bid string) (model.ComparisonReport, error)
}

type Options struct {
	StaleTime          time.Duration
	UploadersStaleTime time.Duration
	MaxUploadSize      int64
	Chart              series.ChartOptions
}

func DefaultOptions() Options {
	return Options{
		StaleTime:          10 * time.Second,
		UploadersStaleTime: 60 * time.Second,
		MaxUploadSize:      200 * 1024 * 1024,
		Chart:              series.DefaultChartOptions(),
	}
}

// OptionsFromConf 从全局配置读取，未配置的项使用默认值
func OptionsFromConf() Options {
	opt := DefaultOptions()
	if conf.Conf == nil {
		return opt
	}
	if d := conf.Conf.GetDuration("cache.stale_time"); d > 0 {
		opt.StaleTime = d
	}
	if d := conf.Conf.GetDuration("cache.uploaders_stale_time"); d > 0 {
		opt.UploadersStaleTime = d
	}
	if n := conf.Conf.GetInt64("upload.max_size"); n > 0 {
		opt.MaxUploadSize = n
	}
	if n := conf.Conf.GetInt("chart.buckets"); n > 0 {
		opt.Chart.Buckets = n
	}
	if conf.Conf.IsSet("chart.y_max") {
		opt.Chart.YAxis = series.Axis{Min: conf.Conf.GetFloat64("chart.y_min"), Max: conf.Conf.GetFloat64("chart.y_max")}
	}
	return opt
}

type Service struct {
	remote    Remote
	sessions  *session.Store
	audit     AuditRecorder
	opt       Options
	videos    *cache.Store[model.Page[model.Video]]
	users     *cache.Store[model.Page[model.User]]
	uploaders *cache.Store[[]string]
}

func NewService(remote Remote, audit AuditRecorder, opt Options) *Service {
	if audit == nil {
		audit = NopAudit{}
	}
	return &Service{
		remote:    remote,
		sessions:  session.NewStore(),
		audit:     audit,
		opt:       opt,
		videos:    cache.New[model.Page[model.Video]](opt.StaleTime),
		users:     cache.New[model.Page[model.User]](opt.StaleTime),
		uploaders: cache.New[[]string](opt.UploadersStaleTime),
	}
}

// scopedKey 列表缓存按用户隔离，前缀相同因此变更可以跨用户生效
func scopedKey(prefix string, sess apiclient.Session, q url.Values) cache.Key {
	return cache.Key{Prefix: prefix, Query: sess.User.ID + "?" + q.Encode()}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// reason 把远端错误转换为提示文案
func reason(err error, fallback string) string {
	return apiclient.Describe(err, "网络错误，请稍后重试", fallback)
}

