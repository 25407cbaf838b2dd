package model

import (
	"fmt"
	"time"
)

type VideoStatus int

const (
	VideoPending VideoStatus = iota
	VideoProcessing
	VideoCompleted
	VideoFailed
)

func (s VideoStatus) String() string {
	switch s {
	case VideoPending:
		return "pending"
	case VideoProcessing:
		return "processing"
	case VideoCompleted:
		return "completed"
	case VideoFailed:
		return "failed"
	default:
		return "default"
	}
}

// ParseVideoStatus 把查询参数中的状态名转换为远端使用的数字状态，"all" 及未知值返回 false
func ParseVideoStatus(name string) (VideoStatus, bool) {
	switch name {
	case "pending":
		return VideoPending, true
	case "processing":
		return VideoProcessing, true
	case "completed":
		return VideoCompleted, true
	case "failed":
		return VideoFailed, true
	default:
		return 0, false
	}
}

type Video struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	CategoryID   *int        `json:"category_id,omitempty"`
	Title        string      `json:"title"`
	Duration     *int64      `json:"duration,omitempty"`
	FPS          *int        `json:"fps,omitempty"`
	Status       VideoStatus `json:"status"`
	Uploader     string      `json:"uploader,omitempty"`
	CreatedAt    int64       `json:"created_at"`
	URL          *string     `json:"url,omitempty"`
	ThumbnailURL *string     `json:"thumbnail_url,omitempty"`
}

type VideoDetail struct {
	Video
	ErrorLog *string `json:"error_log,omitempty"`
}

// VideoView 是列表和卡片展示用的视频
type VideoView struct {
	Video
	DateStr     string `json:"dateStr"`
	DurationStr string `json:"durationStr"`
	StatusStr   string `json:"statusStr"`
}

func (v Video) Present() VideoView {
	view := VideoView{Video: v, StatusStr: v.Status.String()}
	if v.CreatedAt > 0 {
		view.DateStr = time.UnixMilli(v.CreatedAt).Format(time.DateOnly)
	}
	var ms int64
	if v.Duration != nil {
		ms = *v.Duration
	}
	view.DurationStr = FormatDuration(ms)
	return view
}

// FormatDuration 毫秒转 mm:ss，超过一小时为 hh:mm:ss
func FormatDuration(ms int64) string {
	if ms <= 0 {
		return "00:00"
	}
	total := ms / 1000
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// TotalPages 至少为 1
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 1
	}
	n := (p.Total + p.PageSize - 1) / p.PageSize
	if n < 1 {
		return 1
	}
	return n
}

type CurvePoint struct {
	T any `json:"t"`
	V any `json:"v"`
}

type AnalysisResult struct {
	MarkedURL   *string      `json:"marked_url,omitempty"`
	StartTime   *float64     `json:"start_time,omitempty"`
	EndTime     *float64     `json:"end_time,omitempty"`
	InitSpeed   *float64     `json:"init_speed,omitempty"`
	AvgSpeed    *float64     `json:"avg_speed,omitempty"`
	CurveData   []CurvePoint `json:"curve_data,omitempty"`
	ProcessedAt *int64       `json:"processed_at,omitempty"`
}

type Analysis struct {
	Video    VideoDetail     `json:"video"`
	Analysis *AnalysisResult `json:"analysis,omitempty"`
}

// Curve 未分析时返回 nil
func (a Analysis) Curve() []CurvePoint {
	if a.Analysis == nil {
		return nil
	}
	return a.Analysis.CurveData
}

type Category struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type UploadResult struct {
	ID           string  `json:"id"`
	Status       int     `json:"status"`
	RawURL       string  `json:"raw_url"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	CreatedAt    int64   `json:"created_at"`
}

type Stats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
	Failed     int `json:"failed"`
	Processing int `json:"processing"`
}

type PendingGroup struct {
	Date string  `json:"date"`
	List []Video `json:"list"`
}

type ComparisonReport struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	VideoAID   string  `json:"video_a_id"`
	VideoBID   string  `json:"video_b_id"`
	AIAnalysis *string `json:"ai_analysis,omitempty"`
	CreatedAt  int64   `json:"created_at"`
}
