package service

import (
	"vpsweb/model"
	"vpsweb/series"
)

type VideoList struct {
	Items      []model.VideoView `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

type UserList struct {
	Items      []model.User `json:"items"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
}

type AnalysisView struct {
	Video    model.VideoView       `json:"video"`
	ErrorLog *string               `json:"errorLog,omitempty"`
	Result   *model.AnalysisResult `json:"result,omitempty"`
	Chart    series.SingleChart    `json:"chart"`
}

type (
	CompareView struct {
		A     model.Load[model.Analysis] `json:"a"`
		B     model.Load[model.Analysis] `json:"b"`
		Chart series.DualChart           `json:"chart"`
		Stats [2]Parameter               `json:"stats"`
	}
	// Parameter 是归一化后一条曲线的统计量，没有数据时 Count 为 0
	Parameter struct {
		Count    int     `json:"count"`
		Min      float64 `json:"min"`
		Max      float64 `json:"max"`
		Average  float64 `json:"average"`
		Variance float64 `json:"variance"`
	}
)

type Dashboard struct {
	Scope   string               `json:"scope"`
	Stats   model.Stats          `json:"stats"`
	Pending []model.PendingGroup `json:"pending"`
}

type UploadInput struct {
	FileName   string
	Size       int64
	Title      string
	CategoryID *int
}

type SelectableVideo struct {
	model.VideoView
	Selectable bool `json:"selectable"`
}

type ModalView struct {
	Kind  string `json:"kind"`
	Title string `json:"title,omitempty"`
	Data  any    `json:"data"`
}
