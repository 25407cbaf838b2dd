package querystate

import (
	"net/url"
	"strconv"

	"vpsweb/model"
)

var VideoStatuses = []string{AllValue, "pending", "processing", "completed", "failed"}

type VideoSearch struct {
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Keyword  string `json:"keyword"`
	Uploader string `json:"uploader"`
	Status   string `json:"status"`
	SortBy   string `json:"sortBy"`
}

func DefaultVideoSearch() VideoSearch {
	return VideoSearch{Page: 1, PageSize: 10, Status: AllValue, SortBy: "date"}
}

func DecodeVideoSearch(q url.Values, defaults VideoSearch) VideoSearch {
	return VideoSearch{
		Page:     positiveInt(q, "page", defaults.Page),
		PageSize: positiveInt(q, "page_size", defaults.PageSize),
		Keyword:  str(q, "keyword", defaults.Keyword),
		Uploader: str(q, "uploader", defaults.Uploader),
		Status:   enum(q, "status", VideoStatuses),
		SortBy:   str(q, "sort_by", defaults.SortBy),
	}
}

func (s VideoSearch) Encode(prev url.Values) url.Values {
	q := clone(prev)
	setInt(q, "page", s.Page)
	setInt(q, "page_size", s.PageSize)
	setOrDelete(q, "keyword", s.Keyword)
	setOrDelete(q, "uploader", s.Uploader)
	setEnum(q, "status", s.Status)
	setOrDelete(q, "sort_by", s.SortBy)
	return q
}

// RemoteQuery 是转发给远端 /videos 的查询参数，status 转为数字
func (s VideoSearch) RemoteQuery() url.Values {
	q := url.Values{}
	setInt(q, "page", s.Page)
	setInt(q, "page_size", s.PageSize)
	setOrDelete(q, "keyword", s.Keyword)
	setOrDelete(q, "uploader", s.Uploader)
	if st, ok := model.ParseVideoStatus(s.Status); ok {
		q.Set("status", strconv.Itoa(int(st)))
	}
	return q
}
