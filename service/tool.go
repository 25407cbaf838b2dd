package service

import (
	"cmp"
	"slices"
	"strings"

	"vpsweb/model"
)

// calculateStats 统计非空桶，全部为空时返回零值
func calculateStats(data []*float64) Parameter {
	var (
		sum, sumSquares float64
		minVal, maxVal  float64
		n               int
	)
	for _, p := range data {
		if p == nil {
			continue
		}
		v := *p
		if n == 0 || v < minVal {
			minVal = v
		}
		if n == 0 || v > maxVal {
			maxVal = v
		}
		sum += v
		sumSquares += v * v
		n++
	}
	if n == 0 {
		return Parameter{}
	}

	mean := sum / float64(n)
	return Parameter{
		Count:    n,
		Min:      minVal,
		Max:      maxVal,
		Average:  mean,
		Variance: sumSquares/float64(n) - mean*mean,
	}
}

// sortVideos 在当前页内排序：date 按创建时间倒序，name 按标题
func sortVideos(items []model.Video, by string) {
	switch by {
	case "name":
		slices.SortStableFunc(items, func(a, b model.Video) int { return strings.Compare(a.Title, b.Title) })
	case "date":
		slices.SortStableFunc(items, func(a, b model.Video) int { return cmp.Compare(b.CreatedAt, a.CreatedAt) })
	}
}

func present(items []model.Video) []model.VideoView {
	views := make([]model.VideoView, len(items))
	for i, v := range items {
		views[i] = v.Present()
	}
	return views
}
