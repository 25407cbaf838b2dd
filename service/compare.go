package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"vpsweb/apiclient"
	"vpsweb/model"
	"vpsweb/pkg/logger"
	"vpsweb/querystate"
	"vpsweb/series"
)

// Compare 分别加载两侧分析结果，一侧失败不影响另一侧；未选择的一侧保持 Loading
func (s *Service) Compare(ctx context.Context, sess apiclient.Session, q querystate.Compare) CompareView {
	var view CompareView
	view.A, view.B = model.Pending[model.Analysis](), model.Pending[model.Analysis]()

	var g errgroup.Group
	load := func(id string, dst *model.Load[model.Analysis]) {
		if id == "" {
			return
		}
		g.Go(func() error {
			a, err := s.remote.Analysis(ctx, sess, id)
			if err != nil {
				logger.Logger.Warnf("加载视频 %s 分析结果失败: %v", id, err)
				*dst = model.LoadFailed[model.Analysis](reason(err, "加载分析结果失败"))
				return nil
			}
			*dst = model.Loaded(a)
			return nil
		})
	}
	load(q.AID, &view.A)
	load(q.BID, &view.B)
	_ = g.Wait()

	view.Chart = series.NewDualChart(curveOf(view.A), curveOf(view.B), s.opt.Chart)
	view.Stats = [2]Parameter{
		calculateStats(view.Chart.Series[0].Data),
		calculateStats(view.Chart.Series[1].Data),
	}
	return view
}

func curveOf(l model.Load[model.Analysis]) []model.CurvePoint {
	if a, ok := l.Get(); ok {
		return a.Curve()
	}
	return nil
}

func (s *Service) AIAnalyze(ctx context.Context, sess apiclient.Session, q querystate.Compare) (model.ComparisonReport, error) {
	if q.AID == "" || q.BID == "" {
		return model.ComparisonReport{}, invalid("请先选择两个视频")
	}
	return s.remote.AIAnalyze(ctx, sess, q.AID, q.BID)
}

const (
	sheetSeries  = "曲线"
	sheetSummary = "统计"
)

// ExportComparison 把两条归一化曲线写入 xlsx，返回文件内容和文件名
func (s *Service) ExportComparison(ctx context.Context, sess apiclient.Session, q querystate.Compare) ([]byte, string, error) {
	if q.AID == "" && q.BID == "" {
		return nil, "", invalid("请先选择视频")
	}
	view := s.Compare(ctx, sess, q)
	if !view.Chart.HasData {
		return nil, "", invalid("所选视频没有可导出的曲线")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetSeries); err != nil {
		return nil, "", err
	}
	header := []any{"区间", view.Chart.Series[0].Name, view.Chart.Series[1].Name}
	if err := f.SetSheetRow(sheetSeries, "A1", &header); err != nil {
		return nil, "", err
	}
	for i, x := range view.Chart.XAxis {
		row := []any{x, cell(view.Chart.Series[0].Data, i), cell(view.Chart.Series[1].Data, i)}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", err
		}
		if err = f.SetSheetRow(sheetSeries, axis, &row); err != nil {
			return nil, "", err
		}
	}

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, "", err
	}
	rows := [][]any{
		{"", view.Chart.Series[0].Name, view.Chart.Series[1].Name},
		{"视频 id", q.AID, q.BID},
		{"有效区间数", view.Stats[0].Count, view.Stats[1].Count},
		{"最小值", series.Round2(view.Stats[0].Min), series.Round2(view.Stats[1].Min)},
		{"最大值", series.Round2(view.Stats[0].Max), series.Round2(view.Stats[1].Max)},
		{"平均值", series.Round2(view.Stats[0].Average), series.Round2(view.Stats[1].Average)},
		{"方差", series.Round2(view.Stats[0].Variance), series.Round2(view.Stats[1].Variance)},
	}
	for i := range rows {
		if err := f.SetSheetRow(sheetSummary, fmt.Sprintf("A%d", i+1), &rows[i]); err != nil {
			return nil, "", err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		logger.Logger.Errorf("写入对比导出文件失败: %v", err)
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("compare_%s_%s.xlsx", shortID(q.AID), shortID(q.BID)), nil
}

// cell 空桶写为空单元格
func cell(data []*float64, i int) any {
	if i >= len(data) || data[i] == nil {
		return nil
	}
	return *data[i]
}

func shortID(id string) string {
	if id == "" {
		return "none"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
