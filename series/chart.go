package series

import (
	"fmt"
	"strconv"

	"vpsweb/model"
)

type Axis struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Line struct {
	Name string     `json:"name"`
	Data []*float64 `json:"data"`
}

// DualChart 两条速度曲线对齐到同一个区间横轴
type DualChart struct {
	XAxis   []string `json:"x_axis"`
	YAxis   Axis     `json:"y_axis"`
	Series  [2]Line  `json:"series"`
	HasData bool     `json:"has_data"`
}

type ChartOptions struct {
	Buckets int
	YAxis   Axis
	NameA   string
	NameB   string
}

func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		Buckets: DefaultBuckets,
		YAxis:   Axis{Min: 0, Max: 12},
		NameA:   "视频 A",
		NameB:   "视频 B",
	}
}

func NewDualChart(a, b []model.CurvePoint, opt ChartOptions) DualChart {
	if opt.Buckets < 1 {
		opt.Buckets = DefaultBuckets
	}
	x := make([]string, opt.Buckets)
	for i := range x {
		x[i] = strconv.Itoa(i + 1)
	}

	sa, sb := Normalize(a, opt.Buckets), Normalize(b, opt.Buckets)
	return DualChart{
		XAxis:   x,
		YAxis:   opt.YAxis,
		Series:  [2]Line{{Name: opt.NameA, Data: sa}, {Name: opt.NameB, Data: sb}},
		HasData: anyValue(sa) || anyValue(sb),
	}
}

func anyValue(s []*float64) bool {
	for _, v := range s {
		if v != nil {
			return true
		}
	}
	return false
}

// SingleChart 单个视频分析页的原始速度曲线
type SingleChart struct {
	XAxis []string   `json:"x_axis"`
	YAxis Axis       `json:"y_axis"`
	Data  []*float64 `json:"data"`
}

var placeholderAxis = []string{"0.00", "1.00", "2.00", "3.00", "4.00", "5.00", "6.00"}

func NewSingleChart(curve []model.CurvePoint, y Axis) SingleChart {
	if len(curve) == 0 {
		return SingleChart{XAxis: placeholderAxis, YAxis: y, Data: []*float64{}}
	}

	c := SingleChart{
		XAxis: make([]string, len(curve)),
		YAxis: y,
		Data:  make([]*float64, len(curve)),
	}
	for i, p := range curve {
		switch t := p.T.(type) {
		case string:
			c.XAxis[i] = t
		case nil:
			c.XAxis[i] = fmt.Sprintf("%ds", i)
		default:
			if f, ok := toFinite(t); ok {
				c.XAxis[i] = strconv.FormatFloat(f, 'f', 2, 64)
			} else {
				c.XAxis[i] = fmt.Sprintf("%ds", i)
			}
		}

		if v, ok := toFinite(p.V); ok {
			c.Data[i] = ptr(Round2(v))
		}
	}
	return c
}
