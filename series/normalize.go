package series

import (
	"math"
	"sort"

	"github.com/spf13/cast"

	"vpsweb/model"
)

// DefaultBuckets 对比图共享横轴的区间数
const DefaultBuckets = 100

type Point struct {
	T float64 `json:"t"`
	V float64 `json:"v"`
}

func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Clean 把原始点转为数值，丢弃非有限值，按 t 升序（稳定）排列
func Clean(raw []model.CurvePoint) []Point {
	points := make([]Point, 0, len(raw))
	for _, p := range raw {
		t, ok := toFinite(p.T)
		if !ok {
			continue
		}
		v, ok := toFinite(p.V)
		if !ok {
			continue
		}
		points = append(points, Point{T: t, V: v})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].T < points[j].T })
	return points
}

func toFinite(x any) (float64, bool) {
	if x == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(x)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Resample 在 [minT, maxT] 上等距取 n 个位置做线性插值，points 须已按 t 升序。
// nil 表示没有数据。
func Resample(points []Point, n int) []*float64 {
	if n < 1 {
		return []*float64{}
	}
	out := make([]*float64, n)
	if len(points) == 0 {
		return out
	}

	minT, maxT := points[0].T, points[len(points)-1].T
	if len(points) == 1 || minT == maxT {
		v := Round2(points[0].V)
		for i := range out {
			out[i] = ptr(v)
		}
		return out
	}

	j := 0
	for i := 0; i < n; i++ {
		ratio := 0.0
		if n > 1 {
			ratio = float64(i) / float64(n-1)
		}
		target := minT + ratio*(maxT-minT)

		// target 单调不减，j 只前进
		for j < len(points)-2 && points[j+1].T < target {
			j++
		}
		p0, p1 := points[j], points[j+1]

		switch {
		case p0.T == p1.T, target <= p0.T:
			out[i] = ptr(Round2(p0.V))
		case target >= p1.T:
			out[i] = ptr(Round2(p1.V))
		default:
			y := p0.V + (target-p0.T)/(p1.T-p0.T)*(p1.V-p0.V)
			if math.IsNaN(y) || math.IsInf(y, 0) {
				continue
			}
			out[i] = ptr(Round2(y))
		}
	}
	return out
}

func Normalize(raw []model.CurvePoint, n int) []*float64 {
	return Resample(Clean(raw), n)
}

func ptr(v float64) *float64 { return &v }
