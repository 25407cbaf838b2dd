package model

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Modal 是前端可以请求打开的弹窗，新增弹窗需要在 service.OpenModal 中处理
type Modal interface {
	ModalKind() string
	sealed()
}

type VideoPlayModal struct {
	VideoID string `json:"video_id"`
}

type VideoSelectModal struct {
	Title            string   `json:"title"`
	DisabledVideoIDs []string `json:"disabled_video_ids,omitempty"`
}

type SpeedChartModal struct {
	VideoID string `json:"video_id"`
}

type SpeedMultiChartModal struct {
	AID string `json:"aid"`
	BID string `json:"bid"`
}

func (VideoPlayModal) ModalKind() string       { return "VideoPlayModal" }
func (VideoSelectModal) ModalKind() string     { return "VideoSelectModal" }
func (SpeedChartModal) ModalKind() string      { return "SpeedChartModal" }
func (SpeedMultiChartModal) ModalKind() string { return "SpeedMultiChartModal" }

func (VideoPlayModal) sealed()       {}
func (VideoSelectModal) sealed()     {}
func (SpeedChartModal) sealed()      {}
func (SpeedMultiChartModal) sealed() {}

var ErrUnknownModal = errors.New("unknown modal kind")

// DecodeModal 解析 {"kind": "...", ...} 形式的弹窗请求
func DecodeModal(raw []byte) (Modal, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode modal: %w", err)
	}

	var m Modal
	switch head.Kind {
	case "VideoPlayModal":
		var v VideoPlayModal
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Kind, err)
		}
		m = v
	case "VideoSelectModal":
		var v VideoSelectModal
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Kind, err)
		}
		m = v
	case "SpeedChartModal":
		var v SpeedChartModal
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Kind, err)
		}
		m = v
	case "SpeedMultiChartModal":
		var v SpeedMultiChartModal
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Kind, err)
		}
		m = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModal, head.Kind)
	}
	return m, nil
}
