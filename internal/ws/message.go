package ws

import (
	"encoding/json"

	"job-tracker/internal/controller"
	"job-tracker/internal/viz"
)

// Inbound message types sent by the browser.
const (
	TypeMount        = "mount"
	TypeResize       = "resize"
	TypePointerMove  = "pointermove"
	TypePointerLeave = "pointerleave"
	TypeTheme        = "theme"
	TypeUnmount      = "unmount"
)

// Outbound message types.
const (
	TypeFrame          = "frame"
	TypeInteraction    = "interaction"
	TypeError          = "error"
	TypeRecordsChanged = "records_changed"
)

type Inbound struct {
	Type   string  `json:"type"`
	Chart  string  `json:"chart,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Theme  string  `json:"theme,omitempty"`
}

type FrameMessage struct {
	Type   string               `json:"type"`
	Chart  controller.ChartName `json:"chart"`
	Seq    int                  `json:"seq"`
	Width  float64              `json:"width"`
	Height float64              `json:"height"`
	Empty  bool                 `json:"empty"`
	SVG    string               `json:"svg"`
}

type InteractionMessage struct {
	Type        string               `json:"type"`
	Chart       controller.ChartName `json:"chart"`
	Interaction viz.Interaction      `json:"interaction"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Chart   string `json:"chart,omitempty"`
	Message string `json:"message"`
}

type EventMessage struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

func newFrameMessage(name controller.ChartName, f viz.Frame) FrameMessage {
	return FrameMessage{
		Type:   TypeFrame,
		Chart:  name,
		Seq:    f.Seq,
		Width:  f.Scene.Size.Width,
		Height: f.Scene.Size.Height,
		Empty:  f.Scene.Empty,
		SVG:    f.Scene.SVG(),
	}
}

func encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
