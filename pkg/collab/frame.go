package collab

import (
	"bytes"
	"encoding/json"

	"github.com/mikeboe/lab-dashboard/pkg/api"
)

// Frame kinds sent by the AI channel.
const (
	FrameStatus = "status"
	FrameResult = "result"
	FrameError  = "error"
)

// MsgUnexpectedFormat is surfaced for any frame the controller cannot use.
const MsgUnexpectedFormat = "Unexpected AI response format."

type Frame struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    *ResultData `json:"data,omitempty"`
}

type ResultData struct {
	Recommendations json.RawMessage `json:"recommendations,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// outcome is what one frame does to a run.
type outcome struct {
	terminal        bool
	state           State
	status          string
	err             string
	recommendations []api.AIRecommendation
}

func decodeFrame(data []byte) outcome {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return unexpected()
	}

	switch f.Type {
	case FrameStatus:
		return outcome{state: StateStreaming, status: f.Message}
	case FrameResult:
		return decodeResult(f.Data)
	case FrameError:
		msg := f.Message
		if msg == "" {
			msg = "AI service error"
		}
		return outcome{terminal: true, state: StateErrored, err: msg}
	default:
		return unexpected()
	}
}

func decodeResult(d *ResultData) outcome {
	if d == nil {
		return unexpected()
	}

	raw := bytes.TrimSpace(d.Recommendations)
	if len(raw) > 0 && raw[0] == '[' {
		var recs []api.AIRecommendation
		if err := json.Unmarshal(raw, &recs); err != nil {
			return unexpected()
		}
		for i := range recs {
			if recs[i].Grade == "" {
				recs[i].Grade = api.GradeForScore(recs[i].Score)
			}
		}
		if recs == nil {
			recs = []api.AIRecommendation{}
		}
		return outcome{terminal: true, state: StateCompleted, recommendations: recs}
	}
	if d.Error != "" {
		return outcome{terminal: true, state: StateErrored, err: d.Error}
	}
	return unexpected()
}

func unexpected() outcome {
	return outcome{terminal: true, state: StateErrored, err: MsgUnexpectedFormat}
}
