package web

import (
	"github.com/samber/lo"

	"github.com/teslashibe/go-spotter/pkg/analysis"
	"github.com/teslashibe/go-spotter/pkg/orchestrator"
)

// stateDTO is the wire shape of orchestrator state sent to the
// dashboard, both from GET /api/state and over /ws/state.
type stateDTO struct {
	Mode          string         `json:"mode"`
	SessionID     string         `json:"session_id,omitempty"`
	SessionActive bool           `json:"session_active"`
	Analyzing     bool           `json:"analyzing"`
	Detecting     bool           `json:"detecting"`
	Result        *motionDTO     `json:"result,omitempty"`
	Detections    []detectionDTO `json:"detections"`
	Banner        string         `json:"banner,omitempty"`
	Error         string         `json:"error,omitempty"`
}

type motionDTO struct {
	Subject       string  `json:"subject"`
	Movement      string  `json:"movement"`
	Confidence    float64 `json:"confidence"`
	ConfidencePct int     `json:"confidence_pct"`
}

type detectionDTO struct {
	Label string  `json:"label"`
	XMin  float64 `json:"x_min"`
	YMin  float64 `json:"y_min"`
	XMax  float64 `json:"x_max"`
	YMax  float64 `json:"y_max"`
}

func toStateDTO(st orchestrator.State) stateDTO {
	dto := stateDTO{
		Mode:          string(st.Mode),
		SessionID:     st.SessionID,
		SessionActive: st.SessionActive,
		Analyzing:     st.Analyzing,
		Detecting:     st.Detecting,
		Banner:        st.Banner,
		Error:         st.LastError,
		Detections: lo.Map(st.LastDetections, func(d analysis.Detection, _ int) detectionDTO {
			return detectionDTO{
				Label: d.Label,
				XMin:  d.Box.XMin,
				YMin:  d.Box.YMin,
				XMax:  d.Box.XMax,
				YMax:  d.Box.YMax,
			}
		}),
	}
	if st.LastResult != nil {
		dto.Result = &motionDTO{
			Subject:       st.LastResult.Subject,
			Movement:      st.LastResult.Movement,
			Confidence:    st.LastResult.Confidence,
			ConfidencePct: st.LastResult.DisplayConfidence(),
		}
	}
	return dto
}
