package handlers

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/timely/internal/horizon"
	"github.com/Harshitk-cp/timely/internal/service"
	"github.com/Harshitk-cp/timely/internal/timecodec"
)

type HorizonHandler struct {
	svc *service.HorizonService
}

func NewHorizonHandler(svc *service.HorizonService) *HorizonHandler {
	return &HorizonHandler{svc: svc}
}

type ruleResponse struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Params         []horizon.Param `json:"params"`
	SupportsBounds bool            `json:"supports_bounds"`
}

type evaluateRequest struct {
	Fnc             string         `json:"fnc"`
	Par             map[string]any `json:"par"`
	EventStart      string         `json:"event_start"`
	EventResolution string         `json:"event_resolution"`
	Bounds          bool           `json:"bounds"`
}

type evaluateResponse struct {
	KnowledgeHorizon string          `json:"knowledge_horizon"`
	KnowledgeTime    string          `json:"knowledge_time"`
	Bounds           *boundsResponse `json:"bounds,omitempty"`
}

func (h *HorizonHandler) Rules(w http.ResponseWriter, r *http.Request) {
	rules := h.svc.Rules()
	resp := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, ruleResponse{
			Name:           rule.Name(),
			Description:    rule.Description(),
			Params:         rule.Params(),
			SupportsBounds: rule.SupportsBounds(),
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"rules": resp})
}

// Evaluate runs a rule reference without a sensor.
func (h *HorizonHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Fnc == "" {
		writeError(w, http.StatusBadRequest, "fnc is required")
		return
	}
	if req.EventStart == "" {
		writeError(w, http.StatusBadRequest, errEventStartRequired.Error())
		return
	}

	eventStart, err := timecodec.ParseTimestamp(req.EventStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var resolution time.Duration
	if req.EventResolution != "" {
		resolution, err = timecodec.ParseDuration(req.EventResolution)
		if err != nil || resolution < 0 {
			writeError(w, http.StatusBadRequest, "invalid event_resolution")
			return
		}
	}

	res, err := h.svc.Evaluate(service.EvaluateRequest{
		Fnc:             req.Fnc,
		Par:             timecodec.Bag(req.Par),
		EventStart:      eventStart,
		EventResolution: resolution,
		Bounds:          req.Bounds,
	})
	if err != nil {
		writeServiceError(w, err, "failed to evaluate knowledge horizon")
		return
	}

	WriteJSON(w, http.StatusOK, evaluateResponse{
		KnowledgeHorizon: timecodec.FormatDuration(res.KnowledgeHorizon),
		KnowledgeTime:    timecodec.FormatTimestamp(res.KnowledgeTime),
		Bounds:           newBoundsResponse(res.Bounds),
	})
}
