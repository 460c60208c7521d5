package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Harshitk-cp/timely/internal/api/middleware"
	"github.com/Harshitk-cp/timely/internal/domain"
	"github.com/Harshitk-cp/timely/internal/service"
	"github.com/Harshitk-cp/timely/internal/timecodec"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SensorHandler struct {
	svc *service.SensorService
}

func NewSensorHandler(svc *service.SensorService) *SensorHandler {
	return &SensorHandler{svc: svc}
}

type createSensorRequest struct {
	Name             string          `json:"name"`
	Unit             string          `json:"unit"`
	Timezone         string          `json:"timezone"`
	EventResolution  string          `json:"event_resolution"`
	KnowledgeHorizon *horizonRequest `json:"knowledge_horizon,omitempty"`
}

type knowledgeHorizonResponse struct {
	SensorID         string          `json:"sensor_id"`
	EventStart       string          `json:"event_start"`
	KnowledgeHorizon string          `json:"knowledge_horizon"`
	Bounds           *boundsResponse `json:"bounds,omitempty"`
}

type knowledgeTimeResponse struct {
	SensorID      string `json:"sensor_id"`
	EventStart    string `json:"event_start"`
	KnowledgeTime string `json:"knowledge_time"`
}

func (h *SensorHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createSensorRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var resolution time.Duration
	if req.EventResolution != "" {
		d, err := timecodec.ParseDuration(req.EventResolution)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid event_resolution")
			return
		}
		resolution = d
	}

	params := service.CreateSensorParams{
		TenantID:        tenant.ID,
		Name:            req.Name,
		Unit:            req.Unit,
		Timezone:        req.Timezone,
		EventResolution: resolution,
	}
	if params.Timezone == "" {
		params.Timezone = tenant.DefaultTimezone
	}
	if req.KnowledgeHorizon != nil {
		in, err := req.KnowledgeHorizon.input()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid knowledge_horizon.fixed")
			return
		}
		params.Horizon = &in
	}

	sensor, err := h.svc.Create(r.Context(), params)
	if err != nil {
		writeServiceError(w, err, "failed to create sensor")
		return
	}

	WriteJSON(w, http.StatusCreated, sensor)
}

func (h *SensorHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	sensors, err := h.svc.List(r.Context(), tenant.ID, limit)
	if err != nil {
		writeServiceError(w, err, "failed to list sensors")
		return
	}
	if sensors == nil {
		sensors = []domain.Sensor{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"sensors": sensors})
}

func (h *SensorHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.sensorRef(w, r)
	if !ok {
		return
	}

	sensor, err := h.svc.GetByID(r.Context(), id, tenant.ID)
	if err != nil {
		writeServiceError(w, err, "failed to get sensor")
		return
	}

	WriteJSON(w, http.StatusOK, sensor)
}

func (h *SensorHandler) UpdateHorizon(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.sensorRef(w, r)
	if !ok {
		return
	}

	var req horizonRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fixed")
		return
	}

	sensor, err := h.svc.UpdateHorizon(r.Context(), id, tenant.ID, in)
	if err != nil {
		writeServiceError(w, err, "failed to update knowledge horizon")
		return
	}

	WriteJSON(w, http.StatusOK, sensor)
}

func (h *SensorHandler) KnowledgeHorizon(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.sensorRef(w, r)
	if !ok {
		return
	}
	q, err := parseEventStart(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	kh, err := h.svc.KnowledgeHorizon(r.Context(), id, tenant.ID, q.EventStart)
	if err != nil {
		writeServiceError(w, err, "failed to evaluate knowledge horizon")
		return
	}

	resp := knowledgeHorizonResponse{
		SensorID:         id.String(),
		EventStart:       timecodec.FormatTimestamp(q.EventStart),
		KnowledgeHorizon: timecodec.FormatDuration(kh),
	}
	if q.Bounds {
		b, err := h.svc.KnowledgeHorizonBounds(r.Context(), id, tenant.ID, q.EventStart)
		if err != nil {
			writeServiceError(w, err, "failed to evaluate knowledge horizon bounds")
			return
		}
		resp.Bounds = newBoundsResponse(&b)
	}

	WriteJSON(w, http.StatusOK, resp)
}

func (h *SensorHandler) KnowledgeTime(w http.ResponseWriter, r *http.Request) {
	tenant, id, ok := h.sensorRef(w, r)
	if !ok {
		return
	}
	q, err := parseEventStart(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	kt, err := h.svc.KnowledgeTime(r.Context(), id, tenant.ID, q.EventStart)
	if err != nil {
		writeServiceError(w, err, "failed to evaluate knowledge time")
		return
	}

	WriteJSON(w, http.StatusOK, knowledgeTimeResponse{
		SensorID:      id.String(),
		EventStart:    timecodec.FormatTimestamp(q.EventStart),
		KnowledgeTime: timecodec.FormatTimestamp(kt),
	})
}

func (h *SensorHandler) sensorRef(w http.ResponseWriter, r *http.Request) (*domain.Tenant, uuid.UUID, bool) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sensor id")
		return nil, uuid.Nil, false
	}
	return tenant, id, true
}

