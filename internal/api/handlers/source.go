package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Harshitk-cp/timely/internal/api/middleware"
	"github.com/Harshitk-cp/timely/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SourceHandler struct {
	svc *service.SourceService
}

func NewSourceHandler(svc *service.SourceService) *SourceHandler {
	return &SourceHandler{svc: svc}
}

// ensureSourcesRequest lists source references. Each entry is a string or
// number identifier, null, or {"id": "<uuid>"} naming an existing source.
type ensureSourcesRequest struct {
	Sources   []json.RawMessage `json:"sources"`
	AllowNone bool              `json:"allow_none"`
}

var errInvalidSourceRef = errors.New("source must be a string, number, null or {\"id\": ...}")

type sourceRef struct {
	ID string `json:"id"`
}

func (h *SourceHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ensureSourcesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	refs := make([]any, len(req.Sources))
	for i, raw := range req.Sources {
		ref, err := h.resolveRef(r, tenant.ID, raw)
		if err != nil {
			if errors.Is(err, errInvalidSourceRef) {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("sources[%d]: %v", i, err))
				return
			}
			writeServiceError(w, err, "failed to resolve source")
			return
		}
		refs[i] = ref
	}

	sources, err := h.svc.EnsureAllExist(r.Context(), tenant.ID, refs, req.AllowNone)
	if err != nil {
		writeServiceError(w, err, "failed to ensure sources")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (h *SourceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source id")
		return
	}

	src, err := h.svc.GetByID(r.Context(), id, tenant.ID)
	if err != nil {
		writeServiceError(w, err, "failed to get source")
		return
	}

	WriteJSON(w, http.StatusOK, src)
}

func (h *SourceHandler) resolveRef(r *http.Request, tenantID uuid.UUID, raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var ref sourceRef
	if raw[0] == '{' {
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, errInvalidSourceRef
		}
		id, err := uuid.Parse(ref.ID)
		if err != nil {
			return nil, errInvalidSourceRef
		}
		src, err := h.svc.GetByID(r.Context(), id, tenantID)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, errInvalidSourceRef
	}
	switch v.(type) {
	case nil, string, json.Number, bool:
		return v, nil
	default:
		return nil, errInvalidSourceRef
	}
}

