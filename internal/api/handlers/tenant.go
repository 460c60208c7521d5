package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/Harshitk-cp/timely/internal/api/middleware"
	"github.com/Harshitk-cp/timely/internal/domain"
	"github.com/Harshitk-cp/timely/internal/timecodec"
)

type TenantHandler struct {
	store domain.TenantStore
}

func NewTenantHandler(store domain.TenantStore) *TenantHandler {
	return &TenantHandler{store: store}
}

type createTenantRequest struct {
	Name            string `json:"name"`
	DefaultTimezone string `json:"default_timezone"`
}

type createTenantResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DefaultTimezone string `json:"default_timezone"`
	APIKey          string `json:"api_key"`
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.DefaultTimezone == "" {
		req.DefaultTimezone = "UTC"
	}
	if _, err := timecodec.LoadLocation(req.DefaultTimezone); err != nil {
		writeError(w, http.StatusBadRequest, "unknown default_timezone")
		return
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate API key")
		return
	}

	tenant := &domain.Tenant{
		Name:            req.Name,
		DefaultTimezone: req.DefaultTimezone,
		APIKeyHash:      middleware.HashAPIKey(apiKey),
	}

	if err := h.store.Create(r.Context(), tenant); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create tenant")
		return
	}

	WriteJSON(w, http.StatusCreated, createTenantResponse{
		ID:              tenant.ID.String(),
		Name:            tenant.Name,
		DefaultTimezone: tenant.DefaultTimezone,
		APIKey:          apiKey,
	})
}

func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "tk_" + hex.EncodeToString(b), nil
}
