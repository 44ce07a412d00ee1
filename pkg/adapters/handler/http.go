package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/wadjakorntonsri/clicklink/pkg/core/domain"
	"github.com/wadjakorntonsri/clicklink/pkg/ports"
)

type HTTPHandler struct {
	service ports.LinkService
}

func NewHTTPHandler(service ports.LinkService) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// CreateLinkRequest payload
type CreateLinkRequest struct {
	TargetURL string `json:"target_url"`
	Code      string `json:"code"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// codeParam extracts the {code} route parameter. Handlers must reject the
// request when ok is false, before calling the service.
func codeParam(r *http.Request) (code string, ok bool) {
	code = strings.TrimSpace(r.PathValue("code"))
	return code, code != ""
}

// Create Link
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	link, err := h.service.Create(r.Context(), req.Code, req.TargetURL)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Printf("Link %s created by %s", link.Code, userEmail(r.Context()))
	writeJSON(w, http.StatusCreated, link)
}

// List Links, newest first
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// Get a single link by code
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	code, ok := codeParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing short code"})
		return
	}

	link, err := h.service.Get(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// Delete Link
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code, ok := codeParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing short code"})
		return
	}

	if err := h.service.Delete(r.Context(), code); err != nil {
		writeError(w, r, err)
		return
	}
	log.Printf("Link %s deleted by %s", code, userEmail(r.Context()))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Redirect to target URL, counting the click
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code, ok := codeParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing short code"})
		return
	}

	targetURL, err := h.service.Redirect(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, targetURL, http.StatusFound)
}

// Health reports whether the store is reachable
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Healthy(r.Context()); err != nil {
		log.Printf("health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

// writeError maps service errors to status codes. Unexpected errors are
// logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "Code already exists"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	default:
		log.Printf("%s %s failed: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
