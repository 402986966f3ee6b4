package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/chocolab/ai-gateway/internal/domain"
)

type handlers struct {
	services Services
	logger   *slog.Logger
}

type chatRequest struct {
	Message  string                   `json:"message"`
	UserID   string                   `json:"user_id"`
	UserRole string                   `json:"user_role,omitempty"`
	Page     string                   `json:"page,omitempty"`
	Images   []domain.ImageAttachment `json:"images,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type translateResponse struct {
	Translation string `json:"translation"`
}

type batchRequest struct {
	Texts          []string `json:"texts"`
	TargetLanguage string   `json:"target_language"`
	Domain         string   `json:"domain,omitempty"`
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Language string `json:"language"`
}

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.ErrValidation("invalid request body"))
		return
	}

	AddLogField(r.Context(), "user_id", req.UserID)

	answer, err := h.services.Chat.Chat(r.Context(), req.Message, &domain.ChatContext{
		UserID:   req.UserID,
		UserRole: req.UserRole,
		Page:     req.Page,
		Images:   req.Images,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: answer})
}

func (h *handlers) translate(w http.ResponseWriter, r *http.Request) {
	var req domain.TranslationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.ErrValidation("invalid request body"))
		return
	}

	translation, err := h.services.Translate.Translate(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, translateResponse{Translation: translation})
}

func (h *handlers) translateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.ErrValidation("invalid request body"))
		return
	}
	if req.TargetLanguage == "" {
		writeError(w, r, domain.ErrValidation("target_language is required"))
		return
	}

	result, err := h.services.Batch.TranslateBatch(r.Context(), req.Texts, req.TargetLanguage, req.Domain)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) detect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.ErrValidation("invalid request body"))
		return
	}
	if req.Text == "" {
		writeError(w, r, domain.ErrValidation("text is required"))
		return
	}

	writeJSON(w, http.StatusOK, detectResponse{
		Language: h.services.Detect.Detect(r.Context(), req.Text),
	})
}

// events upgrades the request to a websocket subscribed to the caller's
// per-user topic.
func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, r, domain.ErrValidation("user_id is required"))
		return
	}

	h.services.Events.ServeWS(w, r, "user:"+userID)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	AddError(r.Context(), err)

	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) {
		writeJSON(w, gwErr.HTTPStatusCode(), errorResponse{
			Error: errorBody{Type: string(gwErr.Type), Message: gwErr.Message},
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error: errorBody{Type: "internal", Message: "internal error"},
	})
}
