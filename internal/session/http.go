package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/adaptive"
	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/itembank"
	httperrors "github.com/skandaka/neuravia-adaptive-cognitive-test/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for driving test sessions.
type HTTPHandlers struct {
	svc    *Service
	tokens *TokenManager
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for session endpoints.
func NewHTTPHandlers(svc *Service, tokens *TokenManager, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		tokens: tokens,
		logger: logger,
	}
}

// StartRequest opens a session for one cognitive module.
type StartRequest struct {
	Module string `json:"module"`
}

// SubmitRequest reports the outcome of the item served last.
type SubmitRequest struct {
	QuestionID  string  `json:"question_id"`
	Correct     bool    `json:"correct"`
	TimeSeconds float64 `json:"time_seconds"`
	Difficulty  int     `json:"difficulty"`
}

// Start handles POST /v1/sessions
func (h *HTTPHandlers) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.Module == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "module is required", "module")
		return
	}

	snap, poolSize, err := h.svc.Start(r.Context(), req.Module)
	if err != nil {
		if errors.Is(err, ErrUnknownModule) {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeUnknownModule, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("session start failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeSessionStartFailed, "could not start session")
		return
	}

	token, err := h.tokens.Generate(snap.SessionID, snap.Module)
	if err != nil {
		h.logger.Error().Err(err).Msg("session token generation failed")
		httperrors.RespondInternalError(w, "could not issue session token")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"session_id": snap.SessionID.String(),
		"module":     snap.Module,
		"difficulty": snap.CurrentDifficulty,
		"pool_size":  poolSize,
		"token":      token,
	})
}

// Next handles GET /v1/sessions/{id}/next
func (h *HTTPHandlers) Next(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	item, difficulty, err := h.svc.Next(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, adaptive.ErrNoItems):
			// Recoverable: the caller decides whether to finish or relax
			// the difficulty constraint. The tier that ran dry is reported.
			httperrors.RespondErrorWithDetails(w, http.StatusConflict, httperrors.ErrCodePoolExhausted,
				"no items left at the required difficulty",
				map[string]interface{}{"difficulty": difficulty})
		case errors.Is(err, ErrAwaitingResponse):
			httperrors.RespondConflict(w, httperrors.ErrCodeInvalidRequest, err.Error())
		default:
			h.respondServiceError(w, err, httperrors.ErrCodeSelectionFailed)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"question_id": item.ID,
		"module":      item.Module,
		"difficulty":  difficulty,
		"content":     clientPayload(item),
	})
}

// Submit handles POST /v1/sessions/{id}/responses
func (h *HTTPHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	summary, err := h.svc.Submit(r.Context(), sessionID, adaptive.ResponseRecord{
		QuestionID:  req.QuestionID,
		Correct:     req.Correct,
		TimeSeconds: req.TimeSeconds,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidResponse):
			httperrors.RespondBadRequest(w, httperrors.ErrCodeResponseOutOfBounds, err.Error())
		case errors.Is(err, ErrNoOutstandingItem):
			httperrors.RespondConflict(w, httperrors.ErrCodeInvalidRequest, err.Error())
		default:
			h.respondServiceError(w, err, httperrors.ErrCodeSubmitFailed)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"recorded": true,
		"summary":  summary,
	})
}

// Summary handles GET /v1/sessions/{id}/summary
func (h *HTTPHandlers) Summary(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	summary, snap, err := h.svc.Summary(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err, httperrors.ErrCodeInternalError)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": snap.SessionID.String(),
		"module":     snap.Module,
		"status":     snap.Status,
		"difficulty": snap.CurrentDifficulty,
		"summary":    summary,
	})
}

// Finish handles POST /v1/sessions/{id}/finish
func (h *HTTPHandlers) Finish(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.Finish(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err, httperrors.ErrCodeInternalError)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID.String(),
		"status":     StatusComplete,
		"summary":    summary,
	})
}

// authorize checks the bearer token against the session id in the path.
func (h *HTTPHandlers) authorize(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidSessionID, "session id must be a UUID")
		return uuid.Nil, false
	}

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidSessionToken, "missing bearer token")
		return uuid.Nil, false
	}
	claims, err := h.tokens.Validate(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidSessionToken, err.Error())
		return uuid.Nil, false
	}
	if claims.SessionID != sessionID {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidSessionToken, "token does not match session")
		return uuid.Nil, false
	}
	return sessionID, true
}

func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, err error, fallbackCode string) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "session not found or expired")
	case errors.Is(err, ErrSessionFinished):
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionFinished, "session already finished")
	case errors.Is(err, ErrLockContended):
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionLockContended, "another request holds this session")
	default:
		h.logger.Error().Err(err).Msg("session request failed")
		httperrors.RespondInternalError(w, "internal error")
	}
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("encode response failed")
	}
}

// clientPayload strips the answer key before the item leaves the server.
func clientPayload(item *adaptive.Item) itembank.Payload {
	var payload itembank.Payload
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return itembank.Payload{}
	}
	payload.Answer = ""
	return payload
}
