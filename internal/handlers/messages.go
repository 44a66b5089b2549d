package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/eldtechnologies/msgboard/internal/models"
	"github.com/eldtechnologies/msgboard/internal/store"
)

// CreateMessageRequest represents the create message request body.
// A missing, null or empty id asks the server to generate one.
type CreateMessageRequest struct {
	ID   *string `json:"id"`
	Text string  `json:"text"`
}

// toMessage converts the request into a message ready for saving.
func (req CreateMessageRequest) toMessage() *models.Message {
	msg := &models.Message{Text: req.Text}
	if req.ID != nil {
		msg.ID = *req.ID
	}
	return msg
}

// ListMessages handles listing every stored message.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.ListAll(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list messages failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, messages)
}

// CreateMessage handles storing a new message.
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	msg := req.toMessage()
	if err := h.store.Save(r.Context(), msg); err != nil {
		if store.IsDuplicateID(err) {
			h.Error(w, http.StatusConflict, "message id already exists")
			return
		}
		h.logger.Error().Err(err).Str("id", msg.ID).Msg("save message failed")
		h.Error(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	w.Header().Set("Location", "/"+url.PathEscape(msg.ID))
	w.WriteHeader(http.StatusOK)
}

// GetMessages handles looking up messages by id.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	id := messageIDParam(r)

	messages, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("find messages failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, messages)
}

// messageIDParam returns the decoded {id} segment. chi matches against
// RawPath when the request carries one, leaving the segment escaped;
// otherwise the segment is already decoded and must be used as is.
func messageIDParam(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id
	}
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}
