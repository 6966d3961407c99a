package api

import (
	"log/slog"
	"net/http"

	"github.com/starford/propscope/internal/assistant"
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/userdata"
)

type chatHandler struct {
	users *userdata.Service
	ai    *assistant.Service
}

// Ask answers a question about the catalog. With a session, prior turns are
// sent as history and both sides of the exchange are appended to it.
//
//	@Summary		Ask the assistant
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ChatRequest	true	"Question"
//	@Success		200		{object}	ChatResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Router			/chat [post]
func (h *chatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	if h.ai == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("assistant not configured"))
		return
	}
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	u, hasUser := userFrom(ctx)
	var history []models.ChatMessage
	if hasUser {
		var err error
		if history, err = h.users.ChatHistory(ctx, u.ID); err != nil {
			writeError(w, "chat history", err)
			return
		}
	}

	ans, err := h.ai.Ask(ctx, req.Question, history)
	if err != nil {
		writeError(w, "ask", err)
		return
	}

	if hasUser {
		err := h.users.AppendChat(ctx, u.ID,
			models.ChatMessage{Role: models.RoleUser, Content: req.Question},
			models.ChatMessage{Role: models.RoleAssistant, Content: ans.Answer},
		)
		if err != nil {
			// The answer is still useful without the transcript.
			slog.Warn("chat history append failed", slog.String("user", u.ID), slog.String("error", err.Error()))
		}
	}
	writeJSON(w, http.StatusOK, ans)
}

// History returns the stored conversation.
//
//	@Summary		Chat history
//	@Tags			chat
//	@Produce		json
//	@Success		200	{object}	ChatHistoryResponse
//	@Router			/chat/history [get]
func (h *chatHandler) History(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.users.ChatHistory(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, "chat history", err)
		return
	}
	writeJSON(w, http.StatusOK, ChatHistoryResponse{Messages: msgs})
}

// ClearHistory deletes the stored conversation.
//
//	@Summary		Clear chat history
//	@Tags			chat
//	@Success		204
//	@Router			/chat/history [delete]
func (h *chatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.users.ClearChatHistory(r.Context(), currentUserID(r)); err != nil {
		writeError(w, "clear chat history", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
