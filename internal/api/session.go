package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/propscope/internal/sse"
	"github.com/starford/propscope/internal/userdata"
)

type userHandler struct {
	users  *userdata.Service
	broker *sse.Broker
}

// Login starts a demo session.
//
//	@Summary		Start session
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Login"
//	@Success		201		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Router			/session [post]
func (h *userHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, tok, err := h.users.Login(r.Context(), req.Email, req.Name)
	if err != nil {
		writeError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{User: u, Token: tok})
}

// Me returns the session user.
//
//	@Summary		Current user
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	models.User
//	@Failure		401	{object}	errResponse
//	@Router			/session [get]
func (h *userHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	writeJSON(w, http.StatusOK, u)
}

// Logout ends the session.
//
//	@Summary		End session
//	@Tags			session
//	@Success		204
//	@Router			/session [delete]
func (h *userHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), sessionToken(r)); err != nil {
		writeError(w, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func currentUserID(r *http.Request) string {
	u, _ := userFrom(r.Context())
	return u.ID
}

// idParam is the {id} path segment.
func idParam(r *http.Request) string { return chi.URLParam(r, "id") }
