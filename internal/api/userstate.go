package api

import "net/http"

// ListSaved returns the user's saved properties.
//
//	@Summary		List saved properties
//	@Tags			saved
//	@Produce		json
//	@Success		200	{array}		models.SavedProperty
//	@Failure		401	{object}	errResponse
//	@Router			/saved [get]
func (h *userHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	items, err := h.users.SavedProperties(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, "list saved", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Save bookmarks a property, replacing notes and tags if already saved.
//
//	@Summary		Save property
//	@Tags			saved
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Property id"
//	@Param			body	body		SaveRequest	false	"Notes and tags"
//	@Success		200		{object}	models.SavedProperty
//	@Failure		404		{object}	errResponse
//	@Router			/saved/{id} [put]
func (h *userHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}
	sp, err := h.users.SaveProperty(r.Context(), currentUserID(r), idParam(r), req.Notes, req.Tags)
	if err != nil {
		writeError(w, "save property", err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

// Unsave removes a bookmark. Removing an unsaved property is not an error.
//
//	@Summary		Unsave property
//	@Tags			saved
//	@Param			id	path	string	true	"Property id"
//	@Success		204
//	@Router			/saved/{id} [delete]
func (h *userHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	if err := h.users.UnsaveProperty(r.Context(), currentUserID(r), idParam(r)); err != nil {
		writeError(w, "unsave property", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAlerts returns the user's alerts, newest first.
//
//	@Summary		List alerts
//	@Tags			alerts
//	@Produce		json
//	@Success		200	{array}	models.Alert
//	@Router			/alerts [get]
func (h *userHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	items, err := h.users.Alerts(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, "list alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateAlert adds an alert and pushes it to the user's event streams.
//
//	@Summary		Create alert
//	@Tags			alerts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AlertRequest	true	"Alert"
//	@Success		201		{object}	models.Alert
//	@Failure		400		{object}	errResponse
//	@Router			/alerts [post]
func (h *userHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req AlertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	uid := currentUserID(r)
	a, err := h.users.AddAlert(r.Context(), uid, req.PropertyID, req.Type, req.Message)
	if err != nil {
		writeError(w, "create alert", err)
		return
	}
	if h.broker != nil {
		h.broker.PublishAlert(uid, a)
	}
	writeJSON(w, http.StatusCreated, a)
}

// MarkRead flags an alert as read.
//
//	@Summary		Mark alert read
//	@Tags			alerts
//	@Param			id	path	string	true	"Alert id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Router			/alerts/{id}/read [post]
func (h *userHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.users.MarkAlertRead(r.Context(), currentUserID(r), idParam(r)); err != nil {
		writeError(w, "mark alert read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnreadAlerts returns the unread alert count.
//
//	@Summary		Unread alert count
//	@Tags			alerts
//	@Produce		json
//	@Success		200	{object}	CountResponse
//	@Router			/alerts/unread [get]
func (h *userHandler) UnreadAlerts(w http.ResponseWriter, r *http.Request) {
	n, err := h.users.UnreadAlertCount(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, "unread alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

func (h *userHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	done, err := h.users.OnboardingCompleted(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, "onboarding", err)
		return
	}
	writeJSON(w, http.StatusOK, OnboardingResponse{Completed: done})
}

func (h *userHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := h.users.CompleteOnboarding(r.Context(), currentUserID(r)); err != nil {
		writeError(w, "complete onboarding", err)
		return
	}
	writeJSON(w, http.StatusOK, OnboardingResponse{Completed: true})
}

func (h *userHandler) ResetOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := h.users.ResetOnboarding(r.Context(), currentUserID(r)); err != nil {
		writeError(w, "reset onboarding", err)
		return
	}
	writeJSON(w, http.StatusOK, OnboardingResponse{Completed: false})
}

