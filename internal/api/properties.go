package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/propscope/internal/assistant"
	"github.com/starford/propscope/internal/catalog"
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/status"
)

type propertyHandler struct {
	cat *catalog.Catalog
}

// List returns properties filtered by query parameters.
//
//	@Summary		List properties
//	@Tags			properties
//	@Produce		json
//	@Param			q		query		string	false	"Substring of title, address or type"
//	@Param			status	query		string	false	"Status filter"
//	@Param			type	query		string	false	"Property type filter"
//	@Param			sort	query		string	false	"price, -price, title or -trust"
//	@Param			limit	query		int		false	"Max results"
//	@Param			offset	query		int		false	"Offset"
//	@Success		200		{object}	PropertyListResponse
//	@Failure		400		{object}	errResponse
//	@Router			/properties [get]
func (h *propertyHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lq := catalog.ListQuery{
		Query:  q.Get("q"),
		Status: models.Status(q.Get("status")),
		Type:   q.Get("type"),
		Sort:   q.Get("sort"),
	}
	var err error
	if v := q.Get("limit"); v != "" {
		if lq.Limit, err = strconv.Atoi(v); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid limit"))
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if lq.Offset, err = strconv.Atoi(v); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid offset"))
			return
		}
	}

	items, total, err := h.cat.List(lq)
	if err != nil {
		writeError(w, "list properties", err)
		return
	}
	writeJSON(w, http.StatusOK, PropertyListResponse{Properties: items, Total: total})
}

// Get returns one property with its description and display hints.
//
//	@Summary		Get property
//	@Tags			properties
//	@Produce		json
//	@Param			id	path		string	true	"Property id"
//	@Success		200	{object}	PropertyDetail
//	@Failure		404	{object}	errResponse
//	@Router			/properties/{id} [get]
func (h *propertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.cat.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get property", err)
		return
	}
	writeJSON(w, http.StatusOK, detail(p))
}

// Compare returns up to four properties side by side.
//
//	@Summary		Compare properties
//	@Tags			properties
//	@Produce		json
//	@Param			ids	query		string	true	"Comma-separated property ids"
//	@Success		200	{object}	CompareResponse
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Router			/properties/compare [get]
func (h *propertyHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	items, err := h.cat.Compare(ids)
	if err != nil {
		writeError(w, "compare properties", err)
		return
	}
	out := make([]PropertyDetail, len(items))
	for i, p := range items {
		out[i] = detail(p)
	}
	writeJSON(w, http.StatusOK, CompareResponse{Properties: out})
}

// Markers returns map pins for properties with coordinates.
//
//	@Summary		Map markers
//	@Tags			map
//	@Produce		json
//	@Success		200	{object}	MarkersResponse
//	@Router			/map/markers [get]
func (h *propertyHandler) Markers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MarkersResponse{Markers: h.cat.Markers()})
}

// Stats returns aggregate numbers for the loaded catalog.
//
//	@Summary		Catalog statistics
//	@Tags			properties
//	@Produce		json
//	@Success		200	{object}	catalog.Stats
//	@Router			/stats [get]
func (h *propertyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cat.Stats())
}

// Legend returns status labels, colors and counts in display order.
//
//	@Summary		Status legend
//	@Tags			map
//	@Produce		json
//	@Success		200	{array}	LegendEntry
//	@Router			/status/legend [get]
func (h *propertyHandler) Legend(w http.ResponseWriter, r *http.Request) {
	counts := status.Tally(h.cat.All())
	out := make([]LegendEntry, 0, len(models.Statuses))
	for _, st := range models.Statuses {
		out = append(out, LegendEntry{Status: st, Label: st.Label(), Color: st.Color(), Count: counts[st]})
	}
	writeJSON(w, http.StatusOK, out)
}

func detail(p models.Property) PropertyDetail {
	d := PropertyDetail{
		PropertyFields: PropertyFields(catalog.WithDescription(p)),
		StatusLabel:    p.Status.Label(),
		StatusColor:    p.Status.Color(),
		ImageURLs:      make(map[string][]string, len(catalog.ImageSizes)),
	}
	for preset := range catalog.ImageSizes {
		urls := make([]string, 0, len(p.Images))
		for _, u := range p.Images {
			urls = append(urls, catalog.OptimizedImageURL(u, preset))
		}
		d.ImageURLs[preset] = urls
	}
	if p.TrustScore != nil {
		score := int(*p.TrustScore)
		d.TrustLabel = assistant.TrustLabel(score)
		d.TrustLevel = assistant.TrustLevel(score)
	}
	return d
}
