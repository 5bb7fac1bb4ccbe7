package server

import (
	"errors"
	"net/http"

	"github.com/invalder/OpenDGAi/internal/ckan"
)

func (h *APIHandlers) catalogEnabled(w http.ResponseWriter) bool {
	if h.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog integration is disabled")
		return false
	}
	return true
}

func (h *APIHandlers) searchCatalog(w http.ResponseWriter, r *http.Request) {
	if !h.catalogEnabled(w) {
		return
	}
	q := r.URL.Query()
	pkgs, err := h.catalog.Search(r.Context(), q.Get("q"), parseInt(q.Get("rows"), 0))
	if err != nil {
		h.writeServiceError(w, err, "catalog search failed", "query", q.Get("q"))
		return
	}
	if pkgs == nil {
		pkgs = []ckan.Package{}
	}
	respondJSON(w, http.StatusOK, catalogSearchResponse{Count: len(pkgs), Results: pkgs})
}

func (h *APIHandlers) importPackage(w http.ResponseWriter, r *http.Request) {
	if !h.catalogEnabled(w) {
		return
	}
	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.catalog.Import(r.Context(), req.CKANID, requester(r))
	if err != nil {
		h.writeServiceError(w, err, "catalog import failed", "ckan_id", req.CKANID)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	respondJSON(w, status, importResponse{Created: res.Created, Dataset: toDatasetResponse(res.Dataset)})
}

func (h *APIHandlers) syncCatalog(w http.ResponseWriter, r *http.Request) {
	if !h.catalogEnabled(w) {
		return
	}
	var req syncRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.catalog.Sync(r.Context(), req.Query)
	if err != nil {
		h.writeServiceError(w, err, "catalog sync failed", "query", req.Query)
		return
	}
	errs := report.Errors
	if errs == nil {
		errs = []string{}
	}
	respondJSON(w, http.StatusOK, syncResponse{
		Fetched: report.Fetched,
		Created: report.Created,
		Updated: report.Updated,
		Skipped: report.Skipped,
		Errors:  errs,
	})
}
