package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/invalder/OpenDGAi/internal/domain"
	"github.com/invalder/OpenDGAi/internal/service"
)

func (h *APIHandlers) listDatasets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.datasets.List(r.Context(), service.ListDatasetsParams{
		Page:     parseInt(q.Get("page"), 1),
		PageSize: parseInt(q.Get("pageSize"), 0),
		Status:   domain.PDPAStatus(q.Get("status")),
		Search:   q.Get("search"),
	})
	if err != nil {
		h.writeServiceError(w, err, "failed to list datasets")
		return
	}

	resp := listDatasetsResponse{
		Items: make([]datasetResponse, 0, len(page.Items)),
		Pagination: paginationResponse{
			Page:       page.Pagination.Page,
			PageSize:   page.Pagination.PageSize,
			TotalItems: page.Pagination.TotalItems,
			TotalPages: page.Pagination.TotalPages,
		},
	}
	for _, d := range page.Items {
		resp.Items = append(resp.Items, toDatasetResponse(d))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) createDataset(w http.ResponseWriter, r *http.Request) {
	var req createDatasetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	input, err := req.toServiceInput(requester(r))
	if err != nil {
		h.writeServiceError(w, err, "invalid dataset payload")
		return
	}

	d, err := h.datasets.Create(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err, "failed to create dataset")
		return
	}
	respondJSON(w, http.StatusCreated, toDatasetResponse(d))
}

func (h *APIHandlers) getDataset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	d, err := h.datasets.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "failed to fetch dataset", "dataset_id", id)
		return
	}
	respondJSON(w, http.StatusOK, toDatasetResponse(d))
}

func (h *APIHandlers) updateDataset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req updateDatasetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		h.writeServiceError(w, err, "invalid dataset patch")
		return
	}

	d, err := h.datasets.Update(r.Context(), id, patch)
	if err != nil {
		h.writeServiceError(w, err, "failed to update dataset", "dataset_id", id)
		return
	}
	respondJSON(w, http.StatusOK, toDatasetResponse(d))
}

func (h *APIHandlers) deleteDataset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.datasets.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "failed to delete dataset", "dataset_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandlers) triggerScan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req recordsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.scans.Trigger(r.Context(), service.ScanRequest{
		DatasetID:   id,
		Records:     req.Records,
		RequestedBy: requester(r),
		Profile:     req.Profile,
	})
	if err != nil {
		h.writeServiceError(w, err, "failed to scan dataset", "dataset_id", id)
		return
	}
	respondJSON(w, http.StatusCreated, toScanResponse(out.Scan, out.Dataset.PDPAStatus))
}

func (h *APIHandlers) latestScan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	scan, err := h.scans.Latest(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "failed to fetch latest scan", "dataset_id", id)
		return
	}
	respondJSON(w, http.StatusOK, toScanResponse(scan, ""))
}
