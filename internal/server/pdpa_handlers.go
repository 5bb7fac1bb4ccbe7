package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/invalder/OpenDGAi/internal/pdpa"
	"github.com/invalder/OpenDGAi/internal/service"
)

func (h *APIHandlers) scoreRecords(w http.ResponseWriter, r *http.Request) {
	var req recordsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.scans.Preview(req.Records)
	if err != nil {
		h.writeServiceError(w, err, "failed to score records")
		return
	}
	if result.Findings == nil {
		result.Findings = []pdpa.Finding{}
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *APIHandlers) validateNationalID(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	respondJSON(w, http.StatusOK, nationalIDResponse{
		NationalID: id,
		Valid:      pdpa.ValidateNationalID(id),
	})
}

func (h *APIHandlers) suggestMetadata(w http.ResponseWriter, r *http.Request) {
	var req recordsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s := service.SuggestMetadata(req.Records)
	respondJSON(w, http.StatusOK, metadataSuggestionResponse{
		Title:       s.Title,
		Description: s.Description,
		Tags:        s.Tags,
	})
}

func (h *APIHandlers) listProfiles(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, profilesResponse{
		Default:           h.scans.DefaultProfile(),
		HighRiskThreshold: h.scans.Threshold(),
		Profiles:          h.scans.Profiles(),
	})
}
