package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leadtrackapp/leadtrack-server/internal/http/response"
	"github.com/leadtrackapp/leadtrack-server/internal/service"
)

// handleListLeads serves the lead list screen: one page of leads plus
// filter options. With ?format=csv it exports the full filtered set
// instead, ignoring pagination.
func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	if r.URL.Query().Get("format") == "csv" {
		s.exportLeads(w, r, params)
		return
	}

	page, err := s.leadService.List(r.Context(), params)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, page, s.logger.Logger)
}

// exportLeads streams the filtered leads as a CSV download.
func (s *Server) exportLeads(w http.ResponseWriter, r *http.Request, params service.ListParams) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	// Both filename forms so legacy and modern browsers agree.
	w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"; filename*=UTF-8''leads.csv`)

	if err := s.leadService.ExportCSV(r.Context(), w, params); err != nil {
		// Headers are already out; all we can do is log and cut the stream.
		s.logger.Error("csv export failed", "error", err)
	}
}

// handleNewLeadForm returns the select options for the create screen.
func (s *Server) handleNewLeadForm(w http.ResponseWriter, r *http.Request) {
	opts, err := s.leadService.FormOptions(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}
	response.Success(w, opts, s.logger.Logger)
}

// handleCreateLead creates a lead and notifies the creator by email.
func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var input service.LeadInput
	if err := json.UnmarshalRead(r.Body, &input); err != nil {
		response.BadRequest(w, "invalid JSON body", s.logger.Logger)
		return
	}

	lead, err := s.leadService.Create(r.Context(), getUser(r.Context()), input)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.CreatedWithMessage(w, lead, service.MsgLeadCreated, s.logger.Logger)
}

// handleGetLead serves the edit screen: the lead plus select options.
func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.leadService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	opts, err := s.leadService.FormOptions(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, map[string]any{
		"lead":    lead,
		"options": opts,
	}, s.logger.Logger)
}

// handleUpdateLead replaces a lead's fields and tag set.
func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	var input service.LeadInput
	if err := json.UnmarshalRead(r.Body, &input); err != nil {
		response.BadRequest(w, "invalid JSON body", s.logger.Logger)
		return
	}

	lead, err := s.leadService.Update(r.Context(), getUser(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.SuccessWithMessage(w, lead, service.MsgLeadUpdated, s.logger.Logger)
}

// handleDeleteLead removes a lead.
func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := s.leadService.Delete(r.Context(), getUser(r.Context()), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.SuccessWithMessage(w, nil, service.MsgLeadDeleted, s.logger.Logger)
}

// parseListParams reads the filter bar's query parameters.
func parseListParams(r *http.Request) service.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	return service.ListParams{
		Query:   q.Get("q"),
		Status:  q.Get("status"),
		Source:  q.Get("source"),
		TagID:   q.Get("tag"),
		OwnerID: q.Get("owner"),
		Page:    page,
	}
}
