package service

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fentz26/radar/internal/models"
	"github.com/fentz26/radar/internal/query"
)

// --- Items ---

// handleItems handles GET /items and POST /items
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.queryItems(w, r)
	case http.MethodPost:
		s.createItem(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleItemByID handles /items/{id}
func (s *Server) handleItemByID(w http.ResponseWriter, r *http.Request) {
	id, action := splitPath(r.URL.Path, "/items/")
	if id == "" {
		http.Error(w, "item id required", http.StatusBadRequest)
		return
	}
	if action != "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	user := UserFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		item, err := s.service.GetItem(r.Context(), user, id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodPut, http.MethodPatch:
		var patch ItemPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		item, err := s.service.UpdateItem(r.Context(), user, id, patch)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := s.service.DeleteItem(r.Context(), user, id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var in ItemInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := s.service.CreateItem(r.Context(), UserFromContext(r.Context()), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// ParseQuery decodes engine query parameters. Repeated and comma-separated
// category and status values are both accepted. A missing page_size uses
// defaultPageSize; page_size=0 returns every match on one page.
func ParseQuery(v url.Values, defaultPageSize int) (QueryRequest, error) {
	req := QueryRequest{
		Filter: models.FilterSpec{
			SearchText: v.Get("q"),
			Categories: multiValue(v, "category"),
			DateFrom:   v.Get("from"),
			DateTo:     v.Get("to"),
		},
		Page:   query.Page{Number: 1, Size: defaultPageSize},
		Manual: true,
	}

	for _, raw := range multiValue(v, "status") {
		st, err := models.ParseItemStatus(raw)
		if err != nil {
			return req, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		req.Filter.Statuses = append(req.Filter.Statuses, st)
	}

	var err error
	if req.Filter.EssentialOnly, err = boolParam(v, "essential", false); err != nil {
		return req, err
	}
	if req.Manual, err = boolParam(v, "manual", true); err != nil {
		return req, err
	}

	if req.Sort.Key, err = models.ParseSortKey(v.Get("sort")); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if req.Sort.Direction, err = models.ParseSortDirection(v.Get("dir")); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	if raw := v.Get("page"); raw != "" {
		if req.Page.Number, err = strconv.Atoi(raw); err != nil {
			return req, fmt.Errorf("%w: page must be an integer", ErrInvalidQuery)
		}
	}
	if raw := v.Get("page_size"); raw != "" {
		if req.Page.Size, err = strconv.Atoi(raw); err != nil {
			return req, fmt.Errorf("%w: page_size must be an integer", ErrInvalidQuery)
		}
	}
	return req, nil
}

func multiValue(v url.Values, key string) []string {
	var out []string
	for _, raw := range v[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func boolParam(v url.Values, key string, def bool) (bool, error) {
	raw := v.Get(key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("%w: %s must be a boolean", ErrInvalidQuery, key)
	}
	return b, nil
}

func (s *Server) queryItems(w http.ResponseWriter, r *http.Request) {
	req, err := ParseQuery(r.URL.Query(), s.service.DefaultPageSize())
	if err != nil {
		s.writeError(w, err)
		return
	}
	result, err := s.service.Query(r.Context(), UserFromContext(r.Context()), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := s.service.Snapshot(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cats, err := s.service.Categories(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stats, err := s.service.Stats(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- Manual Order ---

type orderResponse struct {
	Order []string `json:"order"`
}

type saveOrderRequest struct {
	Order []string `json:"order"`
}

// handleOrder handles GET, PUT and DELETE /order
func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		ids, err := s.service.GetOrder(r.Context(), user)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orderResponse{Order: ids})
	case http.MethodPut:
		var req saveOrderRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		ids, err := s.service.SaveOrder(r.Context(), user, req.Order)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orderResponse{Order: ids})
	case http.MethodDelete:
		if err := s.service.ResetOrder(r.Context(), user); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type moveRequest struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

func (s *Server) handleOrderMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ids, err := s.service.MoveItem(r.Context(), UserFromContext(r.Context()), req.ID, req.Index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Order: ids})
}

// --- RFID ---

type scanRequest struct {
	Tags     []string `json:"tags"`
	Location string   `json:"location"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req scanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// An empty sweep marks everything missing; only the reader poller sends one.
	if strings.TrimSpace(strings.Join(req.Tags, "")) == "" {
		s.writeError(w, fmt.Errorf("%w: tags list is required", ErrInvalidQuery))
		return
	}
	res, err := s.service.Scan(r.Context(), UserFromContext(r.Context()), req.Tags, req.Location)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type resetResponse struct {
	Reset int `json:"reset"`
}

func (s *Server) handleScanReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	n, err := s.service.ResetStatuses(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{Reset: n})
}

type tagRequest struct {
	Status   models.ItemStatus `json:"status"`
	Location string            `json:"location"`
}

// handleTag handles POST /rfid/{tag}
func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tag, _ := splitPath(r.URL.Path, "/rfid/")
	if tag == "" {
		http.Error(w, "tag required", http.StatusBadRequest)
		return
	}
	var req tagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = models.ItemStatusDetected
	}
	item, err := s.service.UpdateTag(r.Context(), UserFromContext(r.Context()), tag, req.Status, req.Location)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// --- Filter Presets ---

type saveFilterRequest struct {
	Name   string            `json:"name"`
	Filter models.FilterSpec `json:"filter"`
	Sort   models.SortSpec   `json:"sort"`
}

// handleFilters handles GET and POST /filters
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		list, err := s.service.ListFilterPresets(r.Context(), user)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req saveFilterRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		p, err := s.service.SaveFilterPreset(r.Context(), user, req.Name, req.Filter, req.Sort)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleFilterByID handles GET and DELETE /filters/{id}
func (s *Server) handleFilterByID(w http.ResponseWriter, r *http.Request) {
	id, _ := splitPath(r.URL.Path, "/filters/")
	if id == "" {
		http.Error(w, "preset id required", http.StatusBadRequest)
		return
	}
	user := UserFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		p, err := s.service.GetFilterPreset(r.Context(), user, id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if err := s.service.DeleteFilterPreset(r.Context(), user, id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// --- Event Presets ---

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	all, err := s.service.EventPresets()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

type applyPresetRequest struct {
	Names []string `json:"names"`
}

// handlePresetByID handles GET /presets/{id} and POST /presets/{id}/apply
func (s *Server) handlePresetByID(w http.ResponseWriter, r *http.Request) {
	id, action := splitPath(r.URL.Path, "/presets/")
	if id == "" {
		http.Error(w, "preset id required", http.StatusBadRequest)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		p, err := s.service.EventPreset(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case action == "apply" && r.Method == http.MethodPost:
		var req applyPresetRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		items, err := s.service.ApplyEventPreset(r.Context(), UserFromContext(r.Context()), id, req.Names)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, items)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// --- Reminders ---

// handleReminders handles GET and POST /reminders
func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		list, err := s.service.ListReminders(r.Context(), user)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var in ReminderInput
		if !decodeJSON(w, r, &in) {
			return
		}
		rem, err := s.service.CreateReminder(r.Context(), user, in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rem)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleReminderByID handles PUT and DELETE /reminders/{id}
func (s *Server) handleReminderByID(w http.ResponseWriter, r *http.Request) {
	id, _ := splitPath(r.URL.Path, "/reminders/")
	if id == "" {
		http.Error(w, "reminder id required", http.StatusBadRequest)
		return
	}
	user := UserFromContext(r.Context())
	switch r.Method {
	case http.MethodPut, http.MethodPatch:
		var patch ReminderPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		rem, err := s.service.UpdateReminder(r.Context(), user, id, patch)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rem)
	case http.MethodDelete:
		if err := s.service.DeleteReminder(r.Context(), user, id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
