package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pageflow/pkg/core/engine"
	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/document"
	"github.com/matzehuels/pageflow/pkg/errors"
	"github.com/matzehuels/pageflow/pkg/render/routes"
	"github.com/matzehuels/pageflow/pkg/store"
)

// =============================================================================
// Responses
// =============================================================================

// documentResponse is returned by every document endpoint.
type documentResponse struct {
	ID     string        `json:"id"`
	Status engine.Status `json:"status"`
	View   engine.View   `json:"view"`
}

// recalculateResponse reports whether a plan is pending.
type recalculateResponse struct {
	documentResponse
	Pending bool `json:"pending"`
}

// commitResponse reports whether a plan was committed.
type commitResponse struct {
	documentResponse
	Committed  bool   `json:"committed"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	// SnapshotError is set when the plan was committed but could not be
	// persisted.
	SnapshotError string `json:"snapshot_error,omitempty"`
}

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func respond(sess *session) documentResponse {
	return documentResponse{
		ID:     sess.id,
		Status: sess.engine.State().Status,
		View:   sess.engine.Snapshot(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, errors.HTTPStatus(err), errorResponse{Code: code, Message: errors.UserMessage(err)})
}

// decodeJSON decodes a bounded request body into v. Coded errors raised by
// text unmarshalers (measurement keys, region keys) keep their code.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.GetCode(err) != "" {
			return err
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body: %v", err)
	}
	return nil
}

// =============================================================================
// Document lifecycle
// =============================================================================

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	format := document.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "toml") {
		format = document.FormatTOML
	}
	doc, err := document.Read(http.MaxBytesReader(w, r.Body, maxBodyBytes), format)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.newSession(doc)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("document created", "doc", sess.id, "components", len(doc.Components))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	w.Header().Set("Location", "/documents/"+sess.id)
	writeJSON(w, http.StatusCreated, respond(sess))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, sess *session) {
	writeJSON(w, http.StatusOK, respond(sess))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateDocumentID(id); err != nil {
		writeError(w, err)
		return
	}
	if !s.remove(id) {
		writeError(w, errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Inputs
// =============================================================================

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request, sess *session) {
	var instances []layout.Instance
	if err := decodeJSON(w, r, &instances); err != nil {
		writeError(w, err)
		return
	}
	seen := make(map[string]bool, len(instances))
	for _, inst := range instances {
		if err := errors.ValidateInstanceID(inst.ID); err != nil {
			writeError(w, err)
			return
		}
		if seen[inst.ID] {
			writeError(w, errors.New(errors.ErrCodeInvalidInstance, "duplicate component id %q", inst.ID))
			return
		}
		seen[inst.ID] = true
	}
	sess.engine.UpdateComponents(instances)
	writeJSON(w, http.StatusOK, respond(sess))
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request, sess *session) {
	var tmpl layout.Template
	if err := decodeJSON(w, r, &tmpl); err != nil {
		writeError(w, err)
		return
	}
	if tmpl.Page.Columns < 0 || tmpl.Page.Height < 0 || tmpl.Page.PageCount < 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidTemplate, "page geometry must be non-negative"))
		return
	}
	sess.engine.UpdateTemplate(tmpl)
	writeJSON(w, http.StatusOK, respond(sess))
}

func (s *Server) handleDataSources(w http.ResponseWriter, r *http.Request, sess *session) {
	var sources map[string]any
	if err := decodeJSON(w, r, &sources); err != nil {
		writeError(w, err)
		return
	}
	sess.engine.UpdateDataSources(sources)
	writeJSON(w, http.StatusOK, respond(sess))
}

func (s *Server) handlePageVariables(w http.ResponseWriter, r *http.Request, sess *session) {
	var vars map[string]any
	if err := decodeJSON(w, r, &vars); err != nil {
		writeError(w, err)
		return
	}
	sess.engine.UpdatePageVariables(vars)
	writeJSON(w, http.StatusOK, respond(sess))
}

func (s *Server) handleRegionHeight(w http.ResponseWriter, r *http.Request, sess *session) {
	var body struct {
		Height float64 `json:"height"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Height <= 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "height must be > 0"))
		return
	}
	sess.engine.UpdateRegionHeight(body.Height)
	writeJSON(w, http.StatusOK, respond(sess))
}

func (s *Server) handleMeasurements(w http.ResponseWriter, r *http.Request, sess *session) {
	var batch []layout.Measurement
	if err := decodeJSON(w, r, &batch); err != nil {
		writeError(w, err)
		return
	}
	sess.engine.SubmitMeasurements(batch)
	writeJSON(w, http.StatusOK, respond(sess))
}

// =============================================================================
// Pagination
// =============================================================================

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request, sess *session) {
	pending := sess.engine.Recalculate()
	writeJSON(w, http.StatusOK, recalculateResponse{documentResponse: respond(sess), Pending: pending})
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request, sess *session) {
	committed := sess.engine.Commit()
	resp := commitResponse{documentResponse: respond(sess), Committed: committed}

	if committed && s.cfg.Store != nil {
		view := resp.View
		snap := store.NewSnapshot(sess.id, *view.Plan, view.Assignments, sess.engine.State().Measurements)
		if err := s.cfg.Store.Save(r.Context(), snap); err != nil {
			err = errors.Wrap(errors.ErrCodeStorage, err, "save snapshot")
			s.logger.Warn("snapshot not saved", "doc", sess.id, "err", err)
			resp.SnapshotError = err.Error()
		} else {
			resp.SnapshotID = snap.ID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request, sess *session) {
	view := sess.engine.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"keys":   view.RequiredMeasurementKeys,
		"status": view.MeasurementStatus,
	})
}

// =============================================================================
// Routing graph
// =============================================================================

func routeOptions(r *http.Request) routes.Options {
	q := r.URL.Query()
	detailed, _ := strconv.ParseBool(q.Get("detailed"))
	collapse, _ := strconv.ParseBool(q.Get("collapse"))
	return routes.Options{Detailed: detailed, Collapse: collapse}
}

func committedDOT(r *http.Request, sess *session) (string, error) {
	view := sess.engine.Snapshot()
	if view.Plan == nil {
		return "", errors.New(errors.ErrCodeNotFound, "document %s has no committed plan", sess.id)
	}
	return routes.ToDOT(*view.Plan, routeOptions(r)), nil
}

func (s *Server) handleRoutesDOT(w http.ResponseWriter, r *http.Request, sess *session) {
	dot, err := committedDOT(r, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(dot))
}

func (s *Server) handleRoutesSVG(w http.ResponseWriter, r *http.Request, sess *session) {
	dot, err := committedDOT(r, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	svg, err := routes.RenderSVG(r.Context(), dot)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeRender, err, "render routes"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// =============================================================================
// Snapshots & metrics
// =============================================================================

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "snapshot store not configured"))
		return
	}
	id := chi.URLParam(r, "id")
	if err := errors.ValidateDocumentID(id); err != nil {
		writeError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	snaps, err := s.cfg.Store.List(r.Context(), id, limit)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeStorage, err, "list snapshots"))
		return
	}
	if snaps == nil {
		snaps = []*store.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.cfg.Counters.Snapshot()
	m["documents"] = int64(s.Len())
	writeJSON(w, http.StatusOK, m)
}
