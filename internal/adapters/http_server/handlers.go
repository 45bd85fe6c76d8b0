// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"trip_planner/internal/app"
	"trip_planner/internal/domain"
)

const maxBody = 64 << 10

type Handlers struct {
	Sessions *app.Sessions
	Planner  *app.Planner
	Packages *app.PackageService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type startRequest struct {
	Text  string         `json:"text"`
	Guess map[string]any `json:"guess"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type statusRequest struct {
	Status domain.PackageStatus `json:"status"`
}

// planResponse carries either the package or, after an empty flight search,
// the reopened session with its questions.
type planResponse struct {
	NoFlights bool                   `json:"no_flights"`
	Package   *domain.HolidayPackage `json:"package,omitempty"`
	Session   *app.SessionView       `json:"session,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", h.startSession)
		r.Get("/{id}", h.getSession)
		r.Delete("/{id}", h.discardSession)
		r.Post("/{id}/answers", h.answer)
		r.Post("/{id}/plan", h.plan)
	})
	s.mux.Route("/v1/packages", func(r chi.Router) {
		r.Get("/", h.listPackages)
		r.Get("/{id}", h.getPackage)
		r.Get("/{id}/itinerary", h.itinerary)
		r.Patch("/{id}/status", h.updateStatus)
		r.Delete("/{id}", h.deletePackage)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps app and domain errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, app.ErrWrongState), errors.Is(err, app.ErrNotValidated):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidQuery):
		writeProblem(w, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "request body must be a JSON object")
		return false
	}
	return true
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func writeTagged(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write tagged body")
	}
}

func (h *Handlers) startSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decode(w, r, &req) {
		return
	}
	var raw domain.RawGuess
	switch {
	case req.Guess != nil:
		raw = app.GuessFromMap(req.Guess)
	case strings.TrimSpace(req.Text) != "":
		g, err := h.Planner.Extract(r.Context(), req.Text)
		if err != nil {
			writeError(w, r, err)
			return
		}
		raw = g
	default:
		writeProblem(w, http.StatusBadRequest, "Invalid body", `either "text" or "guess" is required`)
		return
	}
	v, err := h.Sessions.Start(r.Context(), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+v.ID)
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) discardSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.Sessions.Answer(r.Context(), chi.URLParam(r, "id"), req.Answer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) plan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q, err := h.Sessions.Query(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pkg, err := h.Planner.Plan(r.Context(), q)
	var nf *app.NoFlightsError
	if errors.As(err, &nf) {
		v, rerr := h.Sessions.ReopenNoFlights(r.Context(), id)
		if rerr != nil {
			writeError(w, r, rerr)
			return
		}
		writeJSON(w, http.StatusOK, planResponse{NoFlights: true, Session: &v})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/packages/"+pkg.ID)
	writeJSON(w, http.StatusCreated, planResponse{Package: &pkg})
}

func (h *Handlers) listPackages(w http.ResponseWriter, r *http.Request) {
	f := domain.PackageFilter{
		Status:      domain.PackageStatus(r.URL.Query().Get("status")),
		PackageType: r.URL.Query().Get("type"),
	}
	writeJSON(w, http.StatusOK, h.Packages.List(r.Context(), f))
}

func (h *Handlers) getPackage(w http.ResponseWriter, r *http.Request) {
	p, err := h.Packages.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeTagged(w, r, p)
}

func (h *Handlers) itinerary(w http.ResponseWriter, r *http.Request) {
	items, err := h.Packages.Itinerary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeTagged(w, r, items)
}

func (h *Handlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Packages.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) deletePackage(w http.ResponseWriter, r *http.Request) {
	if err := h.Packages.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
