// Package control exposes a synthesizer session over HTTP.
package control

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jinjor/tone-synth/src/audio"
)

const maxBodySize = 64 * 1024

// Synth is the part of *audio.Audio the HTTP surface drives.
type Synth interface {
	Update(command []string) error
	NoteOn(note audio.NoteID, freq float64) error
	NoteOff(note audio.NoteID)
	ActiveNotes() int
	ApplyJSON(data []byte) error
	ToJSON() []byte
	GetFFT() []float64
	GetFilterShape(index int) ([]float64, error)
}

var _ Synth = (*audio.Audio)(nil)

// Server routes HTTP requests to a Synth.
type Server struct {
	synth  Synth
	router *chi.Mux
}

// New creates a new server
func New(synth Synth) *Server {
	s := &Server{
		synth:  synth,
		router: chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Handler ...
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/state", s.handleGetState)
	r.Put("/state", s.handlePutState)
	r.Post("/commands", s.handleCommand)
	r.Post("/notes/{id}/on", s.handleNoteOn)
	r.Post("/notes/{id}/off", s.handleNoteOff)
	r.Get("/notes", s.handleNotes)
	r.Get("/spectrum", s.handleSpectrum)
	r.Get("/filters/{index}/shape", s.handleFilterShape)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(s.synth.ToJSON())
}

func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.synth.ApplyJSON(data); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.handleGetState(w, r)
}

// handleCommand takes one IPC-style command line as the body, e.g.
// "set filter 0 cutoff 2000".
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	command, err := ParseCommand(string(data))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.synth.Update(command); err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNoteOn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	freq, err := strconv.ParseFloat(r.URL.Query().Get("freq"), 64)
	if err != nil {
		http.Error(w, "freq: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.synth.NoteOn(audio.NoteID(id), freq); err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNoteOff(w http.ResponseWriter, r *http.Request) {
	s.synth.NoteOff(audio.NoteID(chi.URLParam(r, "id")))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]int{"active": s.synth.ActiveNotes()})
}

func (s *Server) handleSpectrum(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.synth.GetFFT())
}

func (s *Server) handleFilterShape(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "index: "+err.Error(), http.StatusBadRequest)
		return
	}
	shape, err := s.synth.GetFilterShape(index)
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	writeJSON(w, shape)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("error while writing response: %v", err)
	}
}

// statusOf maps control-surface errors to 400 and anything else to 500.
func statusOf(err error) int {
	switch {
	case errors.Is(err, audio.ErrInvalidParam),
		errors.Is(err, audio.ErrCutoffAboveNyquist),
		errors.Is(err, audio.ErrUnknownWaveKind),
		errors.Is(err, audio.ErrUnknownFilterKind),
		errors.Is(err, audio.ErrUnknownCommand),
		errors.Is(err, audio.ErrInvalidNote):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ParseCommand splits one command line into URL-query-unescaped tokens.
func ParseCommand(line string) ([]string, error) {
	items := strings.Fields(line)
	for i, item := range items {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		items[i] = escaped
	}
	return items, nil
}
