// Package httpapi exposes a MiniDb engine over HTTP for out-of-process
// inspection. Every handler talks directly to a single in-process
// engine.Engine: there is no leader, no /join, and no
// redirect-to-leader response, matching the single-writer,
// single-process model the core is built on.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/minidb/minidb/engine"
)

// Server registers MiniDb's HTTP inspection handlers on a mux.
type Server struct {
	eng *engine.Engine
	log *log.Logger
}

// New returns a Server backed by eng. A nil logger defaults to a discard
// logger, mirroring engine's own default.
func New(eng *engine.Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{eng: eng, log: logger}
}

// Register attaches every handler to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/select", s.handleSelect)
	mux.HandleFunc("/scan", s.handleScan)
	mux.HandleFunc("/insert", s.handleInsert)
	mux.HandleFunc("/update", s.handleUpdate)
	mux.HandleFunc("/delete", s.handleDelete)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := s.eng.Info()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}

func parseKey(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("key")
	if raw == "" {
		return 0, errors.New("missing key")
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	key, err := parseKey(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	buf := make([]byte, s.eng.Info().DataSize)
	if err := s.eng.Select(key, buf); err != nil {
		writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(buf)
}

// handleScan streams every row as a "key\ttag" line in ascending key
// order, using select_all's ascending-traversal guarantee so a client can
// stream the response instead of waiting for a JSON array to buffer.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	err := s.eng.SelectAll(func(key int64, buf []byte) bool {
		tag := byte(0)
		if len(buf) > 0 {
			tag = buf[len(buf)-1]
		}
		fmt.Fprintf(w, "%d\t%02x\n", key, tag)
		return true
	})
	if err != nil {
		s.log.Printf("httpapi: scan: %v", err)
	}
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeBody(w, r, s.eng.Insert)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeBody(w, r, s.eng.Update)
}

func (s *Server) writeBody(w http.ResponseWriter, r *http.Request, op func(key int64, data []byte) error) {
	key, err := parseKey(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	dataSize := s.eng.Info().DataSize
	buf := make([]byte, dataSize)
	if _, err := io.ReadFull(r.Body, buf); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := op(key, buf); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	key, err := parseKey(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.eng.Delete(key); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeEngineError(w http.ResponseWriter, err error) {
	var engErr *engine.Error
	status := http.StatusInternalServerError
	if errors.As(err, &engErr) {
		switch engErr.Kind {
		case engine.KindRowNotFound:
			status = http.StatusNotFound
		case engine.KindDuplicatedKeyViolation:
			status = http.StatusConflict
		}
	}
	http.Error(w, err.Error(), status)
}
