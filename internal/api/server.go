package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Roelanb/autoremove-webui/internal/config"
	"github.com/Roelanb/autoremove-webui/internal/history"
	"github.com/Roelanb/autoremove-webui/internal/observability"
	"github.com/Roelanb/autoremove-webui/internal/runner"
)

// HistoryLimit caps /api/history.
const HistoryLimit = 50

const errMissingField = "Missing 'tasks' or 'raw' field"

// Control is what the handlers need from the backend. *Service implements it.
type Control interface {
	Config() config.Snapshot
	SaveTasks(cfg config.Configuration) (config.Snapshot, error)
	SaveRaw(raw string) (config.Snapshot, error)
	Preview(ctx context.Context) (runner.Result, error)
	Run(ctx context.Context) (runner.Result, error)
	History(limit int) ([]history.Revision, []history.RunRecord, error)
}

type Server struct {
	log  observability.Logger
	ctrl Control
	mux  *http.ServeMux
	srv  *http.Server
	addr string
	mu   sync.Mutex
}

func New(log observability.Logger, ctrl Control, addr string) *Server {
	mux := http.NewServeMux()
	s := &Server{
		log:  log,
		ctrl: ctrl,
		mux:  mux,
		addr: addr,
	}
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/preview", s.handleAction(ctrl.Preview))
	mux.HandleFunc("/api/run", s.handleAction(ctrl.Run))
	mux.HandleFunc("/api/history", s.handleHistory)
	// Server-rendered overview
	s.mountUI()
	return s
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Serve listens on the configured address and blocks until ctx is done or
// the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("api server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	s.srv = nil
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// saveResponse is the post-save snapshot plus the ok flag.
type saveResponse struct {
	OK bool `json:"ok"`
	config.Snapshot
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.ctrl.Config())
	case http.MethodPost:
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "read body: "+err.Error())
			return
		}
		var body map[string]json.RawMessage
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &body); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid JSON body")
				return
			}
		}

		var snap config.Snapshot
		var view string
		if tasks, ok := body["tasks"]; ok {
			view = "form"
			var cfg config.Configuration
			if err := json.Unmarshal(tasks, &cfg.Tasks); err != nil {
				writeError(w, http.StatusBadRequest, "'tasks' must be a list of tasks")
				return
			}
			snap, err = s.ctrl.SaveTasks(cfg)
		} else if rawField, ok := body["raw"]; ok {
			view = "raw"
			var text string
			if err := json.Unmarshal(rawField, &text); err != nil {
				writeError(w, http.StatusBadRequest, "'raw' must be a string")
				return
			}
			snap, err = s.ctrl.SaveRaw(text)
		} else {
			writeError(w, http.StatusBadRequest, errMissingField)
			return
		}
		if err != nil {
			s.log.Warnw("config save rejected", "view", view, "error", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Infow("config saved", "view", view, "bytes", len(snap.Raw))
		writeJSON(w, http.StatusOK, saveResponse{OK: true, Snapshot: snap})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleAction(fn func(context.Context) (runner.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST only")
			return
		}
		res, err := fn(r.Context())
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, res)
		case IsTimeout(err):
			writeJSON(w, http.StatusRequestTimeout, res)
		default:
			s.log.Errorw("autoremove exec failed", "path", r.URL.Path, "error", err)
			writeJSON(w, http.StatusInternalServerError, res)
		}
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	limit := HistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < HistoryLimit {
			limit = n
		}
	}
	revs, runs, err := s.ctrl.History(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// revision bodies stay out of the listing
	for i := range revs {
		revs[i].Raw = ""
	}
	writeJSON(w, http.StatusOK, map[string]any{"revisions": revs, "runs": runs})
}
