package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/DebjyotiRay/orchids-challenge/internal/service"
)

// Server exposes the generation service over HTTP: a small JSON API,
// live event streaming (WebSocket and SSE), and static serving of the
// generated runs.
type Server struct {
	svc       *service.Service
	outputDir string
	log       *slog.Logger
	http      *http.Server
}

// New creates a Server for the given service. outputDir is the root of
// the generated run directories served under /generated/.
func New(svc *service.Service, outputDir string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		svc:       svc,
		outputDir: outputDir,
		log:       log,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/clone", s.handleClone)
	mux.HandleFunc("GET /api/status/{id}", s.handleStatus)
	mux.HandleFunc("GET /api/result/{id}", s.handleResult)
	mux.HandleFunc("POST /api/cancel/{id}", s.handleCancel)
	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("GET /api/agents", s.handleAgents)
	mux.HandleFunc("GET /api/stream/{id}", s.handleStream)
	mux.HandleFunc("GET /ws/{id}", s.handleWebSocket)
	mux.Handle("GET /generated/", http.StripPrefix("/generated/", http.FileServer(http.Dir(s.outputDir))))

	return mux
}

// Serve blocks, serving on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.http.Shutdown(shutdownCtx)
	}()

	s.log.Info("http server listening", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

type cloneRequest struct {
	URL string `json:"url"`
}

type cloneResponse struct {
	TaskID string `json:"task_id"`
}

func (s *Server) handleClone(w http.ResponseWriter, r *http.Request) {
	var req cloneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	taskID, err := s.svc.Clone(req.URL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.log.Info("clone task accepted", "task_id", taskID, "url", req.URL)
	writeJSON(w, http.StatusAccepted, cloneResponse{TaskID: taskID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	task, err := s.svc.GetTaskStatus(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"status": "not_found"})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.GetTaskResult(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"status": "not_found"})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"status": "not_finished"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.svc.Cancel(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "canceling"})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filter := service.ListTasksRequest{
		Status:    r.URL.Query().Get("status"),
		PageToken: r.URL.Query().Get("pageToken"),
	}
	resp, err := s.svc.ListTasks(filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.RegisteredStages())
}

// handleStream delivers a task's events as Server-Sent Events until the
// task reaches a terminal event or the client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	if _, err := s.svc.GetTaskStatus(taskID); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "not_found"})
		return
	}

	sub := s.svc.Subscribe(taskID)
	defer s.svc.Unsubscribe(taskID, sub)

	sw := NewSSEWriter(w)
	sw.Init()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := sw.WriteEvent(ev); err != nil {
				return
			}
			if ev.Event == service.EventTaskCompleted || ev.Event == service.EventTaskFailed {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
