package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/DebjyotiRay/orchids-challenge/internal/service"
)

// clientMessage is the inbound message shape on the observer socket.
// The only supported type is "cancel".
type clientMessage struct {
	Type string `json:"type"`
}

// handleWebSocket upgrades the connection and streams the task's
// events as JSON objects. A client "cancel" message requests
// cancellation of the observed task; the socket stays open so the
// client sees the resulting task_failed event.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	if _, err := s.svc.GetTaskStatus(taskID); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "not_found"})
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // same-origin enforcement is the proxy's job
	})
	if err != nil {
		s.log.Warn("websocket accept", "task_id", taskID, "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "server shutting down")

	ctx := r.Context()
	sub := s.svc.Subscribe(taskID)
	defer s.svc.Unsubscribe(taskID, sub)

	// Read loop: watch for cancel messages and client disconnects.
	go s.readClientMessages(ctx, conn, taskID)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "request context done")
			return
		case ev, ok := <-sub.Events():
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "subscription closed")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				s.log.Warn("websocket write", "task_id", taskID, "error", err)
				return
			}
			if ev.Event == service.EventTaskCompleted || ev.Event == service.EventTaskFailed {
				conn.Close(websocket.StatusNormalClosure, "task finished")
				return
			}
		}
	}
}

// readClientMessages drains inbound frames, acting on cancel requests.
func (s *Server) readClientMessages(ctx context.Context, conn *websocket.Conn, taskID string) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "cancel" {
			s.log.Info("cancel requested over websocket", "task_id", taskID)
			s.svc.Cancel(taskID)
		}
	}
}
