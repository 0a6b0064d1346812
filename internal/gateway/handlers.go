package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets permissive CORS headers for the browser shell.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// RegisterRoutes adds the WebSocket, view and health routes to mux.
// stats may be nil.
func RegisterRoutes(mux *http.ServeMux, hub *Hub, stats BackendStats, processStart time.Time) {
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[api_gateway] ws upgrade error: %v", err)
			return
		}
		hub.HandleWSRequest(conn)
	})

	mux.HandleFunc("/api/view", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, hub.session.Snapshot())
	})

	action(mux, hub, "/api/view/date", func(r *http.Request) (ActionMsg, error) {
		var req dateRequest
		err := decodeBody(r, &req)
		return ActionMsg{Type: ActionSelectDate, Date: req.Date}, err
	})
	action(mux, hub, "/api/view/column", func(r *http.Request) (ActionMsg, error) {
		var req columnRequest
		err := decodeBody(r, &req)
		return ActionMsg{Type: ActionSelectColumn, Column: req.Column}, err
	})
	action(mux, hub, "/api/view/page", func(r *http.Request) (ActionMsg, error) {
		var req pageRequest
		err := decodeBody(r, &req)
		return ActionMsg{Type: ActionGoToPage, Page: req.Page}, err
	})
	action(mux, hub, "/api/view/row", func(r *http.Request) (ActionMsg, error) {
		var req rowRequest
		err := decodeBody(r, &req)
		return ActionMsg{Type: ActionSelectRow, Row: req.Index}, err
	})
	action(mux, hub, "/api/view/ticks", func(r *http.Request) (ActionMsg, error) {
		msg := ActionMsg{Type: ActionOverrideTicks}
		err := decodeBody(r, &msg.Override)
		return msg, err
	})
	action(mux, hub, "/api/view/ticks/reset", func(*http.Request) (ActionMsg, error) {
		return ActionMsg{Type: ActionResetTicks}, nil
	})
	action(mux, hub, "/api/view/detail/close", func(*http.Request) (ActionMsg, error) {
		return ActionMsg{Type: ActionCloseDetail}, nil
	})
	action(mux, hub, "/api/view/dates/reload", func(*http.Request) (ActionMsg, error) {
		return ActionMsg{Type: ActionReloadDates}, nil
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		body := map[string]interface{}{
			"status":     "ok",
			"ws_clients": hub.ClientCount(),
			"uptime_sec": int64(time.Since(processStart).Seconds()),
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		}
		if v := hub.session.Snapshot(); v != nil {
			body["view_seq"] = v.Seq
		}
		if stats != nil {
			body["breaker"] = stats.BreakerState().String()
			body["backend_latency"] = backendLatency(stats)
		}
		writeJSON(w, http.StatusOK, body)
	})
}

// action registers a POST route that decodes a request into an ActionMsg,
// applies it and answers with the resulting view.
func action(mux *http.ServeMux, hub *Hub, path string, parse func(*http.Request) (ActionMsg, error)) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		msg, err := parse(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		if err := Apply(r.Context(), hub.session, msg); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, hub.session.Snapshot())
	})
}

// decodeBody decodes a JSON body into v. An empty body leaves v unchanged.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api_gateway] response encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
