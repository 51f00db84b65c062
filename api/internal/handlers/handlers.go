package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"weblog-hunter/api/internal/storage"
	"weblog-hunter/internal/model"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	store    *storage.Storage
	metrics  http.Handler
	logger   *logrus.Logger
	upgrader websocket.Upgrader
}

// StreamMessage is one frame of the findings stream
type StreamMessage struct {
	Type    string           `json:"type"`
	Finding *storage.Finding `json:"finding,omitempty"`
	Count   int              `json:"count,omitempty"`
}

func NewHandlers(store *storage.Storage, metrics http.Handler, logger *logrus.Logger) *Handlers {
	return &Handlers{
		store:   store,
		metrics: metrics,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				logger.Debugf("WebSocket origin check: %s", r.Header.Get("Origin"))
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// NewRouter wires every endpoint of the results API
func NewRouter(h *Handlers) *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/summary", h.GetSummary).Methods("GET")
	api.HandleFunc("/findings", h.GetFindings).Methods("GET")
	api.HandleFunc("/findings/{id}", h.GetFinding).Methods("GET")
	api.HandleFunc("/top-talkers", h.GetTopTalkers).Methods("GET")
	api.HandleFunc("/stream/findings", h.StreamFindings).Methods("GET")

	router.Handle("/metrics", h.metrics).Methods("GET")
	router.HandleFunc("/health", h.Health).Methods("GET", "OPTIONS")

	return router
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.store.GetSummary()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "No run loaded")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// parseFindingFilter reads type, severity, host and limit from the query string
func parseFindingFilter(r *http.Request) (storage.FindingFilter, error) {
	query := r.URL.Query()
	filter := storage.FindingFilter{Host: query.Get("host")}

	if v := query.Get("type"); v != "" {
		kind, err := model.ParseFindingType(v)
		if err != nil {
			return filter, fmt.Errorf("invalid type %q", v)
		}
		filter.Type = &kind
	}
	if v := query.Get("severity"); v != "" {
		sev, err := model.ParseSeverity(v)
		if err != nil {
			return filter, fmt.Errorf("invalid severity %q", v)
		}
		filter.Severity = &sev
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, fmt.Errorf("invalid limit %q", v)
		}
		filter.Limit = limit
	}

	return filter, nil
}

func (h *Handlers) GetFindings(w http.ResponseWriter, r *http.Request) {
	if !h.store.HasRun() {
		writeError(w, http.StatusServiceUnavailable, "No run loaded")
		return
	}

	filter, err := parseFindingFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	findings := h.store.GetFindings(filter)

	response := map[string]interface{}{
		"items": findings,
		"total": len(findings),
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) GetFinding(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	finding := h.store.GetFindingByID(id)
	if finding == nil {
		writeError(w, http.StatusNotFound, "Finding not found")
		return
	}

	writeJSON(w, http.StatusOK, finding)
}

func (h *Handlers) GetTopTalkers(w http.ResponseWriter, r *http.Request) {
	if !h.store.HasRun() {
		writeError(w, http.StatusServiceUnavailable, "No run loaded")
		return
	}
	writeJSON(w, http.StatusOK, h.store.GetTopTalkers())
}

// StreamFindings replays the ranked findings over a websocket, one message
// each, then sends a done message and closes
func (h *Handlers) StreamFindings(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFindingFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.logger.Debugf("WebSocket connection established from %s", r.RemoteAddr)

	findings := h.store.GetFindings(filter)

	for i := range findings {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(StreamMessage{Type: "finding", Finding: &findings[i]}); err != nil {
			h.logger.Errorf("WebSocket write error: %v", err)
			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(StreamMessage{Type: "done", Count: len(findings)}); err != nil {
		h.logger.Errorf("WebSocket write error: %v", err)
		return
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
