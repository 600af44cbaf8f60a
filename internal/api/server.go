// Package api exposes the dashboard service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"forecast-oversight/internal/dashboard"
	"forecast-oversight/internal/forecast"
	"forecast-oversight/internal/observability"
	"forecast-oversight/internal/storage"
)

// maxUploadBytes caps the CSV body of an upload.
const maxUploadBytes = 32 << 20

// Server serves the dashboard API.
type Server struct {
	svc      *dashboard.Service
	logger   *log.Logger
	validate *validator.Validate
	upgrader websocket.Upgrader
}

// NewServer creates an API server backed by svc.
func NewServer(svc *dashboard.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		svc:      svc,
		logger:   logger,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
	}
}

// Router returns the routes of the API.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	r.HandleFunc("/datasets", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/datasets", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{id}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{id}", s.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/datasets/{id}/kpis", s.handleKPIs).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{id}/view", s.handleView).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{id}/report", s.handleReport).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{id}/records.csv", s.handleRecordsCSV).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{id}/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{id}/stream", s.handleStream).Methods(http.MethodGet)

	return r
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status           string    `json:"status"`
	Uptime           string    `json:"uptime"`
	StartedAt        time.Time `json:"started_at"`
	DatasetsUploaded int64     `json:"datasets_uploaded"`
	KPIComputations  int64     `json:"kpi_computations"`
	SnapshotFailures int64     `json:"snapshot_failures"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.svc.Stats()
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:           "running",
		Uptime:           st.Uptime.Truncate(time.Second).String(),
		StartedAt:        st.StartedAt,
		DatasetsUploaded: st.DatasetsUploaded,
		KPIComputations:  st.KPIComputations,
		SnapshotFailures: st.SnapshotFailures,
	})
}

// errBadRequest marks malformed request parameters.
var errBadRequest = errors.New("bad request")

// errorKind maps an error to its HTTP status and error kind.
func errorKind(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, forecast.ErrParse):
		return http.StatusBadRequest, "parse_error"
	case errors.Is(err, forecast.ErrDataValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, dashboard.ErrInvalidFilter):
		return http.StatusBadRequest, "invalid_filter"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, kind := errorKind(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Printf("Error: %v", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorJSON{Error: msg, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
