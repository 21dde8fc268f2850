package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/raysh454/phishlens/docs/swagger" // registers the OpenAPI document
	"github.com/raysh454/phishlens/internal/app"
	"github.com/raysh454/phishlens/internal/features"
	"github.com/raysh454/phishlens/internal/history"
	"github.com/raysh454/phishlens/internal/logging"
	"github.com/raysh454/phishlens/internal/models"
)

const (
	// maxRequestBody caps POST/PUT/PATCH bodies.
	maxRequestBody = 1 << 20
	// maxLoggedBody is how much of a body the request log keeps.
	maxLoggedBody = 2048
)

// Server is the HTTP + WebSocket API surface for PhishLens.
type Server struct {
	cfg      Config
	app      *app.Application
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer creates a new Server with its own Application.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = cfg.AppConfig.Server.ListenAddr
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	a, err := app.NewApplication(context.Background(), cfg.AppConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("creating application: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		app:    a,
		router: chi.NewRouter(),
		logger: logger.With(logging.Field{Key: "component", Value: "server"}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict to the dashboard origin once it is configurable
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

// Application returns the underlying application for advanced use (tests, etc.).
func (s *Server) Application() *app.Application {
	return s.app
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/algorithms", s.optionsHandler("GET"))
	r.Options("/algorithms/{name}", s.optionsHandler("GET"))
	r.Options("/detect", s.optionsHandler("POST"))
	r.Options("/jobs/detect", s.optionsHandler("POST"))
	r.Options("/jobs", s.optionsHandler("GET"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))
	r.Options("/detections", s.optionsHandler("GET"))
	r.Options("/detections/{id}", s.optionsHandler("GET"))
	r.Options("/ws/detect", s.optionsHandler("GET"))

	r.Get("/healthz", s.handleHealth)

	// Catalog
	r.Get("/algorithms", s.handleListAlgorithms)
	r.Get("/algorithms/{name}", s.handleGetAlgorithm)

	// Synchronous detection
	r.Post("/detect", s.handleDetect)

	// Jobs over REST
	r.Post("/jobs/detect", s.handleStartDetectJob)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// WebSocket for job progress
	r.Get("/ws/detect", s.handleDetectWS)

	// History
	r.Get("/detections", s.handleListDetections)
	r.Get("/detections/{id}", s.handleGetDetection)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		bodyBytes, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				fields = append(fields, logging.Field{Key: "body_limit", Value: tooLarge.Limit})
				s.logger.Warn("http_request body too large", fields...)
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			s.logger.Warn("reading request body", logging.Err(err))
		}
		logged := bodyBytes
		if len(logged) > maxLoggedBody {
			logged = logged[:maxLoggedBody]
			fields = append(fields, logging.Field{Key: "body_truncated", Value: true})
		}
		fields = append(fields, logging.Field{Key: "body", Value: string(logged)})
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the application and underlying resources.
func (s *Server) Close() {
	if s.app != nil {
		if err := s.app.Shutdown(context.Background()); err != nil {
			s.logger.Warn("application shutdown", logging.Err(err))
		}
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// detectErrorStatus maps a detection error to an HTTP status.
func detectErrorStatus(err error) int {
	var invalid *features.InvalidURLError
	switch {
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeDetectRequest(r *http.Request) (DetectRequest, error) {
	var body DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return body, err
	}
	if body.Algorithm == "" {
		body.Algorithm = string(models.Fallback)
	}
	return body, nil
}

// --- HTTP handlers ---

// handleHealth godoc
// @Summary Liveness probe
// @Tags meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Catalog

// handleListAlgorithms godoc
// @Summary List the scoring algorithms
// @Tags algorithms
// @Produce json
// @Success 200 {array} models.Info
// @Router /algorithms [get]
func (s *Server) handleListAlgorithms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Catalog())
}

// handleGetAlgorithm godoc
// @Summary Describe one algorithm
// @Tags algorithms
// @Produce json
// @Param name path string true "Algorithm name"
// @Success 200 {object} models.Info
// @Failure 404 {object} ErrorResponse
// @Router /algorithms/{name} [get]
func (s *Server) handleGetAlgorithm(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	algo, ok := models.ParseAlgorithm(name)
	if !ok {
		writeError(w, http.StatusNotFound, "algorithm not found")
		return
	}
	info, _ := models.Describe(algo)
	writeJSON(w, http.StatusOK, info)
}

// Detection

// handleDetect godoc
// @Summary Analyze a URL
// @Description Runs the detection pipeline synchronously, including the simulated latency.
// @Tags detect
// @Accept json
// @Produce json
// @Param request body DetectRequest true "URL and algorithm"
// @Success 200 {object} detector.Result
// @Failure 400 {object} ErrorResponse
// @Failure 408 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /detect [post]
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	body, err := decodeDetectRequest(r)
	if err != nil {
		s.logger.Warn("decoding detect body", logging.Err(err))
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := s.app.Detect(r.Context(), body.URL, body.Algorithm)
	if err != nil {
		status := detectErrorStatus(err)
		s.logger.Warn("detecting url",
			logging.Field{Key: "url", Value: body.URL},
			logging.Field{Key: "status", Value: status},
			logging.Err(err))
		writeError(w, status, err.Error())
		return
	}
	s.logger.Info("detected url",
		logging.Field{Key: "url", Value: body.URL},
		logging.Field{Key: "is_phishing", Value: res.IsPhishing})
	writeJSON(w, http.StatusOK, res)
}

// Jobs (REST)

// handleStartDetectJob godoc
// @Summary Start an asynchronous detection
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body DetectRequest true "URL and algorithm"
// @Success 202 {object} app.Job
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /jobs/detect [post]
func (s *Server) handleStartDetectJob(w http.ResponseWriter, r *http.Request) {
	body, err := decodeDetectRequest(r)
	if err != nil {
		s.logger.Warn("decoding detect job body", logging.Err(err))
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	// The job outlives the request.
	job, err := s.app.Orch.StartDetectJob(context.Background(), body.URL, body.Algorithm)
	if err != nil {
		status := detectErrorStatus(err)
		if errors.Is(err, app.ErrOrchestratorClosed) {
			status = http.StatusServiceUnavailable
		}
		s.logger.Warn("starting detect job", logging.Err(err))
		writeError(w, status, err.Error())
		return
	}
	s.logger.Info("started detect job", logging.Field{Key: "job_id", Value: job.ID})
	writeJSON(w, http.StatusAccepted, job)
}

// @Summary Get a job
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} app.Job
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.app.Orch.GetJob(jobID)
	if job == nil {
		s.logger.Warn("getting job: not found", logging.Field{Key: "job_id", Value: jobID})
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// @Summary Cancel a job
// @Tags jobs
// @Param jobID path string true "Job ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [delete]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := s.app.Orch.CancelJob(jobID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

// @Summary List retained jobs
// @Tags jobs
// @Produce json
// @Success 200 {array} app.Job
// @Router /jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.app.Orch.ListJobs()
	s.logger.Info("listed jobs", logging.Field{Key: "count", Value: len(jobs)})
	writeJSON(w, http.StatusOK, jobs)
}

// WebSockets

// handleDetectWS streams a detection job: the Job first, then each JobEvent
// until the job ends. Losing the client cancels the job.
//
// @Summary Stream a detection job over WebSocket
// @Description Upgrades to a WebSocket, starts a detection job and writes the Job, then each JobEvent until the job ends. An invalid URL is answered with a single ErrorResponse message. Closing the socket cancels the job.
// @Tags jobs
// @Produce json
// @Param url query string true "URL to analyze"
// @Param algorithm query string false "Algorithm (default random-forest)"
// @Success 101 {object} app.JobEvent
// @Router /ws/detect [get]
func (s *Server) handleDetectWS(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	algorithm := r.URL.Query().Get("algorithm")
	if algorithm == "" {
		algorithm = string(models.Fallback)
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	job, err := s.app.Orch.StartDetectJob(r.Context(), rawURL, algorithm)
	if err != nil {
		s.logger.Warn("starting detect job", logging.Err(err))
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("started detect job", logging.Field{Key: "job_id", Value: job.ID})
	if err := conn.WriteJSON(job); err != nil {
		_ = s.app.Orch.CancelJob(job.ID)
		return
	}

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			_ = s.app.Orch.CancelJob(job.ID)
			return
		}
	}
}

// History

// @Summary Recent detections
// @Tags history
// @Produce json
// @Param limit query int false "Maximum records (default 50, max 500)"
// @Success 200 {array} history.DetectionRecord
// @Failure 404 {object} ErrorResponse
// @Router /detections [get]
func (s *Server) handleListDetections(w http.ResponseWriter, r *http.Request) {
	if s.app.History == nil {
		writeError(w, http.StatusNotFound, "history disabled")
		return
	}

	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	recs, err := s.app.History.List(r.Context(), limit)
	if err != nil {
		s.logger.Warn("listing detections", logging.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// @Summary Get one stored detection
// @Tags history
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} history.DetectionRecord
// @Failure 404 {object} ErrorResponse
// @Router /detections/{id} [get]
func (s *Server) handleGetDetection(w http.ResponseWriter, r *http.Request) {
	if s.app.History == nil {
		writeError(w, http.StatusNotFound, "history disabled")
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := s.app.History.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Warn("getting detection", logging.Field{Key: "id", Value: id}, logging.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
