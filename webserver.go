package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// maxRequestBodyBytes caps the size of API request bodies
const maxRequestBodyBytes = 1 << 20

// WebServer holds the HTTP server configuration
type WebServer struct {
	config *Config
	addr   string
	store  *RunStore // optional; nil disables run history
	limits ServerEnv
}

// NewWebServer creates a new web server instance
func NewWebServer(config *Config, addr string, store *RunStore, limits ServerEnv) *WebServer {
	return &WebServer{
		config: config,
		addr:   addr,
		store:  store,
		limits: limits,
	}
}

// APISimulationRequest represents a request to run a comparison. Any section left
// empty falls back to the server's configuration.
type APISimulationRequest struct {
	Scenarios  []ScenarioConfig `json:"scenarios,omitempty"`
	Simulation SimulationConfig `json:"simulation"`
	Tax        TaxConfig        `json:"tax"`
	Model      ModelConfig      `json:"model"`
	Metrics    []string         `json:"metrics,omitempty"`
	InputsURL  string           `json:"inputs_url,omitempty"` // Share link from the web app, replaces Scenarios
}

// APISimulationResponse represents the comparison results
type APISimulationResponse struct {
	Success         bool                 `json:"success"`
	Error           string               `json:"error,omitempty"`
	RunID           string               `json:"run_id,omitempty"`
	Results         []APIScenarioSummary `json:"results,omitempty"`
	WealthAdvantage *float64             `json:"wealth_advantage,omitempty"` // Buy minus rent, median final post-tax wealth
}

// APIScenarioSummary is one scenario's final summary plus its bands keyed by metric
type APIScenarioSummary struct {
	Name     string           `json:"name"`
	Strategy string           `json:"strategy"`
	Summary  FinalSummary     `json:"summary"`
	Bands    map[string]Bands `json:"bands"`
}

// APISensitivityResponse wraps a sensitivity grid
type APISensitivityResponse struct {
	Success  bool                 `json:"success"`
	Error    string               `json:"error,omitempty"`
	Analysis *SensitivityAnalysis `json:"analysis,omitempty"`
}

// Handler returns the API routes
func (ws *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", ws.handleIndex)
	mux.HandleFunc("GET /healthz", ws.handleHealth)
	mux.HandleFunc("/api/config", ws.handleGetConfig)
	mux.HandleFunc("/api/simulate", ws.handleSimulate)
	mux.HandleFunc("/api/sensitivity", ws.handleSensitivity)
	mux.HandleFunc("/api/export-pdf", ws.handleExportPDF)
	mux.HandleFunc("GET /api/runs", ws.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", ws.handleGetRun)

	return mux
}

// Start starts the web server and blocks until ctx is cancelled
func (ws *WebServer) Start(ctx context.Context) error {
	// Listen on the address (use :0 for auto-assign)
	listener, err := net.Listen("tcp", ws.addr)
	if err != nil {
		return err
	}

	actualAddr := listener.Addr().String()
	url := fmt.Sprintf("http://%s", actualAddr)

	// If listening on all interfaces, use localhost for the URL
	if strings.HasPrefix(actualAddr, ":") || strings.HasPrefix(actualAddr, "0.0.0.0:") {
		port := actualAddr[strings.LastIndex(actualAddr, ":")+1:]
		url = fmt.Sprintf("http://localhost:%s", port)
	}

	log.Printf("Starting web server on %s", actualAddr)
	log.Printf("API available at %s/api/simulate", url)

	server := &http.Server{
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleIndex serves a short description of the API
func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetConfig returns the current configuration
func (ws *WebServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	config, err := ws.baseConfig()
	if err != nil {
		sendJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, config)
}

// handleSimulate runs the requested scenarios and stores the run
func (ws *WebServer) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	var req APISimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	config, err := ws.buildConfig(&req)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := RunComparison(r.Context(), config)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	response := APISimulationResponse{Success: true}
	for _, sr := range result.Results {
		summary := APIScenarioSummary{
			Name:     sr.Scenario.Name,
			Strategy: sr.Scenario.Strategy().String(),
			Summary:  sr.Summary,
			Bands:    make(map[string]Bands, len(sr.Bands)),
		}
		for m, b := range sr.Bands {
			summary.Bands[m.Key()] = b
		}
		response.Results = append(response.Results, summary)
	}
	if adv, ok := result.WealthAdvantage(); ok {
		response.WealthAdvantage = &adv
	}

	if ws.store != nil {
		rec := NewRunRecord(config, result)
		if err := ws.store.SaveRun(r.Context(), rec); err != nil {
			// Log but don't fail the simulation
			log.Printf("Warning: failed to save run: %v", err)
		} else {
			response.RunID = rec.ID
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// handleSensitivity runs the house x stock growth grid for a buy/rent pair
func (ws *WebServer) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	var req APISimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	config, err := ws.buildConfig(&req)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if n := config.Sensitivity.NumSamples; n > ws.limits.MaxSamples && ws.limits.MaxSamples > 0 {
		config.Sensitivity.NumSamples = ws.limits.MaxSamples
	}

	analysis, err := RunSensitivityAnalysis(r.Context(), config)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APISensitivityResponse{Success: true, Analysis: analysis})
}

// handleExportPDF runs the comparison and returns the PDF report for download
func (ws *WebServer) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	var req APISimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	config, err := ws.buildConfig(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := RunComparison(r.Context(), config)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pdfBytes, err := GenerateComparisonPDFReport(config, result)
	if err != nil {
		http.Error(w, "Failed to generate PDF: "+err.Error(), http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("rent-vs-buy-%s.pdf", time.Now().Format("2006-01-02-150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
	w.Write(pdfBytes)
}

// handleListRuns returns stored runs, newest first
func (ws *WebServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		sendJSONError(w, http.StatusNotFound, "run history is disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			sendJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := ws.store.ListRuns(r.Context(), limit)
	if err != nil {
		log.Printf("List runs failed: %v", err)
		sendJSONError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleGetRun returns one stored run including its configuration
func (ws *WebServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		sendJSONError(w, http.StatusNotFound, "run history is disabled")
		return
	}

	rec, err := ws.store.GetRun(r.Context(), r.PathValue("id"))
	if errors.Is(err, ErrRunNotFound) {
		sendJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Printf("Get run failed: %v", err)
		sendJSONError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (ws *WebServer) baseConfig() (*Config, error) {
	if ws.config != nil {
		return ws.config, nil
	}
	return LoadDefaultConfig()
}

// buildConfig merges the request onto the server configuration and enforces the
// server's sample and horizon limits
func (ws *WebServer) buildConfig(req *APISimulationRequest) (*Config, error) {
	base, err := ws.baseConfig()
	if err != nil {
		return nil, err
	}

	config := *base
	config.Scenarios = append([]ScenarioConfig(nil), base.Scenarios...)

	// Use defaults for missing values
	if len(req.Scenarios) > 0 {
		config.Scenarios = req.Scenarios
	}
	if req.Simulation.NumSamples > 0 {
		config.Simulation = req.Simulation
	}
	if req.Tax != (TaxConfig{}) {
		config.Tax = req.Tax
	}
	if req.Model != (ModelConfig{}) {
		config.Model = req.Model
	}
	if len(req.Metrics) > 0 {
		config.Report.Metrics = req.Metrics
	}
	if req.InputsURL != "" {
		if err := ApplyInputsURL(&config, req.InputsURL); err != nil {
			return nil, fmt.Errorf("inputs_url: %w", err)
		}
	}

	if ws.limits.MaxSamples > 0 && config.Simulation.NumSamples > ws.limits.MaxSamples {
		return nil, fmt.Errorf("num_samples %d exceeds the server limit of %d",
			config.Simulation.NumSamples, ws.limits.MaxSamples)
	}
	if ws.limits.MaxYears > 0 && config.Simulation.YearsToForecast > ws.limits.MaxYears {
		return nil, fmt.Errorf("years_to_forecast %d exceeds the server limit of %d",
			config.Simulation.YearsToForecast, ws.limits.MaxYears)
	}
	if config.Simulation.Workers == 0 {
		config.Simulation.Workers = ws.limits.Workers
	}

	return &config, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Encode response failed: %v", err)
	}
}

// sendJSONError sends a JSON error response
func sendJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APISimulationResponse{
		Success: false,
		Error:   message,
	})
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Rent vs Buy Forecast</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 2rem; color: #1e293b; }
        code { background: #f1f5f9; padding: 0 0.25rem; }
        li { margin: 0.25rem 0; }
    </style>
</head>
<body>
    <h1>Rent vs Buy Monte Carlo Forecast</h1>
    <ul>
        <li><code>GET /api/config</code> current configuration</li>
        <li><code>POST /api/simulate</code> run scenarios, returns summaries and percentile bands</li>
        <li><code>POST /api/sensitivity</code> buy minus rent across house and stock growth means</li>
        <li><code>POST /api/export-pdf</code> PDF comparison report</li>
        <li><code>GET /api/runs</code> and <code>GET /api/runs/{id}</code> run history</li>
    </ul>
</body>
</html>
`
