package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rs/cors"

	"github.com/CTAG07/markovtext/pkg/markov"
	"github.com/CTAG07/markovtext/pkg/source"
)

// VersionInfo defines the structure for build/version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// GeneratedText is one walk in an API response.
type GeneratedText struct {
	Text  string    `json:"text"`
	Seed  [2]string `json:"seed"`
	Words int       `json:"words"`
}

// GenerateResponse is returned by POST /api/generate.
type GenerateResponse struct {
	Results []GeneratedText   `json:"results"`
	Stats   markov.ChainStats `json:"stats"`
}

// API holds the dependencies for the HTTP handlers.
type API struct {
	app    *App
	config *Config
	logger *slog.Logger
}

// NewAPI creates a new instance of the API.
func NewAPI(app *App, config *Config, logger *slog.Logger) *API {
	return &API{app: app, config: config, logger: logger}
}

// RegisterRoutes sets up the routing for all /api endpoints.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/generate", a.handleGenerate)
	mux.HandleFunc("/api/chain/stats", a.handleStats)
	mux.HandleFunc("/api/history", a.handleHistory)
	mux.HandleFunc("/api/server/version", a.handleVersion)
}

// Handler returns the routed API wrapped in the configured CORS policy.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.RegisterRoutes(mux)
	c := cors.New(cors.Options{
		AllowedOrigins: a.config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(mux)
}

// readChain decodes the request body as source text and builds its chain.
func (a *API) readChain(w http.ResponseWriter, r *http.Request) (*markov.Chain, bool) {
	body := http.MaxBytesReader(w, r.Body, a.config.Server.MaxBodyBytes)
	text, err := source.Decode(body, source.KindFromContentType(r.Header.Get("Content-Type")))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit))
			return nil, false
		}
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Could not read source text: %v", err))
		return nil, false
	}
	return markov.BuildString(text), true
}

// handleGenerate builds a chain from the request body and walks it.
func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query := r.URL.Query()
	count, err := intParam(query.Get("count"), a.config.Generation.Count)
	if err != nil || count < 1 || count > 100 {
		respondWithError(w, http.StatusBadRequest, "count must be an integer between 1 and 100")
		return
	}
	maxWords, err := intParam(query.Get("max_words"), a.config.Generation.MaxWords)
	if err != nil || maxWords < 0 {
		respondWithError(w, http.StatusBadRequest, "max_words must be a non-negative integer")
		return
	}
	// Request bodies are untrusted and may be cyclic, so the server cap
	// applies whether or not the request names a length.
	if limit := a.config.Server.MaxWords; limit > 0 && (maxWords == 0 || maxWords > limit) {
		maxWords = limit
	}

	opts := []markov.GenerateOption{markov.WithMaxWords(maxWords)}
	if query.Has("start") {
		seed, err := markov.ParseStart(query.Get("start"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid start: %v", err))
			return
		}
		opts = append(opts, markov.WithStart(seed))
	}

	chain, ok := a.readChain(w, r)
	if !ok {
		return
	}

	walks, err := a.app.Generate(r.Context(), "http:"+r.RemoteAddr, chain, count, opts...)
	if err != nil {
		switch {
		case errors.Is(err, markov.ErrEmptyChain), errors.Is(err, markov.ErrUnknownSeed):
			respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			a.logger.Error("Generation failed", "remote_addr", r.RemoteAddr, "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Generation failed: %v", err))
		}
		return
	}

	resp := GenerateResponse{Results: make([]GeneratedText, 0, len(walks)), Stats: chain.Stats()}
	for _, walk := range walks {
		resp.Results = append(resp.Results, GeneratedText{
			Text:  walk.String(),
			Seed:  [2]string{walk.Seed.First, walk.Seed.Second},
			Words: len(walk.Words),
		})
	}
	a.logger.Info("Served generation", "remote_addr", r.RemoteAddr, "count", count, "keys", resp.Stats.Keys)
	respondWithJSON(w, http.StatusOK, resp)
}

// handleStats builds a chain from the request body and reports its statistics.
func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	chain, ok := a.readChain(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, chain.Stats())
}

// handleHistory lists recent generation runs.
func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if a.app.history == nil {
		respondWithError(w, http.StatusNotFound, "History is disabled")
		return
	}
	limit, err := intParam(r.URL.Query().Get("limit"), 20)
	if err != nil || limit < 1 || limit > 1000 {
		respondWithError(w, http.StatusBadRequest, "limit must be an integer between 1 and 1000")
		return
	}
	runs, err := a.app.history.Recent(r.Context(), limit)
	if err != nil {
		a.logger.Error("Failed to list history", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list history: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, runs)
}

func (a *API) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	respondWithJSON(w, http.StatusOK, VersionInfo{Version: Version, Commit: Commit, BuildDate: BuildDate})
}

// intParam parses an optional integer query value.
func intParam(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	return strconv.Atoi(value)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Error("Failed to encode JSON response", "error", err)
		}
	}
}
