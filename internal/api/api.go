// Package api provides the HTTP surface of the TAB agent.
//
// It exposes a single conversational endpoint that channel adapters (web
// chat, bot connectors) post user messages to, plus a health probe. The
// package also owns service bootstrap: Run assembles the store, the LLM
// client, the hub resolver, the document service, and the workflow engine,
// then serves until the process is stopped.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hubtab/TABAgent/internal/docs"
	"github.com/hubtab/TABAgent/internal/genai"
	"github.com/hubtab/TABAgent/internal/hub"
	"github.com/hubtab/TABAgent/internal/store"
	"github.com/hubtab/TABAgent/internal/workflow"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Server holds the HTTP handlers' shared dependencies.
type Server struct {
	orchestrator *workflow.Orchestrator
	addr         string

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Opts holds configuration for the API server.
type Opts struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// HubCities overrides the configured Innovation Hub city list.
	HubCities []string
	// HubMasterFile is the path to the hub master data document.
	HubMasterFile string
	// BlobConnectionString configures the document upload target.
	BlobConnectionString string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithHubCities sets the configured Innovation Hub cities.
func WithHubCities(cities []string) Option {
	return func(o *Opts) { o.HubCities = cities }
}

// WithHubMasterFile sets the hub master data document path.
func WithHubMasterFile(path string) Option {
	return func(o *Opts) { o.HubMasterFile = path }
}

// WithBlobConnectionString sets the Azure Blob Storage connection string used
// for generated agenda documents.
func WithBlobConnectionString(connStr string) Option {
	return func(o *Opts) { o.BlobConnectionString = connStr }
}

// DefaultHubCities is the hub list used when none is configured.
var DefaultHubCities = []string{"Bengaluru", "Redmond", "London", "Singapore", "Sydney"}

// NewServer creates a server around an assembled orchestrator.
func NewServer(orchestrator *workflow.Orchestrator, addr string) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		orchestrator: orchestrator,
		addr:         addr,
		readTimeout:  30 * time.Second,
		writeTimeout: 120 * time.Second,
	}
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/messages", s.messagesHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	return mux
}

// ListenAndServe blocks serving HTTP until the listener fails.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}
	slog.Info("api: listening", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Run assembles all modules from their option sets and serves the API. It
// blocks until the server stops.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, apiOpts []Option) error {
	var cfg Opts
	for _, opt := range apiOpts {
		opt(&cfg)
	}

	st, err := store.NewStore(os.Getenv("TAB_DB_DRIVER"), storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			slog.Warn("api.Run: store close failed", "error", cerr)
		}
	}()

	client, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	cities := cfg.HubCities
	if len(cities) == 0 {
		cities = DefaultHubCities
	}
	resolver := hub.NewResolver(cities, client)
	master := hub.NewMasterData(cfg.HubMasterFile)

	var docSvc docs.Service
	if cfg.BlobConnectionString != "" {
		docSvc, err = docs.NewAzureService(docs.WithConnectionString(cfg.BlobConnectionString))
		if err != nil {
			return fmt.Errorf("failed to initialize document service: %w", err)
		}
	} else {
		slog.Warn("api.Run: no blob connection string configured, document generation disabled")
		docSvc = docs.Unavailable{}
	}

	engine := workflow.NewEngine(client, master, docSvc)
	orchestrator := workflow.NewOrchestrator(st, client, resolver, engine)

	server := NewServer(orchestrator, cfg.Addr)
	return server.ListenAndServe()
}
