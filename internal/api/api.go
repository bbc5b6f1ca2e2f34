// Package api provides HTTP handlers and the main API server logic for the
// Soft Reset server.
//
// It exposes the generation endpoints consumed by the mobile client and
// wires together the completion client, the generation pipeline, and the
// reflection store.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/cors"

	"github.com/softreset-app/softreset/internal/genai"
	"github.com/softreset-app/softreset/internal/pipeline"
	"github.com/softreset-app/softreset/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr           string
	AllowedOrigins []string
	Assembler      *pipeline.Assembler
	Store          store.Store
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the server listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithAllowedOrigins sets the CORS origin whitelist. Empty means allow all,
// which suits the mobile client and local web builds.
func WithAllowedOrigins(origins []string) Option {
	return func(o *Opts) {
		o.AllowedOrigins = origins
	}
}

// WithAssembler sets the generation pipeline assembler.
func WithAssembler(a *pipeline.Assembler) Option {
	return func(o *Opts) {
		o.Assembler = a
	}
}

// WithStore sets the reflection store.
func WithStore(st store.Store) Option {
	return func(o *Opts) {
		o.Store = st
	}
}

// Server handles the HTTP surface of the Soft Reset API.
type Server struct {
	addr      string
	assembler *pipeline.Assembler
	store     store.Store
	origins   []string
}

// NewServer creates a Server, applying any provided options.
func NewServer(opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Assembler == nil {
		cfg.Assembler = pipeline.NewAssembler()
	}
	return &Server{
		addr:      cfg.Addr,
		assembler: cfg.Assembler,
		store:     cfg.Store,
		origins:   cfg.AllowedOrigins,
	}
}

// Handler builds the full HTTP handler: routes, CORS, and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/breathe", s.breatheHandler)
	mux.HandleFunc("/api/reflect", s.reflectHandler)
	mux.HandleFunc("/api/reflections", s.reflectionsHandler)
	mux.HandleFunc("/api/health", s.healthHandler)

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	return recoverMiddleware(c.Handler(mux))
}

// ListenAndServe starts the server on the configured address.
func (s *Server) ListenAndServe() error {
	slog.Info("Server.ListenAndServe: Soft Reset API running", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// Run wires all modules from their option sets and starts the API server.
// A missing completion credential is a recognized condition: the server
// starts in fallback-only operation rather than failing.
func Run(genaiOpts []genai.Option, storeOpts []store.Option, asmOpts []pipeline.Option, apiOpts []Option) error {
	var st store.Store
	var storeCfg store.Opts
	for _, opt := range storeOpts {
		opt(&storeCfg)
	}
	if storeCfg.DSN == "" {
		slog.Info("Run: no database DSN configured, using in-memory store")
		st = store.NewInMemoryStore()
	} else if store.DetectDriver(storeCfg.DSN) == "postgres" {
		ps, err := store.NewPostgresStore(storeOpts...)
		if err != nil {
			return err
		}
		st = ps
	} else {
		ss, err := store.NewSQLiteStore(storeOpts...)
		if err != nil {
			return err
		}
		st = ss
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Run: failed to close store", "error", err)
		}
	}()

	client, err := genai.NewClient(genaiOpts...)
	if err != nil {
		if !errors.Is(err, genai.ErrNoAPIKey) {
			return err
		}
		slog.Warn("Run: completion service credential missing, running fallback-only")
		client = nil
	}

	asmOpts = append(asmOpts, pipeline.WithSink(st))
	if client != nil {
		asmOpts = append(asmOpts, pipeline.WithInvoker(client))
	}
	assembler := pipeline.NewAssembler(asmOpts...)

	apiOpts = append(apiOpts, WithAssembler(assembler), WithStore(st))
	srv := NewServer(apiOpts...)
	return srv.ListenAndServe()
}
