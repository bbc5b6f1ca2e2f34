package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/softreset-app/softreset/internal/api"
	"github.com/softreset-app/softreset/internal/genai"
	"github.com/softreset-app/softreset/internal/pipeline"
	"github.com/softreset-app/softreset/internal/store"
	"github.com/softreset-app/softreset/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Soft Reset state data
	DefaultStateDir = "/var/lib/softreset"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "softreset.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	genaiOpts := buildGenAIOptions(flags)
	storeOpts := buildStoreOptions(flags)
	asmOpts := buildPipelineOptions(flags)
	apiOpts := buildAPIOptions(flags)

	slog.Info("Bootstrapping Soft Reset server with configured modules")
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr, "cache", *flags.cacheEnabled)
	if err := api.Run(genaiOpts, storeOpts, asmOpts, apiOpts); err != nil {
		slog.Error("Soft Reset server failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Soft Reset server exited successfully")
}

// Config holds environment configuration
type Config struct {
	AnthropicKey   string
	PreferredModel string
	DatabaseURL    string
	StateDir       string
	APIAddr        string
	LogLevel       string
	CacheEnabled   bool
	DebugTrail     bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir     *string
	dbDSN        *string
	apiKey       *string
	model        *string
	apiAddr      *string
	cacheEnabled *bool
	debugTrail   *bool
}

// initializeLogger sets up structured logging with the level from $LOG_LEVEL.
func initializeLogger() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		PreferredModel: os.Getenv("SOFTRESET_MODEL"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StateDir:       os.Getenv("SOFTRESET_STATE_DIR"),
		APIAddr:        os.Getenv("API_ADDR"),
		CacheEnabled:   util.ParseBoolEnv("SOFTRESET_CACHE", false),
		DebugTrail:     util.ParseBoolEnv("SOFTRESET_DEBUG", false),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No SOFTRESET_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"ANTHROPIC_API_KEY_SET", config.AnthropicKey != "",
		"SOFTRESET_MODEL", config.PreferredModel,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"SOFTRESET_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"SOFTRESET_CACHE", config.CacheEnabled)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for Soft Reset data (overrides $SOFTRESET_STATE_DIR)"),
		dbDSN:        flag.String("db-dsn", config.DatabaseURL, "database DSN for the reflection store (overrides $DATABASE_URL)"),
		apiKey:       flag.String("anthropic-api-key", config.AnthropicKey, "completion service API key (overrides $ANTHROPIC_API_KEY)"),
		model:        flag.String("model", config.PreferredModel, "preferred completion model, tried first (overrides $SOFTRESET_MODEL)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		cacheEnabled: flag.Bool("cache", config.CacheEnabled, "enable the response cache (overrides $SOFTRESET_CACHE)"),
		debugTrail:   flag.Bool("debug-trail", config.DebugTrail, "attach diagnostic trails to responses (overrides $SOFTRESET_DEBUG)"),
	}
	flag.Parse()
	return flags
}

// buildGenAIOptions builds completion client options from flags.
func buildGenAIOptions(flags Flags) []genai.Option {
	var opts []genai.Option
	if *flags.apiKey != "" {
		opts = append(opts, genai.WithAPIKey(*flags.apiKey))
	}
	if *flags.model != "" {
		opts = append(opts, genai.WithPreferredModel(*flags.model))
	}
	return opts
}

// buildStoreOptions builds store options from flags.
func buildStoreOptions(flags Flags) []store.Option {
	var opts []store.Option
	if *flags.dbDSN != "" {
		opts = append(opts, store.WithDSN(*flags.dbDSN))
	}
	return opts
}

// buildPipelineOptions builds assembler options from flags.
func buildPipelineOptions(flags Flags) []pipeline.Option {
	var opts []pipeline.Option
	if *flags.cacheEnabled {
		opts = append(opts, pipeline.WithCache(0, time.Duration(0)))
	}
	if *flags.debugTrail {
		opts = append(opts, pipeline.WithDebugTrail())
	}
	return opts
}

// buildAPIOptions builds API server options from flags.
func buildAPIOptions(flags Flags) []api.Option {
	var opts []api.Option
	if *flags.apiAddr != "" {
		opts = append(opts, api.WithAddr(*flags.apiAddr))
	}
	return opts
}
