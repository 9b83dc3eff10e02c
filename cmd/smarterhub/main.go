package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/smarterbotcl/smarterhub/pkg/config"
	"github.com/smarterbotcl/smarterhub/pkg/dispatch"
	"github.com/smarterbotcl/smarterhub/pkg/ratelimit"
	"github.com/smarterbotcl/smarterhub/pkg/server"
	"github.com/smarterbotcl/smarterhub/pkg/storage"
	"github.com/smarterbotcl/smarterhub/pkg/tools"
	"github.com/smarterbotcl/smarterhub/pkg/tools/backend"
	"github.com/smarterbotcl/smarterhub/pkg/tools/invocations"
	"github.com/smarterbotcl/smarterhub/pkg/tools/tenants"
)

const (
	ServerName      = "smarterhub"
	ServiceName     = "SmarterHub MCP Tool Server"
	ShutdownTimeout = 10 * time.Second
)

//go:embed VERSION
var Version string

func main() {
	var (
		debug        bool
		bindAddr     string
		dbPath       string
		printVersion bool
	)
	flag.BoolVar(&debug, "debug", false, "debug mode")
	flag.StringVar(&bindAddr, "bind", "localhost:8990", "bind address (host:port)")
	flag.StringVar(&dbPath, "db", "build/smarterhub.db", "SQLite database file path")
	flag.BoolVar(&printVersion, "version", false, "print version and exit")
	flag.Parse()
	// Sanitize version
	version := strings.TrimSpace(Version)
	// Check if the version flag is set
	if printVersion {
		fmt.Printf("%s Version: %s\n", ServiceName, version)
		os.Exit(0)
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger.Debug().Msg("debug mode enabled")
	}

	cfg, err := config.FromEnv(os.Environ())
	if err != nil {
		logger.Fatal().Msgf("Invalid configuration: %v", err)
	}

	impl := &mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}

	// Initialize storage
	storeCfg := storage.Config{
		DatabasePath: dbPath,
		Debug:        debug,
	}
	store, err := storage.NewSQLiteStorage(storeCfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to initialize storage: %v", err)
	}
	logger.Info().Msgf("Database initialized at %s", dbPath)

	limiter := ratelimit.New(cfg.RateWindow, cfg.RateMax)
	limiter.StartJanitor(signalCtx)

	recorder := tools.NewRecorder(logger, store, cfg.LogInvocations)

	srv := server.NewServer(impl, store, limiter, recorder)

	// Create tool instances.
	toolList := []server.Tool{
		tenants.New(logger),
		backend.New(logger, cfg.BackendURL),
		invocations.New(logger),
	}

	// Register all tools. A name collision between tool sets is a
	// programming error, so it aborts startup.
	for _, tool := range toolList {
		if err := tool.Register(srv); err != nil {
			logger.Fatal().Msgf("Failed to register tool: %v", err)
		}
	}
	logger.Info().Msgf("Registered tools: %s", strings.Join(srv.Registry().Names(), ", "))

	dispatcher := dispatch.NewDispatcher(logger, srv)
	api := dispatch.NewAPI(logger, cfg, dispatcher, srv, version)

	mux := http.NewServeMux()
	api.Routes(mux)

	if cfg.Enabled {
		// Stateless mode avoids "session not found" errors after server restart
		handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return &srv.Server
		}, &mcp.StreamableHTTPOptions{
			Stateless: true,
		})
		mux.Handle("/mcp", dispatch.WithCallerHeader(handler))
		logger.Info().Msgf("MCP endpoint available at: http://%s/mcp", bindAddr)
	} else {
		logger.Info().Msg("MCP disabled (set SMARTERHUB_MCP_ENABLED=true to activate)")
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"service": ServiceName,
			"version": version,
			"endpoints": map[string]string{
				"mcp":  "/mcp",
				"tool": "/api/mcp/tool",
			},
		})
	})

	logger.Info().Msgf("%s starting on address %s", ServiceName, bindAddr)

	go func() {
		//nolint:gosec
		if err := http.ListenAndServe(bindAddr, mux); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Msgf("%s failed to start: %v", ServerName, err)
		}
	}()
	<-signalCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	// Shutdown MCP server
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Msgf("%s shutdown error: %v", ServiceName, err)
	} else {
		logger.Info().Msgf("%s shutdown complete", ServiceName)
	}
}
