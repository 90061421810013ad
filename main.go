// Command scrap-train starts the Scrap Train server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the config directory, session retention and
// optional ngrok tunneling for external access during development. Every flag
// can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/scrap-train/api"
	"github.com/wricardo/scrap-train/game/config"
	"github.com/wricardo/scrap-train/game/service"
	"github.com/wricardo/scrap-train/game/session"
	"github.com/wricardo/scrap-train/pkg/logger"
	"github.com/wricardo/scrap-train/transport/mcp"
	"github.com/wricardo/scrap-train/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Scrap Train Server"
)

// options is the parsed form of the command line.
type options struct {
	host            string
	port            int
	configDir       string
	sessionTTL      time.Duration
	cleanupInterval time.Duration
	ngrok           bool
	ngrokAuth       string
	ngrokDomain     string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.host, o.port)
}

// dotenvErr is the result of loading .env, reported once logging is set up.
var dotenvErr error

func main() {
	// .env must be loaded before flags are parsed so env sources see it
	dotenvErr = godotenv.Load()

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "scrap-train",
		Usage:   AppName,
		Version: Version,
		Flags:   appFlags(),
		Action:  runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  runServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCP,
			},
		},
	}
}

func appFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.StringFlag{
			Name:    "config-dir",
			Value:   "configs",
			Usage:   "Directory containing game configurations",
			Sources: cli.EnvVars("CONFIG_DIR"),
		},
		&cli.DurationFlag{
			Name:    "session-ttl",
			Value:   24 * time.Hour,
			Usage:   "Remove sessions not accessed for this long",
			Sources: cli.EnvVars("SESSION_TTL"),
		},
		&cli.DurationFlag{
			Name:    "cleanup-interval",
			Value:   time.Hour,
			Usage:   "How often expired sessions are removed",
			Sources: cli.EnvVars("SESSION_CLEANUP_INTERVAL"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}
}

func optionsFrom(cmd *cli.Command) options {
	return options{
		host:            cmd.String("host"),
		port:            cmd.Int("port"),
		configDir:       cmd.String("config-dir"),
		sessionTTL:      cmd.Duration("session-ttl"),
		cleanupInterval: cmd.Duration("cleanup-interval"),
		ngrok:           cmd.Bool("ngrok"),
		ngrokAuth:       cmd.String("ngrok-auth"),
		ngrokDomain:     cmd.String("ngrok-domain"),
	}
}

// setupLogging initialises the shared logger on out and returns the
// logger for main.
func setupLogging(out io.Writer) logrus.FieldLogger {
	logger.Init(out)
	log := logger.Get().WithField("component", "main")

	switch {
	case dotenvErr == nil:
		log.Debug("Loaded environment variables from .env file")
	case !errors.Is(dotenvErr, os.ErrNotExist):
		log.WithError(dotenvErr).Warn("Error loading .env file")
	}
	return log
}

// runServer starts the HTTP server with REST API, WebSocket hub, and an
// /mcp endpoint, plus an ngrok tunnel when enabled.
func runServer(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	log := setupLogging(os.Stdout)
	log.WithField("mode", "server").Infof("Starting %s v%s", AppName, Version)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameService, err := initializeServices(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := opts.addr()
	mcpClient := mcp.NewClient("http://" + addr)
	handler := newRouter(api.NewServer(gameService, hub), mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.WithFields(logrus.Fields{
			"rest_api":  fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Infof("HTTP server listening on %s", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveTunnel(ctx, opts, handler, log); err != nil {
				log.WithError(err).Error("Ngrok tunnel failed")
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received, shutting down...")
	case err = <-serveErr:
		log.WithError(err).Error("HTTP server failed")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.WithError(shutdownErr).Error("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("Server stopped")
	return err
}

// newRouter mounts the REST API at the root and the MCP JSON-RPC endpoint
// at /mcp.
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", mcpHandler(mcpClient))
	return mux
}

func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// serveTunnel exposes handler through ngrok until ctx is done.
func serveTunnel(ctx context.Context, opts options, handler http.Handler, log logrus.FieldLogger) error {
	if opts.ngrokAuth == "" {
		log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return nil
	}

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.WithField("domain", opts.ngrokDomain).Info("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	log.Info("Starting ngrok tunnel...")
	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		return fmt.Errorf("start tunnel: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	url := tun.URL()
	log.WithFields(logrus.Fields{
		"rest_api":  url + "/api",
		"websocket": url + "/ws?session=<session_id>",
		"mcp":       url + "/mcp",
	}).Infof("Ngrok tunnel established: %s", url)

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("Ngrok tunnel closed")
	return nil
}

// initializeServices wires the session and config managers into the game
// service and starts the expired-session sweeper, which stops with ctx.
func initializeServices(ctx context.Context, opts options) (service.GameService, error) {
	configManager, err := config.NewManager(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()
	gameService := service.NewGameService(sessionManager, configManager)

	if opts.cleanupInterval > 0 {
		go sessionCleanupRoutine(ctx, sessionManager, opts.cleanupInterval, opts.sessionTTL)
	}

	return gameService, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(ttl)
		}
	}
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening
// on the configured port; otherwise it starts an internal HTTP API on a
// random loopback port and targets that. Logs go to stderr so stdout stays
// free for the protocol.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	log := setupLogging(os.Stderr)
	log.WithField("mode", "stdio-mcp").Infof("Starting %s v%s", AppName, Version)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	externalURL := fmt.Sprintf("http://localhost:%d", opts.port)
	baseURL := externalURL

	if probeAPI(&http.Client{Timeout: 2 * time.Second}, externalURL) {
		log.WithField("url", externalURL).Info("External API server found, using it for MCP")
	} else {
		log.Info("No external API server found, starting internal HTTP server")

		gameService, err := initializeServices(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}

		internalURL, httpServer, err := startInternalAPI(ctx, gameService, log)
		if err != nil {
			return err
		}
		defer httpServer.Close()
		baseURL = internalURL
	}

	log.WithField("api", baseURL).Info("MCP stdio server ready")
	if err := mcp.NewClient(baseURL).ServeStdio(); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// probeAPI reports whether a Scrap Train API answers its health check at
// baseURL.
func probeAPI(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the REST API on 127.0.0.1 with a kernel-assigned
// port and returns its base URL.
func startInternalAPI(ctx context.Context, gameService service.GameService, log logrus.FieldLogger) (string, *http.Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Internal HTTP server error")
		}
	}()

	addr := listener.Addr().String()
	log.WithField("addr", addr).Info("Internal HTTP server started for MCP stdio")
	return "http://" + addr, httpServer, nil
}
