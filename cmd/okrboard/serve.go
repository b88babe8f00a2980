package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jaakkos/okrboard/internal/app"
	"github.com/jaakkos/okrboard/internal/dashboard"
	"github.com/jaakkos/okrboard/internal/tools/okrtools"
)

const revisionNotification = "notifications/okr_revision"

var (
	servePort int

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the web dashboard, JSON API and MCP over HTTP",
		Long: `Serves the dashboard at /dashboard, the JSON API under /api and a
streamable-HTTP MCP endpoint at /mcp. The revision counter moves whenever the
workbook changes on disk or a value is written back, so open dashboards reload
themselves.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Serve the OKR tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCPStdio,
	}
)

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", -1, "HTTP port (default: http_port from config; 0 picks a free port)")
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("shutting down", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// newMCPServer builds the MCP server with the OKR tools and pushes revision
// changes to every connected client.
func newMCPServer(rt *runtime) *server.MCPServer {
	hooks := &server.Hooks{}
	hooks.AddAfterCallTool(func(ctx context.Context, id any, message *mcp.CallToolRequest, result *mcp.CallToolResult) {
		if message != nil {
			rt.logger.Debug("tool called", zap.String("tool", message.Params.Name))
		}
	})

	s := server.NewMCPServer("okrboard", Version,
		server.WithInstructions("Team OKR board. Read progress with get_team_okrs or get_overview; write values with update_kr_value (values use the sheet's locale, e.g. '45,5%')."),
		server.WithHooks(hooks),
	)
	okrtools.Register(s, rt.svc, rt.logger)

	rt.watcher.OnChange(func(p app.RevisionParams) {
		s.SendNotificationToAllClients(revisionNotification, map[string]any{
			"revision": p.Revision,
			"reason":   p.Reason,
		})
	})
	return s
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	rt, err := newRuntime(ctx, pol, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	mcpServer := newMCPServer(rt)
	go rt.watcher.Start(ctx)

	port := pol.Config().HTTPPort
	if servePort >= 0 {
		port = servePort
	}
	shutdown, err := startHTTPServer(rt, mcpServer, port)
	if err != nil {
		return err
	}

	<-ctx.Done()
	shutdown()
	logger.Info("server stopped")
	return nil
}

// startHTTPServer starts the HTTP server in the background and returns a
// shutdown function. Uses net.Listen to support port 0 (auto-assign).
func startHTTPServer(rt *runtime, mcpServer *server.MCPServer, port int) (func(), error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("http listen: %w", err)
	}
	actualPort := ln.Addr().(*net.TCPAddr).Port
	baseURL := fmt.Sprintf("http://localhost:%d", actualPort)

	rt.logger.Info("http server listening",
		zap.Int("port", actualPort),
		zap.String("dashboard", baseURL+"/dashboard"),
		zap.String("mcp", baseURL+"/mcp"))

	streamSrv := server.NewStreamableHTTPServer(mcpServer)
	dash := dashboard.NewHandler(rt.svc, rt.logger, dashboard.WithRevisionSource(rt.watcher))
	router := dashboard.NewRouter(dash, rt.logger, func(r chi.Router) {
		r.Handle("/mcp", streamSrv)
	})

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("http server error", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			rt.logger.Warn("http shutdown error", zap.Error(err))
		}
	}, nil
}

func runMCPStdio(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	rt, err := newRuntime(ctx, pol, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	mcpServer := newMCPServer(rt)
	go rt.watcher.Start(ctx)

	logger.Info("stdio ready")
	if err := server.NewStdioServer(mcpServer).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}
