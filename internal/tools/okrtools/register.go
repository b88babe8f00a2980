// Package okrtools exposes the OKR board as MCP tools.
package okrtools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/jaakkos/okrboard/internal/app"
)

// RegisterOption configures optional dependencies for tool registration.
type RegisterOption func(*registerOpts)

type registerOpts struct {
	now func() time.Time
}

// WithClock sets the clock used for relative times in audit output.
func WithClock(now func() time.Time) RegisterOption {
	return func(o *registerOpts) { o.now = now }
}

type toolHandler = func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Register registers the OKR tools with the mcp-go server. Tools disabled in
// the configuration are skipped.
func Register(s *server.MCPServer, svc *app.BoardService, logger *zap.Logger, opts ...RegisterOption) {
	o := registerOpts{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	logger = logger.Named("mcp")

	add := func(tool mcp.Tool, h toolHandler) {
		if !svc.Policy().IsToolEnabled(tool.Name) {
			logger.Debug("tool disabled", zap.String("tool", tool.Name))
			return
		}
		s.AddTool(tool, h)
	}

	// Read tools (3)
	add(listTeamsTool(), listTeamsHandler(svc))
	add(getTeamOKRsTool(), getTeamOKRsHandler(svc, logger))
	add(getOverviewTool(), getOverviewHandler(svc, logger))

	// Write-back tools (2)
	add(updateKRValueTool(), updateKRValueHandler(svc, logger))
	add(propagateKRValueTool(), propagateKRValueHandler(svc, logger))

	// Audit tool (1)
	add(getAuditLogTool(), getAuditLogHandler(svc, logger, o.now))
}
