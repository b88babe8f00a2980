package okrtools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/jaakkos/okrboard/internal/app"
	"github.com/jaakkos/okrboard/internal/domain"
)

const defaultAuditLimit = 20

func getAuditLogTool() mcp.Tool {
	return mcp.NewTool("get_audit_log",
		mcp.WithDescription("List recent KR value changes, newest first."),
		mcp.WithString("team", mcp.Description("Only changes to this team")),
		mcp.WithString("kr", mcp.Description("Only changes to this KR id")),
		mcp.WithString("actor_email", mcp.Description("Only changes made by this email")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 20, 0 for all)")),
	)
}

func getAuditLogHandler(svc *app.BoardService, logger *zap.Logger, now func() time.Time) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		limit := int(optionalFloat64(args, "limit", defaultAuditLimit))
		if limit < 0 {
			limit = 0
		}
		entries, err := svc.AuditLog(ctx, domain.AuditFilter{
			Team:  optionalString(args, "team"),
			KRID:  optionalString(args, "kr"),
			Actor: optionalString(args, "actor_email"),
			Limit: limit,
		})
		if err != nil {
			logger.Debug("get_audit_log failed", zap.Error(err))
			return nil, err
		}
		return mcp.NewToolResultText(app.RenderAudit(entries, now())), nil
	}
}
