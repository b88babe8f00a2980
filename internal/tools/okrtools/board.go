package okrtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/jaakkos/okrboard/internal/app"
)

func listTeamsTool() mcp.Tool {
	return mcp.NewTool("list_teams",
		mcp.WithDescription("List the teams of the OKR board. Each team has its own sheet tab."),
	)
}

func listTeamsHandler(svc *app.BoardService) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s\n\n", svc.Policy().Title())
		for _, t := range svc.Teams() {
			fmt.Fprintf(&sb, "- %s\n", t)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func getTeamOKRsTool() mcp.Tool {
	return mcp.NewTool("get_team_okrs",
		mcp.WithDescription("Show a team's objectives and key results with current value, target, progress and remaining amount. Data is read fresh from the sheet."),
		mcp.WithString("team", mcp.Required(), mcp.Description("Team name, e.g. 'SDR' (case-insensitive)")),
	)
}

func getTeamOKRsHandler(svc *app.BoardService, logger *zap.Logger) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		team, err := requireString(req.GetArguments(), "team")
		if err != nil {
			return nil, err
		}
		board, err := svc.LoadTeam(ctx, team)
		if err != nil {
			logger.Debug("get_team_okrs failed", zap.String("team", team), zap.Error(err))
			return nil, toolError(err)
		}
		return mcp.NewToolResultText(app.RenderBoard(board)), nil
	}
}

func getOverviewTool() mcp.Tool {
	return mcp.NewTool("get_overview",
		mcp.WithDescription("Show overall progress of every team. A team whose tab cannot be read is listed with its error."),
	)
}

func getOverviewHandler(svc *app.BoardService, logger *zap.Logger) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ov, err := svc.Overview(ctx)
		if err != nil {
			logger.Warn("get_overview failed", zap.Error(err))
			return nil, err
		}
		return mcp.NewToolResultText(app.RenderOverview(ov)), nil
	}
}
