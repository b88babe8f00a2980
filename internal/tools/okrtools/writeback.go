package okrtools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/jaakkos/okrboard/internal/app"
)

func updateKRValueTool() mcp.Tool {
	return mcp.NewTool("update_kr_value",
		mcp.WithDescription("Write a new current value for one key result. The value is written in the target's format and recorded in the audit log. Writing the value the KR already holds is a no-op."),
		mcp.WithString("team", mcp.Required(), mcp.Description("Team name")),
		mcp.WithString("kr", mcp.Required(), mcp.Description("KR id, e.g. '1' or 'KR 1'")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value in the sheet's locale: '45,5%', 'R$ 1.234,50' or '12'")),
		mcp.WithString("actor_email", mcp.Required(), mcp.Description("Email of the team member making the change")),
		mcp.WithString("note", mcp.Description("Optional note stored with the audit entry")),
	)
}

func updateKRValueHandler(svc *app.BoardService, logger *zap.Logger) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		team, err := requireString(args, "team")
		if err != nil {
			return nil, err
		}
		kr, err := stringOrNumber(args, "kr")
		if err != nil {
			return nil, err
		}
		value, err := stringOrNumber(args, "value")
		if err != nil {
			return nil, err
		}
		actor, err := requireString(args, "actor_email")
		if err != nil {
			return nil, err
		}

		res, err := svc.UpdateValue(ctx, app.UpdateRequest{
			Team:  team,
			KRID:  kr,
			Value: value,
			Actor: actor,
			Note:  optionalString(args, "note"),
		})
		if err != nil && res == nil {
			return nil, toolError(err)
		}
		if err != nil {
			logger.Error("update_kr_value incomplete", zap.String("team", team), zap.String("kr", kr), zap.Error(err))
			return mcp.NewToolResultError(fmt.Sprintf("%serror: %v", app.RenderUpdate(res), err)), nil
		}
		return mcp.NewToolResultText(app.RenderUpdate(res)), nil
	}
}

func propagateKRValueTool() mcp.Tool {
	return mcp.NewTool("propagate_kr_value",
		mcp.WithDescription("Copy a KR value to every team row with the same description. Without a value the source KR's current value is copied. Rows already holding the value are left alone, so repeating the call is safe."),
		mcp.WithString("team", mcp.Required(), mcp.Description("Team owning the source KR")),
		mcp.WithString("kr", mcp.Required(), mcp.Description("Source KR id")),
		mcp.WithString("value", mcp.Description("Value to write everywhere, in the sheet's locale (default: the source KR's current value)")),
		mcp.WithString("actor_email", mcp.Required(), mcp.Description("Email of the team member making the change")),
		mcp.WithString("note", mcp.Description("Optional note stored with the audit entries")),
	)
}

func propagateKRValueHandler(svc *app.BoardService, logger *zap.Logger) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		team, err := requireString(args, "team")
		if err != nil {
			return nil, err
		}
		kr, err := stringOrNumber(args, "kr")
		if err != nil {
			return nil, err
		}
		var value string
		if v := args["value"]; v != nil && v != "" {
			if value, err = stringOrNumber(args, "value"); err != nil {
				return nil, err
			}
		}
		actor, err := requireString(args, "actor_email")
		if err != nil {
			return nil, err
		}

		report, err := svc.Propagate(ctx, app.PropagateRequest{
			Team:  team,
			KRID:  kr,
			Value: value,
			Actor: actor,
			Note:  optionalString(args, "note"),
		})
		if err != nil && report == nil {
			return nil, toolError(err)
		}
		text := app.RenderPropagate(report)
		if err != nil {
			logger.Error("propagate_kr_value incomplete", zap.String("batch", report.BatchID), zap.Error(err))
			return mcp.NewToolResultError(fmt.Sprintf("%s\nerror: %v", text, err)), nil
		}
		if report.Failed > 0 {
			return mcp.NewToolResultError(text), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}
