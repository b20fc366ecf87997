package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// toolCallLogging logs one line per tools/call naming the tool and, when the
// arguments carry one, the project. Calls that end in a tool error are logged
// at warn. Other methods are logged at debug.
func toolCallLogging(logger *slog.Logger) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			call, ok := req.(*sdkmcp.CallToolRequest)
			if !ok || call.Params == nil {
				if !strings.HasPrefix(method, "notifications/") {
					logger.Debug("mcp request", "method", method)
				}
				return next(ctx, method, req)
			}

			start := time.Now()
			result, err := next(ctx, method, req)

			attrs := []any{"tool", call.Params.Name, "duration", time.Since(start)}
			if id := projectArg(call.Params.Arguments); id != "" {
				attrs = append(attrs, "project", id)
			}
			if call.Session != nil && call.Session.ID() != "" {
				attrs = append(attrs, "mcp_session", call.Session.ID())
			}

			switch {
			case err != nil:
				logger.Error("mcp tool call failed", append(attrs, "error", err)...)
			case toolErrorText(result) != "":
				logger.Warn("mcp tool returned error", append(attrs, "error", toolErrorText(result))...)
			default:
				logger.Debug("mcp tool call", attrs...)
			}
			return result, err
		}
	}
}

func projectArg(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var args struct {
		ProjectID string `json:"project_id"`
	}
	if json.Unmarshal(raw, &args) != nil {
		return ""
	}
	return args.ProjectID
}

// toolErrorText returns the message of an IsError result, or "".
func toolErrorText(result sdkmcp.Result) string {
	res, ok := result.(*sdkmcp.CallToolResult)
	if !ok || res == nil || !res.IsError {
		return ""
	}
	for _, c := range res.Content {
		if text, ok := c.(*sdkmcp.TextContent); ok {
			return text.Text
		}
	}
	return "tool error"
}
