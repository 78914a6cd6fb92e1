package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxPayloadLog caps how much of a params or result payload reaches the log.
const maxPayloadLog = 2048

// trafficLoggingMiddleware logs every message at debug level. Tool calls
// carry the tool name and elapsed time so a slow archive move is visible.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			attrs := []any{
				"direction", direction,
				"method", method,
				"session_id", getIdentity(ctx).SessionID,
			}
			if name := toolName(req); name != "" {
				attrs = append(attrs, "tool", name)
			}
			logger.Debug("mcp request", append(attrs, "params", formatPayload(safeParams(req)))...)

			start := time.Now()
			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}

			attrs = append(attrs, "elapsed", time.Since(start))
			if err != nil {
				logger.Debug("mcp response", append(attrs, "error", err)...)
			} else {
				logger.Debug("mcp response", append(attrs, "result", formatPayload(result))...)
			}
			return result, err
		}
	}
}

func toolName(req sdkmcp.Request) string {
	call, ok := req.(*sdkmcp.CallToolRequest)
	if !ok || call.Params == nil {
		return ""
	}
	return call.Params.Name
}

func safeParams(req sdkmcp.Request) (params any) {
	if req == nil {
		return nil
	}
	// Some request kinds panic on GetParams when params are absent.
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()
	return req.GetParams()
}

func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	if len(data) > maxPayloadLog {
		return fmt.Sprintf("%s...(%d bytes)", data[:maxPayloadLog], len(data))
	}
	return string(data)
}
