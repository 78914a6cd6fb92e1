package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/pdmvault/internal/domain/session"
)

type contextKey int

const identityKey contextKey = iota

// withIdentity returns ctx carrying the caller identity.
func withIdentity(ctx context.Context, id session.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// getIdentity extracts the caller identity from context.
func getIdentity(ctx context.Context) session.Identity {
	id, _ := ctx.Value(identityKey).(session.Identity)
	return id
}

// identityMiddleware injects the process identity into every request.
func identityMiddleware(id session.Identity) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(withIdentity(ctx, id), method, req)
		}
	}
}
