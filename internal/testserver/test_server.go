// Package testserver runs a full in-memory stack behind an MCP client
// session for end-to-end tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/pdmvault/internal/app"
	"github.com/rpggio/pdmvault/internal/config"
	"github.com/rpggio/pdmvault/internal/domain/session"
	"github.com/rpggio/pdmvault/internal/mcp"
	"github.com/rpggio/pdmvault/internal/sqlite"
)

// TestServer is one client process talking to the stack.
type TestServer struct {
	App      *app.App
	Session  *sdkmcp.ClientSession
	Identity session.Identity

	journal *syncBuffer
}

// Option adjusts the configuration before the stack is built.
type Option func(*config.Config)

// WithLegacyRoots adds legacy archive roots for the layout migration.
func WithLegacyRoots(roots ...string) Option {
	return func(c *config.Config) { c.Archive.LegacyRoots = roots }
}

// New builds the stack on an in-memory catalog with archiveRoot as the
// archive root and connects a client as user.
func New(t *testing.T, archiveRoot, user string, opts ...Option) *TestServer {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.Archive.Root = archiveRoot
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sqlite.Open(ctx, cfg.DB.Path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	journal := &syncBuffer{}
	ts := &TestServer{App: app.New(cfg, db, journal, nil), journal: journal}
	ts.connect(t, user)
	return ts
}

// Join connects another client process, with its own session, to the
// same stack.
func (ts *TestServer) Join(t *testing.T, user string) *TestServer {
	t.Helper()
	other := &TestServer{App: ts.App, journal: ts.journal}
	other.connect(t, user)
	return other
}

func (ts *TestServer) connect(t *testing.T, user string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := ts.App
	identity := a.Sessions.Start(ctx, user)
	server := mcp.NewServer(mcp.Config{
		Services:    a.MCPServices(),
		Identity:    identity,
		WorkspaceID: a.Config.Workspace.ID,
	})
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "testserver", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = serverSession.Close()
		_, _ = a.Sessions.Close(context.Background(), identity)
	})
	ts.Session, ts.Identity = cs, identity
}

// Call runs a tool and decodes its JSON text into out. It fails the test
// if the tool reports an error.
func (ts *TestServer) Call(t *testing.T, name string, args map[string]any, out any) {
	t.Helper()
	text, isErr := ts.CallRaw(t, name, args)
	require.False(t, isErr, "%s failed: %s", name, text)
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text), out))
	}
}

// CallError runs a tool that must fail and returns the error code.
func (ts *TestServer) CallError(t *testing.T, name string, args map[string]any) mcp.APIError {
	t.Helper()
	text, isErr := ts.CallRaw(t, name, args)
	require.True(t, isErr, "%s unexpectedly succeeded: %s", name, text)
	var apiErr mcp.APIError
	require.NoError(t, json.Unmarshal([]byte(text), &apiErr))
	return apiErr
}

// CallRaw runs a tool and returns its text payload and error flag.
func (ts *TestServer) CallRaw(t *testing.T, name string, args map[string]any) (string, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if args == nil {
		args = map[string]any{}
	}
	res, err := ts.Session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

// Journal returns the workflow journal written so far.
func (ts *TestServer) Journal() string {
	return ts.journal.String()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
