// Package mcp exposes read-only introspection over components and
// machines as an MCP server, for agents that want to inspect a running
// system without mutating it.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/s8r-framework/s8r/internal/logging"
	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/services"
)

// Server wraps the application services and exposes them as an MCP server.
type Server struct {
	components *services.ComponentService
	machines   *services.MachineService
	flow       *services.DataFlowService
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server over the given services. The
// data-flow service may be nil.
func NewServer(version string, components *services.ComponentService, machines *services.MachineService, flow *services.DataFlowService, opts ...Option) *Server {
	s := &Server{
		components: components,
		machines:   machines,
		flow:       flow,
		logger:     logging.NewNop(),
		mcpServer:  server.NewMCPServer("s8r-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

type identityArgs struct {
	ID string `mapstructure:"id"`
}

type stateArgs struct {
	State string `mapstructure:"state"`
}

// decodeArgs maps raw tool arguments onto a typed struct.
func decodeArgs(request mcp.CallToolRequest, out any) error {
	return mapstructure.Decode(request.GetArguments(), out)
}

func parseID(raw string) (domain.ComponentID, error) {
	return domain.ParseComponentID(raw, "")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_components",
		mcp.WithDescription("List all components with their identity, type and lifecycle state."),
	), s.handleListComponents)

	s.mcpServer.AddTool(mcp.NewTool("describe_component",
		mcp.WithDescription("Describe a single component, including lineage, properties and activity log."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Component UUID")),
	), s.handleDescribeComponent)

	s.mcpServer.AddTool(mcp.NewTool("list_children",
		mcp.WithDescription("List the direct children of a component."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Parent component UUID")),
	), s.handleListChildren)

	s.mcpServer.AddTool(mcp.NewTool("describe_composite",
		mcp.WithDescription("Describe a composite, including its members and connections."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Composite UUID")),
	), s.handleDescribeComposite)

	s.mcpServer.AddTool(mcp.NewTool("list_machines",
		mcp.WithDescription("List all machines with their state and version."),
	), s.handleListMachines)

	s.mcpServer.AddTool(mcp.NewTool("describe_machine",
		mcp.WithDescription("Describe a machine, including its composites and activity log."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Machine UUID")),
	), s.handleDescribeMachine)

	s.mcpServer.AddTool(mcp.NewTool("describe_state",
		mcp.WithDescription("Describe a lifecycle state: its category, biological analog and legal next states."),
		mcp.WithString("state", mcp.Required(), mcp.Description("Lifecycle state name, e.g. 'active'")),
	), s.handleDescribeState)

	s.mcpServer.AddTool(mcp.NewTool("list_channels",
		mcp.WithDescription("List the active data-flow channels."),
	), s.handleListChannels)
}

func (s *Server) handleListComponents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.components.ListComponents(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list components failed: %v", err)), nil
	}
	out := make([]domain.ComponentSnapshot, 0, len(list))
	for _, c := range list {
		out = append(out, c.Snapshot())
	}
	return jsonResult(out)
}

func (s *Server) handleDescribeComponent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args identityArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	id, err := parseID(args.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.components.GetComponent(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(c.Snapshot())
}

func (s *Server) handleListChildren(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args identityArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	id, err := parseID(args.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	children, err := s.components.ListChildren(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]domain.ComponentSnapshot, 0, len(children))
	for _, c := range children {
		out = append(out, c.Snapshot())
	}
	return jsonResult(out)
}

func (s *Server) handleDescribeComposite(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args identityArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	id, err := parseID(args.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	composite, err := s.components.GetComposite(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(composite.Snapshot())
}

func (s *Server) handleListMachines(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.machines.ListMachines(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list machines failed: %v", err)), nil
	}
	out := make([]domain.MachineSnapshot, 0, len(list))
	for _, m := range list {
		out = append(out, m.Snapshot())
	}
	return jsonResult(out)
}

func (s *Server) handleDescribeMachine(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args identityArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	id, err := parseID(args.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := s.machines.GetMachine(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(m.Snapshot())
}

// stateDescription is the wire shape for describe_state and the states
// resource.
type stateDescription struct {
	State       domain.State         `json:"state"`
	Category    domain.StateCategory `json:"category"`
	Description string               `json:"description"`
	Analog      string               `json:"analog,omitempty"`
	NextStates  []domain.State       `json:"next_states"`
}

func describeState(st domain.State) stateDescription {
	return stateDescription{
		State:       st,
		Category:    st.Category(),
		Description: st.Description(),
		Analog:      st.BiologicalAnalog(),
		NextStates:  st.NextStates(),
	}
}

func (s *Server) handleDescribeState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args stateArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	st := domain.State(args.State)
	if !st.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown state %q", args.State)), nil
	}
	return jsonResult(describeState(st))
}

func (s *Server) handleListChannels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.flow == nil {
		return mcp.NewToolResultError("data flow is not enabled"), nil
	}
	return jsonResult(s.flow.Channels())
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("s8r://states", "Lifecycle State Table",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		states := domain.AllStates()
		table := make([]stateDescription, 0, len(states))
		for _, st := range states {
			table = append(table, describeState(st))
		}
		data, err := json.Marshal(table)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal state table: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "s8r://states",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("s8r://machines", "Machine Inventory",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, err := s.machines.ListMachines(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list machines: %w", err)
		}
		out := make([]domain.MachineSnapshot, 0, len(list))
		for _, m := range list {
			out = append(out, m.Snapshot())
		}
		data, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal machines: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "s8r://machines",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
