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

	"github.com/aretw0/arche"
	"github.com/aretw0/arche/pkg/domain"
	"github.com/aretw0/arche/pkg/progress"
	"github.com/aretw0/arche/pkg/tree"
)

const uriScheme = "arche://projects"

// Projects is the project access the MCP server needs. *project.Manager implements it.
type Projects interface {
	Open(ctx context.Context, projectID string) (*arche.Project, error)
	Save(ctx context.Context, projectID string) error
	List(ctx context.Context) ([]string, error)
}

// ProjectsResponse lists the stored project ids.
type ProjectsResponse struct {
	Projects []string `json:"projects" jsonschema_description:"Stored project ids"`
}

// NodesResponse lists node descriptions in depth-first order.
type NodesResponse struct {
	Nodes []tree.Info `json:"nodes" jsonschema_description:"Matching nodes in depth-first order"`
}

// SummaryResponse is the current summary of one aggregating node.
type SummaryResponse struct {
	Node  string   `json:"node" jsonschema_description:"The aggregating node id"`
	Count int      `json:"count" jsonschema_description:"Folded event count"`
	IDs   []string `json:"ids,omitempty" jsonschema_description:"Resolved realization ids, in arrival order"`
}

// Server exposes projects as MCP tools and resources.
type Server struct {
	projects  Projects
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(projects Projects, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		projects: projects,
		logger:   logger,
		mcpServer: server.NewMCPServer("arche-mcp", strings.TrimSpace(arche.Version),
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, true),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
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
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List the ids of every stored project."),
		mcp.WithOutputSchema[ProjectsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListProjects))

	s.mcpServer.AddTool(mcp.NewTool("list_nodes",
		mcp.WithDescription("Describe the nodes of a project in depth-first order, optionally filtered by kind or tag."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
		mcp.WithString("kind", mcp.Description("Only nodes of this kind, e.g. observation-mesh (optional)")),
		mcp.WithString("tag", mcp.Description("Only nodes carrying this type tag, e.g. mesh (optional)")),
		mcp.WithOutputSchema[NodesResponse](),
	), mcp.NewStructuredToolHandler(s.handleListNodes))

	s.mcpServer.AddTool(mcp.NewTool("get_summary",
		mcp.WithDescription("Get the current progress summary of an aggregating node (the root or an observation mesh)."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Aggregating node id")),
		mcp.WithOutputSchema[SummaryResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetSummary))

	s.mcpServer.AddTool(mcp.NewTool("post_event",
		mcp.WithDescription("Post a processing event. Without node_id, resolve events go to the realization's mesh and solve events to the root."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
		mcp.WithString("type", mcp.Required(), mcp.Enum("solve", "resolve"), mcp.Description("Processing type")),
		mcp.WithNumber("count", mcp.Required(), mcp.Min(0), mcp.Description("Non-negative increment")),
		mcp.WithString("id", mcp.Description("Realization id (resolve events)")),
		mcp.WithString("node_id", mcp.Description("Explicit target node (optional)")),
		mcp.WithOutputSchema[SummaryResponse](),
	), mcp.NewStructuredToolHandler(s.handlePostEvent))

	s.mcpServer.AddTool(mcp.NewTool("save_project",
		mcp.WithDescription("Persist the open project to its store."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, err := request.RequireString("project_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.projects.Save(ctx, projectID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("project %s saved", projectID)), nil
	})
}

func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ProjectsResponse, error) {
	ids, err := s.projects.List(ctx)
	if err != nil {
		return ProjectsResponse{}, fmt.Errorf("list failed: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ProjectsResponse{Projects: ids}, nil
}

func (s *Server) handleListNodes(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (NodesResponse, error) {
	p, err := s.open(ctx, args)
	if err != nil {
		return NodesResponse{}, err
	}
	t := p.Tree()

	nodes := t.Nodes()
	if tag, _ := args["tag"].(string); tag != "" {
		nodes = t.WithTag(tag)
	}
	if k, _ := args["kind"].(string); k != "" {
		kind, err := domain.ParseKind(k)
		if err != nil {
			return NodesResponse{}, err
		}
		filtered := nodes[:0:0]
		for _, n := range nodes {
			if n.Kind() == kind {
				filtered = append(filtered, n)
			}
		}
		nodes = filtered
	}

	resp := NodesResponse{Nodes: make([]tree.Info, 0, len(nodes))}
	for _, n := range nodes {
		resp.Nodes = append(resp.Nodes, t.Describe(n))
	}
	return resp, nil
}

func (s *Server) handleGetSummary(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SummaryResponse, error) {
	p, err := s.open(ctx, args)
	if err != nil {
		return SummaryResponse{}, err
	}
	nodeID, _ := args["node_id"].(string)
	return summaryOf(p, nodeID)
}

func (s *Server) handlePostEvent(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SummaryResponse, error) {
	p, err := s.open(ctx, args)
	if err != nil {
		return SummaryResponse{}, err
	}

	typ, _ := args["type"].(string)
	pt, err := progress.ParseProcessingType(typ)
	if err != nil {
		return SummaryResponse{}, err
	}
	count, ok := args["count"].(float64)
	if !ok || count != float64(int(count)) {
		return SummaryResponse{}, fmt.Errorf("%w: count must be an integer", progress.ErrInvalidEvent)
	}

	d := arche.Delivery{Event: progress.Event{Type: pt, Count: int(count)}}
	d.Node, _ = args["node_id"].(string)
	d.ID, _ = args["id"].(string)

	if err := p.Deliver(d); err != nil {
		s.logger.Warn("MCP post_event: Delivery rejected", "project_id", p.ID(), "err", err)
		return SummaryResponse{}, fmt.Errorf("post failed: %w", err)
	}

	target := d.Node
	switch {
	case target != "":
	case pt == progress.Resolve:
		parent, _ := p.Tree().Parent(d.ID)
		target = parent.ID()
	default:
		target = p.ID()
	}
	return summaryOf(p, target)
}

func (s *Server) open(ctx context.Context, args map[string]interface{}) (*arche.Project, error) {
	projectID, _ := args["project_id"].(string)
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	p, err := s.projects.Open(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", projectID, err)
	}
	return p, nil
}

func summaryOf(p *arche.Project, nodeID string) (SummaryResponse, error) {
	summary, err := p.Summary(nodeID)
	if err != nil {
		return SummaryResponse{}, err
	}
	return SummaryResponse{Node: nodeID, Count: summary.Count, IDs: summary.IDs}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: arche://projects
	s.mcpServer.AddResource(mcp.NewResource(uriScheme, "Stored Projects",
		mcp.WithResourceDescription("Ids of every stored project"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.projects.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}
		return jsonContents(uriScheme, ProjectsResponse{Projects: ids})
	})

	// EXPOSE: arche://projects/{project_id}/record
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(uriScheme+"/{project_id}/record", "Project Record",
		mcp.WithTemplateDescription("The encoded project tree"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readRecord)

	// EXPOSE: arche://projects/{project_id}/summaries
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(uriScheme+"/{project_id}/summaries", "Project Summaries",
		mcp.WithTemplateDescription("Current summary of every aggregating node, keyed by node id"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readSummaries)
}

func (s *Server) readRecord(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	p, err := s.openURI(ctx, uri, "record")
	if err != nil {
		return nil, err
	}
	rec, err := p.Record()
	if err != nil {
		return nil, fmt.Errorf("failed to encode project: %w", err)
	}
	return jsonContents(uri, rec)
}

func (s *Server) readSummaries(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	p, err := s.openURI(ctx, uri, "summaries")
	if err != nil {
		return nil, err
	}
	summaries := make(map[string]progress.Summary)
	for _, a := range p.Tree().Aggregators() {
		summaries[a.ID()] = a.Progress().Snapshot()
	}
	return jsonContents(uri, summaries)
}

// openURI opens the project named by arche://projects/{id}/{leaf}.
func (s *Server) openURI(ctx context.Context, uri, leaf string) (*arche.Project, error) {
	rest, ok := strings.CutPrefix(uri, uriScheme+"/")
	if !ok {
		return nil, fmt.Errorf("unexpected resource uri %q", uri)
	}
	projectID, ok := strings.CutSuffix(rest, "/"+leaf)
	if !ok || projectID == "" || strings.Contains(projectID, "/") {
		return nil, fmt.Errorf("unexpected resource uri %q", uri)
	}
	return s.projects.Open(ctx, projectID)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
