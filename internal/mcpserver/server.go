// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the property catalog and assistant to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/propscope/internal/apperr"
	"github.com/starford/propscope/internal/assistant"
	"github.com/starford/propscope/internal/catalog"
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/querycontext"
	"github.com/starford/propscope/internal/status"
)

const datasetFormatURI = "propscope://dataset-format"

// Server wraps the MCP server with propscope tools.
type Server struct {
	mcp     *server.MCPServer
	catalog *catalog.Catalog
	ai      *assistant.Service
	weights status.Weights
}

// New creates an MCP server with all tools registered. ai may be nil, in
// which case ask_assistant is not offered.
func New(cat *catalog.Catalog, ai *assistant.Service, weights status.Weights) *Server {
	if weights == nil {
		weights = status.DefaultWeights()
	}
	s := &Server{catalog: cat, ai: ai, weights: weights}

	s.mcp = server.NewMCPServer(
		"propscope",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_properties",
		mcp.WithDescription("Search the property catalog by text (title, address, type) with optional status and type filters."),
		mcp.WithString("query", mcp.Description("Case-insensitive text to match")),
		mcp.WithString("status", mcp.Description("off-market, for-sale, trending or flagged")),
		mcp.WithString("type", mcp.Description("Property type, e.g. Office")),
		mcp.WithString("sort", mcp.Description("price, -price, title or -trust")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchProperties)

	s.mcp.AddTool(mcp.NewTool("get_property",
		mcp.WithDescription("Return one property with a generated description."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Property id")),
	), s.getProperty)

	s.mcp.AddTool(mcp.NewTool("select_context",
		mcp.WithDescription("Show which properties a question would send to the assistant, "+
			"with the location tokens, price threshold and comparison mode parsed from it."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Free-text question")),
	), s.selectContext)

	s.mcp.AddTool(mcp.NewTool("status_distribution",
		mcp.WithDescription("Current status counts next to the counts the configured weights target."),
	), s.statusDistribution)

	s.mcp.AddTool(mcp.NewTool("get_dataset_contract",
		mcp.WithDescription("Returns the property dataset format. Read it before editing the dataset file."),
	), s.getDatasetContract)

	if ai != nil {
		s.mcp.AddTool(mcp.NewTool("ask_assistant",
			mcp.WithDescription("Ask the trust-layer assistant a question. Returns answer, confidence and sources as JSON."),
			mcp.WithString("question", mcp.Required(), mcp.Description("Free-text question")),
		), s.askAssistant)
	}

	s.mcp.AddResource(
		mcp.NewResource(datasetFormatURI, "Dataset Format Contract",
			mcp.WithResourceDescription("Property dataset JSON format and relabeling rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDatasetFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchProperties(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}
	items, total, err := s.catalog.List(catalog.ListQuery{
		Query:  req.GetString("query", ""),
		Status: models.Status(req.GetString("status", "")),
		Type:   req.GetString("type", ""),
		Sort:   req.GetString("sort", ""),
		Limit:  limit,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"total": total, "properties": items}), nil
}

func (s *Server) getProperty(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.catalog.Get(id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(catalog.WithDescription(p)), nil
}

func (s *Server) selectContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var criteria querycontext.Criteria
	var items []models.Property
	if s.ai != nil {
		criteria, items = s.ai.SelectContext(question)
	} else {
		criteria = querycontext.Parse(question)
		items = querycontext.Apply(criteria, s.catalog.All(), querycontext.DefaultMaxItems)
	}

	ids := make([]string, len(items))
	for i, p := range items {
		ids[i] = p.ID
	}
	return jsonResult(map[string]any{"criteria": criteria, "count": len(ids), "ids": ids}), nil
}

func (s *Server) statusDistribution(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all := s.catalog.All()
	counts, err := status.Counts(len(all), s.weights)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	current := status.Tally(all)

	var b strings.Builder
	fmt.Fprintf(&b, "%d properties\n", len(all))
	for i, st := range models.Statuses {
		fmt.Fprintf(&b, "%-11s current=%d target=%d\n", st, current[st], counts[i])
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) askAssistant(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ans, err := s.ai.Ask(ctx, question, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(ans), nil
}

func (s *Server) getDatasetContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DatasetFormatContract), nil
}

func (s *Server) readDatasetFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      datasetFormatURI,
			MIMEType: "text/markdown",
			Text:     DatasetFormatContract,
		},
	}, nil
}
