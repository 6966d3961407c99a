package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/propscope/internal/assistant"
	"github.com/starford/propscope/internal/testutil"
)

type cannedGenerator struct{}

func (cannedGenerator) Model() string { return "canned" }

func (cannedGenerator) Generate(context.Context, string, string) (string, error) {
	return `{"answer":"Dallas fits.","confidence":77,"sources":[]}`, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	cat := testutil.TestCatalog(t)
	ai := assistant.NewService(assistant.Options{Generator: cannedGenerator{}, Catalog: cat})
	return New(cat, ai, nil)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_properties":
		result, err = srv.searchProperties(ctx, req)
	case "get_property":
		result, err = srv.getProperty(ctx, req)
	case "select_context":
		result, err = srv.selectContext(ctx, req)
	case "status_distribution":
		result, err = srv.statusDistribution(ctx, req)
	case "ask_assistant":
		result, err = srv.askAssistant(ctx, req)
	case "get_dataset_contract":
		result, err = srv.getDatasetContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSearchProperties(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_properties", map[string]interface{}{"query": "industrial"})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}

	var out struct {
		Total      int `json:"total"`
		Properties []struct {
			ID string `json:"id"`
		} `json:"properties"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 2 {
		t.Errorf("total = %d, want 2", out.Total)
	}
}

func TestSearchPropertiesBadStatus(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_properties", map[string]interface{}{"status": "sold"})
	if !r.IsError {
		t.Error("expected error for unknown status")
	}
}

func TestGetProperty(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_property", map[string]interface{}{"id": "lb-003"})
	text := resultText(r)
	if !strings.Contains(text, `"title": "Harbor Distribution"`) {
		t.Errorf("result = %q", text)
	}
	if !strings.Contains(text, "Harbor Distribution at 12 Harbor Way") {
		t.Error("description not generated")
	}
}

func TestGetPropertyMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_property", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing property")
	}
	r = callTool(t, srv, "get_property", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error without id")
	}
}

func TestSelectContext(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "select_context", map[string]interface{}{"question": "texas under 10m"})

	var out struct {
		Criteria struct {
			Tokens []string `json:"matchedLocationTokens"`
			Mode   string   `json:"comparisonMode"`
		} `json:"criteria"`
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	if out.Criteria.Mode != "at-most" {
		t.Errorf("mode = %q", out.Criteria.Mode)
	}
	if len(out.IDs) != 1 || out.IDs[0] != "aus-002" {
		t.Errorf("ids = %v, want [aus-002]", out.IDs)
	}
}

func TestStatusDistribution(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "status_distribution", nil))
	if !strings.HasPrefix(text, "5 properties") {
		t.Errorf("result = %q", text)
	}
	if !strings.Contains(text, "off-market  current=1 target=3") {
		t.Errorf("result = %q", text)
	}
}

func TestAskAssistant(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "ask_assistant", map[string]interface{}{"question": "best in dallas?"})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"confidence": 77`) {
		t.Errorf("result = %q", resultText(r))
	}

	r = callTool(t, srv, "ask_assistant", map[string]interface{}{"question": "  "})
	if !r.IsError {
		t.Error("expected error for blank question")
	}
}

func TestSelectContextWithoutAssistant(t *testing.T) {
	srv := New(testutil.TestCatalog(t), nil, nil)
	r := callTool(t, srv, "select_context", map[string]interface{}{"question": "anything in florida"})
	if !strings.Contains(resultText(r), `"mia-004"`) {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestDatasetContract(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "get_dataset_contract", nil))
	if !strings.Contains(text, "# Property Dataset Format") {
		t.Errorf("contract = %q", text)
	}
}
