package convert

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "bestellkonverter-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	pipe := newTestPipeline(t)
	srv := mcp.NewServer(testMCPImpl, nil)
	pipe.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	// GetError is server-side only; clients observe failures via IsError.
	if result.IsError {
		t.Fatalf("CallTool(%s) tool error: %v", name, result.Content)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

// --- bestell_variants ---

func TestMCP_Variants(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "bestell_variants", map[string]any{})

	var resp struct {
		Variants []string `json:"variants"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	expected := map[string]bool{"EDEKA": true, "DOHLE": true, "HAMMERER": true}
	for _, v := range resp.Variants {
		if !expected[v] {
			t.Errorf("unexpected variant: %q", v)
		}
		delete(expected, v)
	}
	for v := range expected {
		t.Errorf("missing variant: %q", v)
	}
}

// --- bestell_classify ---

func TestMCP_Classify(t *testing.T) {
	session := mcpSession(t)

	tests := []struct {
		filename string
		variant  string
	}{
		{"Bestellung_123.pdf", "EDEKA"},
		{"dohlehit_20250502.pdf", "DOHLE"},
		{"AEZ_80.pdf", "DOHLE"},
		{"Hammerer_Mai.pdf", "HAMMERER"},
	}
	for _, tt := range tests {
		text := mcpCallTool(t, session, "bestell_classify", map[string]any{"filename": tt.filename})
		var resp struct {
			Variant string `json:"variant"`
		}
		json.Unmarshal([]byte(text), &resp)
		if resp.Variant != tt.variant {
			t.Errorf("classify(%q) = %q, want %q", tt.filename, resp.Variant, tt.variant)
		}
	}
}

// --- bestell_convert ---

func TestMCP_Convert(t *testing.T) {
	session := mcpSession(t)
	path := writePDF(t, "Bestellung_4500012345.pdf", edekaFixture(), 842, 595)

	text := mcpCallTool(t, session, "bestell_convert", map[string]any{"path": path})

	var resp struct {
		Filename    string `json:"filename"`
		Variant     string `json:"variant"`
		OrderNumber string `json:"order_number"`
		Items       int    `json:"items"`
		CSV         string `json:"csv_base64"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Variant != "EDEKA" || resp.OrderNumber != "4500012345" || resp.Items != 2 {
		t.Errorf("response: %+v", resp)
	}
	if resp.Filename != "Bestellung_4500012345.csv" {
		t.Errorf("filename: got %q", resp.Filename)
	}
	raw, err := base64.StdEncoding.DecodeString(resp.CSV)
	if err != nil {
		t.Fatalf("csv_base64: %v", err)
	}
	if len(raw) == 0 {
		t.Error("expected non-empty CSV artifact")
	}
}

func TestMCP_Convert_RejectionIsToolError(t *testing.T) {
	session := mcpSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "bestell_convert",
		Arguments: map[string]any{"path": "/does/not/exist.pdf"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error for an unreadable document")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	if !strings.Contains(tc.Text, string(FailUnreadable)) {
		t.Errorf("error text should carry the failure kind: %q", tc.Text)
	}
}
