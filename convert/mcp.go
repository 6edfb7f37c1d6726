package convert

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hgmaier/bestellkonverter/kit"
)

// RegisterMCP registers the converter tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerConvertTool(srv)
	p.registerClassifyTool(srv)
	p.registerVariantsTool(srv)
}

// toolLogging times every tool call and logs rejections with their reason.
func (p *Pipeline) toolLogging(tool string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if err != nil {
				p.logger.Warn("mcp tool rejected", "tool", tool, "reason", err, "duration", time.Since(start))
			} else {
				p.logger.Debug("mcp tool served", "tool", tool, "duration", time.Since(start))
			}
			return resp, err
		}
	}
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- convert ---

type convertReq struct {
	Path string `json:"path"`
}

type convertResp struct {
	Filename    string  `json:"filename"`
	Variant     Variant `json:"variant"`
	OrderNumber string  `json:"order_number"`
	OrderDate   string  `json:"order_date"`
	Items       int     `json:"items"`
	RowsDropped int     `json:"rows_dropped"`
	// CSV is base64: the artifact is Latin-1 encoded and not valid JSON text.
	CSV string `json:"csv_base64"`
}

func (p *Pipeline) registerConvertTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "bestell_convert",
		Description: "Convert a retail order PDF into the 15-column ordering-system CSV.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "PDF file path to convert"},
		}, []string{"path"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*convertReq)
		res, err := p.Convert(ctx, r.Path)
		if err != nil {
			return nil, err
		}
		return &convertResp{
			Filename:    res.Filename,
			Variant:     res.Variant,
			OrderNumber: res.Header.OrderNumber,
			OrderDate:   res.Header.OrderDate,
			Items:       res.Stats.Items,
			RowsDropped: res.Stats.RowsDropped,
			CSV:         base64.StdEncoding.EncodeToString(res.CSV),
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var r convertReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Chain(p.toolLogging(tool.Name))(endpoint), decode)
}

// --- classify ---

type classifyReq struct {
	Filename string `json:"filename"`
}

func (p *Pipeline) registerClassifyTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "bestell_classify",
		Description: "Report which document variant a filename selects.",
		InputSchema: inputSchema(map[string]any{
			"filename": map[string]any{"type": "string", "description": "Filename to classify"},
		}, []string{"filename"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*classifyReq)
		return map[string]any{"variant": p.Classify(r.Filename)}, nil
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var r classifyReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Chain(p.toolLogging(tool.Name))(endpoint), decode)
}

// --- variants ---

func (p *Pipeline) registerVariantsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "bestell_variants",
		Description: "List the registered document variants.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{"variants": p.Variants()}, nil
	}

	decode := func(*mcp.CallToolRequest) (any, error) { return nil, nil }

	kit.RegisterMCPTool(srv, tool, kit.Chain(p.toolLogging(tool.Name))(endpoint), decode)
}
