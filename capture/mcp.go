package capture

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/parkermclaren/polymarket-screenshotter/kit"
)

// RegisterMCP registers capture tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerCaptureTool(srv)
	s.registerModesTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	sch := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sch["required"] = required
	}
	return sch
}

// --- capture ---

type captureReq struct {
	URL           string  `json:"url"`
	Aspect        string  `json:"aspect"`
	TimeRange     string  `json:"time_range"`
	Watermark     string  `json:"watermark"`
	InvestmentUSD float64 `json:"investment_usd"`
}

type captureResp struct {
	Success     bool   `json:"success"`
	FileName    string `json:"file_name,omitempty"`
	MarketTitle string `json:"market_title,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (s *Service) registerCaptureTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "capture_market",
		Description: "Capture a Polymarket market or event page as a share image (PNG, base64).",
		InputSchema: inputSchema(map[string]any{
			"url":            map[string]any{"type": "string", "description": "Polymarket event or market URL"},
			"aspect":         map[string]any{"type": "string", "description": "twitter (7:8) or square"},
			"time_range":     map[string]any{"type": "string", "description": "chart range: 1h, 6h, 1d, 1w, 1m, max"},
			"watermark":      map[string]any{"type": "string", "description": "none, wordmark, or icon"},
			"investment_usd": map[string]any{"type": "number", "description": "optional payout annotation amount"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*captureReq)
		res := s.Capture(ctx, Request{
			SourceURL: r.URL,
			Aspect:    Aspect(r.Aspect),
			TimeRange: r.TimeRange,
			Watermark: r.Watermark,
			Payout:    PayoutOptions{InvestmentUSD: r.InvestmentUSD},
		})
		resp := captureResp{
			Success:     res.Success,
			FileName:    res.FileName,
			MarketTitle: res.MarketTitle,
		}
		if res.Success {
			resp.ImageBase64 = base64.StdEncoding.EncodeToString(res.ImageBytes)
		} else if res.Err != nil {
			resp.Error = res.Err.Error()
		}
		return resp, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r captureReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{
			Request: &r,
			EnrichCtx: func(ctx context.Context) context.Context {
				ctx = kit.WithTransport(ctx, "mcp")
				return kit.WithRequestID(ctx, s.newID())
			},
		}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- modes ---

func (s *Service) registerModesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "capture_modes",
		Description: "List the accepted aspect, time range, and watermark values.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{
			"aspects":     []string{string(AspectTwitter), string(AspectSquare)},
			"time_ranges": []string{"1h", "6h", "1d", "1w", "1m", "max"},
			"watermarks":  []string{WatermarkNone, WatermarkWordmark, WatermarkIcon},
		}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
