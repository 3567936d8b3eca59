package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/ironsheep/gene-scanner-mcp/internal/events"
	"github.com/ironsheep/gene-scanner-mcp/internal/geometry"
	"github.com/ironsheep/gene-scanner-mcp/internal/ocr"
	"github.com/ironsheep/gene-scanner-mcp/internal/scanner"
)

// StopTimeout bounds how long scanner_stop waits for the session to end.
const StopTimeout = 10 * time.Second

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "scanner_start").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "scanner_start":
		return s.handleScannerStart(ctx, args)
	case "scanner_stop":
		return s.handleScannerStop(ctx)
	case "scanner_status":
		return s.handleScannerStatus()
	case "scanner_regions":
		return s.handleScannerRegions(args)
	case "scanner_results":
		return s.handleScannerResults(args)
	case "scanner_engine":
		return s.handleScannerEngine()
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes optional tool arguments. Absent arguments leave a
// at its zero value.
func unmarshalArgs(args json.RawMessage, a interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	return json.Unmarshal(args, a)
}

// === Session Control Handlers ===

// handleScannerStart starts a session without holding the request loop
// through worker provisioning, so that scanner_stop can still be read while
// the scanner initializes. It returns once INITIALIZING has been emitted or
// Start has failed before getting that far. Failures after INITIALIZING are
// reported through the STOPPED event and the log.
func (s *Server) handleScannerStart(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scanner.Options
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	initializing := make(chan struct{}, 1)
	unsubscribe := s.scanner.Subscribe(func(kind events.Kind, _ any) {
		if kind != events.KindInitializing {
			return
		}
		select {
		case initializing <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	errc := make(chan error, 1)
	go func() {
		err := s.scanner.Start(ctx, a)
		if err != nil {
			slog.Warn("scanner did not start", "error", err)
		}
		errc <- err
	}()

	select {
	case err := <-errc:
		if err != nil {
			if scanner.IsDenied(err) {
				return nil, fmt.Errorf("screen capture was refused: %w", err)
			}
			return nil, err
		}
	case <-initializing:
	}
	return s.scanner.Status(), nil
}

func (s *Server) handleScannerStop(ctx context.Context) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, StopTimeout)
	defer cancel()
	if err := s.scanner.Stop(ctx); err != nil {
		return nil, err
	}
	return s.scanner.Status(), nil
}

// === Inspection Handlers ===

// StatusResult is returned by scanner_status.
type StatusResult struct {
	scanner.Status
	Engine *ocr.Info `json:"engine,omitempty"`
}

func (s *Server) handleScannerStatus() (interface{}, error) {
	res := StatusResult{Status: s.scanner.Status()}
	if s.probe != nil {
		info := s.probe()
		res.Engine = &info
	}
	return res, nil
}

func (s *Server) handleScannerEngine() (interface{}, error) {
	if s.probe == nil {
		return ocr.Info{Backend: "none", Error: "no recognition backend configured"}, nil
	}
	return s.probe(), nil
}

type scannerRegionsArgs struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RegionLayout is the pixel layout of one region.
type RegionLayout struct {
	Index   int             `json:"index"`
	Name    string          `json:"name"`
	Cells   []Rect          `json:"cells"`
	Preview Rect            `json:"preview"`
	Region  geometry.Region `json:"normalized"`
}

// Rect is a pixel rectangle, max exclusive.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func toRect(r image.Rectangle) Rect {
	return Rect{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// RegionsResult is returned by scanner_regions.
type RegionsResult struct {
	FrameWidth    int            `json:"frame_width"`
	FrameHeight   int            `json:"frame_height"`
	SurfaceHeight int            `json:"surface_height"`
	YOffset       int            `json:"y_offset"`
	Regions       []RegionLayout `json:"regions"`
}

func (s *Server) handleScannerRegions(args json.RawMessage) (interface{}, error) {
	var a scannerRegionsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Width == 0 {
		a.Width = 1920
	}
	if a.Height == 0 {
		a.Height = 1080
	}
	if a.Width < 0 || a.Height < 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", a.Width, a.Height)
	}

	height, yOffset := geometry.AspectCorrection(a.Width, a.Height)
	res := RegionsResult{
		FrameWidth:    a.Width,
		FrameHeight:   a.Height,
		SurfaceHeight: height,
		YOffset:       yOffset,
	}
	for i, region := range s.scanner.Regions() {
		layout := RegionLayout{
			Index:   i,
			Name:    region.Name,
			Preview: toRect(geometry.PreviewRect(region, a.Width, height)),
			Region:  region,
		}
		for _, cell := range geometry.CellRects(region, a.Width, height) {
			layout.Cells = append(layout.Cells, toRect(cell))
		}
		res.Regions = append(res.Regions, layout)
	}
	return res, nil
}

type scannerResultsArgs struct {
	Limit  int    `json:"limit"`
	Region string `json:"region"`
}

// ResultsResult is returned by scanner_results.
type ResultsResult struct {
	Count   int              `json:"count"`
	Results []scanner.Result `json:"results"`
}

func (s *Server) handleScannerResults(args json.RawMessage) (interface{}, error) {
	var a scannerResultsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	results := make([]scanner.Result, 0)
	for _, r := range s.scanner.Results() {
		if a.Region == "" || r.Region == a.Region {
			results = append(results, r)
		}
	}
	if a.Limit > 0 && len(results) > a.Limit {
		results = results[len(results)-a.Limit:]
	}
	return ResultsResult{Count: len(results), Results: results}, nil
}
