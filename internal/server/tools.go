package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Session control
		{
			Name:        "scanner_start",
			Description: "Start scanning the screen for sapling gene sequences. Found sequences, lifecycle changes and optional previews are sent as notifications/scanner/event notifications. Returns as soon as the scanner is initializing; scanner_stop may be called while workers are still starting.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"with_preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Emit a PREVIEW event with the gene strip of every region on each cycle. Default false",
						"default":     false,
					},
					"with_debug": map[string]interface{}{
						"type":        "boolean",
						"description": "Emit a DEBUG_PIPELINE event with every transform step of the first cell of each region. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "scanner_stop",
			Description: "Stop the current scanning session and release the capture source.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Inspection
		{
			Name:        "scanner_status",
			Description: "Get the scanner state, counters of the current or last session and the OCR backend status.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "scanner_regions",
			Description: "Get the pixel rectangles of every gene cell and preview strip for a frame size, after aspect correction.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Frame width in pixels (default 1920)",
						"default":     1920,
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Frame height in pixels (default 1080)",
						"default":     1080,
					},
				},
			},
		},
		{
			Name:        "scanner_results",
			Description: "Get the gene sequences found by the current session, or by the last one until the next start.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Return at most this many of the most recent results (default all)",
					},
					"region": map[string]interface{}{
						"type":        "string",
						"description": "Only return results for this region name",
					},
				},
			},
		},
		{
			Name:        "scanner_engine",
			Description: "Check whether Tesseract is available and where its language data is cached.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
