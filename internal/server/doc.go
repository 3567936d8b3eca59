// Package server exposes the gene scanner over MCP (Model Context Protocol).
//
// The server speaks JSON-RPC 2.0 over stdio, one message per line:
//   - Input: requests on stdin
//   - Output: responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - scanner_start: Open a capture session, optionally with preview and
//     diagnostic events
//   - scanner_stop: End the current session
//   - scanner_status: Lifecycle state, session counters and OCR backend
//   - scanner_regions: Pixel rectangles of every gene cell for a frame size
//   - scanner_results: Gene sequences found by the current or last session
//   - scanner_engine: Tesseract availability and language data location
//
// # Events
//
// While the server is running, every scanner event is written to stdout as
// a notifications/scanner/event notification. PREVIEW and DEBUG_PIPELINE
// images are embedded as base64 PNG together with their mean colour.
//
// The same messages can be streamed to websocket clients with a Feed.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with
// code -32000 and the Go error string in data.
package server
