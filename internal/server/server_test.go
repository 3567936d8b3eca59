package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/ironsheep/gene-scanner-mcp/internal/events"
	"github.com/ironsheep/gene-scanner-mcp/internal/scanner"
)

func TestNew(t *testing.T) {
	s := New(newTestScanner(t, &staticProvider{}, "G"), WithVersion("1.2.3"))
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.version != "1.2.3" {
		t.Errorf("version: got %s, want 1.2.3", s.version)
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(t, WithVersion("0.3.0"))

	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	result := resp.Result.(map[string]interface{})
	info := result["serverInfo"].(map[string]interface{})
	if info["name"] != "gene-scanner-mcp" {
		t.Errorf("serverInfo.name: got %v", info["name"])
	}
	if info["version"] != "0.3.0" {
		t.Errorf("serverInfo.version: got %v, want 0.3.0", info["version"])
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s := newTestServer(t)

	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: "p", Method: "ping"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.ID != "p" {
		t.Errorf("ID: got %v, want p", resp.ID)
	}
}

func TestHandleRequest_NotificationsInitialized(t *testing.T) {
	s := newTestServer(t)

	if resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"}); resp != nil {
		t.Errorf("expected no response, got %+v", resp)
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := newTestServer(t)

	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 7, Method: "resources/list"})

	if resp.Error == nil {
		t.Fatal("expected error")
	}
	if resp.Error.Code != -32601 {
		t.Errorf("Error.Code: got %d, want -32601", resp.Error.Code)
	}
}

// readMessages splits Serve output into decoded JSON objects.
func readMessages(t *testing.T, out *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var msgs []map[string]interface{}
	dec := json.NewDecoder(out)
	for dec.More() {
		var m map[string]interface{}
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("invalid output: %v", err)
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func TestServe_RespondsPerLine(t *testing.T) {
	s := newTestServer(t)
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}, "\n"))
	var out bytes.Buffer

	if err := s.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	msgs := readMessages(t, &out)
	if len(msgs) != 2 {
		t.Fatalf("responses: got %d, want 2", len(msgs))
	}
	if msgs[0]["id"] != float64(1) || msgs[1]["id"] != float64(2) {
		t.Errorf("ids: got %v and %v", msgs[0]["id"], msgs[1]["id"])
	}
}

func TestServe_ForwardsScannerEvents(t *testing.T) {
	s := newTestServer(t)
	in, requests := io.Pipe()
	var out bytes.Buffer

	errc := make(chan error, 1)
	go func() { errc <- s.Serve(context.Background(), in, &out) }()

	fmt.Fprintln(requests, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"scanner_start","arguments":{}}}`)
	waitForState(t, s.scanner, scanner.Scanning)
	fmt.Fprintln(requests, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"scanner_stop"}}`)
	requests.Close()

	if err := <-errc; err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	var kinds []string
	for _, m := range readMessages(t, &out) {
		if m["method"] != EventMethod {
			continue
		}
		params := m["params"].(map[string]interface{})
		kinds = append(kinds, params["kind"].(string))
	}

	if len(kinds) < 3 {
		t.Fatalf("event notifications: got %v", kinds)
	}
	if kinds[0] != string(events.KindInitializing) || kinds[1] != string(events.KindStarted) {
		t.Errorf("first events: got %v", kinds[:2])
	}
	if kinds[len(kinds)-1] != string(events.KindStopped) {
		t.Errorf("last event: got %s, want STOPPED", kinds[len(kinds)-1])
	}
}

func TestServe_UnsubscribesOnReturn(t *testing.T) {
	sc := newTestScanner(t, &staticProvider{}, "G")
	s := New(sc)

	if err := s.Serve(context.Background(), strings.NewReader(""), &bytes.Buffer{}); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	if n := sc.Hub().Len(); n != 0 {
		t.Errorf("listeners after Serve: got %d, want 0", n)
	}
}
