package server

import (
	"context"
	"encoding/json"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ironsheep/gene-scanner-mcp/internal/capture"
	"github.com/ironsheep/gene-scanner-mcp/internal/imaging"
	"github.com/ironsheep/gene-scanner-mcp/internal/ocr"
	"github.com/ironsheep/gene-scanner-mcp/internal/scanner"
)

type staticSource struct {
	frame image.Image
	once  sync.Once
	done  chan struct{}
}

func (s *staticSource) Frame() (image.Image, error) { return s.frame, nil }
func (s *staticSource) Done() <-chan struct{}       { return s.done }
func (s *staticSource) Stop()                       { s.once.Do(func() { close(s.done) }) }

type staticProvider struct {
	err error
}

func (p *staticProvider) Acquire(ctx context.Context) (capture.Source, error) {
	if p.err != nil {
		return nil, p.err
	}
	frame := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	return &staticSource{frame: frame, done: make(chan struct{})}, nil
}

// letterRecognizer reads the same letter in every slot.
type letterRecognizer struct {
	letter      string
	hold        chan struct{}
	provisioned atomic.Bool
}

// Provision blocks while hold is open, as slow worker start-up does.
func (r *letterRecognizer) Provision(ctx context.Context) error {
	if r.hold != nil {
		select {
		case <-r.hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.provisioned.Store(true)
	return nil
}

func (r *letterRecognizer) Recognize(ctx context.Context, slot int, cell image.Image, record imaging.StepRecorder) ocr.Candidate {
	if record != nil {
		for _, name := range imaging.StepNames {
			record(name, cell)
		}
	}
	return ocr.ParseCandidate(r.letter)
}

func (r *letterRecognizer) Size() int { return 12 }

func (r *letterRecognizer) Ready() bool { return r.provisioned.Load() }

func newTestScanner(t *testing.T, provider capture.Provider, letter string) *scanner.Scanner {
	t.Helper()
	return newTestScannerWith(t, provider, &letterRecognizer{letter: letter})
}

func newTestScannerWith(t *testing.T, provider capture.Provider, rec scanner.Recognizer) *scanner.Scanner {
	t.Helper()
	sc, err := scanner.New(provider, rec, nil, scanner.Config{ScanInterval: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("scanner.New failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = sc.Stop(ctx)
	})
	return sc
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	return New(newTestScanner(t, &staticProvider{}, "G"), opts...)
}

// callTool runs a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleToolsCall returned nil")
	}
	return resp
}

// decodeToolResult unmarshals the text content of a successful tool call.
func decodeToolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %v", result["content"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("Failed to unmarshal tool result: %v", err)
	}
}

// waitForState polls the scanner until it reaches want.
func waitForState(t *testing.T, sc *scanner.Scanner, want scanner.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for sc.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state: got %s, want %s", sc.State(), want)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
