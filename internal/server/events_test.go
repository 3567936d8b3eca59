package server

import (
	"encoding/base64"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/gene-scanner-mcp/internal/events"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestNewEventMessage_Lifecycle(t *testing.T) {
	for _, kind := range []events.Kind{events.KindStarted, events.KindInitializing, events.KindStopped} {
		msg, err := NewEventMessage(kind, nil)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if msg.Kind != kind || msg.Genes != "" || msg.Image != nil || msg.RegionIndex != nil {
			t.Errorf("%s: got %+v", kind, msg)
		}
	}
}

func TestNewEventMessage_SaplingFound(t *testing.T) {
	msg, err := NewEventMessage(events.KindSaplingFound, "GHWXYG")
	if err != nil {
		t.Fatalf("NewEventMessage failed: %v", err)
	}
	if msg.Genes != "GHWXYG" {
		t.Errorf("genes: got %q, want GHWXYG", msg.Genes)
	}
}

func TestNewEventMessage_Preview(t *testing.T) {
	img := solidImage(84, 16, color.RGBA{R: 255, A: 255})

	msg, err := NewEventMessage(events.KindPreview, events.Preview{RegionIndex: 1, Image: img})
	if err != nil {
		t.Fatalf("NewEventMessage failed: %v", err)
	}

	if msg.RegionIndex == nil || *msg.RegionIndex != 1 {
		t.Errorf("region index: got %v, want 1", msg.RegionIndex)
	}
	if msg.Image == nil {
		t.Fatal("preview image missing")
	}
	if msg.Image.Width != 84 || msg.Image.Height != 16 {
		t.Errorf("size: got %dx%d, want 84x16", msg.Image.Width, msg.Image.Height)
	}
	if _, err := base64.StdEncoding.DecodeString(msg.Image.ImageBase64); err != nil {
		t.Errorf("image is not base64: %v", err)
	}
	if msg.Image.Color.Hex != "#ff0000" {
		t.Errorf("mean colour: got %s, want #ff0000", msg.Image.Color.Hex)
	}
}

func TestNewEventMessage_DebugPipeline(t *testing.T) {
	steps := []events.DebugStep{
		{Name: "1. Raw crop", Image: solidImage(8, 8, color.White)},
		{Name: "2. Greyscale", Image: solidImage(8, 8, color.Black)},
	}

	tests := []struct {
		name   string
		result string
	}{
		{"matched", "W"},
		{"no match", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewEventMessage(events.KindDebugPipeline, events.DebugPipeline{RegionIndex: 0, Steps: steps, Result: tt.result})
			if err != nil {
				t.Fatalf("NewEventMessage failed: %v", err)
			}

			if msg.Result == nil || *msg.Result != tt.result {
				t.Errorf("result: got %v, want %q", msg.Result, tt.result)
			}
			if len(msg.Steps) != 2 {
				t.Fatalf("steps: got %d, want 2", len(msg.Steps))
			}
			if msg.Steps[1].Name != "2. Greyscale" {
				t.Errorf("step name: got %s", msg.Steps[1].Name)
			}
			if msg.Steps[0].Image.Color.Lightness <= msg.Steps[1].Image.Color.Lightness {
				t.Error("white step should be lighter than black step")
			}
		})
	}
}

func TestNewEventMessage_UnsupportedPayload(t *testing.T) {
	if _, err := NewEventMessage(events.KindSaplingFound, 42); err == nil {
		t.Error("expected error for an int payload")
	}
}
