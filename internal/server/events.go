package server

import (
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/gene-scanner-mcp/internal/events"
	"github.com/ironsheep/gene-scanner-mcp/internal/imaging"
)

// EventMessage is the wire form of a scanner event, shared by MCP
// notifications and the websocket feed.
type EventMessage struct {
	Kind        events.Kind `json:"kind"`
	Time        time.Time   `json:"time"`
	Genes       string      `json:"genes,omitempty"`
	RegionIndex *int        `json:"region_index,omitempty"`
	Image       *EventImage `json:"image,omitempty"`
	Steps       []EventStep `json:"steps,omitempty"`
	Result      *string     `json:"result,omitempty"`
}

// EventImage is an image embedded in an event.
type EventImage struct {
	imaging.Encoded
	Color imaging.ColorStats `json:"color"`
}

// EventStep is one transform step of a DEBUG_PIPELINE event.
type EventStep struct {
	Name  string      `json:"name"`
	Image *EventImage `json:"image"`
}

func encodeImage(img image.Image) (*EventImage, error) {
	enc, err := imaging.EncodeBase64(img)
	if err != nil {
		return nil, err
	}
	return &EventImage{Encoded: *enc, Color: imaging.MeanColor(img)}, nil
}

// NewEventMessage converts a hub event into its wire form.
func NewEventMessage(kind events.Kind, payload any) (*EventMessage, error) {
	msg := &EventMessage{Kind: kind, Time: time.Now()}

	switch p := payload.(type) {
	case nil:
	case string:
		msg.Genes = p
	case events.Preview:
		img, err := encodeImage(p.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to encode preview: %w", err)
		}
		idx := p.RegionIndex
		msg.RegionIndex = &idx
		msg.Image = img
	case events.DebugPipeline:
		idx := p.RegionIndex
		result := p.Result
		msg.RegionIndex = &idx
		msg.Result = &result
		for _, step := range p.Steps {
			img, err := encodeImage(step.Image)
			if err != nil {
				return nil, fmt.Errorf("failed to encode step %q: %w", step.Name, err)
			}
			msg.Steps = append(msg.Steps, EventStep{Name: step.Name, Image: img})
		}
	default:
		return nil, fmt.Errorf("unsupported payload %T for %s", payload, kind)
	}
	return msg, nil
}
