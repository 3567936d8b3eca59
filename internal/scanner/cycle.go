package scanner

import (
	"context"
	"image"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/corona10/goimagehash"
	xdraw "golang.org/x/image/draw"

	"github.com/ironsheep/gene-scanner-mcp/internal/events"
	"github.com/ironsheep/gene-scanner-mcp/internal/geometry"
	"github.com/ironsheep/gene-scanner-mcp/internal/imaging"
	"github.com/ironsheep/gene-scanner-mcp/internal/ocr"
)

var genePattern = regexp.MustCompile(`^[` + ocr.Alphabet + `]{6}$`)

// Assemble joins the candidates of one region in position order. It reports
// false unless every position matched a gene letter.
func Assemble(candidates []ocr.Candidate) (string, bool) {
	if len(candidates) != geometry.CellsPerRegion {
		return "", false
	}
	var b strings.Builder
	for _, c := range candidates {
		if !c.Matched() {
			return "", false
		}
		b.WriteRune(c.Rune())
	}
	genes := b.String()
	return genes, genePattern.MatchString(genes)
}

// render draws frame onto the run's surface with the aspect correction
// applied and returns the surface. It returns nil for an empty frame.
func (r *run) render(frame image.Image) *image.RGBA {
	b := frame.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil
	}
	height, yOffset := geometry.AspectCorrection(b.Dx(), b.Dy())
	if height <= 0 {
		return nil
	}

	bounds := image.Rect(0, 0, b.Dx(), height)
	if r.surface == nil || r.surface.Bounds() != bounds {
		r.surface = image.NewRGBA(bounds)
	} else {
		clear(r.surface.Pix)
	}

	xdraw.Copy(r.surface, image.Pt(0, yOffset), frame, b, xdraw.Src, nil)
	return r.surface
}

// unchanged reports whether surface looks the same as the previous frame.
func (s *Scanner) unchanged(r *run, surface image.Image) bool {
	if !s.cfg.SkipUnchanged {
		return false
	}
	hash, err := goimagehash.PerceptionHash(surface)
	if err != nil {
		slog.Debug("failed to hash frame", "error", err)
		return false
	}
	prev := r.lastHash
	r.lastHash = hash
	if prev == nil {
		return false
	}
	dist, err := prev.Distance(hash)
	return err == nil && dist <= s.cfg.UnchangedDistance
}

type cellResult struct {
	candidate ocr.Candidate
	steps     []events.DebugStep
}

// cycle runs one capture, recognize and report pass.
func (s *Scanner) cycle(ctx context.Context, r *run) {
	frame, err := r.source.Frame()
	if err != nil {
		slog.Debug("frame unavailable", "session", r.session.ID, "error", err)
		return
	}

	surface := r.render(frame)
	if surface == nil {
		return
	}
	if s.unchanged(r, surface) {
		r.session.countSkipped()
		return
	}

	w, h := surface.Bounds().Dx(), surface.Bounds().Dy()
	opts := r.session.Options

	if opts.WithPreview {
		for i, region := range s.cfg.Regions {
			strip := imaging.Crop(surface, geometry.PreviewRect(region, w, h))
			s.hub.Emit(events.KindPreview, events.Preview{RegionIndex: i, Image: strip})
		}
	}

	results := make([]cellResult, len(s.cfg.Regions)*geometry.CellsPerRegion)

	var wg sync.WaitGroup
	for ri, region := range s.cfg.Regions {
		for pos, rect := range geometry.CellRects(region, w, h) {
			slot := geometry.SlotIndex(ri, pos)
			cell := imaging.Crop(surface, rect)

			var record imaging.StepRecorder
			if opts.WithDebug && pos == 0 {
				res := &results[slot]
				record = func(name string, img image.Image) {
					res.steps = append(res.steps, events.DebugStep{Name: name, Image: img})
				}
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				results[slot].candidate = s.pool.Recognize(ctx, slot, cell, record)
			}()
		}
	}
	wg.Wait()

	if ctx.Err() != nil {
		return
	}

	if opts.WithDebug {
		for ri := range s.cfg.Regions {
			first := results[geometry.SlotIndex(ri, 0)]
			s.hub.Emit(events.KindDebugPipeline, events.DebugPipeline{
				RegionIndex: ri,
				Steps:       first.steps,
				Result:      first.candidate.String(),
			})
		}
	}

	for ri, region := range s.cfg.Regions {
		candidates := make([]ocr.Candidate, geometry.CellsPerRegion)
		for pos := range candidates {
			candidates[pos] = results[geometry.SlotIndex(ri, pos)].candidate
		}
		genes, ok := Assemble(candidates)
		if !ok {
			continue
		}

		r.session.record(Result{
			SessionID:   r.session.ID,
			RegionIndex: ri,
			Region:      region.Name,
			Genes:       genes,
			FoundAt:     time.Now(),
		})
		slog.Info("sapling found", "region", region.Name, "genes", genes)
		s.hub.Emit(events.KindSaplingFound, genes)
	}

	r.session.countCycle()
}
