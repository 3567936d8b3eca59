package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ironsheep/gene-scanner-mcp/internal/capture"
	"github.com/ironsheep/gene-scanner-mcp/internal/config"
	"github.com/ironsheep/gene-scanner-mcp/internal/events"
	"github.com/ironsheep/gene-scanner-mcp/internal/geometry"
	"github.com/ironsheep/gene-scanner-mcp/internal/imaging"
	"github.com/ironsheep/gene-scanner-mcp/internal/ocr"
	"github.com/ironsheep/gene-scanner-mcp/internal/resilience"
	"github.com/ironsheep/gene-scanner-mcp/internal/scanner"
	"github.com/ironsheep/gene-scanner-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var opts scanner.Options
	watch := false

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("gene-scanner %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "watch":
			watch = true
			for _, arg := range os.Args[2:] {
				switch arg {
				case "--preview":
					opts.WithPreview = true
				case "--debug":
					opts.WithDebug = true
				default:
					fmt.Fprintf(os.Stderr, "unknown watch option: %s\n", arg)
					os.Exit(2)
				}
			}
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
			printHelp()
			os.Exit(2)
		}
	}

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gene-scanner: %v\n", err)
		os.Exit(1)
	}

	// Log to stderr; stdout is for MCP protocol
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Debug("gene scanner starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.close()

	if cfg.FeedAddr != "" {
		feed := server.NewFeed()
		app.scanner.Subscribe(feed.Listen)
		go func() {
			if err := feed.ListenAndServe(ctx, cfg.FeedAddr); err != nil {
				slog.Error("event feed stopped", "error", err)
			}
		}()
	}

	if watch {
		err = runWatch(ctx, app.scanner, opts)
	} else {
		err = runServer(ctx, app)
	}
	if err != nil {
		slog.Error("gene scanner failed", "error", err)
		app.close()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("gene-scanner - reads sapling gene sequences from the screen")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gene-scanner                      Run the MCP server on stdin/stdout")
	fmt.Println("  gene-scanner watch [--preview] [--debug]")
	fmt.Println("                                    Scan until interrupted and log every event")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env):")
	fmt.Println("  GENESCAN_LOG_LEVEL=debug             Log level (debug, info, warn, error)")
	fmt.Println("  GENESCAN_SCAN_INTERVAL=200ms         Minimum delay between scan cycles")
	fmt.Println("  GENESCAN_SOURCE=screen               Capture source (screen or file)")
	fmt.Println("  GENESCAN_FRAMES=a.png,b.png          Frames replayed by the file source")
	fmt.Println("  GENESCAN_LOOP_FRAMES=false           Replay frames forever")
	fmt.Println("  GENESCAN_SKIP_UNCHANGED=false        Skip frames that look like the previous one")
	fmt.Println("  GENESCAN_UNCHANGED_DISTANCE=0        Hash distance still counted as unchanged")
	fmt.Println("  GENESCAN_LANGUAGE=eng                Tesseract language")
	fmt.Println("  GENESCAN_TESSDATA_DIR                Private language data cache")
	fmt.Println("  GENESCAN_TESSDATA_SOURCE             Extra directory holding *.traineddata")
	fmt.Println("  GENESCAN_PROVISION_RETRIES=3         Worker start-up retries")
	fmt.Println("  GENESCAN_FEED_ADDR                   Serve a websocket event feed on this address")
	fmt.Println()
	fmt.Println("The MCP server communicates via JSON-RPC over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

type app struct {
	scanner *scanner.Scanner
	pool    *ocr.Pool
	probe   func() ocr.Info
	closed  bool
}

func build(cfg *config.Config) (*app, error) {
	regions := geometry.DefaultRegions()

	cache := ocr.NewTessdataCache(cfg.TessdataDir, cfg.TessdataSources...)
	retry := resilience.DefaultRetryConfig()
	retry.MaxRetries = cfg.ProvisionRetries

	pool := ocr.NewPool(len(regions)*geometry.CellsPerRegion,
		ocr.NewTesseractFactory(cache, cfg.Language),
		ocr.WithCache(cache),
		ocr.WithRetry(retry),
	)

	var provider capture.Provider
	switch cfg.Source {
	case config.SourceFile:
		provider = capture.NewFileProvider(cfg.Frames, cfg.LoopFrames, imaging.NewImageCache())
	default:
		provider = capture.NewScreenProvider()
	}

	sc, err := scanner.New(provider, pool, events.NewHub(), scanner.Config{
		Regions:           regions,
		ScanInterval:      cfg.ScanInterval,
		SkipUnchanged:     cfg.SkipUnchanged,
		UnchangedDistance: cfg.UnchangedDistance,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		scanner: sc,
		pool:    pool,
		probe:   func() ocr.Info { return ocr.Probe(cache, cfg.Language) },
	}, nil
}

// close stops any running session and releases the recognition workers.
func (a *app) close() {
	if a.closed {
		return
	}
	a.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.scanner.Stop(ctx); err != nil && !errors.Is(err, scanner.ErrNotRunning) {
		slog.Warn("failed to stop scanner", "error", err)
	}
	if err := a.pool.Close(); err != nil {
		slog.Warn("failed to release recognition workers", "error", err)
	}
}

func runServer(ctx context.Context, a *app) error {
	srv := server.New(a.scanner,
		server.WithProbe(a.probe),
		server.WithVersion(Version),
	)

	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		slog.Info("shutting down")
		return nil
	}
}

func runWatch(ctx context.Context, sc *scanner.Scanner, opts scanner.Options) error {
	sc.Subscribe(logEvent)

	if err := sc.Start(ctx, opts); err != nil {
		if scanner.IsDenied(err) {
			return fmt.Errorf("screen capture was refused: %w", err)
		}
		return err
	}

	if err := sc.Wait(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func logEvent(kind events.Kind, payload any) {
	switch p := payload.(type) {
	case string:
		slog.Info("event", "kind", kind, "genes", p)
	case events.Preview:
		stats := imaging.MeanColor(p.Image)
		slog.Debug("event", "kind", kind, "region", p.RegionIndex, "size", p.Image.Bounds().Size(), "color", stats.Hex)
	case events.DebugPipeline:
		attrs := []any{"kind", kind, "region", p.RegionIndex, "result", p.Result}
		for _, step := range p.Steps {
			attrs = append(attrs, step.Name, imaging.MeanColor(step.Image).Hex)
		}
		slog.Debug("event", attrs...)
	default:
		slog.Info("event", "kind", kind)
	}
}
