package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/DebjyotiRay/orchids-challenge/internal/config"
	"github.com/DebjyotiRay/orchids-challenge/internal/mcptools"
	"github.com/DebjyotiRay/orchids-challenge/internal/server"
	"github.com/DebjyotiRay/orchids-challenge/internal/service"
	"github.com/DebjyotiRay/orchids-challenge/internal/stages"
	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ConfigDir string
	OutputDir string
	Addr      string
	Serve     bool
	ServeMCP  bool
	MCPAddr   string
	Verbose   bool
	Version   bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("sitecloner", flag.ContinueOnError)
	fs.StringVar(&flags.ConfigDir, "config-dir", ".", "directory containing clone.yml")
	fs.StringVar(&flags.OutputDir, "output-dir", "", "output directory for generated runs")
	fs.StringVar(&flags.Addr, "addr", "", "HTTP API listen address")
	fs.BoolVar(&flags.Serve, "serve", false, "run the HTTP API server")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server for agent integration")
	fs.StringVar(&flags.MCPAddr, "mcp-addr", ":8090", "MCP server listen address")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.OutputDir != "" {
		cfg.OutputDir = flags.OutputDir
	}
	if flags.Addr != "" {
		cfg.ListenAddr = flags.Addr
	}
	if flags.Verbose {
		cfg.Verbose = true
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	descriptors, err := stages.NewRegistry().Build(cfg.Stages, stages.Options{
		CaptureScreenshot: cfg.CaptureScreenshot,
		PassThreshold:     cfg.QualityThreshold,
	})
	if err != nil {
		return err
	}

	orch, err := workflow.NewOrchestrator(descriptors, cfg.OutputDir, log)
	if err != nil {
		return err
	}

	svc := service.New(orch, cfg.MaxConcurrentRuns, log)

	if flags.Serve || flags.ServeMCP {
		return serve(cfg, svc, flags, log)
	}

	// One-shot mode: clone the URL given as the positional argument.
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: sitecloner [flags] <url> | sitecloner -serve")
	}
	return cloneOnce(svc, fs.Arg(0))
}

// serve runs the requested servers until interrupted.
func serve(cfg *config.Config, svc *service.Service, flags cliFlags, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if flags.Serve {
		srv := server.New(svc, cfg.OutputDir, log)
		g.Go(func() error { return srv.Serve(ctx, cfg.ListenAddr) })
	}
	if flags.ServeMCP {
		log.Info("mcp server listening", "addr", flags.MCPAddr)
		g.Go(func() error { return mcptools.RunMCPServer(ctx, mcptools.NewCloneService(svc), flags.MCPAddr) })
	}

	return g.Wait()
}

// cloneOnce runs a single clone synchronously and reports the outcome.
func cloneOnce(svc *service.Service, url string) error {
	resp := svc.Generate(context.Background(), url)
	if resp.Status != "success" {
		return fmt.Errorf("%s", resp.Message)
	}

	fmt.Printf("quality score: %.1f\n", resp.QualityScore)
	fmt.Printf("html: %s\n", resp.HTMLPath)
	fmt.Printf("css:  %s\n", resp.CSSPath)
	return nil
}
