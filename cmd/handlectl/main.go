// Package main provides handlectl, a command-line front end for the query
// handle service. It loads configuration, optionally seeds handles from a
// fixture file, and executes XML tool calls read from stdin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/entrhq/queryhandles/pkg/config"
	"github.com/entrhq/queryhandles/pkg/executor/cli"
	"github.com/entrhq/queryhandles/pkg/logging"
	"github.com/entrhq/queryhandles/pkg/queryhandle"
	"github.com/entrhq/queryhandles/pkg/tools"
	"github.com/entrhq/queryhandles/pkg/tools/handletools"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile   string
	SeedFile     string
	LogDir       string
	Verbosity    string
	ShowMetadata bool
	ShowVersion  bool
}

// service is the process-wide handle service, created once in run.
var service *queryhandle.Service

func main() {
	cliConfig := parseFlags()

	if cliConfig.ShowVersion {
		fmt.Printf("handlectl v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cliConfig); err != nil && !errors.Is(err, context.Canceled) {
		cancel()
		log.Printf("handlectl failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cfg.SeedFile, "seed", "", "Path to a YAML or JSON fixture of handles to create at startup")
	flag.StringVar(&cfg.LogDir, "log-dir", "", "Log directory (default: ~/.queryhandles/logs)")
	flag.StringVar(&cfg.Verbosity, "verbosity", "", "Logging verbosity: quiet, normal, verbose or debug")
	flag.BoolVar(&cfg.ShowMetadata, "metadata", false, "Print tool result metadata")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "handlectl - query handle tools from the command line\n\n")
		fmt.Fprintf(os.Stderr, "Usage: handlectl [options] < calls.xml\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Interactive session over seeded handles\n")
		fmt.Fprintf(os.Stderr, "  handlectl -seed testdata/seed.yaml\n\n")
		fmt.Fprintf(os.Stderr, "  # Run a batch of tool calls\n")
		fmt.Fprintf(os.Stderr, "  handlectl -config handles.yaml -seed seed.yaml < calls.xml\n\n")
	}

	flag.Parse()
	return cfg
}

// loadConfig reads the config file if given and applies flag overrides.
func loadConfig(cliConfig *CLIConfig) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if cliConfig.ConfigFile != "" {
		loaded, err := config.Load(cliConfig.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cliConfig.LogDir != "" {
		cfg.Logging.Dir = cliConfig.LogDir
	}
	if cliConfig.Verbosity != "" {
		cfg.Logging.Verbosity = cliConfig.Verbosity
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildRegistry registers every enabled handle tool.
func buildRegistry(cfg *config.Config, svc *queryhandle.Service, reverter handletools.Reverter) (*tools.Registry, error) {
	registry := tools.NewRegistry()
	for _, tool := range handletools.All(svc, reverter, cfg.Tools.PreviewLimit) {
		if !cfg.Tools.IsToolEnabled(tool.Name()) {
			continue
		}
		if err := registry.Register(tool); err != nil {
			return nil, fmt.Errorf("failed to register tool: %w", err)
		}
	}
	return registry, nil
}

func run(ctx context.Context, cliConfig *CLIConfig) error {
	cfg, err := loadConfig(cliConfig)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Logging.Dir != "" {
		logging.SetDirectory(cfg.Logging.Dir)
	}
	logging.SetDefaultLevel(logging.ParseLevel(cfg.Logging.Verbosity))
	logger, err := logging.NewLogger("handlectl")
	if err != nil {
		// NewLogger already fell back to stderr.
		logger.Warnf("file logging unavailable: %v", err)
	}
	defer logger.Close()

	service = queryhandle.New(cfg.Handles,
		queryhandle.WithLogger(logger),
	)
	service.StartCleanup(ctx)
	defer service.Close()

	if cliConfig.SeedFile != "" {
		seed, seedErr := loadSeedFile(cliConfig.SeedFile)
		if seedErr != nil {
			return seedErr
		}
		created, applyErr := seed.apply(service)
		if applyErr != nil {
			return fmt.Errorf("failed to seed handles: %w", applyErr)
		}
		logger.Infof("seeded %d handle(s) from %s", len(created), cliConfig.SeedFile)
	}

	registry, err := buildRegistry(cfg, service, logReverter{log: logger})
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	executor := cli.NewExecutor(registry,
		cli.WithShowMetadata(cliConfig.ShowMetadata),
		cli.WithInteractive(interactive),
	)
	return executor.Run(ctx)
}
