package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nomis52/signup/apiclient"
	"github.com/nomis52/signup/buildinfo"
	"github.com/nomis52/signup/config"
	"github.com/nomis52/signup/console"
	"github.com/nomis52/signup/logging"
	"github.com/nomis52/signup/metrics"
)

const metricsFlushTimeout = 10 * time.Second

type Args struct {
	ConfigPath  string
	EnvPath     string
	ShowVersion bool
	Command     []string
}

func main() {
	if err := run(); err != nil {
		// The console has already printed the user-facing message.
		if !errors.Is(err, console.ErrUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	args := parseArgs()

	if args.ShowVersion {
		showVersion()
		return nil
	}

	if err := config.LoadDotEnv(args.EnvPath); err != nil {
		return fmt.Errorf("failed to load %s: %w", args.EnvPath, err)
	}
	cfg, err := config.LoadConfig(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	props := buildinfo.Get()
	logger.Debug("signup cli started",
		"version", props.Version,
		"git_commit", props.GitCommit,
		"backend_url", cfg.Backend.URL,
	)

	var registry metrics.Registry = metrics.NopRegistry{}
	var push *metrics.PushRegistry
	if cfg.Monitoring.VictoriaMetricsURL != "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
		push = metrics.NewPushRegistry(metrics.PushConfig{
			URL:      cfg.Monitoring.VictoriaMetricsURL,
			Prefix:   cfg.Monitoring.MetricsPrefix,
			Job:      cfg.Monitoring.JobName,
			Instance: hostname,
		})
		registry = push
	}

	api, err := apiclient.New(cfg.Backend.URL,
		apiclient.WithTimeout(cfg.Backend.Timeout),
		apiclient.WithLogger(logger.Logger),
		apiclient.WithMetrics(registry),
	)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := console.Run(ctx, api, console.Env{
		In:       os.Stdin,
		Out:      os.Stdout,
		Logger:   logger.Logger,
		Registry: registry,
	}, args.Command)

	if push != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), metricsFlushTimeout)
		defer cancel()
		if err := push.Flush(flushCtx); err != nil {
			logger.Warn("failed to push metrics", "error", err)
		}
	}
	return runErr
}

func showVersion() {
	fmt.Printf("signup %s\n", buildinfo.Get())
}

func parseArgs() Args {
	configPath := flag.String("config", "", "Path to config file")
	configPathShort := flag.String("c", "", "Path to config file (shorthand)")
	envPath := flag.String("env", ".env", "Path to a .env file, ignored if missing")
	showVersion := flag.Bool("version", false, "Show version information")
	versionShort := flag.Bool("v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command> [command options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMergington High School activity signup\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		for _, c := range console.Commands {
			fmt.Fprintf(os.Stderr, "  %-11s %s\n", c[0], c[1])
		}
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c signup.yaml signup -email emma@mergington.edu -activity \"Chess Club\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s unregister -email emma@mergington.edu -activity \"Chess Club\" -yes\n", os.Args[0])
	}

	flag.Parse()

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	return Args{
		ConfigPath:  path,
		EnvPath:     *envPath,
		ShowVersion: *showVersion || *versionShort,
		Command:     flag.Args(),
	}
}
