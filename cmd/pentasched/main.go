package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pentasched/internal/config"
	appLog "pentasched/internal/log"
)

const defaultConfigPath = "/etc/pentasched/config.yaml"

// flagConfig holds CLI flag values; non-empty values override the config file.
type flagConfig struct {
	configPath  string
	format      string
	timezone    string
	metricsFile string
	verbose     bool
	files       []string
}

func main() {
	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		appLog.Warn("failed to load .env", err)
	}
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		if conf == nil {
			appLog.Error("failed to load config", err, "config_path", flags.configPath)
			os.Exit(1)
		}
		// Defaults are usable even if they could not be written out.
		appLog.Warn("config not saved, using defaults", err, "config_path", flags.configPath)
	}
	applyFlags(conf, flags)

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Debug("effective config",
		"timezone", conf.Timezone,
		"locale", conf.Locale,
		"format", conf.Format,
		"metrics_file", conf.MetricsFile,
		"schedule_count", len(conf.Schedules),
		"file_args", len(flags.files),
	)

	// Root context with cancellation on SIGINT/SIGTERM. Only the first signal
	// is caught; a second one gets the default behavior and kills the process.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		signal.Stop(sigCh)
		appLog.Info("signal received, stopping", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, conf, flags.files, os.Stdin, os.Stdout); err != nil {
		appLog.Error("pentasched failed", err)
		os.Exit(1)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	configPath := os.Getenv("PENTASCHED_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	flag.StringVar(&cfg.configPath, "config", configPath, "Path to config file")
	flag.StringVar(&cfg.format, "format", "", "Output format: text, json or ics (overrides config if set)")
	flag.StringVar(&cfg.timezone, "tz", "", "Schedule timezone (overrides config if set)")
	flag.StringVar(&cfg.metricsFile, "metrics-file", "", "Write parse metrics in textfile format to this path")
	flag.BoolVar(&cfg.verbose, "v", false, "Debug logging")

	flag.Parse()
	cfg.files = flag.Args()

	return cfg
}

func applyFlags(conf *config.Config, flags flagConfig) {
	if flags.format != "" {
		conf.Format = flags.format
	}
	if flags.timezone != "" {
		conf.Timezone = flags.timezone
	}
	if flags.metricsFile != "" {
		conf.MetricsFile = flags.metricsFile
	}
	if lvl := os.Getenv("PENTASCHED_LOG_LEVEL"); lvl != "" {
		conf.LogLevel = lvl
	}
	if flags.verbose {
		conf.LogLevel = "debug"
	}
	conf.Normalize()
}
