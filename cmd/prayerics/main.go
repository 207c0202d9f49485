package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"prayerics/internal/aladhan"
	"prayerics/internal/config"
	"prayerics/internal/export"
	"prayerics/internal/ics"
	appLog "prayerics/internal/log"
	"prayerics/internal/params"
	"prayerics/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
}

func main() {
	// .env is optional; a missing file is the normal production case.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		appLog.Error("failed to load .env", err)
	}

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// Precedence: flag, then env, then config file.
	switch {
	case flags.listen != "":
		conf.Listen = flags.listen
	case os.Getenv("PRAYERICS_LISTEN") != "":
		conf.Listen = os.Getenv("PRAYERICS_LISTEN")
	case os.Getenv("PORT") != "":
		conf.Listen = ":" + os.Getenv("PORT")
	}

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	appLog.Info("prayerics starting", "version", "0.1.0")
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"language", conf.Language,
		"upstream", conf.Upstream.BaseURL,
		"upstream_timeout", conf.Upstream.Timeout.String(),
		"horizon_days", conf.Defaults.HorizonDays,
		"max_horizon_days", conf.Defaults.MaxHorizonDays,
		"refresh", conf.RefreshCron,
		"export_count", len(conf.Exports),
		"once", flags.once,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := params.NewResolver(conf)
	builder := ics.NewBuilder(aladhan.NewClient(conf.Upstream), conf.Timezone)
	exporter := export.NewExporter(conf, resolver, builder)

	if flags.once {
		_, errs := exporter.RunAll(ctx)
		if len(errs) > 0 {
			os.Exit(1)
		}
		return
	}

	if len(conf.Exports) > 0 {
		exporter.RunAll(ctx)
		stopExports, err := exporter.Schedule(ctx, conf.RefreshCron)
		if err != nil {
			appLog.Error("failed to schedule exports", err, "refresh", conf.RefreshCron)
			os.Exit(1)
		}
		defer stopExports()
	}

	srv := web.NewServer(conf, resolver, builder)
	if err := srv.ListenAndServe(ctx); err != nil {
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
		os.Exit(1)
	}
	appLog.Info("prayerics exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	defaultConfig := os.Getenv("PRAYERICS_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "/etc/prayerics/config.yaml"
	}

	flag.StringVar(&cfg.configPath, "config", defaultConfig, "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Write configured exports once and exit")

	flag.Parse()

	return cfg
}
