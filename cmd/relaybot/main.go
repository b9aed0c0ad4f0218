package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relaybot/internal/bus"
	"relaybot/internal/channel"
	"relaybot/internal/config"
	"relaybot/internal/delivery"
	"relaybot/internal/domain"
	"relaybot/internal/menu"
	"relaybot/internal/metrics"
	"relaybot/internal/registry"
	"relaybot/internal/relay"
	"relaybot/internal/transcript"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "relaybot",
		Short: "Relaybot: a support mediator between users and operators",
		Long:  "Relaybot relays messages from anonymous Telegram users to a team of operators and routes operator replies back, keeping a transcript per user.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.relaybot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if err := os.MkdirAll(config.DefaultConfigDir(), 0o755); err != nil {
				return err
			}
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			logger.Info("set telegram.token and operators.primary before running")
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the relay (Telegram polling + dispatch)",
		Long:  "Connects to Telegram, polls for updates and relays messages until interrupted.",
		RunE:  runRelay,
	}
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = buildLogger(cfg.General)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(cfg.Transcript)
	if err != nil {
		return fmt.Errorf("transcript store: %w", err)
	}
	defer store.Close()

	templates := menu.DefaultTemplates()
	if cfg.Menu.TemplatesPath != "" {
		templates, err = menu.LoadTemplates(cfg.Menu.TemplatesPath, logger)
		if err != nil {
			return fmt.Errorf("menu templates: %w", err)
		}
	}
	renderer := menu.NewRenderer(templates)

	reg := registry.New(domain.UserID(cfg.Operators.Primary), cfg.Operators.Extra.UserIDs(), logger)

	transport, err := channel.NewTelegram(channel.Config{
		Token:    cfg.Telegram.Token,
		ProxyURL: cfg.Telegram.ProxyURL,
		Buttons:  templates,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	var throttle *delivery.Throttle
	if cfg.Delivery.ThrottlePerMinute > 0 {
		throttle = delivery.NewThrottle(5, cfg.Delivery.ThrottlePerMinute)
	}
	deliverer := delivery.New(delivery.Config{
		Transport:   transport,
		Attempts:    cfg.Delivery.Attempts,
		BackoffUnit: time.Duration(cfg.Delivery.BackoffSeconds) * time.Second,
		Throttle:    throttle,
		Logger:      logger,
	})

	engine := relay.New(relay.Config{
		Store:    store,
		Registry: reg,
		Delivery: deliverer,
		Renderer: renderer,
		Logger:   logger,
	})

	eventBus := bus.New(100, logger)
	defer eventBus.Close()

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg.Metrics)
	}

	go engine.Run(ctx, eventBus)

	logger.Info("relay started", "version", version, "operators", reg.Count())
	return transport.Run(ctx, eventBus)
}

func buildStore(cfg config.TranscriptConfig) (domain.TranscriptStore, error) {
	switch cfg.Backend {
	case "sqlite":
		return transcript.NewSQLiteStore(cfg.DBPath, logger)
	default:
		return transcript.NewMemoryStore(), nil
	}
}

func buildLogger(cfg config.GeneralConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Warn("cannot open log file, logging to stderr", "path", cfg.LogFile, "err", err)
		} else {
			out = io.MultiWriter(os.Stderr, f)
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

func startMetricsServer(ctx context.Context, cfg config.MetricsConfig) {
	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Endpoint, metrics.Collector.Handler())

	srv := &http.Server{Addr: cfg.Listen, Handler: mux}
	go func() {
		logger.Info("metrics listening", "addr", cfg.Listen, "endpoint", cfg.Endpoint)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the config and the Telegram connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false, "err", err)
				return err
			}
			logger.Info("config", "path", cfgPath, "loaded", true)
			logger.Info("operators",
				"primary", cfg.Operators.Primary,
				"extra", len(cfg.Operators.Extra),
			)

			if _, err := channel.NewTelegram(channel.Config{
				Token:    cfg.Telegram.Token,
				ProxyURL: cfg.Telegram.ProxyURL,
				Buttons:  menu.DefaultTemplates(),
				Logger:   logger,
			}); err != nil {
				logger.Info("telegram", "connected", false, "err", err)
				return err
			}
			logger.Info("telegram", "connected", true)
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. delivery.attempts)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. transcript.backend sqlite)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values (secrets masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, _ := json.MarshalIndent(config.Sanitize(cfg), "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
