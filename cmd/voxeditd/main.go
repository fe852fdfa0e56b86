package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/voxedit-io/voxedit/internal/agent"
	apiPkg "github.com/voxedit-io/voxedit/internal/api"
	"github.com/voxedit-io/voxedit/internal/config"
	"github.com/voxedit-io/voxedit/internal/connector"
	slackconn "github.com/voxedit-io/voxedit/internal/connector/slack"
	"github.com/voxedit-io/voxedit/internal/connector/telegram"
	"github.com/voxedit-io/voxedit/internal/journal"
	"github.com/voxedit-io/voxedit/internal/logbuf"
	"github.com/voxedit-io/voxedit/internal/provider"
	"github.com/voxedit-io/voxedit/internal/scheduler"
	"github.com/voxedit-io/voxedit/internal/tool"
)

func main() {
	configPath := flag.String("config", "", "Path to config JSON file (default: environment)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	// Set up logging
	var level slog.LevelVar
	if *verbose {
		level.Set(slog.LevelDebug)
	}
	logBuf := logbuf.New(2000)
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level})
	logger := slog.New(logbuf.NewHandler(jsonHandler, logBuf))
	slog.SetDefault(logger)

	// Load config (file or env)
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.LogLevel != "" && !*verbose {
		level.Set(logbuf.ParseLevel(cfg.LogLevel))
	}

	logger.Info("voxeditd starting", "assistant", cfg.Assistant.ID)

	// 1. Initialize provider
	provName, pcfg, ok := cfg.AssistantProvider()
	if !ok {
		logger.Error("assistant provider not configured", "provider", provName)
		os.Exit(1)
	}
	prov := newProvider(pcfg)
	logger.Info("provider initialized", "name", provName, "type", pcfg.Type, "model", pcfg.Model)
	if pcfg.Type != config.ProviderLocal && pcfg.APIKey == "" {
		logger.Warn("provider has no API key, commands will fail until one is set", "name", provName)
	}

	// 2. Tool registry, gated by the assistant's whitelist/blacklist
	tools := tool.NewRegistry()
	for _, t := range tool.EditorTools(tool.Options{}) {
		if cfg.Assistant.ToolAllowed(t.Name()) {
			tools.Register(t)
		}
	}
	catalog, err := tools.Catalog()
	if err != nil {
		logger.Error("failed to build tool catalog", "error", err)
		os.Exit(1)
	}

	// 3. Dispatcher
	ag := agent.New(cfg.Assistant.AssistantSpec, prov, tools)
	ag.Logger = logger.With("component", "dispatcher")
	ag.Model = pcfg.Model
	ag.Temperature = pcfg.Temperature
	if cfg.Assistant.MaxIterations > 0 {
		ag.MaxIterations = cfg.Assistant.MaxIterations
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Command journal + retention
	var history apiPkg.History
	if cfg.Journal.Enabled() {
		if dir := filepath.Dir(cfg.Journal.Path); dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		store, err := journal.NewSQLiteStore(cfg.Journal.Path)
		if err != nil {
			logger.Error("failed to open journal", "path", cfg.Journal.Path, "error", err)
			os.Exit(1)
		}
		defer store.Close()
		ag.Recorder = journal.Recorder{Store: store}
		history = store

		if retention := time.Duration(cfg.Journal.Retention); retention > 0 {
			sched := scheduler.New(logger.With("component", "scheduler"))
			err := sched.AddJob("journal-retention", cfg.Journal.PruneSchedule, func(context.Context) error {
				n, err := store.Prune(time.Now().Add(-retention))
				if err != nil {
					return err
				}
				if n > 0 {
					logger.Info("journal pruned", "removed", n, "retention", retention)
				}
				return nil
			})
			if err != nil {
				logger.Error("failed to schedule journal retention", "error", err)
				os.Exit(1)
			}
			go safeGo(logger, "scheduler", func() { sched.Start(ctx) })
		}
		logger.Info("journal opened", "path", cfg.Journal.Path, "retention", time.Duration(cfg.Journal.Retention))
	}

	// 5. Chat connectors share one command worker
	inbox := make(chan connector.InboundMessage, 64)
	handler := connector.Queue(inbox)
	connectors := make(map[string]connector.Connector)

	if tg := cfg.Connectors.Telegram; tg != nil {
		tgCfg := telegram.Config{
			Token:     tg.Token,
			AllowFrom: tg.AllowFrom,
			Catalog:   catalog,
		}
		if v := tg.Voice; v != nil {
			tgCfg.Voice = &telegram.VoiceConfig{
				WhisperURL:    v.WhisperURL,
				WhisperAPIKey: v.WhisperAPIKey,
				WhisperModel:  v.WhisperModel,
				Language:      v.Language,
			}
		}
		tgConn, err := telegram.New(tgCfg, handler, logger.With("connector", "telegram"))
		if err != nil {
			logger.Error("failed to init telegram connector", "error", err)
			os.Exit(1)
		}
		connectors[tgConn.Name()] = tgConn
	}

	if sc := cfg.Connectors.Slack; sc != nil {
		slackConn, err := slackconn.New(slackconn.Config{
			BotToken: sc.BotToken,
			AppToken: sc.AppToken,
			Channels: sc.Channels,
			Catalog:  catalog,
		}, handler, logger.With("connector", "slack"))
		if err != nil {
			logger.Error("failed to init slack connector", "error", err)
			os.Exit(1)
		}
		connectors[slackConn.Name()] = slackConn
	}

	if len(connectors) > 0 {
		worker := &agent.Worker{
			Agent: ag,
			Inbox: inbox,
			Reply: func(ctx context.Context, channel string, msg connector.OutboundMessage) error {
				conn, ok := connectors[channel]
				if !ok {
					return fmt.Errorf("no connector for channel %q", channel)
				}
				return conn.Send(ctx, msg)
			},
		}
		go safeGo(logger, "worker", func() { worker.Start(ctx) })

		for name, conn := range connectors {
			go safeGo(logger, name, func() { conn.Start(ctx) })
			logger.Info("connector started", "connector", name)
		}
	}

	// 6. Start API server
	if cfg.API.Port == 5000 {
		logger.Warn("port 5000 is often taken by system services (AirPlay on macOS), consider the default", "default", config.DefaultPort)
	}
	apiSrv := apiPkg.NewServer(apiPkg.Services{
		Dispatcher: ag,
		Tools:      tools,
		History:    history,
		Logs:       logBuf,
	}, apiPkg.Config{
		Host: cfg.API.Host,
		Port: cfg.API.Port,
		Key:  cfg.API.Key,
	}, logger.With("component", "api"))

	go safeGo(logger, "api-server", func() {
		if err := apiSrv.Start(ctx); err != nil {
			logger.Error("api server failed", "error", err)
			cancel()
		}
	})
	logger.Info("api server started", "addr", cfg.API.Addr())

	// 7. Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig)
	case <-ctx.Done():
	}
	cancel()
	for _, conn := range connectors {
		conn.Stop()
	}
	logger.Info("voxeditd stopped")
}

func newProvider(p config.ProviderConfig) provider.Provider {
	switch p.Type {
	case config.ProviderLocal:
		return provider.NewLocal()
	case config.ProviderAnthropic:
		var opts []provider.AnthropicOption
		if p.BaseURL != "" {
			opts = append(opts, provider.WithAnthropicBaseURL(p.BaseURL))
		}
		if p.Model != "" {
			opts = append(opts, provider.WithAnthropicModel(p.Model))
		}
		return provider.NewAnthropic(p.APIKey, opts...)
	default: // "openai"
		var opts []provider.OpenAIOption
		if p.BaseURL != "" {
			opts = append(opts, provider.WithBaseURL(p.BaseURL))
		}
		if p.Model != "" {
			opts = append(opts, provider.WithModel(p.Model))
		}
		return provider.NewOpenAI(p.APIKey, opts...)
	}
}

// safeGo runs fn with panic recovery.
func safeGo(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("goroutine panicked", "name", name, "panic", fmt.Sprintf("%v", r))
		}
	}()
	fn()
}
