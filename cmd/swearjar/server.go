package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/thiccolasscage/sorrynotsorry69/jar/cachestore"
	"github.com/thiccolasscage/sorrynotsorry69/jar/countstore"
	"github.com/thiccolasscage/sorrynotsorry69/jar/economy"
	"github.com/thiccolasscage/sorrynotsorry69/jar/enforcement"
	"github.com/thiccolasscage/sorrynotsorry69/jar/engine"
	"github.com/thiccolasscage/sorrynotsorry69/jar/ledger"
	"github.com/thiccolasscage/sorrynotsorry69/jar/lexicon"
	"github.com/thiccolasscage/sorrynotsorry69/jar/settings"
	"github.com/thiccolasscage/sorrynotsorry69/jar/sink"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Server struct {
	logger  *slog.Logger
	config  Config
	rdb     *redis.Client
	session *discordgo.Session
	names   cachestore.CacheStore

	lexicons  *lexicon.Lexicons
	settings  *settings.Settings
	ledger    *ledger.Ledger
	scheduler *enforcement.Scheduler
	economy   *economy.Economy
	engine    *engine.Engine
	limits    *commandLimits
}

type Config struct {
	DiscordToken     string
	RedisURL         string
	LexiconFile      string
	SlackWebhookURL  string
	SwearPenalty     int64
	MoneyBagBonus    int64
	DiscordRateLimit float64
	MetricsListen    string
	Logger           *slog.Logger

	// Slash commands each user may run per minute; zero disables the limit
	CommandsPerMinute int64

	// Replaces the discord sink (and skips the gateway entirely) when set
	Sink sink.Sink
}

func NewServer(ctx context.Context, db *gorm.DB, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	var counters countstore.CountStore
	var cache cachestore.CacheStore
	var rdb *redis.Client
	if config.RedisURL != "" {
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		// check redis connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}
		counters = countstore.NewRedisCountStore(rdb)
		cache = cachestore.NewRedisCacheStore(rdb, cachestore.DisplayNameTTL)
	} else {
		counters = countstore.NewMemCountStore()
		cache = cachestore.NewMemCacheStore(5_000, cachestore.DisplayNameTTL)
	}

	var session *discordgo.Session
	platform := config.Sink
	if platform == nil {
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("a discord token is required")
		}
		dg, err := discordgo.New("Bot " + config.DiscordToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create discord session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent | discordgo.IntentsGuildMembers
		rateLimit := config.DiscordRateLimit
		if rateLimit <= 0 {
			rateLimit = 40
		}
		session = dg
		platform = sink.NewDiscord(dg, cache, rateLimit, logger)
	}

	lexStore, err := lexicon.NewGormStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing lexicon store: %w", err)
	}
	lex, err := lexicon.New(ctx, lexStore, logger)
	if err != nil {
		return nil, err
	}
	if config.LexiconFile != "" {
		if err := lex.SeedFromFileJSON(ctx, config.LexiconFile); err != nil {
			return nil, fmt.Errorf("seeding lexicons: %w", err)
		}
		logger.Info("loaded lexicons from JSON", "path", config.LexiconFile)
	}

	settingsStore, err := settings.NewGormStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing settings store: %w", err)
	}
	conf, err := settings.New(ctx, settingsStore, logger)
	if err != nil {
		return nil, err
	}

	ledgerStore, err := ledger.NewGormStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing ledger store: %w", err)
	}
	l := ledger.New(ledgerStore, logger)

	var notifiers []sink.Notifier
	if config.SlackWebhookURL != "" {
		logger.Info("mirroring mute notices to slack")
		notifiers = append(notifiers, sink.NewSlackNotifier(config.SlackWebhookURL, logger))
	}
	actionStore, err := enforcement.NewGormStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing punitive action store: %w", err)
	}
	sched := enforcement.NewScheduler(actionStore, platform, l, notifiers, logger)

	catalog, err := economy.NewGormCatalog(db)
	if err != nil {
		return nil, fmt.Errorf("initializing shop catalog: %w", err)
	}
	if config.MoneyBagBonus < 0 {
		return nil, fmt.Errorf("money bag bonus must not be negative (got %d)", config.MoneyBagBonus)
	}
	econConfig := economy.DefaultConfig()
	econConfig.MoneyBagBonus = config.MoneyBagBonus
	econ := economy.New(catalog, l, platform, sched, econConfig, logger)
	seeded, err := econ.SeedDefaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("seeding shop: %w", err)
	}
	if seeded > 0 {
		logger.Info("seeded default shop items", "count", seeded)
	}

	engConfig := engine.DefaultConfig()
	if config.SwearPenalty > 0 {
		engConfig.SwearPenalty = config.SwearPenalty
	}
	eng := &engine.Engine{
		Logger:    logger,
		Config:    engConfig,
		Lexicons:  lex,
		Settings:  conf,
		Ledger:    l,
		Scheduler: sched,
		Sink:      platform,
		Counters:  counters,
	}

	return &Server{
		logger:    logger,
		config:    config,
		rdb:       rdb,
		session:   session,
		names:     cache,
		lexicons:  lex,
		settings:  conf,
		ledger:    l,
		scheduler: sched,
		economy:   econ,
		engine:    eng,
		limits:    newCommandLimits(config.CommandsPerMinute),
	}, nil
}

// Connects to the gateway and serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("starting enforcement scheduler: %w", err)
	}
	defer s.scheduler.Stop()

	if s.session != nil {
		s.session.AddHandler(s.handleMessageCreate)
		s.session.AddHandler(s.handleInteraction)
		s.session.AddHandler(s.handleMemberUpdate)
		if err := s.session.Open(); err != nil {
			return fmt.Errorf("failed to open discord connection: %w", err)
		}
		defer func() {
			if err := s.session.Close(); err != nil {
				s.logger.Warn("closing discord session", "err", err)
			}
		}()
		if err := s.registerCommands(); err != nil {
			return err
		}
		s.logger.Info("connected to discord", "user", s.session.State.User.ID)
	}

	g, ctx := errgroup.WithContext(ctx)
	if s.config.MetricsListen != "" {
		g.Go(func() error {
			return s.RunMetrics(ctx, s.config.MetricsListen)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		return nil
	})
	return g.Wait()
}

func (s *Server) RunMetrics(ctx context.Context, listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/_health", s.handleHealth)
	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics endpoint: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.rdb != nil {
		if err := s.rdb.Ping(r.Context()).Err(); err != nil {
			s.logger.Warn("health check: redis unreachable", "err", err)
			http.Error(w, `{"status":"redis unreachable"}`, http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Used by the seed command, which never talks to the platform.
type noopSink struct{}

func (noopSink) DeleteMessage(ctx context.Context, channelID, messageID string) error { return nil }
func (noopSink) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return nil
}
func (noopSink) SendMessage(ctx context.Context, channelID, content string) error { return nil }
func (noopSink) AddRole(ctx context.Context, guildID, userID, roleID string) error { return nil }
func (noopSink) RemoveRole(ctx context.Context, guildID, userID, roleID string) error { return nil }
func (noopSink) Restrict(ctx context.Context, guildID, userID string) error { return nil }
func (noopSink) Unrestrict(ctx context.Context, guildID, userID string) error { return nil }
func (noopSink) DisplayName(ctx context.Context, guildID, userID string) (string, error) {
	return "", nil
}
