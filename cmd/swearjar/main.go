package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/thiccolasscage/sorrynotsorry69/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "swearjar",
		Usage:   "swear jar moderation bot (keeps the chat polite, for a price)",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"SWEARJAR_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log output format (text or json)",
			EnvVars: []string{"SWEARJAR_LOG_FMT"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
			Value:   40,
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		seedCmd,
	}

	return app.Run(args)
}

func configLogger(cctx *cli.Context) (*slog.Logger, error) {
	return cliutil.SetupSlog(cliutil.LogOptions{
		LogLevel:  cctx.String("log-level"),
		LogFormat: cctx.String("log-format"),
	})
}

var databaseFlag = &cli.StringFlag{
	Name:    "database-url",
	Value:   "sqlite://data/swearjar/swearjar.db",
	EnvVars: []string{"DATABASE_URL"},
}

var lexiconFileFlag = &cli.StringFlag{
	Name:    "lexicon-file",
	Usage:   "optional JSON file of words to merge into the lexicons at startup",
	EnvVars: []string{"SWEARJAR_LEXICON_FILE"},
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the bot",
	Flags: []cli.Flag{
		databaseFlag,
		lexiconFileFlag,
		&cli.StringFlag{
			Name:     "discord-token",
			Usage:    "bot token for the discord gateway and REST API",
			EnvVars:  []string{"DISCORD_TOKEN", "SWEARJAR_DISCORD_TOKEN"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL, for shared counters and caches",
			EnvVars: []string{"SWEARJAR_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3989",
			EnvVars: []string{"SWEARJAR_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "full URL of slack webhook, to mirror mute notices to moderators",
			EnvVars: []string{"SLACK_WEBHOOK_URL"},
		},
		&cli.Int64Flag{
			Name:    "swear-penalty",
			Usage:   "coins deducted per swearing message",
			Value:   10,
			EnvVars: []string{"SWEARJAR_SWEAR_PENALTY"},
		},
		&cli.Int64Flag{
			Name:    "money-bag-bonus",
			Usage:   "coins credited when a Money Bag is bought",
			Value:   50,
			EnvVars: []string{"SWEARJAR_MONEY_BAG_BONUS"},
		},
		&cli.Int64Flag{
			Name:    "commands-per-minute",
			Usage:   "slash commands each user may run per minute (0 for unlimited)",
			Value:   20,
			EnvVars: []string{"SWEARJAR_COMMANDS_PER_MINUTE"},
		},
		&cli.Float64Flag{
			Name:    "discord-rate-limit",
			Usage:   "max discord REST requests per second",
			Value:   40,
			EnvVars: []string{"SWEARJAR_DISCORD_RATE_LIMIT"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger, err := configLogger(cctx)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownOTEL := configOTEL(ctx, "swearjar")
		defer shutdownOTEL()

		db, err := cliutil.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}

		srv, err := NewServer(
			ctx,
			db,
			Config{
				DiscordToken:     cctx.String("discord-token"),
				RedisURL:         cctx.String("redis-url"),
				LexiconFile:      cctx.String("lexicon-file"),
				SlackWebhookURL:  cctx.String("slack-webhook-url"),
				SwearPenalty:     cctx.Int64("swear-penalty"),
				MoneyBagBonus:    cctx.Int64("money-bag-bonus"),
				DiscordRateLimit: cctx.Float64("discord-rate-limit"),
				MetricsListen:    cctx.String("metrics-listen"),
				Logger:           logger,

				CommandsPerMinute: cctx.Int64("commands-per-minute"),
			},
		)
		if err != nil {
			return err
		}

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run swearjar service: %w", err)
		}
		return nil
	},
}

var seedCmd = &cli.Command{
	Name:  "seed",
	Usage: "create tables, seed the default shop and lexicons, then exit",
	Flags: []cli.Flag{
		databaseFlag,
		lexiconFileFlag,
	},
	Action: func(cctx *cli.Context) error {
		logger, err := configLogger(cctx)
		if err != nil {
			return err
		}
		db, err := cliutil.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}
		srv, err := NewServer(cctx.Context, db, Config{
			LexiconFile: cctx.String("lexicon-file"),
			Logger:      logger,
			// no gateway; nothing is sent to the platform while seeding
			Sink: noopSink{},
		})
		if err != nil {
			return err
		}
		lex := srv.lexicons.Current()
		items, err := srv.economy.ListItems(cctx.Context)
		if err != nil {
			return err
		}
		fmt.Printf("swear words: %d\nnsfw terms: %d\ngif filters: %d\npositive words: %d\nshop items: %d\n",
			len(lex.SwearWords()), len(lex.NSFWTerms()), len(lex.GifFilterTerms()), len(lex.PositiveWords()), len(items))
		return nil
	},
}
