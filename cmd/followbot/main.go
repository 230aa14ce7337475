// Package main contains the entrypoint for the followbot agent.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgard/followbot/internal/agent"
	"github.com/edgard/followbot/internal/app"
	"github.com/edgard/followbot/internal/config"
	"github.com/edgard/followbot/internal/database"
	"github.com/edgard/followbot/internal/ignorelist"
	"github.com/edgard/followbot/internal/logger"
	"github.com/edgard/followbot/internal/notify"
	"github.com/edgard/followbot/internal/reconcile"
	"github.com/edgard/followbot/internal/rungate"
	"github.com/edgard/followbot/internal/scheduler"
	"github.com/edgard/followbot/internal/scheduler/tasks"
	"github.com/edgard/followbot/internal/server"
	"github.com/edgard/followbot/internal/social"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component from configuration and either performs a
// single invocation (-once) or serves the trigger and scheduler until
// signalled. It returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	once := flag.Bool("once", false, "Run a single invocation and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, cfg.Database.Project, cfg.Database.Collection, log)

	bot, err := newAgent(cfg, store, log)
	if err != nil {
		log.Error("Failed to initialize agent", "error", err)
		return 1
	}

	if *once {
		report, err := bot.Run(ctx)
		if err != nil {
			log.Error("Run failed", "error", err)
			return 1
		}
		if report.Skipped {
			log.Info("Run skipped by gate")
			return 0
		}
		fmt.Println(report.Text())
		return 0
	}

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{Logger: log, Store: store, Agent: bot})
	sched, err := scheduler.NewScheduler(log, &cfg.Scheduler, taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	var srv *http.Server
	if cfg.Server.Addr != "" {
		srv = &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           server.NewHandler(bot, store, cfg.Server.TriggerKey, log),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	runErr := app.NewApp(log, srv, sched).Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Followbot stopped due to error", "error", runErr)
		return 1
	}
	return 0
}

func newAgent(cfg *config.Config, store database.Store, log *slog.Logger) (*agent.Agent, error) {
	client, err := social.NewClient(social.Credentials{
		ConsumerKey:       cfg.Twitter.ConsumerKey,
		ConsumerSecret:    cfg.Twitter.ConsumerSecret,
		AccessToken:       cfg.Twitter.AccessToken,
		AccessTokenSecret: cfg.Twitter.AccessTokenSecret,
	}, cfg.Twitter.BaseURL, cfg.Twitter.Timeout, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create social client: %w", err)
	}

	ignore, err := ignorelist.New(store, cfg.Agent.IgnoreIDsPerShard, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create ignore list: %w", err)
	}

	telegram, err := notify.NewTelegramSender(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram sender: %w", err)
	}
	email := notify.NewEmailSender(notify.EmailConfig{
		Host:      cfg.Notify.Email.SMTPHost,
		Port:      cfg.Notify.Email.SMTPPort,
		Username:  cfg.Notify.Email.Username,
		Password:  cfg.Notify.Email.Password,
		Recipient: cfg.Notify.Email.Recipient,
	}, log)

	deps := agent.Deps{
		Gate:   rungate.New(store, cfg.Agent.MinDelay, log),
		Ignore: ignore,
		Lister: client,
		Passes: reconcile.NewEngine(client, ignore, reconcile.Limits{
			Follow:   cfg.Agent.FollowLimit,
			Unfollow: cfg.Agent.UnfollowLimit,
		}, nil, log),
		Notifier: notify.NewDispatcher(log, email, telegram),
		Logger:   log,
	}
	if cfg.Agent.LikeLatestPost {
		deps.Timeline = client
	}

	return agent.New(deps, agent.Options{
		ScreenName: cfg.Agent.ScreenName,
		Subject:    cfg.Notify.Subject,
	}), nil
}
