package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sempgateway/internal/bridge"
	"sempgateway/internal/config"
	"sempgateway/internal/db"
	"sempgateway/internal/discovery"
	"sempgateway/internal/logging"
	"sempgateway/internal/mqtt"
	"sempgateway/internal/notify"
	"sempgateway/internal/redis"
	"sempgateway/internal/registry"
	"sempgateway/internal/scheduler"
	"sempgateway/internal/semp"
	"sempgateway/internal/taskqueue"
	"sempgateway/internal/web"
)

const (
	hookTimeout     = 10 * time.Second
	statusTTL       = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logging: %v\n", err)
		os.Exit(1)
	}
	logger := logging.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hooks go through the asynq queue when redis is available, otherwise
	// they are called directly from the notifier goroutine.
	deliverer := notify.NewHookDeliverer(hookTimeout)
	var notifiers notify.Multi
	var worker *taskqueue.Worker
	if cfg.Redis.Addr != "" {
		worker = taskqueue.NewWorker(cfg.Redis.Addr, deliverer, logging.WithComponent("taskqueue"))
		if err := worker.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start hook workers")
		}
		notifiers = append(notifiers, worker.Notifier())
	} else {
		notifiers = append(notifiers, deliverer)
	}

	if cfg.MQTT.Broker != "" {
		mqttClient, err := mqtt.NewClient(cfg.MQTT.Broker, cfg.MQTT.ClientID, logging.WithComponent("mqtt"))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MQTT")
		}
		defer mqttClient.Disconnect(250)
		notifiers = append(notifiers, notify.NewMQTTNotifier(mqttClient, cfg.MQTT.TopicPrefix))
	}

	var webOpts []web.Option
	if cfg.Database.URL != "" {
		database, err := db.NewDB(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to DB")
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to prepare DB schema")
		}
		notifiers = append(notifiers, database)
		webOpts = append(webOpts, web.WithHistory(database))
	}

	reg := registry.NewRegistry(notifiers)
	reg.SetLogger(logging.WithComponent("registry"))

	var sched *scheduler.Scheduler
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.NewRedisClient(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		sched = scheduler.NewScheduler(reg, redis.NewStatusCache(redisClient, statusTTL), logging.WithComponent("scheduler"))
		if err := sched.AddStatusJob(cfg.Scheduler.StatusCron); err != nil {
			logger.Fatal().Err(err).Msg("Failed to schedule status snapshots")
		}
		sched.Start()
	}

	sempServer, err := semp.NewServer(reg, semp.Description{
		UUID:         cfg.SEMP.UUID,
		FriendlyName: cfg.SEMP.FriendlyName,
		Manufacturer: cfg.SEMP.Manufacturer,
		ModelName:    "sempgateway",
		ServerURL:    cfg.SEMP.AdvertisedURL,
	}, logging.WithComponent("semp"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build SEMP server")
	}
	apiServer := web.NewWebServer(reg, logging.WithComponent("api"), webOpts...)

	errCh := make(chan error, 2)
	go func() { errCh <- sempServer.Start(fmt.Sprintf(":%d", cfg.SEMP.Port)) }()
	go func() { errCh <- apiServer.Start(fmt.Sprintf(":%d", cfg.App.APIPort)) }()

	if cfg.MDNS.LocalName != "" {
		announcer, err := discovery.Announce(cfg.MDNS.LocalName, logging.WithComponent("mdns"))
		if err != nil {
			logger.Warn().Err(err).Msg("mDNS announcement disabled")
		} else {
			defer announcer.Close()
		}
	}

	if cfg.RemoteAccess.Enabled {
		agent := bridge.NewAgent(bridge.Config{
			PublicWS:   cfg.RemoteAccess.PublicWS,
			LocalURL:   fmt.Sprintf("http://127.0.0.1:%d", cfg.App.APIPort),
			AgentID:    cfg.App.AgentID,
			RetryDelay: time.Duration(cfg.RemoteAccess.RetryDelaySecs) * time.Second,
		}, logging.WithComponent("bridge"))
		go agent.Start(ctx)
	} else {
		logger.Info().Msg("Remote access bridge is disabled")
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown requested")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("Listener failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := sempServer.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("SEMP server shutdown")
	}
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("API server shutdown")
	}
	if sched != nil {
		sched.Stop()
	}
	reg.Drain()
	if worker != nil {
		worker.Stop()
	}
	logger.Info().Msg("Shutdown complete")
}
