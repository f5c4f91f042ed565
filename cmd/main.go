package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/pflag"

	"gitlab.com/renderfarm.net/internal/adapter/dbqueue"
	"gitlab.com/renderfarm.net/internal/adapter/farm"
	"gitlab.com/renderfarm.net/internal/adapter/logging"
	"gitlab.com/renderfarm.net/internal/adapter/logstore"
	"gitlab.com/renderfarm.net/internal/adapter/metrics"
	"gitlab.com/renderfarm.net/internal/adapter/postgres/renderrepository"
	"gitlab.com/renderfarm.net/internal/adapter/redis/renderport"
	"gitlab.com/renderfarm.net/internal/adapter/wol"
	"gitlab.com/renderfarm.net/internal/config"
	"gitlab.com/renderfarm.net/internal/core/ports/secondary"
	"gitlab.com/renderfarm.net/internal/core/services/job"
	"gitlab.com/renderfarm.net/internal/core/services/monitor"
	"gitlab.com/renderfarm.net/internal/core/services/render"
	logger2 "gitlab.com/renderfarm.net/internal/global/logger"
	"gitlab.com/renderfarm.net/internal/handlers/renders"
	"gitlab.com/renderfarm.net/internal/handlers/system"
	http2 "gitlab.com/renderfarm.net/internal/http"
	"gitlab.com/renderfarm.net/internal/schedulerengine"
	"gitlab.com/renderfarm.net/internal/tcp"
	"gitlab.com/renderfarm.net/internal/tcp/connectionmanager"
	"gitlab.com/renderfarm.net/internal/tcp/message"
	"gitlab.com/renderfarm.net/internal/tcp/publishers"
)

const (
	serverLogEntries  = 1000
	logFlushQueueSize = 256
	failureLogSize    = 100
	shutdownTimeout   = 10 * time.Second
)

type flags struct {
	env      string
	farmFile string
	listen   string
	httpPort int
}

func parseFlags() flags {
	var f flags
	pflag.StringVarP(&f.env, "env", "e", "", "load <env>.env before reading the configuration")
	pflag.StringVar(&f.farmFile, "farm", "", "farm topology file, overrides FARM_FILE")
	pflag.StringVar(&f.listen, "listen", "", "TCP listen address, overrides SERVER_TCP_ADDR")
	pflag.IntVar(&f.httpPort, "http-port", 0, "HTTP API port, overrides SERVER_HTTP_PORT")
	pflag.Parse()
	return f
}

func main() {
	opts := parseFlags()
	InitReader(opts.env)

	sysCfg := config.NewSystemConfig()
	if opts.farmFile != "" {
		sysCfg.ServerCfg.FarmFile = opts.farmFile
	}
	if opts.listen != "" {
		sysCfg.ServerCfg.TCPAddress = opts.listen
	}
	if opts.httpPort != 0 {
		sysCfg.ServerCfg.HTTPPort = opts.httpPort
	}

	logger2.Logger = logging.NewZapLogger(sysCfg.DebugMode)
	logger := logger2.Logger
	defer logger.Sync()
	logger.Info("Starting render farm server", "service", sysCfg.ServerCfg.ServiceName)

	message.SetMagic(sysCfg.ServerCfg.Magic)

	// Set up graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// SECONDARY PORTS
	var (
		writers []secondary.RenderWriter
		loader  secondary.RenderLoader
		live    renders.LiveRenders
	)
	if sysCfg.PersistCfg.UsePostgres {
		db, err := setupDatabase(sysCfg.PostgresConfig)
		if err != nil {
			logger.Error("Failed to set up database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		renderRepo := renderrepository.NewRenderRepository(db, logger.Named("postgres"), sysCfg.PostgresConfig.Schema)
		if err := renderRepo.EnsureSchema(ctx); err != nil {
			logger.Error("Failed to prepare render table", "error", err)
			os.Exit(1)
		}
		writers = append(writers, renderRepo)
		loader = renderRepo
	}
	if sysCfg.PersistCfg.UseRedis {
		redisClient := setupRedis(sysCfg.RedisConfig)
		defer redisClient.Close()

		renderCache := renderport.NewRenderRepository(redisClient, logger.Named("redis"))
		writers = append(writers, renderCache)
		live = renderCache
	}
	updates := dbqueue.NewQueue(sysCfg.PersistCfg, logger.Named("persist"), writers...)

	farmTopology, err := farm.Load(sysCfg.ServerCfg.FarmFile)
	if err != nil {
		logger.Error("Failed to load farm topology", "file", sysCfg.ServerCfg.FarmFile, "error", err)
		os.Exit(1)
	}
	serverLog, err := logstore.NewStore(logger.Named("serverlog"), serverLogEntries, logFlushQueueSize)
	if err != nil {
		logger.Error("Failed to set up log store", "error", err)
		os.Exit(1)
	}
	waker := wol.NewCommandWaker(sysCfg.RenderCfg.WOLWakeCmd, sysCfg.RenderCfg.WOLCmdTimeout, logger.Named("wol"))

	// transport
	connectionMgr := connectionmanager.NewConnectionManager(logger, sysCfg.ServerCfg.OutboxSize)
	failures := publishers.NewFailureLog(failureLogSize, logger)
	connectionMgr.SetFailureHandler(failures.RecordDispatchFailure)
	dispatcher := publishers.NewDispatcher(connectionMgr, failures, logger)

	//services
	monitors := monitor.NewContainer(dispatcher, logger.Named("monitors"))
	monitors.SetFlushObserver(metrics.RecordEventsFlushed)
	jobs := job.NewStore(nil, monitors, logger.Named("jobs"))
	renderRegistry, err := render.NewRegistry(&render.Env{
		Dispatcher: dispatcher,
		Notifier:   monitors,
		Updates:    updates,
		Jobs:       jobs,
		Farm:       farmTopology,
		Logs:       serverLog,
		Waker:      waker,
		Logger:     logger.Named("renders"),
		Cfg:        sysCfg.RenderCfg,
	})
	if err != nil {
		logger.Error("Failed to create render registry", "error", err)
		os.Exit(1)
	}
	jobs.SetRenders(renderRegistry)

	if loader != nil {
		records, err := loader.LoadRenders(ctx)
		if err != nil {
			logger.Error("Failed to load renders", "error", err)
			os.Exit(1)
		}
		logger.Info("Renders restored", "count", renderRegistry.Restore(records), "stored", len(records))
	}

	engine := schedulerengine.NewSchedulerEngine(sysCfg.ScheduleSvcCfg, renderRegistry, jobs, monitors, logger.Named("engine"))
	engine.SetCycleObserver(func(st schedulerengine.CycleStats) {
		metrics.SetRendersOnline(st.Online)
		metrics.RecordRenderTransitions("stale", st.Stale)
		metrics.RecordRenderTransitions("swept", st.Swept)
	})
	engineCtx, stopEngine := context.WithCancel(context.Background())
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		engine.Run(engineCtx)
	}()

	//server
	tcpServer := tcp.NewTCPServer(engine, logger.Named("tcp"),
		tcp.WithAddress(sysCfg.ServerCfg.TCPAddress),
		tcp.WithConnectionManager(connectionMgr))
	if err := tcpServer.Start(); err != nil {
		logger.Error("Failed to start TCP server", "error", err)
		os.Exit(1)
	}

	serviceProvider := http2.NewServiceProvider(engine, live, system.Dependencies{
		Farm:     farmTopology,
		Log:      serverLog,
		Failures: failures,
		Persist:  updates,
	})
	httpServer := http2.NewServer(sysCfg.ServerCfg.HTTPPort, sysCfg.ServerCfg.ServiceName, *serviceProvider, logger.Named("http"))
	if err := httpServer.Init(); err != nil {
		logger.Error("Failed to init HTTP server", "error", err)
		os.Exit(1)
	}
	if err := httpServer.Start(ctx); err != nil {
		logger.Error("Failed to start HTTP server", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("HTTP server forced to shutdown", "error", err)
	}
	if err := tcpServer.Stop(shutdownCtx); err != nil {
		logger.Error("TCP server forced to shutdown", "error", err)
	}

	stopEngine()
	select {
	case <-engineDone:
	case <-shutdownCtx.Done():
		logger.Error("Scheduler engine did not stop in time")
	}

	if err := updates.Close(shutdownCtx); err != nil {
		logger.Error("Update queue not drained", "error", err, "pending", updates.Depth())
	}
	if err := serverLog.Close(shutdownCtx); err != nil {
		logger.Error("Render logs not flushed", "error", err)
	}
	if err := waker.Wait(shutdownCtx); err != nil {
		logger.Error("Wake commands still running", "error", err)
	}

	logger.Info("successfully shutdown server")
}

// setupDatabase sets up the PostgreSQL connection
func setupDatabase(cfg *config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.Url)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// setupRedis sets up the Redis connection
func setupRedis(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Url,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// InitReader loads <environment>.env. Without a name the process
// environment is used as is.
func InitReader(environment string) {
	if environment == "" {
		return
	}
	if err := godotenv.Load(environment + ".env"); err != nil {
		log.Fatalf("Error loading %s.env file", environment)
	}
}
