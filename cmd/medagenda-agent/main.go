package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"medagenda/internal/cache"
	"medagenda/internal/config"
	"medagenda/internal/connectivity"
	"medagenda/internal/preferences"
	"medagenda/internal/remote"
	"medagenda/internal/service/appointments"
	"medagenda/internal/service/stats"
	"medagenda/internal/store/postgres"
	"medagenda/internal/telemetry"
	grpcTransport "medagenda/internal/transport/grpc"
	"medagenda/internal/worker"
)

const serviceName = "medagenda-agent"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("grpc_addr", cfg.GRPCAddr()),
		slog.String("log_level", cfg.LogLevel),
		slog.String("remote_base_url", cfg.RemoteBaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: serviceName,
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
	}, log)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracer shutdown failed", slog.Any("err", err))
		}
	}()

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("database migration failed", slog.Any("err", err))
		os.Exit(1)
	}

	apptRepo := postgres.NewAppointmentRepo(db)
	customerRepo := postgres.NewCustomerRepo(db)
	prefs := preferences.New(postgres.NewPreferencesRepo(db))

	apptCache, err := cache.New(cache.WithSize(cfg.CacheSize), cache.WithTTL(cfg.CacheTTL))
	if err != nil {
		log.Error("cache init failed", slog.Any("err", err))
		os.Exit(1)
	}

	client, err := remote.New(remote.Config{
		BaseURL:       cfg.RemoteBaseURL,
		Timeout:       cfg.RemoteTimeout,
		RatePerSecond: cfg.RemoteRatePerSecond,
		Burst:         cfg.RemoteBurst,
	}, log)
	if err != nil {
		log.Error("remote client init failed", slog.Any("err", err))
		os.Exit(1)
	}
	conn := connectivity.NewProbeChecker(client.Ping, 3*time.Second, cfg.ConnectivityWindow)

	svc := appointments.NewService(appointments.Deps{
		Cache:        apptCache,
		Remote:       client,
		Appointments: apptRepo,
		Customers:    customerRepo,
		Preferences:  prefs,
		Connectivity: conn,
		Log:          log,
	})
	statsSvc := stats.NewService(postgres.NewStatsRepo(db), nil)

	sched := worker.NewScheduler(conn, log)
	sched.Every(cfg.SyncInterval, worker.NewSyncTask(svc, log), worker.Options{RequireNetwork: true, RunAtStart: true})
	sched.Every(cfg.RefreshInterval, worker.NewRefreshTask(svc, log), worker.Options{RequireNetwork: true})
	sched.Every(cfg.RetentionInterval, worker.NewRetentionTask(apptRepo, cfg.RetentionDays, nil, log), worker.Options{})

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		sched.Run(ctx)
	}()

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(defaultRequestTimeoutInterceptor(cfg.GRPCRequestTimeout)),
	)
	grpcTransport.RegisterAgendaServiceServer(grpcServer, grpcTransport.NewAgendaServer(svc, statsSvc, log))

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(grpcTransport.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr()))
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()

	log.Info("grpc server started", slog.String("grpc_addr", cfg.GRPCAddr()))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		healthSrv.Shutdown()
		shutdown(log, grpcServer, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("grpc server stopped with error", slog.Any("err", err))
			stop()
			workers.Wait()
			os.Exit(1)
		}
	}

	stop()
	workers.Wait()
}

func defaultRequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

func shutdown(log *slog.Logger, s *grpc.Server, timeout time.Duration) {
	log.Info("shutting down grpc server", slog.Duration("timeout", timeout))

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-timer.C:
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
