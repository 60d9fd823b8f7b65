package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"trueconnect/pkg/platform/tx"

	"trueconnect/internal/auth"
	authhandler "trueconnect/internal/auth/handler"
	"trueconnect/internal/auth/store/revocation"
	"trueconnect/internal/blob"
	"trueconnect/internal/jwttoken"
	"trueconnect/internal/platform/audit"
	"trueconnect/internal/platform/config"
	"trueconnect/internal/platform/httpserver"
	"trueconnect/internal/platform/logger"
	"trueconnect/internal/platform/metrics"
	"trueconnect/internal/platform/postgres"
	platformredis "trueconnect/internal/platform/redis"
	"trueconnect/internal/profile"
	profilehandler "trueconnect/internal/profile/handler"
	"trueconnect/internal/realtime"
	httptransport "trueconnect/internal/transport/http"
	"trueconnect/internal/verification"
	verificationhandler "trueconnect/internal/verification/handler"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		return err
	}
	defer db.Close()

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		return err
	}
	defer redisClient.Close()

	blobs, err := blob.NewS3Store(ctx, cfg.Blob)
	if err != nil {
		log.Error("blob store unavailable", "error", err)
		return err
	}

	m := metrics.New()
	txRunner := tx.SQLRunner{DB: db}

	users := auth.NewPostgresUserStore(db)
	profiles := profile.NewPostgres(db)
	requests := verification.NewPostgresRequestStore(db)
	outbox := audit.NewPostgres(db)

	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)
	trl := revocation.NewRedisTRL(redisClient.Client)

	hub := realtime.NewHub(redisClient.Client, log)
	notifier := realtime.NewBroadcaster(hub, log)

	authSvc := auth.NewService(users, profiles, txRunner, tokens, trl,
		cfg.AccessTokenTTL, log, m, outbox)
	profileSvc := profile.NewService(profiles, log)
	submitSvc := verification.NewService(profiles, requests, blobs, txRunner,
		notifier, log, m, outbox)
	reviewSvc := verification.NewReviewService(profiles, requests, txRunner,
		notifier, log, m, outbox)

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:         authhandler.New(authSvc, cfg.AccessTokenTTL, log),
		Profile:      profilehandler.New(profileSvc, hub, log, m),
		Verification: verificationhandler.New(submitSvc, log),
		Admin:        verificationhandler.NewAdmin(reviewSvc, hub, log, m),
		JWTValidator: tokens,
		Revocation:   trl,
		AdminChecker: profileSvc,
		Logger:       log,
		Metrics:      m,
		Health:       healthHandler(db, redisClient),
	})

	server := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		var publisher audit.Publisher
		if len(cfg.Audit.Brokers) > 0 {
			kafka, err := audit.NewKafkaPublisher(cfg.Audit.Brokers, cfg.Audit.Topic)
			if err != nil {
				return err
			}
			defer kafka.Close()
			publisher = kafka
		} else {
			log.Warn("no audit brokers configured, events stay in the outbox")
			<-ctx.Done()
			return nil
		}
		worker := audit.NewWorker(outbox, publisher, cfg.Audit.DrainInterval, log, m)
		return worker.Run(ctx)
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

func healthHandler(db interface {
	PingContext(ctx context.Context) error
}, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := redisClient.Health(ctx); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
