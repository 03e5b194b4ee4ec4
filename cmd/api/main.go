package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/geocoder89/accounthub/internal/account"
	"github.com/geocoder89/accounthub/internal/auth"
	"github.com/geocoder89/accounthub/internal/cache"
	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/db"
	httpx "github.com/geocoder89/accounthub/internal/http"
	"github.com/geocoder89/accounthub/internal/http/handlers"
	"github.com/geocoder89/accounthub/internal/notifications"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/geocoder89/accounthub/internal/redisclient"
	"github.com/geocoder89/accounthub/internal/repo/memory"
	"github.com/geocoder89/accounthub/internal/repo/mongo"
	"github.com/geocoder89/accounthub/internal/repo/postgres"
	"github.com/geocoder89/accounthub/internal/security"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("accounthub exited", "err", err)
		os.Exit(1)
	}
}

// storeHandle is the active credential store plus its probe and teardown.
type storeHandle struct {
	store account.Store
	ping  handlers.Pinger
	close func()
}

func run(cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: cfg.ServiceName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	sh, err := openStore(ctx, cfg, prom, log)
	if err != nil {
		return err
	}
	defer sh.close()

	checks := map[string]handlers.Pinger{"store": sh.ping}

	opts := []account.Option{account.WithLogger(log)}

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rc.Close()

		pctx, cancel := config.WithTimeout(2 * time.Second)
		if err := rc.Ping(pctx); err != nil {
			log.Warn("redis unreachable at boot, cache will miss until it recovers", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()

		opts = append(opts, account.WithCache(cache.NewRedisProfiles(rc.Raw(), cfg.ProfileCacheTTL, log)))
		checks["redis"] = rc.Ping
	} else {
		opts = append(opts, account.WithCache(cache.NewMemoryProfiles(cfg.ProfileCacheTTL)))
	}

	var publisher notifications.Notifier = notifications.NewLogNotifier(log)
	if cfg.AMQPURL != "" {
		amqpPub, err := notifications.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("amqp: %w", err)
		}
		defer amqpPub.Close()
		publisher = amqpPub
	}
	opts = append(opts, account.WithNotifier(
		notifications.NewProtectedNotifier(publisher, notifications.ProtectedNotifierConfig{}),
	))

	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	svc := account.NewService(sh.store, security.NewHasher(cfg.BcryptCost), tokens, opts...)

	router := httpx.NewRouter(httpx.Deps{
		Log:      log,
		Config:   cfg,
		Accounts: svc,
		Tokens:   tokens,
		Checks:   checks,
		Prom:     prom,
		Gatherer: reg,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (storeHandle, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.Connect(ctx, log, "postgres", 5, func(ctx context.Context) (*pgxpool.Pool, error) {
			return db.NewPool(ctx, cfg.DBURL)
		})
		if err != nil {
			return storeHandle{}, fmt.Errorf("postgres: %w", err)
		}

		mctx, cancel := config.WithTimeout(30 * time.Second)
		defer cancel()
		if err := db.Migrate(mctx, pool); err != nil {
			pool.Close()
			return storeHandle{}, fmt.Errorf("postgres: %w", err)
		}

		repo := postgres.NewUsersRepo(pool, prom)
		return storeHandle{store: repo, ping: repo.Ping, close: pool.Close}, nil

	case config.StoreMongo:
		client, err := db.Connect(ctx, log, "mongo", 5, func(ctx context.Context) (*mongodriver.Client, error) {
			return db.NewMongo(ctx, cfg.MongoURI)
		})
		if err != nil {
			return storeHandle{}, err
		}

		repo := mongo.NewUsersRepo(client, cfg.MongoDatabase, prom)

		ictx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()
		if err := repo.EnsureIndexes(ictx); err != nil {
			_ = client.Disconnect(context.Background())
			return storeHandle{}, err
		}

		return storeHandle{
			store: repo,
			ping:  repo.Ping,
			close: func() {
				dctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = client.Disconnect(dctx)
			},
		}, nil

	default:
		log.Warn("using in-memory store, data is lost on restart")
		repo := memory.NewUsersRepo()
		return storeHandle{store: repo, ping: repo.Ping, close: func() {}}, nil
	}
}
