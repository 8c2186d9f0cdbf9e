package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chambadev/chamba/internal/auth"
	"github.com/chambadev/chamba/internal/config"
	"github.com/chambadev/chamba/internal/domain/repository"
	authctrl "github.com/chambadev/chamba/internal/http/controllers/auth"
	healthctrl "github.com/chambadev/chamba/internal/http/controllers/health"
	providerctrl "github.com/chambadev/chamba/internal/http/controllers/provider"
	subctrl "github.com/chambadev/chamba/internal/http/controllers/subscription"
	"github.com/chambadev/chamba/internal/http/router"
	"github.com/chambadev/chamba/internal/http/server"
	"github.com/chambadev/chamba/internal/metrics"
	"github.com/chambadev/chamba/internal/notify"
	"github.com/chambadev/chamba/internal/observability/logger"
	"github.com/chambadev/chamba/internal/rate"
	"github.com/chambadev/chamba/internal/security/password"
	"github.com/chambadev/chamba/internal/store/memory"
	"github.com/chambadev/chamba/internal/store/pg"
	"github.com/chambadev/chamba/internal/sweeper"
	"github.com/chambadev/chamba/internal/token"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el HTTP server y el expiry sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	initLogger(cfg)
	defer logger.Sync() //nolint:errcheck

	log := logger.Named("main")
	if err := metrics.Register(nil); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close() //nolint:errcheck

	codec, err := token.NewCodec([]byte(cfg.JWT.AccessSecret), []byte(cfg.JWT.RefreshSecret))
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}
	issuer := token.NewIssuer(codec, cfg.AccessTTL(), cfg.RefreshTTL())

	verifier := password.NewVerifier(st.Principals())
	loginSvc := auth.NewLoginService(auth.LoginDeps{
		Verifier:      verifier,
		Issuer:        issuer,
		Records:       st.RefreshRecords(),
		Subscriptions: st.Subscriptions(),
	})
	rotationSvc := auth.NewRotationService(auth.RotationDeps{
		Codec:         codec,
		Issuer:        issuer,
		Principals:    st.Principals(),
		Records:       st.RefreshRecords(),
		Subscriptions: st.Subscriptions(),
	})
	logoutSvc := auth.NewLogoutService(auth.LogoutDeps{Records: st.RefreshRecords()})
	gate := auth.NewGateService(auth.GateDeps{
		Subscriptions: st.Subscriptions(),
		Providers:     st.Providers(),
	})

	var redisClient *rdb.Client
	if cfg.Rate.Enabled && cfg.Rate.Backend == "redis" {
		redisClient = rdb.NewClient(&rdb.Options{
			Addr: cfg.Rate.Redis.Addr,
			DB:   cfg.Rate.Redis.DB,
		})
		defer redisClient.Close() //nolint:errcheck
	}

	handler := router.New(router.Deps{
		Codec: codec,
		Gate:  gate,
		Auth: authctrl.NewControllers(authctrl.Deps{
			Login:    loginSvc,
			Rotation: rotationSvc,
			Logout:   logoutSvc,
			Issuer:   issuer,
		}),
		Subscription:   subctrl.NewController(st.Subscriptions(), st.Providers()),
		Provider:       providerctrl.NewController(st.Providers()),
		Health:         healthctrl.NewController(st),
		LoginLimiter:      buildLimiter(cfg, redisClient, "login", cfg.Rate.Login.Limit, cfg.Rate.Login.Window),
		RefreshLimiter:    buildLimiter(cfg, redisClient, "refresh", cfg.Rate.Refresh.Limit, cfg.Rate.Refresh.Window),
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	srv := server.New(cfg.Server.Addr, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	if cfg.Sweep.Enabled {
		sw := sweeper.New(sweeper.Deps{
			Providers:    st.Providers(),
			Principals:   st.Principals(),
			Notifier:     buildNotifier(cfg),
			BoundaryHour: cfg.Sweep.BoundaryHour,
			Location:     cfg.SweepLocation(),
		})
		g.Go(func() error { return sw.Run(gctx) })
		log.Info("sweeper enabled",
			logger.Any("boundary_hour", cfg.Sweep.BoundaryHour),
			logger.String("timezone", cfg.Sweep.Timezone))
	}

	log.Info("chamba up",
		logger.String("addr", cfg.Server.Addr),
		logger.String("storage", cfg.Storage.Driver))
	return g.Wait()
}

func initLogger(cfg *config.Config) {
	env := "dev"
	if cfg.IsProd() {
		env = "prod"
	}
	logger.Init(logger.Config{Env: env, Level: cfg.Log.Level, ServiceName: "chamba"})
}

func buildStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
	default:
		// Validate ya acotó el driver; memory es el default.
		return memory.New(), nil
	}
}

// buildLimiter arma el limiter del endpoint. nil deshabilita el límite río
// abajo en el middleware.
func buildLimiter(cfg *config.Config, client *rdb.Client, name string, max int, window string) rate.Limiter {
	if !cfg.Rate.Enabled || max <= 0 {
		return nil
	}
	w, err := time.ParseDuration(window)
	if err != nil || w <= 0 {
		return nil
	}
	if cfg.Rate.Backend == "redis" && client != nil {
		return rate.NewRedisLimiter(client, cfg.Rate.Redis.Prefix+name+":", max, w)
	}
	return rate.NewMemoryLimiter(max, w)
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	if cfg.SMTP.Host == "" {
		return notify.Noop{}
	}
	return notify.NewSMTP(notify.SMTPConfig{
		Host:               cfg.SMTP.Host,
		Port:               cfg.SMTP.Port,
		From:               cfg.SMTP.From,
		Username:           cfg.SMTP.Username,
		Password:           cfg.SMTP.Password,
		TLSMode:            cfg.SMTP.TLS,
		InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
	})
}
