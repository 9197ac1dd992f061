// Command easyauth runs the identity provider.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/easyauth/modules/oidc"
	"github.com/dmitrymomot/easyauth/pkg/config"
	"github.com/dmitrymomot/easyauth/pkg/cookie"
	"github.com/dmitrymomot/easyauth/pkg/environment"
	"github.com/dmitrymomot/easyauth/pkg/httpserver"
	"github.com/dmitrymomot/easyauth/pkg/logger"
	"github.com/dmitrymomot/easyauth/pkg/pg"
	"github.com/dmitrymomot/easyauth/pkg/redis"
	"github.com/dmitrymomot/easyauth/pkg/requestid"
	"github.com/dmitrymomot/easyauth/storage/pgstore"
	"github.com/dmitrymomot/easyauth/storage/redisstore"
	"github.com/dmitrymomot/easyauth/storage/sqlitestore"
	"github.com/dmitrymomot/easyauth/svc/auth"
	oidcsvc "github.com/dmitrymomot/easyauth/svc/oidc"
)

type AppConfig struct {
	Env           string `env:"APP_ENV" envDefault:"development"`
	Secret        string `env:"APP_SECRET,required"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	CodeStore     string `env:"CODE_STORE"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"easyauth.db"`
}

// store is what a storage driver provides to the services.
type store interface {
	auth.Storage
	oidcsvc.AppStorage
	oidcsvc.CodeStorage
	Healthcheck(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("easyauth: %v", err)
	}
}

func run(ctx context.Context) error {
	var cfg AppConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	env := environment.Parse(cfg.Env)

	log := logger.New(
		logger.WithEnvironment(env.String(), "easyauth"),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	slog.SetDefault(log)

	db, closeDB, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	var oidcCfg oidcsvc.Config
	if err := config.Load(&oidcCfg); err != nil {
		return err
	}
	mode, err := oidcsvc.ParseIDTokenMode(oidcCfg.IDTokenMode)
	if err != nil {
		return err
	}

	checks := []httpserver.HealthCheck{{Name: cfg.StorageDriver, Check: db.Healthcheck}}

	var codes oidcsvc.CodeStorage = db
	switch cfg.CodeStore {
	case "", cfg.StorageDriver:
	case "redis":
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()
		codes = redisstore.New(client,
			redisstore.WithKeyPrefix(redisCfg.KeyPrefix),
			redisstore.WithCodeTTL(oidcCfg.CodeTTL),
		)
		checks = append(checks, httpserver.HealthCheck{Name: "redis", Check: redis.Healthcheck(client)})
	default:
		return fmt.Errorf("unsupported CODE_STORE %q", cfg.CodeStore)
	}

	services, err := buildServices(cfg, oidcCfg, mode, db, codes, log)
	if err != nil {
		return err
	}
	codeService := services.codes

	var cookieCfg cookie.Config
	if err := config.Load(&cookieCfg); err != nil {
		return err
	}
	cookieCfg.Secure = cookieCfg.Secure || env.IsProduction()

	var moduleCfg oidc.Config
	if err := config.Load(&moduleCfg); err != nil {
		return err
	}
	module := oidc.New(moduleCfg, cfg.Secret, services.Services,
		oidc.WithCookies(cookie.NewFromConfig(cookieCfg)),
		oidc.WithHealthChecks(checks...),
		oidc.WithLogger(log),
	)

	var serverCfg httpserver.Config
	if err := config.Load(&serverCfg); err != nil {
		return err
	}
	server := httpserver.NewFromConfig(serverCfg, httpserver.WithLogger(log))
	sweeper := oidcsvc.NewSweeper(codeService,
		oidcsvc.WithSweepInterval(oidcCfg.SweepInterval),
		oidcsvc.WithSweeperLogger(log),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx, module.Handle()) })
	g.Go(func() error { return sweeper.Start(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg AppConfig, log *slog.Logger) (store, func(), error) {
	switch cfg.StorageDriver {
	case "postgres":
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return nil, nil, err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := pgstore.Migrate(ctx, pool, pgCfg.MigrationsTable, log); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgstore.New(pool), pool.Close, nil
	case "sqlite":
		db, err := sqlitestore.Open(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

type services struct {
	oidc.Services
	codes *oidcsvc.CodeService
}

func buildServices(cfg AppConfig, oidcCfg oidcsvc.Config, mode oidcsvc.IDTokenMode, db store, codes oidcsvc.CodeStorage, log *slog.Logger) (services, error) {
	var authCfg auth.Config
	if err := config.Load(&authCfg); err != nil {
		return services{}, err
	}
	opts := append(authCfg.Options(), auth.WithLogger(log))

	var turnstile auth.TurnstileConfig
	if err := config.Load(&turnstile); err != nil {
		return services{}, err
	}
	if turnstile.SecretKey != "" {
		opts = append(opts, auth.WithCaptcha(auth.NewTurnstile(turnstile, nil)))
	}

	var github auth.GitHubConfig
	if err := config.Load(&github); err != nil {
		return services{}, err
	}
	if github.Enabled() {
		opts = append(opts, auth.WithProvider(auth.NewGitHubAdapter(github)))
	}

	sessions, err := auth.NewSessionCodec([]byte(cfg.Secret), auth.WithSessionTTL(authCfg.SessionTTL))
	if err != nil {
		return services{}, err
	}

	codeService := oidcsvc.NewCodeService(codes,
		oidcsvc.WithCodeTTL(oidcCfg.CodeTTL),
		oidcsvc.WithCodeLogger(log),
	)
	return services{
		Services: oidc.Services{
			Auth:     auth.NewService(db, opts...),
			Sessions: sessions,
			Exchange: oidcsvc.NewExchange(db, codeService,
				oidcsvc.WithIDTokenMode(mode),
				oidcsvc.WithIDTokenTTL(oidcCfg.IDTokenTTL),
				oidcsvc.WithExchangeLogger(log),
			),
			Apps: oidcsvc.NewAppService(db, oidcsvc.WithAppLogger(log)),
		},
		codes: codeService,
	}, nil
}
