package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ibitsola/Tekhnologia/internal/config"
	s3infra "github.com/ibitsola/Tekhnologia/internal/infra/s3"
	pgrepo "github.com/ibitsola/Tekhnologia/internal/repo/postgres"
	redrepo "github.com/ibitsola/Tekhnologia/internal/repo/redis"
	authsvc "github.com/ibitsola/Tekhnologia/internal/services/auth"
	catalogsvc "github.com/ibitsola/Tekhnologia/internal/services/catalog"
	downloadsvc "github.com/ibitsola/Tekhnologia/internal/services/downloads"
	ledgersvc "github.com/ibitsola/Tekhnologia/internal/services/ledger"
	paymentsvc "github.com/ibitsola/Tekhnologia/internal/services/payments"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	resourceRepo := pgrepo.NewResourceRepo(pool)
	purchaseRepo := pgrepo.NewPurchaseRepo(pool)
	catalogCache := redrepo.NewCatalogCacheRepo(redisClient)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)

	catalogStorage := catalogsvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	catalogService := catalogsvc.NewService(catalogsvc.Dependencies{
		Store:    resourceRepo,
		Cache:    catalogCache,
		Storage:  catalogStorage,
		CacheTTL: cfg.Catalog.CacheTTL,
		Logger:   log,
	})

	stripeGateway := paymentsvc.NewStripeGateway(paymentsvc.StripeGatewayConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
		Currency:      cfg.Stripe.Currency,
	})
	paymentService := paymentsvc.NewService(paymentsvc.Dependencies{
		Resources: resourceRepo,
		Purchases: purchaseRepo,
		Gateway:   stripeGateway,
		Logger:    log,
	})

	downloadService := downloadsvc.NewService(catalogService, purchaseRepo, log)

	ledgerService := ledgersvc.NewService(ledgersvc.Dependencies{
		Store:         purchaseRepo,
		ConfirmIssuer: cfg.Ledger.ConfirmIssuer,
		ConfirmSecret: cfg.Ledger.ConfirmSecret,
		Logger:        log,
	})

	RegisterRoutes(r, Dependencies{
		CatalogService:  catalogService,
		PaymentService:  paymentService,
		DownloadService: downloadService,
		LedgerService:   ledgerService,
		JWTManager:      jwtManager,
		Logger:          log,
		Config:          cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
