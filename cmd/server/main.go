// Command server runs the service-order API as a local HTTP server. It
// serves the same dispatcher as the Lambda binary: against DynamoDB when a
// table name is configured, otherwise against a local sqlite database.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/fieldserve/go-orders-backend/internal/config"
	"github.com/fieldserve/go-orders-backend/internal/dispatch"
	"github.com/fieldserve/go-orders-backend/internal/httpapi"
	"github.com/fieldserve/go-orders-backend/internal/observability"
	"github.com/fieldserve/go-orders-backend/internal/repo"
	dynamostore "github.com/fieldserve/go-orders-backend/internal/repo/dynamo"
	"github.com/fieldserve/go-orders-backend/internal/repo/gormstore"
)

// version is stamped at build time (-ldflags "-X main.version=...").
var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	observability.SetupLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() { _ = shutdownOTel(context.Background()) }()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store setup failed")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, dispatch.New(store), cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server crashed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildStore selects the repository: DynamoDB when the table name resolves,
// sqlite otherwise.
func buildStore(ctx context.Context, cfg config.Config) (repo.Repository, error) {
	table, err := config.NewTables(nil).Resolve(config.ServiceOrderTableKey)
	if err != nil {
		log.Warn().Err(err).Str("db_path", cfg.Store.DBPath).
			Msg("no store table configured, using local sqlite")
		db, err := gormstore.Open(cfg.Store.DBPath)
		if err != nil {
			return nil, err
		}
		return gormstore.New(db), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		o.RetryMaxAttempts = cfg.Store.RetryMaxAttempts
		if cfg.Store.Endpoint != "" {
			o.BaseEndpoint = &cfg.Store.Endpoint
		}
	})
	log.Info().Str("table", table).Str("index", cfg.Store.CustomerIndex).Msg("using dynamodb store")
	return dynamostore.New(client, table, cfg.Store.CustomerIndex), nil
}
