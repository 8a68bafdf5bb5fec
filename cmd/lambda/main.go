// Command lambda runs the service-order API as an AWS Lambda function. It
// accepts both gateway-style and graph-API-style event shapes, normalizes
// them into the common envelope, and answers in API Gateway proxy form.
//
// The DynamoDB client and dispatcher are built lazily on first use and
// reused across invocations; a missing table name fails the invocation
// with a structured ConfigLookupFailed response rather than crashing the
// runtime.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog/log"

	"github.com/fieldserve/go-orders-backend/internal/awsevent"
	"github.com/fieldserve/go-orders-backend/internal/config"
	"github.com/fieldserve/go-orders-backend/internal/dispatch"
	"github.com/fieldserve/go-orders-backend/internal/observability"
	dynamostore "github.com/fieldserve/go-orders-backend/internal/repo/dynamo"
)

var (
	cfg    config.Config
	tables = config.NewTables(nil)

	initOnce   sync.Once
	dispatcher *dispatch.Dispatcher
	initErr    error
)

func main() {
	cfg = config.MustLoad()
	observability.SetupLogger(cfg.LogLevel, cfg.LogPretty)
	lambda.Start(handle)
}

// handle processes one Lambda invocation end to end. Every failure path
// terminates in a well-formed proxy response; the returned error is always
// nil so the runtime never substitutes its own error shape.
func handle(ctx context.Context, raw json.RawMessage) (events.APIGatewayProxyResponse, error) {
	env, err := awsevent.Normalize(raw)
	if err != nil {
		log.Warn().Err(err).Msg("unrecognized event")
		return awsevent.ToProxy(dispatch.ErrorResponse(err)), nil
	}

	// CORS preflight is answered at the adapter.
	if env.Method == http.MethodOptions {
		return awsevent.Preflight(), nil
	}

	d, err := getDispatcher(ctx)
	if err != nil {
		log.Error().Err(err).Msg("dispatcher init failed")
		return awsevent.ToProxy(dispatch.ErrorResponse(err)), nil
	}

	return awsevent.ToProxy(d.Dispatch(ctx, env)), nil
}

// getDispatcher builds the DynamoDB-backed dispatcher once per process.
// Table-name resolution runs on every cold path so a fixed environment
// fault surfaces as ConfigLookupFailed per invocation, not as a crash.
func getDispatcher(ctx context.Context) (*dispatch.Dispatcher, error) {
	table, err := tables.Resolve(config.ServiceOrderTableKey)
	if err != nil {
		return nil, err
	}

	initOnce.Do(func() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			initErr = err
			return
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			o.RetryMaxAttempts = cfg.Store.RetryMaxAttempts
			if cfg.Store.Endpoint != "" {
				o.BaseEndpoint = &cfg.Store.Endpoint
			}
		})
		dispatcher = dispatch.New(dynamostore.New(client, table, cfg.Store.CustomerIndex))
	})
	if initErr != nil {
		return nil, initErr
	}
	return dispatcher, nil
}
