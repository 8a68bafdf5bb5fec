// Router wiring: middleware chain, operational endpoints, and the
// service-order routes. Handlers are transport-thin: each one folds the
// Gin request into the dispatcher's normalized envelope and writes the
// response envelope back, so the HTTP surface and the Lambda surface share
// every behavior.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS
package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/fieldserve/go-orders-backend/internal/config"
	"github.com/fieldserve/go-orders-backend/internal/dispatch"
)

// maxBodyBytes caps request bodies; service-order payloads are small JSON
// documents.
const maxBodyBytes = 1 << 20

// RegisterRoutes attaches all middleware and endpoints to the given engine.
func RegisterRoutes(r *gin.Engine, d *dispatch.Dispatcher, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(RequestID())
	r.Use(Logger())
	r.Use(Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:   []string{requestIDHeader, "Content-Length"},
			MaxAge:          12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORS.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders: []string{requestIDHeader, "Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	// Fallbacks stay inside the structured error convention.
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message":   "route not found",
			"errorKind": "NotFound",
		})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"message":   "method not allowed",
			"errorKind": "UnsupportedMethod",
		})
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Service orders
	orders := r.Group("/customers/:customerId/service-orders")
	{
		orders.POST("", invoke(d))
		orders.GET("", invoke(d))
		orders.GET("/:id", invoke(d))
		orders.PUT("/:id", invoke(d))
		orders.DELETE("/:id", invoke(d))
	}
}

// invoke folds the Gin request into the normalized envelope, runs the
// dispatcher, and writes its response envelope back.
func invoke(d *dispatch.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body string
		if c.Request.Body != nil {
			raw, err := io.ReadAll(c.Request.Body)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"message":   "could not read request body",
					"errorKind": "MalformedBody",
				})
				return
			}
			body = string(raw)
		}

		env := dispatch.Envelope{
			Method:          c.Request.Method,
			PathParameters:  pathParams(c),
			QueryParameters: queryParams(c),
			Body:            body,
		}

		res := d.Dispatch(c.Request.Context(), env)
		for k, v := range res.Headers {
			c.Header(k, v)
		}
		if res.Body == "" {
			c.Status(res.StatusCode)
			return
		}
		c.Data(res.StatusCode, "application/json", []byte(res.Body))
	}
}

func pathParams(c *gin.Context) map[string]string {
	out := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		out[p.Key] = p.Value
	}
	return out
}

func queryParams(c *gin.Context) map[string]string {
	values := c.Request.URL.Query()
	out := make(map[string]string, len(values))
	for k := range values {
		out[k] = values.Get(k)
	}
	return out
}

// limitBody caps the request body size using http.MaxBytesReader.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
