package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fieldserve/go-orders-backend/internal/domain"
	"github.com/fieldserve/go-orders-backend/internal/keys"
	"github.com/fieldserve/go-orders-backend/internal/repo"
	"github.com/fieldserve/go-orders-backend/internal/validate"
)

// tracerName identifies dispatcher spans in trace backends.
const tracerName = "github.com/fieldserve/go-orders-backend/internal/dispatch"

// Dispatcher orchestrates validator, key deriver and repository for one
// invocation at a time. It holds no mutable state across invocations; the
// repository is the only shared resource.
type Dispatcher struct {
	repo repo.Repository
	log  zerolog.Logger
}

// New returns a Dispatcher over the given repository, logging through the
// global zerolog logger.
func New(r repo.Repository) *Dispatcher {
	return &Dispatcher{repo: r, log: log.Logger}
}

// Dispatch executes one request envelope and always terminates in a
// well-formed response: every validator, deriver and repository failure is
// mapped to a structured {message, errorKind} body with the matching
// status, never an unstructured error.
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope) Response {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "dispatch")
	span.SetAttributes(attribute.String("http.method", env.Method))
	defer span.End()

	var res Response
	switch env.Method {
	case http.MethodPost:
		res = d.create(ctx, env)
	case http.MethodPut:
		res = d.update(ctx, env)
	case http.MethodDelete:
		res = d.softDelete(ctx, env)
	case http.MethodGet:
		res = d.get(ctx, env)
	default:
		res = ErrorResponse(domain.UnsupportedMethod(env.Method))
	}

	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode))
	return res
}

// create handles POST /customers/{customerId}/service-orders. The path
// check runs before body validation; locationId is an optional query (or
// path) refinement stored as a plain attribute.
func (d *Dispatcher) create(ctx context.Context, env Envelope) Response {
	customerID := env.pathParam("customerId")
	if customerID == "" {
		return ErrorResponse(domain.MissingField("customerId"))
	}
	locationID := optional(env.queryParam("locationId"))

	fields, err := d.decodeAndValidate(env.Body)
	if err != nil {
		return ErrorResponse(err)
	}

	k := keys.NewKey(customerID)
	order, err := d.repo.Insert(ctx, k, locationID, fields)
	if err != nil {
		return d.failed(err, "create", k)
	}

	d.log.Info().
		Str("order_id", order.ID).
		Str("customer_id", order.CustomerID).
		Msg("service order created")
	d.log.Debug().Interface("order", order).Msg("stored item")

	return jsonResponse(http.StatusCreated, idBody{ID: order.ID})
}

// update handles PUT /customers/{customerId}/service-orders/{id}. PUT is a
// partial merge: the validator drops absent fields before they reach the
// repository, so unspecified attributes stay untouched.
func (d *Dispatcher) update(ctx context.Context, env Envelope) Response {
	k, err := d.lookupKey(env)
	if err != nil {
		return ErrorResponse(err)
	}

	fields, err := d.decodeAndValidate(env.Body)
	if err != nil {
		return ErrorResponse(err)
	}

	order, err := d.repo.Update(ctx, k, fields)
	if err != nil {
		return d.failed(err, "update", k)
	}

	d.log.Info().
		Str("order_id", order.ID).
		Str("customer_id", order.CustomerID).
		Msg("service order updated")
	d.log.Debug().Interface("order", order).Msg("stored item")

	return jsonResponse(http.StatusOK, idBody{ID: order.ID})
}

// softDelete handles DELETE /customers/{customerId}/service-orders/{id}.
func (d *Dispatcher) softDelete(ctx context.Context, env Envelope) Response {
	k, err := d.lookupKey(env)
	if err != nil {
		return ErrorResponse(err)
	}

	if err := d.repo.SoftDelete(ctx, k); err != nil {
		return d.failed(err, "delete", k)
	}

	d.log.Info().
		Str("order_id", k.ID).
		Str("customer_id", k.CustomerID).
		Msg("service order soft-deleted")

	return Response{StatusCode: http.StatusNoContent, Headers: jsonHeaders()}
}

// get handles GET /customers/{customerId}/service-orders[/{id}]. When both
// an id and a locationId are supplied, identifier lookup wins and the
// location refinement is ignored.
func (d *Dispatcher) get(ctx context.Context, env Envelope) Response {
	customerID := env.pathParam("customerId")
	if customerID == "" {
		return ErrorResponse(domain.MissingField("customerId"))
	}

	if rawID := env.pathParam("id"); rawID != "" {
		k, err := keys.LookupKey(rawID, customerID)
		if err != nil {
			return ErrorResponse(err)
		}
		order, err := d.repo.GetOne(ctx, k)
		if err != nil {
			return d.failed(err, "get", k)
		}
		return jsonResponse(http.StatusOK, itemBody{Item: order})
	}

	locationID := optional(env.queryParam("locationId"))
	orders, err := d.repo.ListByCustomer(ctx, customerID, locationID)
	if err != nil {
		d.log.Error().Err(err).Str("customer_id", customerID).Msg("list failed")
		return ErrorResponse(err)
	}
	return jsonResponse(http.StatusOK, itemsBody{Items: orders})
}

// lookupKey runs the path-parameter checks shared by update and delete:
// both key components must be present and the id syntactically valid.
func (d *Dispatcher) lookupKey(env Envelope) (keys.Key, error) {
	rawID := env.pathParam("id")
	if rawID == "" {
		return keys.Key{}, domain.MissingField("id")
	}
	customerID := env.pathParam("customerId")
	if customerID == "" {
		return keys.Key{}, domain.MissingField("customerId")
	}
	return keys.LookupKey(rawID, customerID)
}

// decodeAndValidate turns the raw body into a validated field set.
func (d *Dispatcher) decodeAndValidate(body string) (domain.Fields, error) {
	if strings.TrimSpace(body) == "" {
		return domain.Fields{}, domain.MalformedBody("missing request body")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return domain.Fields{}, domain.MalformedBody("request body is not valid JSON")
	}
	return validate.Payload(payload)
}

// failed logs a repository failure with its key context and shapes the
// error response. NotFound is expected traffic and logged at warn.
func (d *Dispatcher) failed(err error, op string, k keys.Key) Response {
	ev := d.log.Error()
	if kind, ok := domain.KindOf(err); ok && kind == domain.KindNotFound {
		ev = d.log.Warn()
	}
	ev.Err(err).
		Str("op", op).
		Str("order_id", k.ID).
		Str("customer_id", k.CustomerID).
		Msg("repository operation failed")
	return ErrorResponse(err)
}

// optional maps "" to absent.
func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
