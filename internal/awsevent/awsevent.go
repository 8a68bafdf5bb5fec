// Package awsevent normalizes the two Lambda event-source shapes — API
// Gateway proxy (gateway-style) and AppSync resolver (graph-API-style) —
// into the dispatcher's common envelope, and shapes dispatcher responses
// back into API Gateway proxy responses. The dispatcher itself never sees
// which source produced a request.
package awsevent

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/fieldserve/go-orders-backend/internal/dispatch"
	"github.com/fieldserve/go-orders-backend/internal/domain"
)

// GraphRequest is the graph-API-style resolver event: the invoked field
// plus its arguments. Create/update payloads arrive as the raw input
// document.
type GraphRequest struct {
	Field     string         `json:"field"`
	Arguments GraphArguments `json:"arguments"`
}

// GraphArguments carries the resolver arguments of a GraphRequest.
type GraphArguments struct {
	CustomerID string          `json:"customerId"`
	ID         string          `json:"id"`
	LocationID string          `json:"locationId"`
	Input      json.RawMessage `json:"input"`
}

// graphMethods maps resolver field names onto the dispatcher's verb table.
var graphMethods = map[string]string{
	"createServiceOrder": http.MethodPost,
	"updateServiceOrder": http.MethodPut,
	"deleteServiceOrder": http.MethodDelete,
	"getServiceOrder":    http.MethodGet,
	"listServiceOrders":  http.MethodGet,
}

// Normalize collapses a raw Lambda payload into the common envelope. It
// recognizes gateway-style events by their httpMethod member and
// graph-API-style events by their field member; anything else is a
// malformed invocation.
func Normalize(raw json.RawMessage) (dispatch.Envelope, error) {
	var probe struct {
		HTTPMethod string `json:"httpMethod"`
		Field      string `json:"field"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return dispatch.Envelope{}, domain.MalformedBody("event is not valid JSON")
	}

	switch {
	case probe.HTTPMethod != "":
		var req events.APIGatewayProxyRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return dispatch.Envelope{}, domain.MalformedBody("malformed gateway event")
		}
		return FromProxy(req), nil
	case probe.Field != "":
		var req GraphRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return dispatch.Envelope{}, domain.MalformedBody("malformed resolver event")
		}
		return FromGraph(req), nil
	default:
		return dispatch.Envelope{}, domain.MalformedBody("unrecognized event shape")
	}
}

// FromProxy normalizes an API Gateway proxy request.
func FromProxy(req events.APIGatewayProxyRequest) dispatch.Envelope {
	return dispatch.Envelope{
		Method:          req.HTTPMethod,
		PathParameters:  copyParams(req.PathParameters),
		QueryParameters: copyParams(req.QueryStringParameters),
		Body:            req.Body,
	}
}

// FromGraph normalizes a graph-API-style resolver event. Unknown fields
// map to an empty method, which the dispatcher rejects as UnsupportedMethod.
func FromGraph(req GraphRequest) dispatch.Envelope {
	env := dispatch.Envelope{
		Method:          graphMethods[req.Field],
		PathParameters:  map[string]string{},
		QueryParameters: map[string]string{},
		Body:            string(req.Arguments.Input),
	}
	if req.Arguments.CustomerID != "" {
		env.PathParameters["customerId"] = req.Arguments.CustomerID
	}
	if req.Arguments.ID != "" {
		env.PathParameters["id"] = req.Arguments.ID
	}
	if req.Arguments.LocationID != "" {
		env.QueryParameters["locationId"] = req.Arguments.LocationID
	}
	return env
}

// corsHeaders are attached to every gateway response so browser clients can
// call the API directly.
func corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "OPTIONS,POST,GET,PUT,DELETE",
		"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key",
	}
}

// Preflight answers an OPTIONS request at the adapter; the dispatcher only
// knows the four data verbs.
func Preflight() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    corsHeaders(),
	}
}

// ToProxy shapes a dispatcher response into an API Gateway proxy response,
// merging the CORS headers over the envelope's own.
func ToProxy(res dispatch.Response) events.APIGatewayProxyResponse {
	headers := corsHeaders()
	for k, v := range res.Headers {
		headers[k] = v
	}
	return events.APIGatewayProxyResponse{
		StatusCode: res.StatusCode,
		Headers:    headers,
		Body:       res.Body,
	}
}

func copyParams(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
