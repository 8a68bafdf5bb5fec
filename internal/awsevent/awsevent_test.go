package awsevent

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/fieldserve/go-orders-backend/internal/dispatch"
	"github.com/fieldserve/go-orders-backend/internal/domain"
)

func TestNormalizeGatewayEvent(t *testing.T) {
	raw := json.RawMessage(`{
		"httpMethod": "POST",
		"pathParameters": {"customerId": "C1"},
		"queryStringParameters": {"locationId": "L1"},
		"body": "{\"unitId\":\"U1\",\"actionId\":\"A1\"}"
	}`)

	env, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if env.Method != http.MethodPost {
		t.Fatalf("method = %q", env.Method)
	}
	if env.PathParameters["customerId"] != "C1" {
		t.Fatalf("path params = %v", env.PathParameters)
	}
	if env.QueryParameters["locationId"] != "L1" {
		t.Fatalf("query params = %v", env.QueryParameters)
	}
	if env.Body != `{"unitId":"U1","actionId":"A1"}` {
		t.Fatalf("body = %q", env.Body)
	}
}

func TestNormalizeResolverEvent(t *testing.T) {
	raw := json.RawMessage(`{
		"field": "createServiceOrder",
		"arguments": {
			"customerId": "C1",
			"locationId": "L1",
			"input": {"unitId": "U1", "actionId": "A1"}
		}
	}`)

	env, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if env.Method != http.MethodPost {
		t.Fatalf("method = %q", env.Method)
	}
	if env.PathParameters["customerId"] != "C1" {
		t.Fatalf("path params = %v", env.PathParameters)
	}
	if env.QueryParameters["locationId"] != "L1" {
		t.Fatalf("query params = %v", env.QueryParameters)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(env.Body), &body); err != nil {
		t.Fatalf("input not forwarded as body: %v", err)
	}
	if body["unitId"] != "U1" {
		t.Fatalf("body = %v", body)
	}
}

func TestNormalizeResolverVerbs(t *testing.T) {
	cases := map[string]string{
		"createServiceOrder": http.MethodPost,
		"updateServiceOrder": http.MethodPut,
		"deleteServiceOrder": http.MethodDelete,
		"getServiceOrder":    http.MethodGet,
		"listServiceOrders":  http.MethodGet,
	}
	for field, method := range cases {
		env, err := Normalize(json.RawMessage(`{"field":"` + field + `","arguments":{"customerId":"C1"}}`))
		if err != nil {
			t.Fatalf("Normalize(%s): %v", field, err)
		}
		if env.Method != method {
			t.Fatalf("field %s mapped to %q, want %s", field, env.Method, method)
		}
	}
}

func TestNormalizeUnknownResolverField(t *testing.T) {
	env, err := Normalize(json.RawMessage(`{"field":"dropAllOrders","arguments":{}}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if env.Method != "" {
		t.Fatalf("method = %q, want empty for unknown field", env.Method)
	}
}

func TestNormalizeRejectsUnknownShapes(t *testing.T) {
	for _, raw := range []string{`not json`, `{}`, `{"foo":"bar"}`} {
		_, err := Normalize(json.RawMessage(raw))
		if kind, _ := domain.KindOf(err); kind != domain.KindMalformedBody {
			t.Fatalf("Normalize(%q) kind = %v, want MalformedBody", raw, kind)
		}
	}
}

func TestToProxyMergesCORSHeaders(t *testing.T) {
	res := ToProxy(dispatch.Response{
		StatusCode: http.StatusCreated,
		Body:       `{"id":"x"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	})

	if res.StatusCode != http.StatusCreated || res.Body != `{"id":"x"}` {
		t.Fatalf("res = %+v", res)
	}
	if res.Headers["Content-Type"] != "application/json" {
		t.Fatalf("content type = %q", res.Headers["Content-Type"])
	}
	if res.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Fatalf("missing CORS origin header: %v", res.Headers)
	}
}

func TestPreflight(t *testing.T) {
	res := Preflight()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if res.Body != "" {
		t.Fatalf("preflight body = %q, want empty", res.Body)
	}
	for _, h := range []string{"Access-Control-Allow-Origin", "Access-Control-Allow-Methods", "Access-Control-Allow-Headers"} {
		if res.Headers[h] == "" {
			t.Fatalf("preflight missing %s", h)
		}
	}
}

func TestFromProxyCopiesParams(t *testing.T) {
	src := events.APIGatewayProxyRequest{
		HTTPMethod:     http.MethodGet,
		PathParameters: map[string]string{"customerId": "C1"},
	}
	env := FromProxy(src)
	env.PathParameters["customerId"] = "mutated"
	if src.PathParameters["customerId"] != "C1" {
		t.Fatal("envelope aliases the source event's parameter map")
	}
}
