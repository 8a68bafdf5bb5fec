// Package dispatch routes normalized request envelopes onto repository
// operations and shapes the response envelope. It is transport-agnostic:
// the gateway, graph-API and local HTTP adapters all collapse their event
// shapes into Envelope before anything here runs, so the dispatcher never
// branches on event source.
package dispatch

// Envelope is the normalized inbound request, independent of the event
// source that produced it.
type Envelope struct {
	// Method is the HTTP verb equivalent: POST, GET, PUT or DELETE.
	Method string
	// PathParameters may carry "customerId" and "id".
	PathParameters map[string]string
	// QueryParameters may carry "locationId".
	QueryParameters map[string]string
	// Body is the raw request body; the dispatcher JSON-decodes it before
	// validation.
	Body string
}

// Response is the outbound envelope handed back to the transport adapter.
type Response struct {
	StatusCode int
	// Body is a JSON document, empty for 204.
	Body    string
	Headers map[string]string
}

// pathParam returns the named path parameter, "" when absent.
func (e Envelope) pathParam(name string) string {
	return e.PathParameters[name]
}

// queryParam returns the named query parameter, falling back to path
// parameters, "" when absent in both.
func (e Envelope) queryParam(name string) string {
	if v, ok := e.QueryParameters[name]; ok && v != "" {
		return v
	}
	return e.PathParameters[name]
}
