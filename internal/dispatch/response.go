// Response shaping: success and error bodies share one JSON envelope
// convention so every path out of the dispatcher is machine-readable.
//
// Success shapes:
//   - 201/200 {"id": "<uuid>"}          create / update
//   - 200     {"item": {...}}           single get
//   - 200     {"items": [...]}          list get
//   - 204     empty body                soft delete
//
// Failure shape, on every error path:
//   - {"message": "...", "errorKind": "<taxonomy kind>"}
package dispatch

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldserve/go-orders-backend/internal/domain"
)

type idBody struct {
	ID string `json:"id"`
}

type itemBody struct {
	Item *domain.Order `json:"item"`
}

type itemsBody struct {
	Items []domain.Order `json:"items"`
}

// errorBody is the structured failure envelope.
type errorBody struct {
	Message   string `json:"message"`
	ErrorKind string `json:"errorKind"`
}

// jsonHeaders returns the response headers common to every envelope.
func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// jsonResponse encodes v as the response body.
func jsonResponse(status int, v any) Response {
	b, err := json.Marshal(v)
	if err != nil {
		// Marshalling our own response types cannot fail at runtime; keep a
		// structured fallback anyway so the contract holds.
		return Response{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"message":"internal server error","errorKind":"StoreWriteFailed"}`,
			Headers:    jsonHeaders(),
		}
	}
	return Response{StatusCode: status, Body: string(b), Headers: jsonHeaders()}
}

// ErrorResponse maps a taxonomy error to its status code and failure body.
// Adapters use it for failures that occur before dispatch (event
// normalization, configuration lookup).
func ErrorResponse(err error) Response {
	var de *domain.Error
	if !errors.As(err, &de) {
		// Repositories wrap every store failure, so this branch is not
		// reachable through the dispatcher's own collaborators.
		return jsonResponse(http.StatusInternalServerError, errorBody{
			Message:   "internal server error",
			ErrorKind: string(domain.KindStoreWriteFailed),
		})
	}
	return jsonResponse(statusFor(de.Kind), errorBody{
		Message:   de.Message,
		ErrorKind: string(de.Kind),
	})
}

// statusFor maps taxonomy kinds to HTTP statuses: deterministic request
// failures are 400, missing records 404, unknown verbs 405, store and
// configuration failures 500.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindMalformedBody,
		domain.KindMissingField,
		domain.KindInvalidFieldType,
		domain.KindInvalidIdentifier:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnsupportedMethod:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}
