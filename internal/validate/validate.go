// Package validate checks the shape of decoded service-order payloads.
//
// Payload is a pure function over the decoded JSON body: it confirms the
// required identifiers are present, type-checks every optional field that
// was supplied, and returns a field set that carries only what the request
// actually contained. Absent optional fields stay absent; they are a
// distinct state from empty values and never default.
package validate

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fieldserve/go-orders-backend/internal/domain"
)

var (
	// isoDateRE matches ISO 8601 calendar dates (YYYY-MM-DD).
	isoDateRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// isoTimeRE matches ISO 8601 times with optional fraction and offset.
	isoTimeRE = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
)

// Payload validates a decoded request body and returns the normalized field
// set. Checks run in a fixed order: the body must be a non-nil object, then
// unitId and actionId must be present non-empty strings, then every present
// optional field must match its declared type. The first failure wins.
//
// Omission is a distinct state from empty: an optional string supplied as
// "" is rejected rather than reinterpreted as absent, since the store never
// writes empty attributes.
func Payload(payload map[string]any) (domain.Fields, error) {
	var f domain.Fields

	if payload == nil {
		return f, domain.MalformedBody("request body must be a JSON object")
	}

	unitID, err := requiredString(payload, "unitId")
	if err != nil {
		return f, err
	}
	actionID, err := requiredString(payload, "actionId")
	if err != nil {
		return f, err
	}
	f.UnitID = unitID
	f.ActionID = actionID

	if f.ServiceDate, err = optionalString(payload, "serviceDate"); err != nil {
		return f, err
	}
	if f.ServiceDate != nil && !isoDateRE.MatchString(*f.ServiceDate) {
		return f, domain.InvalidFieldType("serviceDate", "an ISO 8601 date (YYYY-MM-DD)")
	}

	if f.ServiceTime, err = optionalString(payload, "serviceTime"); err != nil {
		return f, err
	}
	if f.ServiceTime != nil && !validTime(*f.ServiceTime) {
		return f, domain.InvalidFieldType("serviceTime", "an ISO 8601 time")
	}

	if f.ServiceDuration, err = optionalInt(payload, "serviceDuration"); err != nil {
		return f, err
	}

	if f.ServiceStatus, err = optionalString(payload, "serviceStatus"); err != nil {
		return f, err
	}
	if f.EmployeeID, err = optionalString(payload, "employeeId"); err != nil {
		return f, err
	}
	if f.ServiceNotes, err = optionalString(payload, "serviceNotes"); err != nil {
		return f, err
	}

	return f, nil
}

// validTime applies the time regex plus an hour range check, since the
// pattern alone admits values like "31:00:00".
func validTime(s string) bool {
	if !isoTimeRE.MatchString(s) {
		return false
	}
	hour, err := strconv.Atoi(s[:2])
	return err == nil && hour <= 23
}

func requiredString(payload map[string]any, field string) (string, error) {
	v, ok := payload[field]
	if !ok || v == nil {
		return "", domain.MissingField(field)
	}
	s, ok := v.(string)
	if !ok {
		return "", domain.InvalidFieldType(field, "a string")
	}
	if strings.TrimSpace(s) == "" {
		return "", domain.MissingField(field)
	}
	return s, nil
}

func optionalString(payload map[string]any, field string) (*string, error) {
	v, ok := payload[field]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, domain.InvalidFieldType(field, "a string")
	}
	if s == "" {
		return nil, domain.InvalidFieldType(field, "a non-empty string")
	}
	return &s, nil
}

// optionalInt accepts the numeric forms a decoded JSON body can carry:
// float64 (encoding/json default), json.Number, or a digit string.
func optionalInt(payload map[string]any, field string) (*int, error) {
	v, ok := payload[field]
	if !ok || v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return nil, domain.InvalidFieldType(field, "an integer")
		}
		i := int(n)
		return &i, nil
	case json.Number:
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return nil, domain.InvalidFieldType(field, "an integer")
		}
		return &i, nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return nil, domain.InvalidFieldType(field, "an integer")
		}
		return &i, nil
	default:
		return nil, domain.InvalidFieldType(field, "an integer")
	}
}
