package validate

import (
	"errors"
	"testing"

	"github.com/fieldserve/go-orders-backend/internal/domain"
)

func mustKind(t *testing.T, err error, want domain.Kind) *domain.Error {
	t.Helper()
	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *domain.Error, got %v", err)
	}
	if de.Kind != want {
		t.Fatalf("kind = %s, want %s", de.Kind, want)
	}
	return de
}

func TestPayloadNilBody(t *testing.T) {
	_, err := Payload(nil)
	mustKind(t, err, domain.KindMalformedBody)
}

func TestPayloadMissingRequired(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
		field   string
	}{
		{"no unitId", map[string]any{"actionId": "A1"}, "unitId"},
		{"empty unitId", map[string]any{"unitId": "  ", "actionId": "A1"}, "unitId"},
		{"null unitId", map[string]any{"unitId": nil, "actionId": "A1"}, "unitId"},
		{"no actionId", map[string]any{"unitId": "U1"}, "actionId"},
		{"empty actionId", map[string]any{"unitId": "U1", "actionId": ""}, "actionId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Payload(tc.payload)
			de := mustKind(t, err, domain.KindMissingField)
			if de.Field != tc.field {
				t.Fatalf("field = %q, want %q", de.Field, tc.field)
			}
		})
	}
}

func TestPayloadRequiredOnly(t *testing.T) {
	f, err := Payload(map[string]any{"unitId": "U1", "actionId": "A1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.UnitID != "U1" || f.ActionID != "A1" {
		t.Fatalf("unexpected fields: %+v", f)
	}
	// Absent optionals must stay absent, not become empty values.
	if f.ServiceDate != nil || f.ServiceTime != nil || f.ServiceDuration != nil ||
		f.ServiceStatus != nil || f.EmployeeID != nil || f.ServiceNotes != nil {
		t.Fatalf("optional fields should be nil: %+v", f)
	}
}

func TestPayloadFullSet(t *testing.T) {
	f, err := Payload(map[string]any{
		"unitId":          "U1",
		"actionId":        "A1",
		"serviceDate":     "2026-03-14",
		"serviceTime":     "09:30:00",
		"serviceDuration": float64(45),
		"serviceStatus":   "scheduled",
		"employeeId":      "E7",
		"serviceNotes":    "bring ladder",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *f.ServiceDate != "2026-03-14" || *f.ServiceTime != "09:30:00" {
		t.Fatalf("date/time mismatch: %+v", f)
	}
	if *f.ServiceDuration != 45 {
		t.Fatalf("duration = %d, want 45", *f.ServiceDuration)
	}
	if *f.ServiceStatus != "scheduled" || *f.EmployeeID != "E7" || *f.ServiceNotes != "bring ladder" {
		t.Fatalf("string optionals mismatch: %+v", f)
	}
}

func TestPayloadDateValidation(t *testing.T) {
	for _, bad := range []string{"14-03-2026", "2026/03/14", "tomorrow", "2026-3-4"} {
		_, err := Payload(map[string]any{"unitId": "U1", "actionId": "A1", "serviceDate": bad})
		de := mustKind(t, err, domain.KindInvalidFieldType)
		if de.Field != "serviceDate" {
			t.Fatalf("field = %q, want serviceDate", de.Field)
		}
	}
}

func TestPayloadTimeValidation(t *testing.T) {
	valid := []string{"00:00:00", "23:59:59", "09:30:00.250", "12:00:00Z", "12:00:00+02:00"}
	for _, v := range valid {
		if _, err := Payload(map[string]any{"unitId": "U1", "actionId": "A1", "serviceTime": v}); err != nil {
			t.Fatalf("time %q rejected: %v", v, err)
		}
	}
	invalid := []string{"9:30", "31:00:00", "noonish", "12:00"}
	for _, v := range invalid {
		_, err := Payload(map[string]any{"unitId": "U1", "actionId": "A1", "serviceTime": v})
		mustKind(t, err, domain.KindInvalidFieldType)
	}
}

func TestPayloadDurationForms(t *testing.T) {
	// Decoded JSON numbers arrive as float64; strings holding digits are
	// accepted too.
	for _, v := range []any{float64(30), "30"} {
		f, err := Payload(map[string]any{"unitId": "U1", "actionId": "A1", "serviceDuration": v})
		if err != nil {
			t.Fatalf("duration %v rejected: %v", v, err)
		}
		if *f.ServiceDuration != 30 {
			t.Fatalf("duration = %d, want 30", *f.ServiceDuration)
		}
	}
	for _, v := range []any{"soon", 12.5, true, []any{1}} {
		_, err := Payload(map[string]any{"unitId": "U1", "actionId": "A1", "serviceDuration": v})
		de := mustKind(t, err, domain.KindInvalidFieldType)
		if de.Field != "serviceDuration" {
			t.Fatalf("field = %q, want serviceDuration", de.Field)
		}
	}
}

func TestPayloadWrongTypes(t *testing.T) {
	_, err := Payload(map[string]any{"unitId": 7, "actionId": "A1"})
	mustKind(t, err, domain.KindInvalidFieldType)

	_, err = Payload(map[string]any{"unitId": "U1", "actionId": "A1", "serviceNotes": 12})
	de := mustKind(t, err, domain.KindInvalidFieldType)
	if de.Field != "serviceNotes" {
		t.Fatalf("field = %q, want serviceNotes", de.Field)
	}
}

func TestPayloadEmptyOptionalRejected(t *testing.T) {
	for _, field := range []string{"serviceStatus", "employeeId", "serviceNotes", "serviceDate", "serviceTime"} {
		_, err := Payload(map[string]any{"unitId": "U1", "actionId": "A1", field: ""})
		de := mustKind(t, err, domain.KindInvalidFieldType)
		if de.Field != field {
			t.Fatalf("field = %q, want %q", de.Field, field)
		}
	}

	// null is still plain omission, not an empty value.
	f, err := Payload(map[string]any{"unitId": "U1", "actionId": "A1", "serviceStatus": nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.ServiceStatus != nil {
		t.Fatalf("null optional should stay absent, got %q", *f.ServiceStatus)
	}
}
