// Package domain defines the persisted service-order record and the
// validated field set exchanged between the validator, the dispatcher, and
// the repositories. These types form the core data layer of the service-order
// backend.
package domain

import "time"

// Order represents one service-order row in the wide-column store.
//
// Fields:
//   - ID: generated UUID, the partition key (PK). Never client-supplied.
//   - CustomerID: owning customer, the sort key (SK) and grouping key for
//     by-customer retrieval. (ID, CustomerID) is immutable after creation.
//   - LocationID: plain attribute recorded at creation for later filtering;
//     not part of the key.
//   - UnitID / ActionID: required identifiers of the serviced unit and the
//     action to perform.
//   - CreatedAt: set once at creation. UpdatedAt: overwritten on every
//     update. DeletedAt: soft-delete tombstone; its presence marks the
//     record logically deleted (rows are never physically removed).
//
// Optional attributes are pointers so that "absent" survives marshalling:
// a nil field is omitted from the stored item and from JSON responses
// rather than written as null or an empty string.
type Order struct {
	ID              string  `json:"id"                        dynamodbav:"PK"`
	CustomerID      string  `json:"customerId"                dynamodbav:"SK"`
	LocationID      *string `json:"locationId,omitempty"      dynamodbav:"locationId,omitempty"`
	UnitID          string  `json:"unitId"                    dynamodbav:"unitId"`
	ActionID        string  `json:"actionId"                  dynamodbav:"actionId"`
	ServiceDate     *string `json:"serviceDate,omitempty"     dynamodbav:"serviceDate,omitempty"`
	ServiceTime     *string `json:"serviceTime,omitempty"     dynamodbav:"serviceTime,omitempty"`
	ServiceDuration *int    `json:"serviceDuration,omitempty" dynamodbav:"serviceDuration,omitempty"`
	ServiceStatus   *string `json:"serviceStatus,omitempty"   dynamodbav:"serviceStatus,omitempty"`
	EmployeeID      *string `json:"employeeId,omitempty"      dynamodbav:"employeeId,omitempty"`
	ServiceNotes    *string `json:"serviceNotes,omitempty"    dynamodbav:"serviceNotes,omitempty"`
	CreatedAt       string  `json:"createdAt"                 dynamodbav:"createdAt"`
	UpdatedAt       *string `json:"updatedAt,omitempty"       dynamodbav:"updatedAt,omitempty"`
	DeletedAt       *string `json:"deletedAt,omitempty"       dynamodbav:"deletedAt,omitempty"`
}

// Fields is the validated, normalized payload of a create or update request.
// It carries only the fields that were present in the request: optional
// members stay nil when the request omitted them, which is how partial
// updates know which attributes to touch and which to leave alone.
type Fields struct {
	UnitID          string
	ActionID        string
	ServiceDate     *string
	ServiceTime     *string
	ServiceDuration *int
	ServiceStatus   *string
	EmployeeID      *string
	ServiceNotes    *string
}

// NewOrder builds the stored item for a create: the composite key, the
// validated fields, the optional location attribute, and the creation
// timestamp. Absent optional fields do not appear on the result.
func NewOrder(id, customerID string, locationID *string, f Fields, createdAt string) Order {
	return Order{
		ID:              id,
		CustomerID:      customerID,
		LocationID:      locationID,
		UnitID:          f.UnitID,
		ActionID:        f.ActionID,
		ServiceDate:     f.ServiceDate,
		ServiceTime:     f.ServiceTime,
		ServiceDuration: f.ServiceDuration,
		ServiceStatus:   f.ServiceStatus,
		EmployeeID:      f.EmployeeID,
		ServiceNotes:    f.ServiceNotes,
		CreatedAt:       createdAt,
	}
}

// Merge applies the field set over an existing order as a partial update:
// required identifiers are always replaced, optional attributes only when
// present in the set. Keys, LocationID, CreatedAt and DeletedAt are never
// touched here.
func (f Fields) Merge(o *Order) {
	o.UnitID = f.UnitID
	o.ActionID = f.ActionID
	if f.ServiceDate != nil {
		o.ServiceDate = f.ServiceDate
	}
	if f.ServiceTime != nil {
		o.ServiceTime = f.ServiceTime
	}
	if f.ServiceDuration != nil {
		o.ServiceDuration = f.ServiceDuration
	}
	if f.ServiceStatus != nil {
		o.ServiceStatus = f.ServiceStatus
	}
	if f.EmployeeID != nil {
		o.EmployeeID = f.EmployeeID
	}
	if f.ServiceNotes != nil {
		o.ServiceNotes = f.ServiceNotes
	}
}

// Timestamp renders t in the ISO-8601 form used for createdAt, updatedAt
// and deletedAt attributes.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
