// Package domain – error taxonomy.
//
// This file centralizes the failure classes shared by the validator, the
// key deriver, the repositories and the dispatcher, so each layer returns
// the same structured errors and the dispatcher can map them to HTTP
// statuses consistently. The Kind string is wire-visible: it is returned
// verbatim as "errorKind" in error response bodies.
package domain

import (
	"errors"
	"fmt"
)

// Kind identifies one failure class.
type Kind string

const (
	KindMalformedBody      Kind = "MalformedBody"
	KindMissingField       Kind = "MissingField"
	KindInvalidFieldType   Kind = "InvalidFieldType"
	KindInvalidIdentifier  Kind = "InvalidIdentifier"
	KindNotFound           Kind = "NotFound"
	KindStoreReadFailed    Kind = "StoreReadFailed"
	KindStoreWriteFailed   Kind = "StoreWriteFailed"
	KindUnsupportedMethod  Kind = "UnsupportedMethod"
	KindConfigLookupFailed Kind = "ConfigLookupFailed"
)

// Error is a classified failure. Field is set when the failure concerns a
// single payload field; Err preserves the underlying cause for wrapping.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the taxonomy kind from err. ok is false when err does not
// carry a *Error anywhere in its chain.
func KindOf(err error) (kind Kind, ok bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// MalformedBody reports a request body that is missing, not valid JSON, or
// not a JSON object.
func MalformedBody(msg string) *Error {
	return &Error{Kind: KindMalformedBody, Message: msg}
}

// MissingField reports a required field or parameter that is absent or empty.
func MissingField(field string) *Error {
	return &Error{
		Kind:    KindMissingField,
		Field:   field,
		Message: "missing required field: " + field,
	}
}

// InvalidFieldType reports a present field whose value does not match its
// declared type; want names the expected shape ("integer", "ISO 8601 date", ...).
func InvalidFieldType(field, want string) *Error {
	return &Error{
		Kind:    KindInvalidFieldType,
		Field:   field,
		Message: fmt.Sprintf("field %s must be %s", field, want),
	}
}

// InvalidIdentifier reports a path segment that is not a syntactically valid
// identifier.
func InvalidIdentifier(what string) *Error {
	return &Error{Kind: KindInvalidIdentifier, Message: "invalid identifier: " + what}
}

// NotFound reports a record that does not exist under the addressed key.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// StoreReadFailed wraps an underlying store error on a read path.
func StoreReadFailed(err error) *Error {
	return &Error{Kind: KindStoreReadFailed, Message: "store read failed", Err: err}
}

// StoreWriteFailed wraps an underlying store error on a write path.
func StoreWriteFailed(err error) *Error {
	return &Error{Kind: KindStoreWriteFailed, Message: "store write failed", Err: err}
}

// UnsupportedMethod reports a request method outside the supported verb set.
func UnsupportedMethod(method string) *Error {
	return &Error{Kind: KindUnsupportedMethod, Message: "unsupported method: " + method}
}

// ConfigLookupFailed reports a missing physical store name; without it no
// operation is possible, so the whole invocation fails.
func ConfigLookupFailed(key string, err error) *Error {
	return &Error{
		Kind:    KindConfigLookupFailed,
		Message: "config lookup failed for " + key,
		Err:     err,
	}
}
