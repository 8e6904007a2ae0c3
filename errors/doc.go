// Package errors provides the structured error type used across aggkit.
// Builder failures carry a machine-readable code plus the stage and field
// they concern, so callers can branch on configuration versus validation
// problems without parsing messages.
package errors
