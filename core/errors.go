// Package core provides the fundamental version types and errors for promptdiff.
package core

import "errors"

// Sentinel errors for store and diff operations.
var (
	// ErrNotInitialized is returned when the store root has not been created yet.
	ErrNotInitialized = errors.New("not a promptdiff store: run init first")
	// ErrPromptNotFound is returned when a prompt name has no history.
	ErrPromptNotFound = errors.New("prompt not found")
	// ErrVersionNotFound is returned when a known prompt has no such version number.
	ErrVersionNotFound = errors.New("version not found")
	// ErrDataInconsistency is returned when version metadata references a
	// content blob that is missing. It signals corruption and is never
	// recovered from silently.
	ErrDataInconsistency = errors.New("store metadata inconsistent with content")
	// ErrFeatureUnavailable is returned when an optional collaborator
	// (e.g. an embedding provider) is required but not configured.
	ErrFeatureUnavailable = errors.New("feature not available")
)
