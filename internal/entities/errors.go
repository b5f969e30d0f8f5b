package entities

import "errors"

var (
	// ErrUnknownKind indicates an entity type tag outside the closed set.
	ErrUnknownKind = errors.New("entities: unknown entity kind")
	// ErrNotConfigured indicates no root company is known yet.
	ErrNotConfigured = errors.New("entities: accounting scope not configured")
)
