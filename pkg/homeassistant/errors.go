package homeassistant

import "errors"

var (
	// ErrEntityNotFound is returned when Home Assistant does not know the entity.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrAttributeNotFound is returned when the entity has no such attribute.
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrUnauthorized is returned when the access token is rejected.
	ErrUnauthorized = errors.New("unauthorized")
)
