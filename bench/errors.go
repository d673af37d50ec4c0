package bench

import "errors"

var (
	// ErrAccessNil indicates that a nil Access was provided.
	ErrAccessNil = errors.New("register access is nil")

	// ErrNoGroups indicates that a configuration has no register groups.
	ErrNoGroups = errors.New("no register groups configured")

	// ErrInvalidGroup indicates that a register group has an invalid start or count.
	ErrInvalidGroup = errors.New("invalid register group")

	// ErrInvalidOrder indicates that the visit order is not a permutation of the group indices.
	ErrInvalidOrder = errors.New("visit order is not a permutation of the groups")

	// ErrInvalidPacing indicates a negative delay or cycle count.
	ErrInvalidPacing = errors.New("delays and cycle count must not be negative")

	// ErrInvalidVariant indicates an unknown benchmark variant name.
	ErrInvalidVariant = errors.New("unknown benchmark variant")
)
