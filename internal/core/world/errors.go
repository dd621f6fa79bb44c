package world

import "errors"

var (
	ErrAlreadyRunning  = errors.New("world is already running")
	ErrKindRegistered  = errors.New("entity kind already registered")
	ErrEmptyKind       = errors.New("entity kind is empty")
	ErrUnknownKind     = errors.New("unknown entity kind")
	ErrNotSerializable = errors.New("entity is not serializable")
	ErrIDMismatch      = errors.New("factory returned an entity with a different identity")
)
