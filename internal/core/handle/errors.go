package handle

import "errors"

var (
	ErrEmptyHandle    = errors.New("handle is empty")
	ErrStaleReference = errors.New("weak reference is stale")
)
