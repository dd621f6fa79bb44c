package registry

import "errors"

var (
	ErrDuplicateIdentity       = errors.New("identity already registered")
	ErrZeroIdentity            = errors.New("entity has no identity")
	ErrMutationDuringIteration = errors.New("registry mutated during iteration")
)
