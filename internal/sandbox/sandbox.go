// Package sandbox provides small entity kinds used by the demo binaries.
package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeusync/ownership/internal/core/identity"
	"github.com/zeusync/ownership/internal/core/models"
)

const (
	KindDrifter = "drifter"
	KindBeacon  = "beacon"
)

// Kinds lists the factories for every sandbox kind.
func Kinds() map[string]models.Factory {
	return map[string]models.Factory{
		KindDrifter: func(id identity.Identity) models.Entity { return RestoreDrifter(id) },
		KindBeacon:  func(id identity.Identity) models.Entity { return RestoreBeacon(id) },
	}
}

// Registrar is what a world offers for kind registration.
type Registrar interface {
	RegisterKind(kind string, factory models.Factory) error
}

// Register adds every sandbox kind to r.
func Register(r Registrar) error {
	var errs []error
	for kind, factory := range Kinds() {
		if err := r.RegisterKind(kind, factory); err != nil {
			errs = append(errs, fmt.Errorf("register %s: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
