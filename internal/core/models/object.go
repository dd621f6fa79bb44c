package models

import "github.com/zeusync/ownership/internal/core/identity"

// Object is an embeddable base that fixes an entity's identity at construction.
type Object struct {
	id identity.Identity
}

// NewObject assigns a fresh identity from gen.
func NewObject(gen identity.Generator) Object {
	return Object{id: gen.Next()}
}

// RestoreObject rebuilds the base of an entity whose identity was persisted.
func RestoreObject(id identity.Identity) Object {
	return Object{id: id}
}

func (o Object) ID() identity.Identity { return o.id }
