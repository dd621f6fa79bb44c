package sandbox

import (
	"encoding/json"

	"github.com/zeusync/ownership/internal/core/events/bus"
	"github.com/zeusync/ownership/internal/core/identity"
	"github.com/zeusync/ownership/internal/core/models"
)

// Beacon counts the events it receives, per event type.
type Beacon struct {
	models.Object
	Label    string            `json:"label"`
	Received map[string]uint64 `json:"received"`
}

func NewBeacon(gen identity.Generator, label string) *Beacon {
	return &Beacon{Object: models.NewObject(gen), Label: label, Received: make(map[string]uint64)}
}

func RestoreBeacon(id identity.Identity) *Beacon {
	return &Beacon{Object: models.RestoreObject(id), Received: make(map[string]uint64)}
}

func (b *Beacon) Kind() string { return KindBeacon }

func (b *Beacon) HandleEvent(event bus.Event) error {
	b.Received[event.Type()]++
	return nil
}

func (b *Beacon) Serialize() ([]byte, error) {
	return json.Marshal(b)
}

func (b *Beacon) Deserialize(data []byte) error {
	if err := decode(data, b); err != nil {
		return err
	}
	if b.Received == nil {
		b.Received = make(map[string]uint64)
	}
	return nil
}
