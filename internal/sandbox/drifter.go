package sandbox

import (
	"encoding/json"
	"time"

	"github.com/zeusync/ownership/internal/core/identity"
	"github.com/zeusync/ownership/internal/core/models"
)

// Drifter moves at a constant velocity, in units per second.
type Drifter struct {
	models.Object
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

func NewDrifter(gen identity.Generator, vx, vy float64) *Drifter {
	return &Drifter{Object: models.NewObject(gen), VX: vx, VY: vy}
}

func RestoreDrifter(id identity.Identity) *Drifter {
	return &Drifter{Object: models.RestoreObject(id)}
}

func (d *Drifter) Kind() string { return KindDrifter }

func (d *Drifter) Update(dt time.Duration) {
	s := dt.Seconds()
	d.X += d.VX * s
	d.Y += d.VY * s
}

// Position is what a Drifter draws.
type Position struct {
	X, Y float64
}

func (d *Drifter) Render(canvas models.Canvas) {
	canvas.Draw(d.ID(), 0, Position{X: d.X, Y: d.Y})
}

func (d *Drifter) Serialize() ([]byte, error) {
	return json.Marshal(d)
}

func (d *Drifter) Deserialize(data []byte) error {
	return decode(data, d)
}
