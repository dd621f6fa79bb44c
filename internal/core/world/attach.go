package world

// Attachable entities are told which world owns them. Attach runs once the
// world has adopted the entity and Detach runs just before the world drops
// its share, on Despawn or Shutdown.
type Attachable interface {
	Attach(w *World)
	Detach()
}

// Attachment is an embeddable Attachable that remembers the owning world.
type Attachment struct {
	world *World
}

func (a *Attachment) Attach(w *World) { a.world = w }
func (a *Attachment) Detach()         { a.world = nil }

// World returns the owning world, or nil when detached.
func (a *Attachment) World() *World { return a.world }

// Attached reports whether a world currently owns the entity.
func (a *Attachment) Attached() bool { return a.world != nil }
