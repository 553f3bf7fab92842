package world

// Handler handles events that are called by a World. Implementations of
// Handler may be used to listen to specific events such as an entity being
// removed or two entities starting to touch.
type Handler interface {
	// HandleEntitySpawn handles an entity being added to the World.
	HandleEntitySpawn(tx *Tx, e Entity)
	// HandleEntityDespawn handles an entity being removed from the World. The
	// entity is still readable, but may no longer be used to modify the World.
	HandleEntityDespawn(tx *Tx, e Entity)
	// HandleCollision handles two entities starting to touch. It is called
	// before the entities themselves are notified.
	HandleCollision(tx *Tx, a, b Entity)
	// HandleClose handles the World being closed. HandleClose may be used as a
	// moment to finish code running on other goroutines that operates on the
	// World specifically.
	HandleClose(tx *Tx)
}

// Compile time check to make sure NopHandler implements Handler.
var _ Handler = (*NopHandler)(nil)

// nopHandler is the Handler stored by new Worlds.
var nopHandler Handler = NopHandler{}

// NopHandler implements the Handler interface but does not execute any code
// when an event is called. The default Handler of Worlds is set to NopHandler.
// Users may embed NopHandler to avoid having to implement each method.
type NopHandler struct{}

func (NopHandler) HandleEntitySpawn(*Tx, Entity)       {}
func (NopHandler) HandleEntityDespawn(*Tx, Entity)     {}
func (NopHandler) HandleCollision(*Tx, Entity, Entity) {}
func (NopHandler) HandleClose(*Tx)                     {}
