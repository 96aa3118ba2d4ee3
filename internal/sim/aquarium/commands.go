package aquarium

// Command verbs the simulation loop understands. Producers are request
// handlers; the loop is the only consumer. Unknown verbs are logged and
// skipped, and a command naming an entity that no longer exists is a no-op
// (it may have been removed by an earlier command in the same drain batch).
const (
	VerbCreate = "create"
	VerbTap    = "tap"
	VerbPickup = "pickup"
	VerbUse    = "use"
	VerbResync = "resync"
)

// Command is one externally triggered intent. The transport layer validates
// that Username matches the authenticated session before enqueueing; the
// simulation trusts queue contents completely.
type Command struct {
	Verb string `json:"verb"`

	// create
	Kind string     `json:"kind,omitempty"`
	Spec CreateSpec `json:"spec,omitempty"`

	// tap / use
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
	Tool string  `json:"tool,omitempty"`

	// pickup
	TargetID string `json:"target_id,omitempty"`

	Username string `json:"username,omitempty"`
}

func (w *World) applyCommand(cmd Command) {
	switch cmd.Verb {
	case VerbCreate:
		factory, ok := w.registry[cmd.Kind]
		if !ok {
			w.log.Printf("create: unknown kind %q, dropping", cmd.Kind)
			return
		}
		e, err := factory(w, cmd.Spec)
		if err != nil {
			w.log.Printf("create %s: %v", cmd.Kind, err)
			return
		}
		w.AddObject(e)

	case VerbTap:
		w.AddObject(newTap(w, cmd.X, cmd.Y, cmd.Username))

	case VerbPickup:
		e, ok := w.entities[cmd.TargetID]
		if !ok {
			return // already gone; not an error
		}
		e.Interact(cmd.Username)

	case VerbUse:
		tool, ok := w.tune.Tools[cmd.Tool]
		if !ok {
			w.log.Printf("use: unknown tool %q, dropping", cmd.Tool)
			return
		}
		factory, ok := w.registry[tool.Spawns]
		if !ok {
			w.log.Printf("use: tool %q spawns unknown kind %q", cmd.Tool, tool.Spawns)
			return
		}
		e, err := factory(w, CreateSpec{X: cmd.X, Y: cmd.Y, HasPos: true, Username: cmd.Username})
		if err != nil {
			w.log.Printf("use %s: %v", cmd.Tool, err)
			return
		}
		w.AddObject(e)

	case VerbResync:
		w.forceSync = true

	default:
		w.log.Printf("unknown command verb %q, dropping", cmd.Verb)
	}
}
