package aquarium

import "fmt"

// CreateSpec carries the constructor arguments a create command may supply.
// HasPos distinguishes an explicit spawn point from "pick one".
type CreateSpec struct {
	X, Y     float64
	HasPos   bool
	Username string
	Name     string
}

// Factory builds one entity kind. Factories never register the entity; the
// caller adds it to the world so command handling stays in one place.
type Factory func(w *World, spec CreateSpec) (Entity, error)

// buildRegistry maps every spawnable kind to its factory. Species come from
// tuning; the inert kinds are fixed. Store and tool references are validated
// here so a bad catalog fails at startup instead of mid-tick.
func (w *World) buildRegistry() error {
	reg := map[string]Factory{
		"flake": func(w *World, spec CreateSpec) (Entity, error) {
			return newFlake(w, spec.X, spec.Y, spec.Username), nil
		},
		"pellet": func(w *World, spec CreateSpec) (Entity, error) {
			return newPellet(w, spec.X, spec.Y, spec.Username), nil
		},
		"coin": func(w *World, spec CreateSpec) (Entity, error) {
			return newCoin(w, spec.X, spec.Y), nil
		},
		"treasure_chest": func(w *World, spec CreateSpec) (Entity, error) {
			return newTreasureChest(w, spec), nil
		},
		"bubble": func(w *World, spec CreateSpec) (Entity, error) {
			return newBubble(w, spec.X, spec.Y), nil
		},
		"tap": func(w *World, spec CreateSpec) (Entity, error) {
			return newTap(w, spec.X, spec.Y, spec.Username), nil
		},
	}

	for name := range w.tune.Species {
		if _, taken := reg[name]; taken {
			return fmt.Errorf("species %q collides with a built-in kind", name)
		}
		species := name
		reg[species] = func(w *World, spec CreateSpec) (Entity, error) {
			return newFish(w, species, spec)
		}
	}

	for name, tool := range w.tune.Tools {
		if _, ok := reg[tool.Spawns]; !ok {
			return fmt.Errorf("tool %q spawns unknown kind %q", name, tool.Spawns)
		}
	}
	for _, item := range w.tune.Store {
		if _, ok := reg[item.Kind]; !ok {
			return fmt.Errorf("store item %q sells unknown kind %q", item.Name, item.Kind)
		}
	}

	w.registry = reg
	return nil
}
