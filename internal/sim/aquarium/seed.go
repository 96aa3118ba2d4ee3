package aquarium

import "sort"

// SeedStarterTank populates a brand-new tank: one fish of each configured
// species and a treasure chest. Called before Run when no snapshot exists.
func (w *World) SeedStarterTank() {
	species := make([]string, 0, len(w.tune.Species))
	for name := range w.tune.Species {
		species = append(species, name)
	}
	sort.Strings(species)
	for _, name := range species {
		f, err := newFish(w, name, CreateSpec{})
		if err != nil {
			w.log.Printf("seed %s: %v", name, err)
			continue
		}
		w.AddObject(f)
	}
	w.AddObject(newTreasureChest(w, CreateSpec{}))
	w.updates = w.updates[:0]
}
