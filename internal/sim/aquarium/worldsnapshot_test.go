package aquarium

import (
	"path/filepath"
	"testing"

	"fishtank.gg/internal/persistence/snapshot"
)

func TestSnapshot_RoundTripThroughDisk(t *testing.T) {
	w := newTestWorld(t, nil)
	fish := mustFish(t, w, "clownfish", 120, 80)
	fish.Name = "Nemo"
	fish.Hunger = 0.42
	fish.Health = 0.9
	fish.Relationships["alice"] = 0.3

	food := newPellet(w, 300, 10, "alice")
	w.AddObject(food)
	coin := newCoin(w, 50, 500)
	w.AddObject(coin)
	chest := newTreasureChest(w, CreateSpec{HasPos: true, X: 600, Y: 400})
	w.AddObject(chest)
	chest.State = ChestFull
	chest.Value = 0.19
	tap := newTap(w, 10, 10, "bob")
	w.AddObject(tap)

	snap := w.ExportSnapshot()
	path := filepath.Join(t.TempDir(), "tank.snap.zst")
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	w2 := newTestWorld(t, nil)
	w2.ImportSnapshot(loaded)

	if len(w2.entities) != len(w.entities) {
		t.Fatalf("entity count after restore = %d, want %d", len(w2.entities), len(w.entities))
	}

	e, ok := w2.entities[fish.ID]
	if !ok {
		t.Fatalf("fish identity lost across restore")
	}
	f2 := e.(*Fish)
	if f2.Name != "Nemo" || f2.Species != "clownfish" {
		t.Fatalf("fish identity fields lost: %q %q", f2.Name, f2.Species)
	}
	if !approx(f2.Hunger, 0.42, 1e-9) || !approx(f2.Health, 0.9, 1e-9) {
		t.Fatalf("fish vitals lost: hunger %v health %v", f2.Hunger, f2.Health)
	}
	if !approx(f2.Relationships["alice"], 0.3, 1e-9) {
		t.Fatalf("relationships lost")
	}
	if f2.X != 120 || f2.Y != 80 {
		t.Fatalf("fish position lost: (%v,%v)", f2.X, f2.Y)
	}

	c2, ok := w2.entities[chest.ID].(*TreasureChest)
	if !ok {
		t.Fatalf("chest lost across restore")
	}
	if c2.State != ChestFull || !approx(c2.Value, 0.19, 1e-9) {
		t.Fatalf("chest state lost: %q %v", c2.State, c2.Value)
	}

	if _, ok := w2.entities[coin.ID]; !ok {
		t.Fatalf("coin lost across restore")
	}
	t2, ok := w2.entities[tap.ID].(*Tap)
	if !ok || t2.Username != "bob" {
		t.Fatalf("tap lost across restore")
	}
}

func TestSnapshot_UnknownSpeciesIsSkipped(t *testing.T) {
	w := newTestWorld(t, nil)

	snap := snapshot.SnapshotV1{
		Fish: []snapshot.FishV1{
			{ThingV1: snapshot.ThingV1{ID: "ghost", Width: 50}, Species: "extinct_tetra"},
			{ThingV1: snapshot.ThingV1{ID: "ok", X: 10, Y: 10, Width: 72}, Species: "guppy", Health: 1},
		},
	}
	w.ImportSnapshot(snap)

	if _, ok := w.entities["ghost"]; ok {
		t.Fatalf("unknown species must be skipped")
	}
	if _, ok := w.entities["ok"]; !ok {
		t.Fatalf("known species must be restored")
	}
}
