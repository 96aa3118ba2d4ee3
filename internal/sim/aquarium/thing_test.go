package aquarium

import "testing"

func TestThing_HasTags(t *testing.T) {
	w := newTestWorld(t, nil)
	f := mustFish(t, w, "clownfish", 100, 100)

	if !f.HasTags(TagThing) {
		t.Fatalf("expected Thing tag")
	}
	if !f.HasTags(TagFish, TagThing) {
		t.Fatalf("tag containment should ignore order")
	}
	if !f.HasTags("clownfish") {
		t.Fatalf("species tag missing")
	}
	if f.HasTags(TagFood) {
		t.Fatalf("fish is not food")
	}
}

func TestThing_MoveTowardSnapsOnOvershoot(t *testing.T) {
	w := newTestWorld(t, nil)
	food := newFlake(w, 100, 100, "alice")
	w.AddObject(food)

	food.DestX, food.DestY = 103, 100
	food.Speed = 100

	// 100 px/s for 1s wildly overshoots a 3 px trip; the position must snap
	// to the destination, not oscillate past it.
	food.moveToward(1.0)
	if food.X != 103 || food.Y != 100 {
		t.Fatalf("expected snap to (103,100), got (%v,%v)", food.X, food.Y)
	}
}

func TestThing_PositionClampedToTank(t *testing.T) {
	w := newTestWorld(t, nil)
	food := newFlake(w, 5000, -200, "alice")
	w.AddObject(food)

	maxX := w.tune.WorldWidth - food.Width
	if food.X != maxX {
		t.Fatalf("x not clamped: got %v want %v", food.X, maxX)
	}
	if food.Y != 0 {
		t.Fatalf("y not clamped: got %v want 0", food.Y)
	}
}

func TestThing_LifetimeExpires(t *testing.T) {
	w := newTestWorld(t, nil)
	tap := newTap(w, 50, 50, "alice")
	w.AddObject(tap)

	w.step(w.tune.Things.TapLifetime+0.1, nil)

	if _, ok := w.entities[tap.ID]; ok {
		t.Fatalf("tap should expire after its lifetime")
	}
}

func TestFood_FallsToFloor(t *testing.T) {
	w := newTestWorld(t, nil)
	food := newPellet(w, 100, 0, "alice")
	w.AddObject(food)

	floor := w.tune.WorldHeight - food.Height()
	if food.DestY != floor {
		t.Fatalf("pellet should sink to the floor: dest %v want %v", food.DestY, floor)
	}

	// Long enough for a 20 px/s pellet to cross the whole tank.
	for i := 0; i < 40; i++ {
		w.step(1.0, nil)
	}
	if food.Y != floor {
		t.Fatalf("pellet should rest on the floor: y %v want %v", food.Y, floor)
	}
}
