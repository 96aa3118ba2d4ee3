package aquarium

import "testing"

func TestFish_IdlePicksReachableDestination(t *testing.T) {
	w := newTestWorld(t, nil)
	f := mustFish(t, w, "clownfish", 300, 200)

	// Fresh fish spawn at their destination, so the first idle tick must
	// pick a new wander target and a bounded cruising speed.
	w.step(0.05, nil)

	if f.State != StateIdle {
		t.Fatalf("state = %q, want idle", f.State)
	}
	if f.DestX < 0 || f.DestX > w.tune.WorldWidth || f.DestY < 0 || f.DestY > w.tune.WorldHeight {
		t.Fatalf("destination out of tank: (%v,%v)", f.DestX, f.DestY)
	}
	max := f.cfg.MaxSpeed
	if f.Speed < max/4 || f.Speed > max/2 {
		t.Fatalf("idle speed %v outside [%v,%v]", f.Speed, max/4, max/2)
	}
}

func TestFish_EatsFoodAndBondsWithFeeder(t *testing.T) {
	w := newTestWorld(t, nil)
	f := mustFish(t, w, "clownfish", 100, 100)
	f.Hunger = 0.6

	food := newFlake(w, 100, 100, "alice")
	w.AddObject(food)

	w.step(0.05, nil)

	if _, ok := w.entities[food.ID]; ok {
		t.Fatalf("flake should be eaten")
	}
	if !approx(f.Hunger, 0.5, 1e-6) {
		t.Fatalf("hunger = %v, want 0.5", f.Hunger)
	}
	if !approx(f.Relationships["alice"], 0.1, 1e-9) {
		t.Fatalf("relationship = %v, want 0.1", f.Relationships["alice"])
	}
	if f.State != StateIdle {
		t.Fatalf("state after eating = %q, want idle", f.State)
	}
}

func TestFish_IgnoresFoodWhenNotHungry(t *testing.T) {
	w := newTestWorld(t, nil)
	f := mustFish(t, w, "clownfish", 100, 100)
	f.Hunger = 0.3 // below the clownfish 0.5 threshold

	food := newFlake(w, 100, 100, "alice")
	w.AddObject(food)

	w.step(0.05, nil)

	if _, ok := w.entities[food.ID]; !ok {
		t.Fatalf("flake should survive a sated fish")
	}
	if f.State == StateFeeding {
		t.Fatalf("sated fish should not feed")
	}
}

func TestFish_FleeFirstOutranksFood(t *testing.T) {
	w := newTestWorld(t, nil)
	guppy := mustFish(t, w, "guppy", 100, 100)
	guppy.Hunger = 0.5

	food := newFlake(w, 100, 100, "alice")
	w.AddObject(food)

	// Angelfish are wider than the guppy's flee_size_ratio allows.
	mustFish(t, w, "angelfish", 220, 100)

	guppy.chooseState()
	if guppy.State != StateFleeing {
		t.Fatalf("guppy state = %q, want fleeing", guppy.State)
	}
	if _, ok := w.entities[food.ID]; !ok {
		t.Fatalf("flake should be untouched while fleeing")
	}
}

func TestFish_ClownfishFeedsDespitePredator(t *testing.T) {
	w := newTestWorld(t, nil)
	clown := mustFish(t, w, "clownfish", 100, 100)
	clown.Hunger = 0.6

	food := newFlake(w, 100, 100, "alice")
	w.AddObject(food)

	// Wide enough to scare a guppy; clownfish chase food first.
	big := mustFish(t, w, "angelfish", 220, 100)
	big.Width = clown.Width*1.5 + 1

	clown.chooseState()
	if clown.State != StateFeeding {
		t.Fatalf("clownfish state = %q, want feeding", clown.State)
	}
}

func TestFish_StarvingAngelfishHuntsSmallerFish(t *testing.T) {
	w := newTestWorld(t, nil)
	angel := mustFish(t, w, "angelfish", 100, 100)
	angel.Hunger = 0.95

	prey := mustFish(t, w, "guppy", 150, 100)

	target, _ := angel.findFood()
	if target == nil || target.Base().ID != prey.ID {
		t.Fatalf("starving angelfish should target the guppy")
	}

	// A same-size fish is never prey.
	prey.Width = angel.Width
	if target, _ := angel.findFood(); target != nil {
		t.Fatalf("equal-size fish should not be prey, got %v", target.Base().ID)
	}
}

func TestFish_EatenFishLeavesSkeleton(t *testing.T) {
	w := newTestWorld(t, nil)
	angel := mustFish(t, w, "angelfish", 100, 100)
	angel.Hunger = 0.95
	prey := mustFish(t, w, "guppy", 100, 100)

	angel.chooseState()
	if angel.State != StateFeeding {
		t.Fatalf("angelfish state = %q, want feeding", angel.State)
	}
	angel.feeding(0.05)

	if _, ok := w.entities[prey.ID]; ok {
		t.Fatalf("prey should be gone")
	}
	if countTagged(w, TagSkeleton) != 1 {
		t.Fatalf("prey should leave exactly one skeleton")
	}
}

func TestFish_DiesOnceAndLeavesSkeleton(t *testing.T) {
	w := newTestWorld(t, nil)
	f := mustFish(t, w, "clownfish", 100, 100)
	f.Hunger = 1
	f.Health = 1e-9

	w.step(1.0, nil)

	if _, ok := w.entities[f.ID]; ok {
		t.Fatalf("starved fish should be removed")
	}
	if got := countTagged(w, TagSkeleton); got != 1 {
		t.Fatalf("skeletons = %d, want 1", got)
	}

	// A second death call must not mint another skeleton.
	f.die()
	if got := countTagged(w, TagSkeleton); got != 1 {
		t.Fatalf("skeletons after double die = %d, want 1", got)
	}
}

func TestFish_HungerAndHealthStayClamped(t *testing.T) {
	w := newTestWorld(t, newFakeUsers("alice"))
	f := mustFish(t, w, "clownfish", 100, 100)
	f.Relationships["alice"] = 1
	f.Hunger = 0
	f.Speed = 0

	// Well-fed, healthy, adored: health must cap at 1, hunger at 0.
	for i := 0; i < 100; i++ {
		f.updateHealth(1.0)
		f.updateHunger(1.0)
	}
	if f.Health > 1 || f.Health < 0 {
		t.Fatalf("health out of range: %v", f.Health)
	}
	if f.Hunger > 1 || f.Hunger < 0 {
		t.Fatalf("hunger out of range: %v", f.Hunger)
	}
}

func TestFish_TapInvitesFriendScaresStranger(t *testing.T) {
	w := newTestWorld(t, nil)
	f := mustFish(t, w, "clownfish", 100, 100)
	f.Relationships["alice"] = 0.2

	tap := newTap(w, 300, 100, "alice")
	w.AddObject(tap)

	f.chooseState()
	if f.State != StatePlaying {
		t.Fatalf("state = %q, want playing toward a friend's tap", f.State)
	}

	tap.Username = "bob"
	f.chooseState()
	if f.State != StateFleeing {
		t.Fatalf("state = %q, want fleeing from a stranger's tap", f.State)
	}
}

func TestFish_HappinessCountsOnlineUsersOnly(t *testing.T) {
	users := newFakeUsers("alice")
	w := newTestWorld(t, users)
	f := mustFish(t, w, "clownfish", 100, 100)
	f.Relationships["alice"] = 0.4
	f.Relationships["bob"] = 0.9 // offline, must not count
	f.Hunger = 0
	f.Health = 1

	want := 0.4 + 0.1 + 0.1
	if got := f.Happiness(); !approx(got, want, 1e-9) {
		t.Fatalf("happiness = %v, want %v", got, want)
	}
}

func countTagged(w *World, tag string) int {
	n := 0
	for _, e := range w.entities {
		if e.Base().HasTags(tag) {
			n++
		}
	}
	return n
}
