package aquarium

import (
	"fmt"
	"math"

	"fishtank.gg/internal/protocol"
	"fishtank.gg/internal/sim/geom"
	"fishtank.gg/internal/sim/tuning"
)

// Fish behavior states. The state is re-derived every tick from world
// conditions by chooseState; it is not a persistent transition graph.
const (
	StateIdle    = "idle"
	StateFeeding = "feeding"
	StateFleeing = "fleeing"
	StatePlaying = "playing"
)

// idleArriveRadius is the distance at which an idle fish considers its
// wander destination reached and picks a new one.
const idleArriveRadius = 10

// fleeOffset is how far past the threat's reciprocal bearing a fleeing fish
// aims.
const fleeOffset = 100

type Fish struct {
	Thing

	Species string
	Name    string
	cfg     tuning.SpeciesDef

	State  string
	Health float64
	Hunger float64

	// Relationships maps username -> affinity in [0,1]; grown by feeding.
	Relationships map[string]float64

	// Weak references to this state's targets: identities looked up against
	// the live entity map every tick, never held pointers.
	foodID      string
	predatorID  string
	playthingID string

	dead bool
}

func newFish(w *World, species string, spec CreateSpec) (*Fish, error) {
	cfg, ok := w.tune.Species[species]
	if !ok {
		return nil, fmt.Errorf("unknown species %q", species)
	}
	name := spec.Name
	if name == "" {
		name = species
	}
	f := &Fish{
		Thing:         newThing(w, []string{TagThing, TagFish, species}, cfg.Sprite, cfg.AspectRatio, cfg.Width),
		Species:       species,
		Name:          name,
		cfg:           cfg,
		State:         StateIdle,
		Health:        1,
		Hunger:        0,
		Relationships: map[string]float64{},
	}
	if spec.HasPos {
		f.X, f.Y = f.clampX(spec.X), f.clampY(spec.Y)
	} else {
		f.X, f.Y = f.randomPoint()
	}
	f.DestX, f.DestY = f.X, f.Y
	return f, nil
}

// Happiness is derived, never stored: the affinity of everyone currently
// watching the tank plus bonuses for being fed and healthy.
func (f *Fish) Happiness() float64 {
	total := 0.0
	if f.world.users != nil {
		for _, username := range f.world.users.OnlineUsers() {
			total += f.Relationships[username]
		}
	}
	total += f.cfg.HungerHappinessBonus * (1 - f.Hunger)
	total += f.cfg.HealthHappinessBonus * f.Health
	return total
}

func (f *Fish) Update(dt float64) bool {
	f.dirty = false

	f.updateHealth(dt)
	if f.dead {
		return false
	}
	f.updateHunger(dt)
	f.maybeDropCoin(dt)
	f.chooseState()

	switch f.State {
	case StateIdle:
		f.idle(dt)
	case StateFeeding:
		f.feeding(dt)
	case StateFleeing:
		f.fleeing(dt)
	case StatePlaying:
		f.playing(dt)
	default:
		f.world.log.Printf("fish %s: unknown state %q, falling back to idle", f.ID, f.State)
		f.State = StateIdle
		f.idle(dt)
	}
	return f.dirty
}

// updateHealth applies the hunger/happiness economics: health recovers when
// the fish is fed and happy, decays when starving or miserable. Crossing
// zero kills the fish exactly once.
func (f *Fish) updateHealth(dt float64) {
	f.Health += ((0.5-f.Hunger)*f.cfg.StarveRate - (0.5-f.Happiness())*f.cfg.HappinessHealthRate) * dt
	if f.Health <= 0 {
		f.die()
		return
	}
	f.Health = clamp01(f.Health)
}

func (f *Fish) updateHunger(dt float64) {
	f.Hunger += f.cfg.HungerRate * f.Speed * dt
	f.Hunger = clamp01(f.Hunger)
}

func (f *Fish) maybeDropCoin(dt float64) {
	if f.cfg.CoinEverySecs <= 0 {
		return
	}
	if f.world.rng.Float64() < dt/f.cfg.CoinEverySecs {
		f.world.AddObject(newCoin(f.world, f.X, f.Y))
	}
}

// chooseState re-derives the behavior state from current world conditions.
// The flee-vs-feed priority and all thresholds come from species tuning.
func (f *Fish) chooseState() {
	food, _ := f.findFood()

	var threat Entity
	if pred, dist := f.world.findClosest(&f.Thing, TagThing, TagFish); pred != nil {
		if dist < f.cfg.FleeRadius && pred.Base().Width > f.cfg.FleeSizeRatio*f.Width {
			threat = pred
		}
	}

	pick := func(e Entity) string { return e.Base().ID }

	first, second := food, threat
	firstState, secondState := StateFeeding, StateFleeing
	if f.cfg.FleeFirst {
		first, second = threat, food
		firstState, secondState = StateFleeing, StateFeeding
	}
	if first != nil {
		f.setState(firstState, pick(first))
		return
	}
	if second != nil {
		f.setState(secondState, pick(second))
		return
	}

	if tap, _ := f.world.findClosest(&f.Thing, TagThing, TagTap); tap != nil {
		username := ""
		if t, ok := tap.(*Tap); ok {
			username = t.Username
		}
		if f.Relationships[username] >= f.cfg.PlayRelationshipMin {
			f.setState(StatePlaying, pick(tap))
		} else {
			// Stranger knocking on the glass: treat the tap as a threat.
			f.setState(StateFleeing, pick(tap))
		}
		return
	}

	f.State = StateIdle
}

func (f *Fish) setState(state, targetID string) {
	f.State = state
	switch state {
	case StateFeeding:
		f.foodID = targetID
	case StateFleeing:
		f.predatorID = targetID
	case StatePlaying:
		f.playthingID = targetID
	}
}

// findFood walks the species' ordered food preferences; each entry is gated
// on hunger. A fish-eating preference only matches strictly smaller fish.
func (f *Fish) findFood() (Entity, float64) {
	for _, pref := range f.cfg.FoodPreferences {
		if f.Hunger <= pref.MinHunger {
			continue
		}
		e, dist := f.world.findClosest(&f.Thing, pref.Tags...)
		if e == nil {
			continue
		}
		if e.Base().HasTags(TagFish) && e.Base().Width >= f.Width {
			continue
		}
		return e, dist
	}
	return nil, math.Inf(1)
}

func (f *Fish) idle(dt float64) {
	if geom.Distance(f.X, f.Y, f.DestX, f.DestY) < idleArriveRadius {
		f.DestX, f.DestY = f.randomPoint()
		f.Speed = f.world.rng.Float64()*(f.cfg.MaxSpeed/4) + f.cfg.MaxSpeed/4
		f.dirty = true
	}
	f.moveToward(dt)
}

func (f *Fish) feeding(dt float64) {
	// Chasing food moves every tick; keep the clients interpolating.
	f.dirty = true
	target, ok := f.stillPresent(f.foodID)
	if !ok {
		f.State = StateIdle
		f.foodID = ""
		return
	}
	if f.collides(target.Base()) {
		f.eat(target)
		f.State = StateIdle
		f.foodID = ""
		return
	}
	f.setDestination(target.Base(), f.cfg.MaxSpeed)
	f.moveToward(dt)
}

func (f *Fish) fleeing(dt float64) {
	f.dirty = true
	threat, ok := f.stillPresent(f.predatorID)
	if !ok {
		f.State = StateIdle
		f.predatorID = ""
		return
	}
	f.fleeDestination(threat.Base(), fleeOffset, f.cfg.MaxSpeed)
	f.moveToward(dt)
}

func (f *Fish) playing(dt float64) {
	target, ok := f.stillPresent(f.playthingID)
	if !ok {
		f.State = StateIdle
		f.playthingID = ""
		return
	}
	f.setDestination(target.Base(), f.cfg.MaxSpeed)
	f.moveToward(dt)
}

// eat consumes a colliding target: hunger drops by its nutrition, the feeder
// relationship grows by the same amount, and the target leaves the world
// (eaten fish die through their own death path).
func (f *Fish) eat(target Entity) {
	nutrition := target.Base().Width / 100
	feeder := ""
	if food, ok := target.(*Food); ok {
		nutrition = food.Nutrition
		feeder = food.Username
	}
	if feeder != "" {
		f.Relationships[feeder] = clamp01(f.Relationships[feeder] + nutrition)
	}
	f.Hunger = clamp01(f.Hunger - nutrition)
	if prey, ok := target.(*Fish); ok {
		prey.die()
	} else {
		f.world.RemoveObject(target)
	}
	f.dirty = true
}

// die removes the fish and leaves a skeleton sinking from its last position.
// Guarded so a fish dies at most once per lifetime.
func (f *Fish) die() {
	if f.dead {
		return
	}
	f.dead = true
	f.world.RemoveObject(f.self)
	f.world.AddObject(newSkeleton(f.world, f))
}

func (f *Fish) Summarize() protocol.EntitySummary {
	s := f.summaryBase()
	s["species"] = f.Species
	s["fish_name"] = f.Name
	s["state"] = f.State
	s["health"] = f.Health
	s["hunger"] = f.Hunger
	s["happiness"] = f.Happiness()
	s["relationships"] = f.Relationships
	return s
}

func clamp01(v float64) float64 {
	return geom.Clamp(v, 0, 1)
}
