package aquarium

import (
	"math"
	"time"

	"github.com/google/uuid"

	"fishtank.gg/internal/protocol"
	"fishtank.gg/internal/sim/geom"
)

// Capability tags. An entity's tag set answers "is this a Food / a Fish"
// queries by subset containment; species names are appended as extra tags.
const (
	TagThing    = "Thing"
	TagFish     = "Fish"
	TagFood     = "Food"
	TagFlake    = "Flake"
	TagPellet   = "Pellet"
	TagCoin     = "Coin"
	TagChest    = "TreasureChest"
	TagBubble   = "Bubble"
	TagSkeleton = "Skeleton"
	TagTap      = "Tap"
)

// Entity is the polymorphic contract every simulated object fulfils.
// Update advances the entity by dt seconds and reports whether it changed
// enough to warrant an incremental broadcast. Interact handles a player
// click/pickup. Summarize projects the broadcast fields as a flat map.
type Entity interface {
	Base() *Thing
	Update(dt float64) bool
	Interact(username string)
	Summarize() protocol.EntitySummary
}

// Thing carries the state shared by every entity: identity, capability tags,
// size (height derived from width via the aspect ratio), position and
// destination (top-left convention), speed, and an optional lifetime in
// seconds (zero means immortal). Entities embed Thing and override behavior.
type Thing struct {
	world *World
	self  Entity // set when the entity is added to the world

	ID     string
	Tags   []string
	Sprite string

	AspectRatio float64
	Width       float64

	X, Y         float64
	DestX, DestY float64
	Speed        float64

	CreatedAt time.Time
	Lifetime  float64
	age       float64

	dirty bool
}

func newThing(w *World, tags []string, sprite string, aspectRatio, width float64) Thing {
	return Thing{
		world:       w,
		ID:          uuid.NewString(),
		Tags:        tags,
		Sprite:      sprite,
		AspectRatio: aspectRatio,
		Width:       width,
		CreatedAt:   time.Now(),
	}
}

func (t *Thing) Base() *Thing { return t }

// Height is derived from the width so sprites keep their aspect ratio.
func (t *Thing) Height() float64 {
	if t.AspectRatio == 0 {
		return t.Width
	}
	return t.Width / t.AspectRatio
}

// HasTags reports whether every requested tag appears in the entity's tag
// set. Containment ignores order.
func (t *Thing) HasTags(tags ...string) bool {
	for _, want := range tags {
		found := false
		for _, have := range t.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (t *Thing) clampX(x float64) float64 {
	return geom.Clamp(x, 0, t.world.tune.WorldWidth-t.Width)
}

func (t *Thing) clampY(y float64) float64 {
	return geom.Clamp(y, 0, t.world.tune.WorldHeight-t.Height())
}

// moveToward advances the position toward the destination by speed*dt,
// snapping on overshoot and clamping to the tank bounds.
func (t *Thing) moveToward(dt float64) {
	nx, ny := geom.StepToward(t.X, t.Y, t.DestX, t.DestY, t.Speed, dt)
	t.X = t.clampX(nx)
	t.Y = t.clampY(ny)
}

// setDestination points the entity at another entity's position.
func (t *Thing) setDestination(target *Thing, speed float64) {
	t.DestX = t.clampX(target.X)
	t.DestY = t.clampY(target.Y)
	t.Speed = speed
	t.dirty = true
}

// fleeDestination picks a point `distance` away from the threat along the
// reciprocal bearing.
func (t *Thing) fleeDestination(threat *Thing, distance, speed float64) {
	away := geom.Direction(threat.X, threat.Y, t.X, t.Y)
	t.DestX = t.clampX(t.X + distance*math.Cos(away))
	t.DestY = t.clampY(t.Y + distance*math.Sin(away))
	t.Speed = speed
	t.dirty = true
}

// advanceAge accumulates lifetime and removes the entity once it expires.
// Reports whether the entity was removed.
func (t *Thing) advanceAge(dt float64) bool {
	t.age += dt
	if t.Lifetime > 0 && t.age > t.Lifetime {
		t.removeSelf()
		return true
	}
	return false
}

func (t *Thing) removeSelf() {
	if t.self != nil {
		t.world.RemoveObject(t.self)
	}
}

// stillPresent reports whether the entity with the given id is in the world.
func (t *Thing) stillPresent(id string) (Entity, bool) {
	if id == "" {
		return nil, false
	}
	e, ok := t.world.entities[id]
	return e, ok
}

func (t *Thing) collides(o *Thing) bool {
	return geom.Overlaps(t.X, t.Y, t.Width, t.Height(), o.X, o.Y, o.Width, o.Height())
}

// randomPoint picks a spot inside the tank with a margin of the entity's own
// size so the sprite stays visible.
func (t *Thing) randomPoint() (float64, float64) {
	w := t.world
	x := w.rng.Float64()*(w.tune.WorldWidth-2*t.Width) + t.Width
	y := w.rng.Float64()*(w.tune.WorldHeight-2*t.Height()) + t.Height()
	return x, y
}

// Update is the default behavior: drift toward the destination and expire.
func (t *Thing) Update(dt float64) bool {
	t.dirty = false
	t.moveToward(dt)
	if t.advanceAge(dt) {
		return false
	}
	return t.dirty
}

// Interact is a no-op by default.
func (t *Thing) Interact(username string) {}

// summaryBase projects the fields every entity broadcasts.
func (t *Thing) summaryBase() protocol.EntitySummary {
	return protocol.EntitySummary{
		"update_time":   time.Now().UnixMilli(),
		"label":         t.ID,
		"tags":          t.Tags,
		"sprite":        t.Sprite,
		"aspect_ratio":  t.AspectRatio,
		"width":         t.Width,
		"height":        t.Height(),
		"x":             t.X,
		"y":             t.Y,
		"destination_x": t.DestX,
		"destination_y": t.DestY,
		"speed":         t.Speed,
		"time_created":  t.CreatedAt.UnixMilli(),
	}
}

func (t *Thing) Summarize() protocol.EntitySummary {
	return t.summaryBase()
}
