package aquarium

import (
	"math"

	"fishtank.gg/internal/protocol"
)

// Treasure chest states.
const (
	ChestClosed = "closed"
	ChestEmpty  = "empty"
	ChestFull   = "full"
)

// TreasureChest cycles between closed and open. When it opens it is full
// with probability FullProbability; a full chest pays out to whoever clicks
// it first. An empty open chest streams bubbles.
type TreasureChest struct {
	Thing

	State string
	Value float64

	sinceChange float64
	sinceBubble float64
}

func newTreasureChest(w *World, spec CreateSpec) *TreasureChest {
	c := &TreasureChest{
		Thing: newThing(w, []string{TagThing, TagChest}, "things/treasure_chest", 1.361328125, 174.25),
		State: ChestClosed,
	}
	c.Value = c.rollValue()
	if spec.HasPos {
		c.X, c.Y = c.clampX(spec.X), c.clampY(spec.Y)
	} else {
		// Chests sit on the floor.
		c.X = w.rng.Float64() * (w.tune.WorldWidth - c.Width)
		c.Y = w.tune.WorldHeight - c.Height()
	}
	c.DestX, c.DestY = c.X, c.Y
	return c
}

func (c *TreasureChest) rollValue() float64 {
	d := c.world.tune.Things.Chest
	v := d.ValueMin + c.world.rng.Float64()*(d.ValueMax-d.ValueMin)
	return math.Round(v*100) / 100
}

func (c *TreasureChest) Update(dt float64) bool {
	c.dirty = false
	c.advanceCycle(dt)
	c.emitBubbles(dt)
	return c.dirty
}

func (c *TreasureChest) advanceCycle(dt float64) {
	d := c.world.tune.Things.Chest
	c.sinceChange += dt
	switch c.State {
	case ChestClosed:
		if c.sinceChange > d.ClosedSecs {
			c.State = ChestEmpty
			if c.world.rng.Float64() < d.FullProbability {
				c.State = ChestFull
			}
			c.Value = c.rollValue()
			c.sinceChange = 0
			c.dirty = true
		}
	case ChestEmpty, ChestFull:
		if c.sinceChange > d.OpenSecs {
			c.State = ChestClosed
			c.sinceChange = 0
			c.dirty = true
		}
	default:
		c.world.log.Printf("treasure chest %s: unknown state %q, closing", c.ID, c.State)
		c.State = ChestClosed
		c.sinceChange = 0
	}
}

// emitBubbles streams bubbles from the chest's upper third while it sits
// open and empty.
func (c *TreasureChest) emitBubbles(dt float64) {
	if c.State != ChestEmpty {
		return
	}
	c.sinceBubble += dt
	if c.sinceBubble <= c.world.tune.Things.Chest.BubbleEverySecs {
		return
	}
	c.sinceBubble = 0
	bx := c.X + c.Width/2 + (c.world.rng.Float64()-0.5)*c.Width/3
	by := c.Y - c.world.rng.Float64()*c.Height()/3
	c.world.AddObject(newBubble(c.world, bx, by))
}

// Interact pays out a full chest to the clicking user and leaves it empty.
func (c *TreasureChest) Interact(username string) {
	if c.State != ChestFull || username == "" {
		return
	}
	c.State = ChestEmpty
	c.world.creditUser(username, c.Value)
	// Interact runs between updates; broadcast the state flip directly.
	c.world.pushUpdate(c.Summarize())
}

func (c *TreasureChest) Summarize() protocol.EntitySummary {
	s := c.summaryBase()
	s["state"] = c.State
	s["value"] = c.Value
	return s
}
