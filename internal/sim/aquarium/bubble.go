package aquarium

// Bubble rises to a point just below the surface and pops. Bigger bubbles
// rise faster.
type Bubble struct {
	Thing
}

func newBubble(w *World, x, y float64) *Bubble {
	b := &Bubble{
		Thing: newThing(w, []string{TagThing, TagBubble}, "things/bubble", 1, float64(20+w.rng.Intn(21))),
	}
	b.X, b.Y = b.clampX(x), b.clampY(y)
	b.DestX = b.X
	b.DestY = b.Height() + float64(10+w.rng.Intn(41))
	b.Speed = b.Width / 2
	return b
}

func (b *Bubble) Update(dt float64) bool {
	b.dirty = false
	b.moveToward(dt)
	if b.Y <= b.DestY {
		b.removeSelf()
		return false
	}
	return b.dirty
}
