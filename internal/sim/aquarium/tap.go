package aquarium

import "fishtank.gg/internal/protocol"

// Tap marks a spot where a player knocked on the glass. It does nothing but
// exist for a few seconds; fish decide whether it is an invitation to play
// or something to flee from.
type Tap struct {
	Thing

	Username string
}

func newTap(w *World, x, y float64, username string) *Tap {
	t := &Tap{
		Thing:    newThing(w, []string{TagThing, TagTap}, "things/tap", 1, 40),
		Username: username,
	}
	t.Lifetime = w.tune.Things.TapLifetime
	t.X, t.Y = t.clampX(x), t.clampY(y)
	t.DestX, t.DestY = t.X, t.Y
	return t
}

func (t *Tap) Update(dt float64) bool {
	t.dirty = false
	t.advanceAge(dt)
	return false
}

func (t *Tap) Summarize() protocol.EntitySummary {
	s := t.summaryBase()
	s["username"] = t.Username
	return s
}
