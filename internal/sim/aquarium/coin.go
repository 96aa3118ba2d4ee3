package aquarium

import "fishtank.gg/internal/protocol"

// Coin drops from a happy fish, sinks to the floor, and vanishes if nobody
// picks it up in time.
type Coin struct {
	Thing

	Value float64
}

func newCoin(w *World, x, y float64) *Coin {
	c := &Coin{
		Thing: newThing(w, []string{TagThing, TagCoin}, "things/coin", 1, 20),
		Value: w.tune.Things.CoinValue,
	}
	c.Lifetime = w.tune.Things.CoinLifetime
	c.X, c.Y = c.clampX(x), c.clampY(y)
	c.DestX = c.X
	c.DestY = w.tune.WorldHeight - c.Height()
	c.Speed = 100
	return c
}

// Interact credits the collecting user and removes the coin.
func (c *Coin) Interact(username string) {
	if username == "" {
		return
	}
	c.world.creditUser(username, c.Value)
	c.removeSelf()
}

func (c *Coin) Summarize() protocol.EntitySummary {
	s := c.summaryBase()
	s["value"] = c.Value
	return s
}
