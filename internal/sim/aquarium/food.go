package aquarium

import "fishtank.gg/internal/protocol"

// Food is anything dropped into the tank for fish to eat. It falls straight
// to the floor and rots away after its lifetime. Username records who paid
// for the drop so fish can grow attached to their feeder.
type Food struct {
	Thing

	Nutrition float64
	Username  string
}

func newFood(w *World, subtype, sprite string, width, aspect, speed, nutrition, lifetime float64, x, y float64, username string) *Food {
	f := &Food{
		Thing:     newThing(w, []string{TagThing, TagFood, subtype}, sprite, aspect, width),
		Nutrition: nutrition,
		Username:  username,
	}
	f.Lifetime = lifetime
	f.X, f.Y = f.clampX(x), f.clampY(y)
	f.DestX = f.X
	f.DestY = w.tune.WorldHeight - f.Height()
	f.Speed = speed
	return f
}

func newFlake(w *World, x, y float64, username string) *Food {
	d := w.tune.Things
	return newFood(w, TagFlake, "things/flake", 10, 2.6833333333, 10, d.FlakeNutrition, d.FlakeLifetime, x, y, username)
}

func newPellet(w *World, x, y float64, username string) *Food {
	d := w.tune.Things
	return newFood(w, TagPellet, "things/pellet", 10, 1, 20, d.PelletNutrition, d.PelletLifetime, x, y, username)
}

func (f *Food) Summarize() protocol.EntitySummary {
	s := f.summaryBase()
	s["nutrition"] = f.Nutrition
	if f.Username != "" {
		s["username"] = f.Username
	}
	return s
}
