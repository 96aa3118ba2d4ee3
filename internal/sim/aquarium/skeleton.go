package aquarium

// Skeleton is what a dead fish leaves behind: it copies the fish's size and
// position, sinks to the floor, and crumbles away after a while.
type Skeleton struct {
	Thing
}

func newSkeleton(w *World, fish *Fish) *Skeleton {
	return newSkeletonAt(w, fish.X, fish.Y, fish.Width)
}

func newSkeletonAt(w *World, x, y, width float64) *Skeleton {
	s := &Skeleton{
		Thing: newThing(w, []string{TagThing, TagSkeleton}, "things/skeleton", 2.4903225806, width),
	}
	s.Lifetime = w.tune.Things.SkeletonLifetime
	s.X, s.Y = x, y
	s.DestX = s.X
	s.DestY = w.tune.WorldHeight - s.Height()
	s.Speed = 20
	return s
}
